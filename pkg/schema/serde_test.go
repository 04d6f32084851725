package schema_test

import (
	"context"
	"testing"

	"github.com/niksmo/marketplace/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSchemaIdentifier struct {
	mock.Mock
}

func (c *MockSchemaIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (id int, err error) {
	args := c.Called(ctx, subject, avroSchemaText)
	return args.Int(0), args.Error(1)
}

func TestSerdeCatalogEventV1(t *testing.T) {

	t.Run("NoOpts", func(t *testing.T) {
		_, err := schema.NewSerdeCatalogEventV1(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("OneOpt", func(t *testing.T) {
		_, err := schema.NewSerdeCatalogEventV1(
			t.Context(),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("IdentifierAndSubjectOpts", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaID := 1
		subject := "testTopic-value"

		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.CatalogEventSchemaTextV1,
		).Return(schemaID, nil)

		_, err := schema.NewSerdeCatalogEventV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)
	})

	t.Run("EmptySubject", func(t *testing.T) {
		_, err := schema.NewSerdeCatalogEventV1(
			t.Context(),
			schema.SubjectOpt(""),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaID := 1
		subject := "testTopic-value"

		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.CatalogEventSchemaTextV1,
		).Return(schemaID, nil)

		serde, err := schema.NewSerdeCatalogEventV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)

		eventValue1 := schema.CatalogEventV1{
			EventType:  "product.created",
			ProductID:  "testProductID",
			ReviewID:   "",
			OccurredAt: 1735689600000,
		}

		encodedData, err := serde.Encode(eventValue1)
		require.NoError(t, err)

		var eventValue2 schema.CatalogEventV1
		err = serde.Decode(encodedData, &eventValue2)
		require.NoError(t, err)

		assert.Equal(t, eventValue1.EventType, eventValue2.EventType)
		assert.Equal(t, eventValue1.ProductID, eventValue2.ProductID)
		assert.Equal(t, eventValue1.ReviewID, eventValue2.ReviewID)
		assert.Equal(t, eventValue1.OccurredAt, eventValue2.OccurredAt)
	})

}
