package schema

const CatalogEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "marketplace.catalog",
	"name": "catalog_event",
	"fields": [
		{"name": "event_type", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "review_id", "type": "string", "default": ""},
		{"name": "occurred_at", "type": "long"}
	]
}`

// CatalogEventV1 mirrors the registered Avro schema. ReviewID is empty
// for product-level events.
type CatalogEventV1 struct {
	EventType  string `avro:"event_type"`
	ProductID  string `avro:"product_id"`
	ReviewID   string `avro:"review_id"`
	OccurredAt int64  `avro:"occurred_at"`
}
