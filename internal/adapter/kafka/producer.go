package kafka

import (
	"context"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/niksmo/marketplace/internal/core/domain"
	"github.com/niksmo/marketplace/internal/core/port"
	"github.com/niksmo/marketplace/pkg/schema"
)

var _ port.CatalogEventsProducer = (*CatalogEventsProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(ctx context.Context, rs ...*kgo.Record) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A CatalogEventsProducer publishes [domain.CatalogEvent] records,
// keyed by product id so one product's events stay ordered.
type CatalogEventsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewCatalogEventsProducer(
	opts ...ProducerOpt,
) (CatalogEventsProducer, error) {
	const op = "NewCatalogEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return CatalogEventsProducer{}, opErr(err, op)
		}
	}

	opPrefix := "CatalogEventsProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return CatalogEventsProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p CatalogEventsProducer) Close() {
	p.producer.close()
}

func (p CatalogEventsProducer) ProduceEvent(
	ctx context.Context, v domain.CatalogEvent,
) error {
	const op = "ProduceEvent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(v)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, &r); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

func (p CatalogEventsProducer) createRecord(
	v domain.CatalogEvent,
) (kgo.Record, error) {
	const op = "createRecord"

	s := p.toSchema(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return kgo.Record{}, opErr(err, p.opPrefix, op)
	}
	msgKey := []byte(s.ProductID)
	return kgo.Record{Key: msgKey, Value: b}, nil
}

func (CatalogEventsProducer) toSchema(
	v domain.CatalogEvent,
) (s schema.CatalogEventV1) {
	s.EventType = v.Type
	s.ProductID = v.ProductID
	s.ReviewID = v.ReviewID
	s.OccurredAt = v.OccurredAt.UnixMilli()
	return
}
