package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"medcare/internal/ports/events"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const DefaultTopic = "occurrence-events"

type Config struct {
	Brokers []string
	Topic   string
	Linger  time.Duration
}

// producer es el subconjunto de *kgo.Client que usa el publisher.
type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

// Publisher produce eventos de ocurrencias en forma asíncrona. La key es el
// detail id, así los eventos de una misma toma quedan en orden en la partición.
type Publisher struct {
	client  producer
	topic   string
	log     *zap.Logger
	onError func(error)
}

func NewPublisher(cfg Config, log *zap.Logger, onError func(error)) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	linger := cfg.Linger
	if linger <= 0 {
		linger = 20 * time.Millisecond
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(topicOrDefault(cfg.Topic)),
		kgo.ProducerLinger(linger),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	return newPublisher(client, cfg.Topic, log, onError), nil
}

func newPublisher(client producer, topic string, log *zap.Logger, onError func(error)) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{client: client, topic: topicOrDefault(topic), log: log, onError: onError}
}

func (p *Publisher) Publish(ctx context.Context, e events.OccurrenceEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(e.DetailID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}
	injectTrace(ctx, rec)

	// el request no espera al broker: el contexto del produce no es el del request
	p.client.Produce(context.WithoutCancel(ctx), rec, func(r *kgo.Record, err error) {
		if err != nil {
			p.log.Error("failed to produce occurrence event",
				zap.String("topic", r.Topic),
				zap.String("type", string(e.Type)),
				zap.String("detail_id", e.DetailID),
				zap.Error(err),
			)
			if p.onError != nil {
				p.onError(err)
			}
			return
		}
		p.log.Debug("occurrence event produced",
			zap.String("topic", r.Topic),
			zap.Int32("partition", r.Partition),
			zap.Int64("offset", r.Offset),
		)
	})
	return nil
}

func (p *Publisher) Ping(ctx context.Context) error { return p.client.Ping(ctx) }

// Close espera los records pendientes antes de cerrar el cliente.
func (p *Publisher) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}

type headerCarrier struct{ rec *kgo.Record }

func (c headerCarrier) Get(key string) string {
	for _, h := range c.rec.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	c.rec.Headers = append(c.rec.Headers, kgo.RecordHeader{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	out := make([]string, 0, len(c.rec.Headers))
	for _, h := range c.rec.Headers {
		out = append(out, h.Key)
	}
	return out
}

func injectTrace(ctx context.Context, rec *kgo.Record) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.TextMapCarrier(headerCarrier{rec: rec}))
}

func topicOrDefault(t string) string {
	if t == "" {
		return DefaultTopic
	}
	return t
}
