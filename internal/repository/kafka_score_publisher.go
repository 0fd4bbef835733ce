package repository

import (
	"context"

	"ShopScore/internal/domain/models"
	"ShopScore/internal/domain/repository"
)

// eventProducer is the subset of pkg/kafka.Producer the publisher needs.
type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaScorePublisher emits ScoreEvents keyed by product so a product's
// events stay ordered on one partition.
type KafkaScorePublisher struct {
	producer eventProducer
	topic    string
}

// NewKafkaScorePublisher creates Kafka publisher.
func NewKafkaScorePublisher(producer eventProducer, topic string) *KafkaScorePublisher {
	return &KafkaScorePublisher{producer: producer, topic: topic}
}

var _ repository.Publisher = (*KafkaScorePublisher)(nil)

func (p *KafkaScorePublisher) PublishScore(ctx context.Context, ev models.ScoreEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Product), ev)
}

func (p *KafkaScorePublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishScore(context.Context, models.ScoreEvent) error { return nil }
func (NopPublisher) Close() error { return nil }
