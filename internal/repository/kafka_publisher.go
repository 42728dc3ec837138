package repository

import (
	"context"

	"skyline/internal/domain/models"
	"skyline/internal/domain/repository"
	pkgkafka "skyline/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Plays are keyed by gid so
// one game's plays stay ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, play *models.Play) error {
	return p.producer.Publish(ctx, p.topic, []byte(play.GID), play)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, plays []*models.Play) error {
	if len(plays) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(plays))
	for _, play := range plays {
		if play == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(play.GID), Value: play})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
