package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"order_service/internal/models"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

type OrderProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(brokers []string, topic string) (*OrderProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Version = sarama.V2_1_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewProducerWithClient(producer, topic), nil
}

func NewProducerWithClient(producer sarama.SyncProducer, topic string) *OrderProducer {
	return &OrderProducer{producer: producer, topic: topic}
}

// Publish sends the event keyed by order number, so events of one order stay
// ordered within a partition.
func (p *OrderProducer) Publish(ctx context.Context, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.OrderNumber),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish %s for %s: %w", event.Type, event.OrderNumber, err)
	}

	log.WithFields(log.Fields{
		"event":        event.Type,
		"order_number": event.OrderNumber,
		"partition":    partition,
		"offset":       offset,
	}).Debug("Order event published")
	return nil
}

func (p *OrderProducer) Close() error {
	return p.producer.Close()
}
