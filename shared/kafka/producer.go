package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Producer publishes JSON values to one topic and waits for acks
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

type ProducerConfig struct {
	Brokers []string
	Topic   string
	Logger  *zap.Logger
}

func NewProducer(config ProducerConfig) (*Producer, error) {
	cfg := newSaramaConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3

	p, err := sarama.NewSyncProducer(config.Brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}
	return newProducer(p, config.Topic, config.Logger), nil
}

func newProducer(p sarama.SyncProducer, topic string, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{producer: p, topic: topic, logger: logger.With(zap.String("topic", topic))}
}

// Publish encodes v as JSON under key
func (p *Producer) Publish(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(body),
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", p.topic, err)
	}
	p.logger.Debug("message published",
		zap.String("key", key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
