// Package kafka moves JSON messages through Kafka with sarama: a consumer
// group feeding a typed handler and a synchronous producer.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// MessageHandler processes one message value. A message is committed only
// when shouldMark is true; an error leaves it for redelivery.
type MessageHandler interface {
	HandleMessage(ctx context.Context, message []byte) (shouldMark bool, err error)
}

// Consumer feeds a topic to a MessageHandler, one message at a time per claim
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	topic   string
	groupID string
	logger  *zap.Logger
}

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Handler MessageHandler
	// FromOldest replays the topic for a new group instead of starting at the end
	FromOldest bool
	Logger     *zap.Logger
}

func newSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.ClientID = "reelsmith"
	return cfg
}

func NewConsumer(config ConsumerConfig) (*Consumer, error) {
	if config.Handler == nil {
		return nil, errors.New("kafka consumer needs a handler")
	}
	cfg := newSaramaConfig()
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	if config.FromOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("create consumer group %s: %w", config.GroupID, err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		group:   group,
		handler: config.Handler,
		topic:   config.Topic,
		groupID: config.GroupID,
		logger:  logger.With(zap.String("topic", config.Topic), zap.String("group", config.GroupID)),
	}, nil
}

// Start joins the group in the background and returns once the first
// session is set up, or with ctx's error if ctx ends first. Consumption stops
// when ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	ready := make(chan struct{})
	go func() {
		signal := ready
		for {
			h := &claimHandler{consumer: c, ready: signal}
			if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) || errors.Is(err, context.Canceled) {
					return
				}
				c.logger.Error("kafka consume", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
			// only the first session signals Start
			signal = nil
		}
	}()

	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.logger.Info("kafka consumer started")

	go func() {
		for err := range c.group.Errors() {
			c.logger.Error("kafka consumer error", zap.Error(err))
		}
	}()
	return nil
}

func (c *Consumer) Close() error {
	c.logger.Info("closing kafka consumer")
	return c.group.Close()
}

// claimHandler implements sarama.ConsumerGroupHandler
type claimHandler struct {
	consumer *Consumer
	ready    chan struct{}
}

func (h *claimHandler) Setup(sarama.ConsumerGroupSession) error {
	if h.ready != nil {
		close(h.ready)
	}
	return nil
}

func (h *claimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *claimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			log := h.consumer.logger.With(
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset))
			log.Debug("received message", zap.ByteString("key", msg.Key))

			mark, err := h.consumer.handler.HandleMessage(session.Context(), msg.Value)
			if err != nil {
				log.Error("failed to handle message", zap.Error(err))
			}
			if mark {
				session.MarkMessage(msg, "")
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// TypedMessageHandler decodes JSON into T before validating and processing it
type TypedMessageHandler[T any] struct {
	// Validate rejects messages that should never be processed
	Validate func(msg *T) bool
	Process  func(ctx context.Context, msg *T) error
	// AlwaysMark commits undecodable and rejected messages so they are not redelivered
	AlwaysMark bool
	Logger     *zap.Logger
}

func (h *TypedMessageHandler[T]) HandleMessage(ctx context.Context, message []byte) (bool, error) {
	var msg T
	if err := json.Unmarshal(message, &msg); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("failed to unmarshal message", zap.Error(err))
		}
		return h.AlwaysMark, nil
	}
	if h.Validate != nil && !h.Validate(&msg) {
		return h.AlwaysMark, nil
	}
	if err := h.Process(ctx, &msg); err != nil {
		return false, err
	}
	return true, nil
}
