package orchestrator

import (
	"context"
	"errors"
	"strings"

	"reelsmith/config"
	sharedKafka "reelsmith/shared/kafka"
	"reelsmith/types"

	"go.uber.org/zap"
)

// IntakeConfig configures the Kafka render request intake and the topic
// run events go to
type IntakeConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	ResultTopic string
	FromOldest  bool
}

// IntakeConfigFromEnv reads KAFKA_BOOTSTRAP_SERVERS, KAFKA_TOPIC_RENDER_REQUESTS,
// KAFKA_TOPIC_RENDER_RESULTS, KAFKA_CONSUMER_GROUP_ID and KAFKA_FROM_OLDEST.
// ok is false when no brokers are configured.
func IntakeConfigFromEnv() (IntakeConfig, bool) {
	brokers := config.GetEnvList("KAFKA_BOOTSTRAP_SERVERS", nil)
	return IntakeConfig{
		Brokers:     brokers,
		Topic:       config.GetEnvOrDefault("KAFKA_TOPIC_RENDER_REQUESTS", "render-requests"),
		GroupID:     config.GetEnvOrDefault("KAFKA_CONSUMER_GROUP_ID", "reelsmith"),
		ResultTopic: config.GetEnvOrDefault("KAFKA_TOPIC_RENDER_RESULTS", "render-results"),
		FromOldest:  config.GetEnvBool("KAFKA_FROM_OLDEST", false),
	}, len(brokers) > 0
}

// RequestHandler decodes render requests and runs them synchronously.
// Malformed requests are marked and skipped; failed renders are left
// unmarked.
func (s *Service) RequestHandler() *sharedKafka.TypedMessageHandler[types.RenderRequest] {
	return &sharedKafka.TypedMessageHandler[types.RenderRequest]{
		Validate: func(req *types.RenderRequest) bool {
			if strings.TrimSpace(req.Project) == "" || req.Length <= 0 {
				s.Logger.Warn("skipping invalid render request",
					zap.String("project", req.Project),
					zap.Float64("length", req.Length))
				return false
			}
			return true
		},
		Process: func(ctx context.Context, req *types.RenderRequest) error {
			_, err := s.Run(ctx, *req)
			if errors.Is(err, ErrBusy) {
				s.Logger.Info("project busy, leaving request for redelivery", zap.String("project", req.Project))
			}
			return err
		},
		AlwaysMark: true,
		Logger:     s.Logger,
	}
}

// NewIntake builds the consumer; call Start on it to begin consuming
func (s *Service) NewIntake(cfg IntakeConfig) (*sharedKafka.Consumer, error) {
	return sharedKafka.NewConsumer(sharedKafka.ConsumerConfig{
		Brokers:    cfg.Brokers,
		Topic:      cfg.Topic,
		GroupID:    cfg.GroupID,
		Handler:    s.RequestHandler(),
		FromOldest: cfg.FromOldest,
		Logger:     s.Logger,
	})
}

// NewEventProducer builds the producer for cfg.ResultTopic
func NewEventProducer(cfg IntakeConfig, logger *zap.Logger) (*sharedKafka.Producer, error) {
	return sharedKafka.NewProducer(sharedKafka.ProducerConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.ResultTopic,
		Logger:  logger,
	})
}
