package kafka

import (
	"Agora/internal/api/config"
	"Agora/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// EventPublisher 发布互动事件
type EventPublisher interface {
	Publish(ctx context.Context, event *EngagementEvent) error
	// Enabled 为 false 时事件不会到达消费者，调用方需自行补偿
	Enabled() bool
	Close() error
}

type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewEventPublisher 未配置 broker 时返回 NopPublisher
func NewEventPublisher(cfg config.KafkaConfig) (EventPublisher, error) {
	if len(cfg.Brokers) == 0 {
		log.Warn("Kafka brokers not configured, engagement events disabled")
		return NopPublisher{}, nil
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewProducer(producer, cfg.Producer.Topic), nil
}

func NewProducer(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{
		producer: producer,
		topic:    topic,
	}
}

func (s *Producer) Publish(ctx context.Context, event *EngagementEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(event.PostID, 10)),
		Value: sarama.ByteEncoder(payload),
	}
	if traceID := logger.TraceID(ctx); traceID != "" {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{
			Key:   []byte(logger.TraceIDKey),
			Value: []byte(traceID),
		})
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "engagement event published",
		"type", event.Type, "postID", event.PostID, "partition", partition, "offset", offset)
	return nil
}

func (s *Producer) Enabled() bool {
	return true
}

func (s *Producer) Close() error {
	return s.producer.Close()
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *EngagementEvent) error {
	return nil
}

func (NopPublisher) Enabled() bool {
	return false
}

func (NopPublisher) Close() error {
	return nil
}
