package kafka

import (
	"Agora/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	dirtyConsumer sarama.ConsumerGroup
	dirtyHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 未启用消费者时返回 nil
func NewConsumerManager(cfg *config.Config, mark DirtyMarker) (*ConsumerManager, error) {
	if len(cfg.Kafka.Brokers) == 0 || !cfg.Kafka.Consumer.Enable {
		return nil, nil
	}

	saramaCfg := newSaramaConfig(cfg.Kafka)

	dirtyConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.Consumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		dirtyConsumer: dirtyConsumer,
		dirtyHandler:  NewDirtyHandler(mark),
	}, nil
}

// Start 启动所有消费者，阻塞至 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	if m == nil {
		<-ctx.Done()
		return nil
	}

	go func() {
		topic := cfg.Kafka.Producer.Topic
		log.Info("Engagement dirty consumer started", "topic", topic)
		for {
			if err := m.dirtyConsumer.Consume(ctx, []string{topic}, m.dirtyHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.dirtyConsumer.Close(); err != nil {
		log.Error("Failed to close dirty consumer", "err", err)
	}

	return nil
}
