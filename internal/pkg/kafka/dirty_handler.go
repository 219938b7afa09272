package kafka

import (
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/redis"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// DirtyMarker 把发生计数变更的帖子放入待校准集合
type DirtyMarker func(ctx context.Context, postID uint64) error

// MarkPostDirty 默认实现，写入 Redis 集合 post:dirty
func MarkPostDirty(ctx context.Context, postID uint64) error {
	return redis.AddToSet(ctx, consts.PostDirtyKey, postID)
}

type DirtyHandler struct {
	mark DirtyMarker
}

func NewDirtyHandler(mark DirtyMarker) *DirtyHandler {
	return &DirtyHandler{mark: mark}
}

func (s *DirtyHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("engagement dirty consumer setup")
	return nil
}

func (s *DirtyHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("engagement dirty consumer cleanup")
	return nil
}

func (s *DirtyHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-engagement consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-engagement process batch error", "err", err)
		return err
	}
	return nil
}

func (s *DirtyHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ctx, event, err := ToEngagementEvent(ctx, msg)
	if err != nil {
		// 无法解析的消息直接跳过，避免无限重试
		log.WarnContext(ctx, "skip malformed engagement event", "offset", msg.Offset, "err", err)
		return nil
	}

	if event.Delta == 0 {
		return nil
	}

	if err = s.mark(ctx, event.PostID); err != nil {
		return err
	}
	log.DebugContext(ctx, "post marked dirty", "postID", event.PostID, "type", event.Type)
	return nil
}
