package service

import (
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/kafka"
	"Agora/internal/pkg/redis"
	"context"
	log "log/slog"
	"strconv"
)

// EngagementNotifier 事务提交后的收尾：清理计数缓存、发布事件、标记待校准
type EngagementNotifier interface {
	AfterCommit(ctx context.Context, events ...*kafka.EngagementEvent)
	InvalidateStats(ctx context.Context, postID uint64)
}

type engagementNotifierImpl struct {
	publisher  kafka.EventPublisher
	markDirty  kafka.DirtyMarker
	markInline bool
}

// NewEngagementNotifier markInline 为 true 时由本进程直接标记 post:dirty，
// 否则交给事件消费者，仅在发布失败时兜底
func NewEngagementNotifier(publisher kafka.EventPublisher, markDirty kafka.DirtyMarker, markInline bool) EngagementNotifier {
	return &engagementNotifierImpl{
		publisher:  publisher,
		markDirty:  markDirty,
		markInline: markInline,
	}
}

func (s *engagementNotifierImpl) AfterCommit(ctx context.Context, events ...*kafka.EngagementEvent) {
	invalidated := make(map[uint64]struct{}, len(events))
	for _, event := range events {
		if _, ok := invalidated[event.PostID]; !ok {
			s.InvalidateStats(ctx, event.PostID)
			invalidated[event.PostID] = struct{}{}
		}

		markInline := s.markInline
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.WarnContext(ctx, "publish engagement event failed", "type", event.Type, "postID", event.PostID, "err", err)
			markInline = true
		}

		if markInline && event.Delta != 0 {
			if err := s.markDirty(ctx, event.PostID); err != nil {
				log.ErrorContext(ctx, "mark post dirty failed", "postID", event.PostID, "err", err)
			}
		}
	}
}

func (s *engagementNotifierImpl) InvalidateStats(ctx context.Context, postID uint64) {
	if err := redis.DeleteKey(ctx, postStatsKey(postID)); err != nil {
		log.WarnContext(ctx, "invalidate post stats cache failed", "postID", postID, "err", err)
	}
}

func postStatsKey(postID uint64) string {
	return consts.PostStatsKey + strconv.FormatUint(postID, 10)
}
