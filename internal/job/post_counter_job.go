package job

import (
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/logger"
	"Agora/internal/pkg/redis"
	"Agora/internal/service"
	"context"
	log "log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const reconcileLockTTL = 5 * time.Minute

// PostCounterJob 以明细表为准校准发生过变更的帖子计数
type PostCounterJob struct {
	actionSvc service.PostActionService
}

func NewPostCounterJob(actionSvc service.PostActionService) *PostCounterJob {
	return &PostCounterJob{
		actionSvc: actionSvc,
	}
}

func (s *PostCounterJob) Run() {
	traceID := "job-counter-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)
	s.RunOnce(ctx)
}

// RunOnce 多实例部署时通过分布式锁保证同一时刻只有一个实例在校准
func (s *PostCounterJob) RunOnce(ctx context.Context) {
	lockValue := uuid.NewString()
	locked, err := redis.TryLock(ctx, consts.PostReconcileLock, lockValue, reconcileLockTTL, 1)
	if err != nil {
		log.ErrorContext(ctx, "acquire reconcile lock error", "err", err)
		return
	}
	if !locked {
		log.InfoContext(ctx, "reconcile already running on another instance")
		return
	}
	defer redis.UnLock(ctx, consts.PostReconcileLock, lockValue)

	// 上一轮未处理完的集合优先处理
	pending, err := redis.Exists(ctx, consts.PostDirtyProcessingKey)
	if err != nil {
		log.ErrorContext(ctx, "check processing set error", "err", err)
		return
	}
	if !pending {
		err = redis.Rename(ctx, consts.PostDirtyKey, consts.PostDirtyProcessingKey)
		if err != nil {
			if !strings.Contains(err.Error(), "no such key") {
				log.ErrorContext(ctx, "rename post dirty set error", "err", err)
			}
			return
		}
	}

	tempSet, err := redis.GetSet(ctx, consts.PostDirtyProcessingKey)
	if err != nil {
		log.ErrorContext(ctx, "get post dirty set error", "err", err)
		return
	}

	log.InfoContext(ctx, "start reconciling post counters", "count", len(tempSet))

	successCount, driftCount, failed := 0, 0, 0
	for _, member := range tempSet {
		postID, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			log.WarnContext(ctx, "skip invalid post id in dirty set", "member", member)
			continue
		}

		drift, err := s.actionSvc.ReconcilePostCounters(ctx, postID)
		if err != nil {
			log.ErrorContext(ctx, "reconcile post counters error", "postID", postID, "err", err)
			failed++
			// 放回待处理集合，下一轮重试
			_ = redis.AddToSet(ctx, consts.PostDirtyKey, postID)
			continue
		}
		if drift {
			driftCount++
		}
		successCount++
	}

	err = redis.DeleteKey(ctx, consts.PostDirtyProcessingKey)
	if err != nil {
		log.ErrorContext(ctx, "delete post processing set error", "err", err)
	}

	log.InfoContext(ctx, "reconcile post counters done",
		"total_count", len(tempSet),
		"success_count", successCount,
		"drift_count", driftCount,
		"failed_count", failed)
}
