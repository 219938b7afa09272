package service

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/kafka"
	"Agora/internal/pkg/redis"
	"Agora/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

const DefaultStatsCacheTTL = 10 * time.Minute

type PostActionService interface {
	LikePost(ctx context.Context, userID, postID uint64) error
	CancelLikePost(ctx context.Context, userID, postID uint64) error
	IsLiked(ctx context.Context, userID, postID uint64) (bool, error)
	GetLikedPostIDs(ctx context.Context, userID uint64, page, pageSize int) ([]uint64, error)

	TrackPostView(ctx context.Context, userID, postID uint64, now time.Time) (bool, error)

	GetPostStats(ctx context.Context, postID uint64) (*dto.PostStatsDTO, error)
	GetActionState(ctx context.Context, userID, postID uint64) (*dto.PostActionStateDTO, error)
	ReconcilePostCounters(ctx context.Context, postID uint64) (bool, error)
}

type postActionServiceImpl struct {
	actionRepo  repository.PostActionRepo
	postRepo    repository.PostRepo
	counterRepo repository.PostCounterRepo
	locker      repository.EngagementLocker
	notifier    EngagementNotifier
	policy      ViewPolicy
	cacheTTL    time.Duration
}

func NewPostActionService(
	actionRepo repository.PostActionRepo,
	postRepo repository.PostRepo,
	counterRepo repository.PostCounterRepo,
	locker repository.EngagementLocker,
	notifier EngagementNotifier,
	policy ViewPolicy,
	cacheTTL time.Duration,
) PostActionService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultStatsCacheTTL
	}
	return &postActionServiceImpl{
		actionRepo:  actionRepo,
		postRepo:    postRepo,
		counterRepo: counterRepo,
		locker:      locker,
		notifier:    notifier,
		policy:      policy,
		cacheTTL:    cacheTTL,
	}
}

// LikePost 幂等点赞：已点赞直接成功，并发重复插入按成功处理
func (s *postActionServiceImpl) LikePost(ctx context.Context, userID, postID uint64) error {
	if userID == 0 {
		return ErrUnauthenticated
	}

	liked, err := s.actionRepo.CheckLikeExists(ctx, userID, postID)
	if err != nil {
		return err
	}
	if liked {
		return nil
	}

	err = s.locker.WithExclusivePost(ctx, postID, func(ctx context.Context, _ *model.Post) error {
		like := &model.Like{UserID: userID, PostID: postID, CreatedAt: time.Now()}
		if err := s.actionRepo.CreateLike(ctx, like); err != nil {
			if repository.IsDuplicateKey(err) {
				return errConcurrencyConflict
			}
			return err
		}
		return s.counterRepo.IncrLikes(ctx, postID)
	})
	switch {
	case errors.Is(err, errConcurrencyConflict):
		log.InfoContext(ctx, "concurrent like absorbed", "userID", userID, "postID", postID)
		return nil
	case repository.IsNotFound(err):
		return ErrPostNotFound
	case err != nil:
		return err
	}

	s.notifier.AfterCommit(ctx, &kafka.EngagementEvent{
		Type:       kafka.EventLikeAdded,
		PostID:     postID,
		UserID:     userID,
		Delta:      1,
		OccurredAt: time.Now(),
	})
	return nil
}

// CancelLikePost 幂等取消点赞：只有真正删除了点赞记录才递减计数
func (s *postActionServiceImpl) CancelLikePost(ctx context.Context, userID, postID uint64) error {
	if userID == 0 {
		return ErrUnauthenticated
	}

	liked, err := s.actionRepo.CheckLikeExists(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !liked {
		return nil
	}

	var removed int64
	err = s.locker.WithExclusivePost(ctx, postID, func(ctx context.Context, _ *model.Post) error {
		n, err := s.actionRepo.DeleteLike(ctx, userID, postID)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		removed = n
		return s.counterRepo.DecrLikes(ctx, postID)
	})
	if repository.IsNotFound(err) {
		return ErrPostNotFound
	}
	if err != nil {
		return err
	}

	if removed > 0 {
		s.notifier.AfterCommit(ctx, &kafka.EngagementEvent{
			Type:       kafka.EventLikeRemoved,
			PostID:     postID,
			UserID:     userID,
			Delta:      -1,
			OccurredAt: time.Now(),
		})
	}
	return nil
}

func (s *postActionServiceImpl) IsLiked(ctx context.Context, userID, postID uint64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.actionRepo.CheckLikeExists(ctx, userID, postID)
}

func (s *postActionServiceImpl) GetLikedPostIDs(ctx context.Context, userID uint64, page, pageSize int) ([]uint64, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	page, pageSize = normalizePage(page, pageSize)
	return s.actionRepo.GetLikedPostIDs(ctx, userID, pageSize, (page-1)*pageSize)
}

// TrackPostView 记录浏览，返回本次是否计入浏览数
func (s *postActionServiceImpl) TrackPostView(ctx context.Context, userID, postID uint64, now time.Time) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	counted := false
	err := s.locker.WithExclusiveView(ctx, userID, postID, func(ctx context.Context, view *model.PostView) error {
		// 先确认帖子存在，已删除的帖子即使在窗口内也返回不存在
		if _, err := s.postRepo.GetPost(ctx, postID); err != nil {
			return err
		}

		if view != nil && !s.policy.Countable(view.LastViewedAt, now) {
			return nil
		}

		if view == nil {
			err := s.actionRepo.CreateView(ctx, &model.PostView{
				UserID:       userID,
				PostID:       postID,
				ViewCount:    1,
				LastViewedAt: now,
			})
			if repository.IsDuplicateKey(err) || repository.IsLockConflict(err) {
				return errConcurrencyConflict
			}
			if err != nil {
				return err
			}
		} else if err := s.actionRepo.TouchView(ctx, userID, postID, now); err != nil {
			return err
		}

		if err := s.counterRepo.IncrViews(ctx, postID); err != nil {
			return err
		}
		counted = true
		return nil
	})
	switch {
	case errors.Is(err, errConcurrencyConflict), repository.IsLockConflict(err):
		log.InfoContext(ctx, "concurrent first view absorbed", "userID", userID, "postID", postID)
		return false, nil
	case repository.IsNotFound(err):
		return false, ErrPostNotFound
	case err != nil:
		return false, err
	}

	if counted {
		s.notifier.AfterCommit(ctx, &kafka.EngagementEvent{
			Type:       kafka.EventViewCounted,
			PostID:     postID,
			UserID:     userID,
			Delta:      1,
			OccurredAt: now,
		})
	}
	return counted, nil
}

// GetPostStats 计数读路径，Redis 旁路缓存
func (s *postActionServiceImpl) GetPostStats(ctx context.Context, postID uint64) (*dto.PostStatsDTO, error) {
	key := postStatsKey(postID)

	cached, err := redis.GetValue(ctx, key)
	if err == nil && cached != "" {
		var stats dto.PostStatsDTO
		if err = json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
		log.WarnContext(ctx, "broken post stats cache", "postID", postID, "err", err)
	}

	counters, err := s.counterRepo.GetCounters(ctx, postID)
	if repository.IsNotFound(err) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	stats := &dto.PostStatsDTO{
		PostID:        postID,
		ViewCount:     counters.ViewCount,
		LikesCount:    counters.LikesCount,
		CommentsCount: counters.CommentsCount,
	}
	if data, err := json.Marshal(stats); err == nil {
		_ = redis.SetWithExpiration(ctx, key, data, s.cacheTTL)
	}
	return stats, nil
}

func (s *postActionServiceImpl) GetActionState(ctx context.Context, userID, postID uint64) (*dto.PostActionStateDTO, error) {
	var (
		stats *dto.PostStatsDTO
		liked bool
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.GetPostStats(gCtx, postID)
		return err
	})
	g.Go(func() error {
		var err error
		liked, err = s.IsLiked(gCtx, userID, postID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dto.PostActionStateDTO{
		PostStatsDTO: *stats,
		IsLiked:      liked,
	}, nil
}

// ReconcilePostCounters 以明细表为准校准计数，返回是否存在偏差；已删除的帖子跳过
func (s *postActionServiceImpl) ReconcilePostCounters(ctx context.Context, postID uint64) (bool, error) {
	drift := false
	err := s.locker.WithExclusivePost(ctx, postID, func(ctx context.Context, post *model.Post) error {
		actual, err := s.counterRepo.RecountFromEdges(ctx, postID)
		if err != nil {
			return err
		}
		if actual.ViewCount == post.ViewCount &&
			actual.LikesCount == post.LikesCount &&
			actual.CommentsCount == post.CommentsCount {
			return nil
		}

		drift = true
		log.WarnContext(ctx, "post counters drifted",
			"postID", postID,
			"views", post.ViewCount, "actualViews", actual.ViewCount,
			"likes", post.LikesCount, "actualLikes", actual.LikesCount,
			"comments", post.CommentsCount, "actualComments", actual.CommentsCount)
		return s.counterRepo.SetCounters(ctx, postID, actual)
	})
	if repository.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.notifier.InvalidateStats(ctx, postID)
	return drift, nil
}
