package repository

import (
	"Agora/internal/model"
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementLocker 以行锁串行化同一帖子（或同一浏览记录）上的计数变更
type EngagementLocker interface {
	// WithExclusivePost 锁定帖子行后执行 fn，帖子不存在返回 gorm.ErrRecordNotFound
	WithExclusivePost(ctx context.Context, postID uint64, fn func(ctx context.Context, post *model.Post) error) error
	// WithExclusiveView 锁定 (用户, 帖子) 浏览记录后执行 fn，记录不存在时 view 为 nil
	WithExclusiveView(ctx context.Context, userID, postID uint64, fn func(ctx context.Context, view *model.PostView) error) error
}

type EngagementLockerImpl struct {
	db *gorm.DB
	tx TxManager
}

func NewEngagementLocker(db *gorm.DB, tx TxManager) EngagementLocker {
	return &EngagementLockerImpl{db: db, tx: tx}
}

func (s *EngagementLockerImpl) WithExclusivePost(ctx context.Context, postID uint64, fn func(ctx context.Context, post *model.Post) error) error {
	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		var post model.Post
		err := conn(ctx, s.db).
			Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("id = ?", postID).
			First(&post).Error
		if err != nil {
			return pkgerrors.Wrapf(err, "lock post %d", postID)
		}
		return fn(ctx, &post)
	})
}

func (s *EngagementLockerImpl) WithExclusiveView(ctx context.Context, userID, postID uint64, fn func(ctx context.Context, view *model.PostView) error) error {
	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		var view model.PostView
		err := conn(ctx, s.db).
			Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("user_id = ? AND post_id = ?", userID, postID).
			Take(&view).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fn(ctx, nil)
		}
		if err != nil {
			return pkgerrors.Wrapf(err, "lock view %d:%d", userID, postID)
		}
		return fn(ctx, &view)
	})
}
