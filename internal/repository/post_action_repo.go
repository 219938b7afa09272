package repository

import (
	"Agora/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type PostActionRepo interface {
	CreateLike(ctx context.Context, like *model.Like) error
	DeleteLike(ctx context.Context, userID, postID uint64) (int64, error)
	CheckLikeExists(ctx context.Context, userID, postID uint64) (bool, error)
	GetLikedPostIDs(ctx context.Context, userID uint64, limit, offset int) ([]uint64, error)

	CreateView(ctx context.Context, view *model.PostView) error
	TouchView(ctx context.Context, userID, postID uint64, now time.Time) error
}

type PostActionRepoImpl struct {
	db *gorm.DB
}

func NewPostActionRepo(db *gorm.DB) PostActionRepo {
	return &PostActionRepoImpl{db}
}

func (s *PostActionRepoImpl) CreateLike(ctx context.Context, like *model.Like) error {
	return conn(ctx, s.db).Create(like).Error
}

// DeleteLike 返回实际删除的行数
func (s *PostActionRepoImpl) DeleteLike(ctx context.Context, userID, postID uint64) (int64, error) {
	res := conn(ctx, s.db).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&model.Like{})
	return res.RowsAffected, res.Error
}

func (s *PostActionRepoImpl) CheckLikeExists(ctx context.Context, userID, postID uint64) (bool, error) {
	var count int64
	err := conn(ctx, s.db).Model(&model.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (s *PostActionRepoImpl) GetLikedPostIDs(ctx context.Context, userID uint64, limit, offset int) ([]uint64, error) {
	var postIDs []uint64
	err := conn(ctx, s.db).Model(&model.Like{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Pluck("post_id", &postIDs).Error
	return postIDs, err
}

func (s *PostActionRepoImpl) CreateView(ctx context.Context, view *model.PostView) error {
	return conn(ctx, s.db).Create(view).Error
}

// TouchView 记录一次有效浏览：个人浏览数 +1 并刷新最近浏览时间
func (s *PostActionRepoImpl) TouchView(ctx context.Context, userID, postID uint64, now time.Time) error {
	return conn(ctx, s.db).Model(&model.PostView{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		UpdateColumns(map[string]interface{}{
			"view_count":     gorm.Expr("view_count + ?", 1),
			"last_viewed_at": now,
		}).Error
}
