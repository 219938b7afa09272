package repository

import (
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepo interface {
	CreateComment(ctx context.Context, comment *model.PostComment) error
	GetCommentByID(ctx context.Context, commentID uint64) (*model.PostComment, error)
	GetCommentForUpdate(ctx context.Context, commentID uint64) (*model.PostComment, error)
	CountChildrenForUpdate(ctx context.Context, parentID uint64) (int64, error)
	HardDeleteComment(ctx context.Context, commentID uint64) error
	SoftDeleteComment(ctx context.Context, commentID uint64, now time.Time) error
	UpdateCommentContent(ctx context.Context, commentID uint64, content string) error
	GetRootCommentsByPostID(ctx context.Context, postID uint64, limit, offset int) ([]*model.PostComment, error)
	CountRootCommentsByPostID(ctx context.Context, postID uint64) (int64, error)
	GetChildrenByParentIDs(ctx context.Context, parentIDs []uint64) ([]*model.PostComment, error)
}

type CommentRepoImpl struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) CommentRepo {
	return &CommentRepoImpl{db}
}

func (s *CommentRepoImpl) CreateComment(ctx context.Context, comment *model.PostComment) error {
	return conn(ctx, s.db).Create(comment).Error
}

// GetCommentByID 包含已软删除的评论，调用方自行判断 IsDeleted
func (s *CommentRepoImpl) GetCommentByID(ctx context.Context, commentID uint64) (*model.PostComment, error) {
	var comment model.PostComment
	err := conn(ctx, s.db).Where("id = ?", commentID).Take(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *CommentRepoImpl) GetCommentForUpdate(ctx context.Context, commentID uint64) (*model.PostComment, error) {
	var comment model.PostComment
	err := conn(ctx, s.db).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", commentID).
		Take(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// CountChildrenForUpdate 加锁读取子评论数，防止并发插入的回复被漏算
func (s *CommentRepoImpl) CountChildrenForUpdate(ctx context.Context, parentID uint64) (int64, error) {
	var count int64
	err := conn(ctx, s.db).Model(&model.PostComment{}).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("parent_id = ?", parentID).
		Count(&count).Error
	return count, err
}

func (s *CommentRepoImpl) HardDeleteComment(ctx context.Context, commentID uint64) error {
	return conn(ctx, s.db).Where("id = ?", commentID).Delete(&model.PostComment{}).Error
}

// SoftDeleteComment 保留占位行，内容替换为已删除提示
func (s *CommentRepoImpl) SoftDeleteComment(ctx context.Context, commentID uint64, now time.Time) error {
	return conn(ctx, s.db).Model(&model.PostComment{}).
		Where("id = ? AND deleted_at IS NULL", commentID).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"content":    consts.CommentTombstone,
		}).Error
}

func (s *CommentRepoImpl) UpdateCommentContent(ctx context.Context, commentID uint64, content string) error {
	return conn(ctx, s.db).Model(&model.PostComment{}).
		Where("id = ? AND deleted_at IS NULL", commentID).
		Update("content", content).Error
}

// GetRootCommentsByPostID 分页获取帖子的顶级评论，最新的在前
func (s *CommentRepoImpl) GetRootCommentsByPostID(ctx context.Context, postID uint64, limit, offset int) ([]*model.PostComment, error) {
	var comments []*model.PostComment
	err := conn(ctx, s.db).
		Where("post_id = ? AND parent_id = ?", postID, 0).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	return comments, err
}

func (s *CommentRepoImpl) CountRootCommentsByPostID(ctx context.Context, postID uint64) (int64, error) {
	var count int64
	err := conn(ctx, s.db).Model(&model.PostComment{}).
		Where("post_id = ? AND parent_id = ?", postID, 0).
		Count(&count).Error
	return count, err
}

// GetChildrenByParentIDs 批量获取回复，按时间正序
func (s *CommentRepoImpl) GetChildrenByParentIDs(ctx context.Context, parentIDs []uint64) ([]*model.PostComment, error) {
	var comments []*model.PostComment
	if len(parentIDs) == 0 {
		return comments, nil
	}
	err := conn(ctx, s.db).
		Where("parent_id IN ?", parentIDs).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}
