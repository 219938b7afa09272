package repository

import (
	"Agora/internal/model"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostCounterRepo 帖子聚合计数的原子增减与重算
type PostCounterRepo interface {
	IncrLikes(ctx context.Context, postID uint64) error
	DecrLikes(ctx context.Context, postID uint64) error
	IncrViews(ctx context.Context, postID uint64) error
	IncrComments(ctx context.Context, postID uint64) error
	DecrComments(ctx context.Context, postID uint64, n int) error
	GetCounters(ctx context.Context, postID uint64) (*model.PostCounters, error)
	RecountFromEdges(ctx context.Context, postID uint64) (*model.PostCounters, error)
	SetCounters(ctx context.Context, postID uint64, counters *model.PostCounters) error
	GetTotals(ctx context.Context) (*model.EngagementTotals, error)
}

type PostCounterRepoImpl struct {
	db *gorm.DB
}

func NewPostCounterRepo(db *gorm.DB) PostCounterRepo {
	return &PostCounterRepoImpl{db}
}

func (s *PostCounterRepoImpl) IncrLikes(ctx context.Context, postID uint64) error {
	return s.adjust(ctx, postID, "likes_count", 1)
}

func (s *PostCounterRepoImpl) DecrLikes(ctx context.Context, postID uint64) error {
	return s.adjust(ctx, postID, "likes_count", -1)
}

func (s *PostCounterRepoImpl) IncrViews(ctx context.Context, postID uint64) error {
	return s.adjust(ctx, postID, "view_count", 1)
}

func (s *PostCounterRepoImpl) IncrComments(ctx context.Context, postID uint64) error {
	return s.adjust(ctx, postID, "comments_count", 1)
}

func (s *PostCounterRepoImpl) DecrComments(ctx context.Context, postID uint64, n int) error {
	if n <= 0 {
		return nil
	}
	return s.adjust(ctx, postID, "comments_count", -n)
}

// adjust 单条 UPDATE 完成增减，递减时下限为 0
// MySQL 在值未变化时 RowsAffected 为 0，因此只在递增时据此判断帖子是否存在
func (s *PostCounterRepoImpl) adjust(ctx context.Context, postID uint64, column string, delta int) error {
	var expr clause.Expr
	if delta >= 0 {
		expr = gorm.Expr(column+" + ?", delta)
	} else {
		n := -delta
		expr = gorm.Expr("CASE WHEN "+column+" >= ? THEN "+column+" - ? ELSE 0 END", n, n)
	}

	res := conn(ctx, s.db).Model(&model.Post{}).
		Where("id = ?", postID).
		UpdateColumn(column, expr)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "adjust %s of post %d", column, postID)
	}
	if delta > 0 && res.RowsAffected == 0 {
		return errors.Wrapf(gorm.ErrRecordNotFound, "adjust %s of post %d", column, postID)
	}
	return nil
}

func (s *PostCounterRepoImpl) GetCounters(ctx context.Context, postID uint64) (*model.PostCounters, error) {
	var counters model.PostCounters
	err := conn(ctx, s.db).Model(&model.Post{}).
		Select("view_count", "likes_count", "comments_count").
		Where("id = ?", postID).
		Take(&counters).Error
	if err != nil {
		return nil, errors.Wrapf(err, "get counters of post %d", postID)
	}
	return &counters, nil
}

// RecountFromEdges 以点赞、评论、浏览明细表为准重新计算
func (s *PostCounterRepoImpl) RecountFromEdges(ctx context.Context, postID uint64) (*model.PostCounters, error) {
	db := conn(ctx, s.db)

	var likes, comments int64
	if err := db.Model(&model.Like{}).Where("post_id = ?", postID).Count(&likes).Error; err != nil {
		return nil, errors.Wrap(err, "count likes")
	}
	if err := db.Model(&model.PostComment{}).Where("post_id = ?", postID).Count(&comments).Error; err != nil {
		return nil, errors.Wrap(err, "count comments")
	}

	var views int64
	err := db.Model(&model.PostView{}).
		Select("COALESCE(SUM(view_count), 0)").
		Where("post_id = ?", postID).
		Scan(&views).Error
	if err != nil {
		return nil, errors.Wrap(err, "sum views")
	}

	return &model.PostCounters{
		ViewCount:     int(views),
		LikesCount:    int(likes),
		CommentsCount: int(comments),
	}, nil
}

func (s *PostCounterRepoImpl) SetCounters(ctx context.Context, postID uint64, counters *model.PostCounters) error {
	err := conn(ctx, s.db).Model(&model.Post{}).
		Where("id = ?", postID).
		UpdateColumns(map[string]interface{}{
			"view_count":     counters.ViewCount,
			"likes_count":    counters.LikesCount,
			"comments_count": counters.CommentsCount,
		}).Error
	return errors.Wrapf(err, "set counters of post %d", postID)
}

func (s *PostCounterRepoImpl) GetTotals(ctx context.Context) (*model.EngagementTotals, error) {
	db := conn(ctx, s.db)
	var totals model.EngagementTotals

	if err := db.Model(&model.Post{}).Count(&totals.TotalPosts).Error; err != nil {
		return nil, errors.Wrap(err, "count posts")
	}
	if err := db.Model(&model.Post{}).Where("is_published = ?", true).Count(&totals.PublishedPosts).Error; err != nil {
		return nil, errors.Wrap(err, "count published posts")
	}
	if err := db.Model(&model.PostComment{}).Where("deleted_at IS NULL").Count(&totals.TotalComments).Error; err != nil {
		return nil, errors.Wrap(err, "count comments")
	}
	if err := db.Model(&model.Like{}).Count(&totals.TotalLikes).Error; err != nil {
		return nil, errors.Wrap(err, "count likes")
	}
	return &totals, nil
}
