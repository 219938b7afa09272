package model

import (
	"time"
)

type PostComment struct {
	ID            uint64     `gorm:"primaryKey"`
	PostID        uint64     `gorm:"not null;index:idx_post_created,priority:1" json:"postId"`
	UserID        uint64     `gorm:"not null" json:"userId"`
	Content       string     `gorm:"type:varchar(1000);not null" json:"content"`
	ParentID      uint64     `gorm:"not null;default:0;index:idx_parent_id" json:"parentId"` // 0表示这是一级评论
	ReplyToUserID uint64     `gorm:"not null;default:0" json:"replyToUserId"`                 // 0表示无回复目标
	Depth         int8       `gorm:"not null;default:0" json:"depth"`
	DeletedAt     *time.Time `json:"deletedAt"` // 非空表示已软删除（保留占位）
	CreatedAt     time.Time  `gorm:"index:idx_post_created,priority:2" json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (PostComment) TableName() string {
	return "post_comments"
}

func (c *PostComment) IsDeleted() bool {
	return c.DeletedAt != nil
}

// EngagementTotals 全站汇总
type EngagementTotals struct {
	TotalPosts     int64 `json:"total_posts"`
	PublishedPosts int64 `json:"published_posts"`
	TotalComments  int64 `json:"total_comments"`
	TotalLikes     int64 `json:"total_likes"`
}
