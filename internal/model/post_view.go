package model

import (
	"time"
)

// PostView 每个 (用户, 帖子) 仅一条浏览记录
type PostView struct {
	UserID       uint64    `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	PostID       uint64    `gorm:"primaryKey;autoIncrement:false;index:idx_view_post_id" json:"postId"`
	ViewCount    int       `gorm:"not null;default:1" json:"viewCount"`
	LastViewedAt time.Time `gorm:"not null;index:idx_last_viewed_at" json:"lastViewedAt"`
}

func (PostView) TableName() string {
	return "post_views"
}
