package model

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID            uint64         `gorm:"primaryKey"`
	UserID        uint64         `gorm:"not null;index:idx_user_id" json:"user_id"`
	Title         string         `gorm:"type:varchar(255);not null" json:"title"`
	Content       string         `gorm:"type:text;not null" json:"content"`
	ViewCount     int            `gorm:"not null;default:0" json:"view_count"`
	LikesCount    int            `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int            `gorm:"not null;default:0" json:"comments_count"`
	IsPublished   bool           `gorm:"not null" json:"is_published"` // 不设 default，false 才能写入
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index:idx_deleted_at" json:"-"`
}

func (Post) TableName() string {
	return "posts"
}

// PostCounters 帖子的三项聚合计数
type PostCounters struct {
	ViewCount     int `json:"view_count"`
	LikesCount    int `json:"likes_count"`
	CommentsCount int `json:"comments_count"`
}
