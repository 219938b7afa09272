package model

import (
	"time"
)

// Like (user_id, post_id) 联合主键即唯一约束
type Like struct {
	UserID    uint64    `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	PostID    uint64    `gorm:"primaryKey;autoIncrement:false;index:idx_like_post_id" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Like) TableName() string {
	return "likes"
}
