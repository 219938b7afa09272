package dto

import "time"

// PostCreateDTO 发帖请求
type PostCreateDTO struct {
	Title       string `json:"title" binding:"required,max=255"`
	Content     string `json:"content" binding:"required"`
	IsPublished *bool  `json:"is_published"`
}

// PostUpdateDTO 修改帖子，字段为空表示不修改
type PostUpdateDTO struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Content     *string `json:"content" binding:"omitempty,min=1"`
	IsPublished *bool   `json:"is_published"`
}

// PostDTO 帖子详情
type PostDTO struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	ViewCount     int       `json:"view_count"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	IsPublished   bool      `json:"is_published"`
	IsLiked       bool      `json:"is_liked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
