package dto

import "time"

// CommentCreateDTO 创建评论请求，PostID 取自路径
type CommentCreateDTO struct {
	PostID   uint64 `json:"-"`
	Content  string `json:"content" binding:"required,max=1000"`
	ParentID uint64 `json:"parent_id"` // 0 表示一级评论
}

// CommentUpdateDTO 修改评论内容
type CommentUpdateDTO struct {
	Content string `json:"content" binding:"required,max=1000"`
}

// CommentDTO 评论返回详情
type CommentDTO struct {
	ID            uint64    `json:"id"`
	PostID        uint64    `json:"post_id"`
	UserID        uint64    `json:"user_id"`
	ParentID      uint64    `json:"parent_id"`
	ReplyToUserID uint64    `json:"reply_to_user_id"`
	Depth         int8      `json:"depth"`
	Content       string    `json:"content"`
	IsDeleted     bool      `json:"is_deleted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Children []*CommentDTO `json:"children"`
}

// CommentPageDTO 评论树分页结果
type CommentPageDTO struct {
	List    []*CommentDTO `json:"list"`
	Total   int64         `json:"total"`
	HasMore bool          `json:"has_more"`
}

// CommentDeleteResultDTO 删除结果：Removed 为实际移除的行数
type CommentDeleteResultDTO struct {
	Tombstoned bool `json:"tombstoned"`
	Removed    int  `json:"removed"`
}

// PostStatsDTO 帖子计数
type PostStatsDTO struct {
	PostID        uint64 `json:"post_id"`
	ViewCount     int    `json:"view_count"`
	LikesCount    int    `json:"likes_count"`
	CommentsCount int    `json:"comments_count"`
}

// PostActionStateDTO 当前用户对帖子的交互状态
type PostActionStateDTO struct {
	PostStatsDTO
	IsLiked bool `json:"is_liked"`
}

// ViewResultDTO 浏览上报结果
type ViewResultDTO struct {
	Counted bool `json:"counted"`
}

// EngagementTotalsDTO 管理后台统计
type EngagementTotalsDTO struct {
	TotalPosts     int64 `json:"total_posts"`
	PublishedPosts int64 `json:"published_posts"`
	TotalComments  int64 `json:"total_comments"`
	TotalLikes     int64 `json:"total_likes"`
}
