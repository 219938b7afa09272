package kafka

import (
	"time"
)

// EventType 互动事件类型
type EventType string

const (
	EventLikeAdded         EventType = "like.added"
	EventLikeRemoved       EventType = "like.removed"
	EventViewCounted       EventType = "view.counted"
	EventCommentCreated    EventType = "comment.created"
	EventCommentDeleted    EventType = "comment.deleted"
	EventCommentTombstoned EventType = "comment.tombstoned"
)

// EngagementEvent 事务提交后发布，以 post_id 作为分区键
type EngagementEvent struct {
	Type       EventType `json:"type"`
	PostID     uint64    `json:"post_id"`
	UserID     uint64    `json:"user_id"`
	CommentID  uint64    `json:"comment_id,omitempty"`
	Delta      int       `json:"delta"`
	OccurredAt time.Time `json:"occurred_at"`
}
