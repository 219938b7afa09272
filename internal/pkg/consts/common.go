package consts

const (
	// CommentTombstone 已软删除评论对外展示的占位内容
	CommentTombstone = "该评论已删除"
)

const (
	RoleAdmin = "ADMIN"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
