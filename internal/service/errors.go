package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid           = errors.New("参数错误")
	ErrUnauthenticated        = errors.New("请先登录")
	ErrNoPermission           = errors.New("无权操作该资源")
	ErrPostNotFound           = errors.New("帖子不存在")
	ErrPostCommentNotFound    = errors.New("评论不存在")
	ErrCommentNotBelongToPost = errors.New("评论不属于该帖子")
	ErrCommentContentInvalid  = errors.New("评论内容不能为空且不超过1000字")
	UnExpectedError           = errors.New("系统异常，请稍后重试")
)

// errConcurrencyConflict 并发冲突，业务层吸收后按幂等成功处理，不会返回给调用方
var errConcurrencyConflict = errors.New("concurrency conflict")

var ErrorMap = map[error]int{
	ErrParamInvalid:           BadRequest,
	ErrUnauthenticated:        Unauthorized,
	ErrNoPermission:           Forbidden,
	ErrPostNotFound:           NotFound,
	ErrPostCommentNotFound:    NotFound,
	ErrCommentNotBelongToPost: BadRequest,
	ErrCommentContentInvalid:  BadRequest,
	UnExpectedError:           InternalServerError,
}
