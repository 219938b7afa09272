package service

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/kafka"
	"Agora/internal/repository"
	"context"
	log "log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jinzhu/copier"
)

const MaxCommentLength = 1000

type CommentService interface {
	CreateComment(ctx context.Context, userID uint64, req *dto.CommentCreateDTO) (*dto.CommentDTO, error)
	UpdateComment(ctx context.Context, userID, commentID uint64, content string) (*dto.CommentDTO, error)
	DeleteComment(ctx context.Context, userID, commentID uint64) (*dto.CommentDeleteResultDTO, error)
	GetComment(ctx context.Context, commentID uint64) (*dto.CommentDTO, error)
	GetCommentTree(ctx context.Context, postID uint64, page, pageSize int) (*dto.CommentPageDTO, error)
}

type commentServiceImpl struct {
	commentRepo repository.CommentRepo
	postRepo    repository.PostRepo
	counterRepo repository.PostCounterRepo
	tx          repository.TxManager
	notifier    EngagementNotifier
}

func NewCommentService(
	commentRepo repository.CommentRepo,
	postRepo repository.PostRepo,
	counterRepo repository.PostCounterRepo,
	tx repository.TxManager,
	notifier EngagementNotifier,
) CommentService {
	return &commentServiceImpl{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		counterRepo: counterRepo,
		tx:          tx,
		notifier:    notifier,
	}
}

// CreateComment 回复的回复会挂到一级评论下，评论树始终只有两层
func (s *commentServiceImpl) CreateComment(ctx context.Context, userID uint64, req *dto.CommentCreateDTO) (*dto.CommentDTO, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	content, err := normalizeCommentContent(req.Content)
	if err != nil {
		return nil, err
	}

	comment := &model.PostComment{
		PostID:  req.PostID,
		UserID:  userID,
		Content: content,
	}

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if req.ParentID > 0 {
			root, parent, err := s.lockThread(ctx, req.ParentID)
			if err != nil {
				return err
			}
			if parent.PostID != req.PostID {
				return ErrCommentNotBelongToPost
			}
			if root == nil {
				return ErrPostCommentNotFound
			}

			comment.ReplyToUserID = parent.UserID
			comment.Depth = 1
			comment.ParentID = root.ID
		}

		if _, err := s.postRepo.GetPost(ctx, req.PostID); err != nil {
			if repository.IsNotFound(err) {
				return ErrPostNotFound
			}
			return err
		}

		now := time.Now()
		comment.CreatedAt = now
		comment.UpdatedAt = now
		if err := s.commentRepo.CreateComment(ctx, comment); err != nil {
			return err
		}

		if err := s.counterRepo.IncrComments(ctx, req.PostID); err != nil {
			if repository.IsNotFound(err) {
				return ErrPostNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.AfterCommit(ctx, &kafka.EngagementEvent{
		Type:       kafka.EventCommentCreated,
		PostID:     comment.PostID,
		UserID:     userID,
		CommentID:  comment.ID,
		Delta:      1,
		OccurredAt: comment.CreatedAt,
	})

	return toCommentDTO(comment), nil
}

func (s *commentServiceImpl) UpdateComment(ctx context.Context, userID, commentID uint64, content string) (*dto.CommentDTO, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	content, err := normalizeCommentContent(content)
	if err != nil {
		return nil, err
	}

	var comment *model.PostComment
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		c, err := s.lockLiveComment(ctx, commentID)
		if err != nil {
			return err
		}
		if c.UserID != userID {
			return ErrNoPermission
		}
		if err = s.commentRepo.UpdateCommentContent(ctx, commentID, content); err != nil {
			return err
		}
		c.Content = content
		c.UpdatedAt = time.Now()
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toCommentDTO(comment), nil
}

// DeleteComment 有回复的评论只做软删除保留占位；
// 无回复的评论物理删除，若其父评论已软删除且不再有回复则一并删除
func (s *commentServiceImpl) DeleteComment(ctx context.Context, userID, commentID uint64) (*dto.CommentDeleteResultDTO, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}

	result := &dto.CommentDeleteResultDTO{}
	var target *model.PostComment
	var removedParent uint64

	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		root, c, err := s.lockThread(ctx, commentID)
		if err != nil {
			return err
		}
		if c.UserID != userID {
			return ErrNoPermission
		}
		if _, err = s.postRepo.GetPost(ctx, c.PostID); err != nil {
			if repository.IsNotFound(err) {
				return ErrPostNotFound
			}
			return err
		}
		target = c

		children, err := s.commentRepo.CountChildrenForUpdate(ctx, c.ID)
		if err != nil {
			return err
		}
		if children > 0 {
			result.Tombstoned = true
			return s.commentRepo.SoftDeleteComment(ctx, c.ID, time.Now())
		}

		if err = s.commentRepo.HardDeleteComment(ctx, c.ID); err != nil {
			return err
		}
		result.Removed = 1

		if c.ParentID != 0 && root != nil && root.IsDeleted() {
			remaining, err := s.commentRepo.CountChildrenForUpdate(ctx, root.ID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err = s.commentRepo.HardDeleteComment(ctx, root.ID); err != nil {
					return err
				}
				removedParent = root.ID
				result.Removed++
			}
		}

		return s.counterRepo.DecrComments(ctx, c.PostID, result.Removed)
	})
	if err != nil {
		return nil, err
	}

	event := &kafka.EngagementEvent{
		Type:       kafka.EventCommentDeleted,
		PostID:     target.PostID,
		UserID:     userID,
		CommentID:  target.ID,
		Delta:      -result.Removed,
		OccurredAt: time.Now(),
	}
	if result.Tombstoned {
		event.Type = kafka.EventCommentTombstoned
	}
	s.notifier.AfterCommit(ctx, event)

	if removedParent != 0 {
		log.InfoContext(ctx, "tombstoned parent comment removed", "commentID", removedParent, "postID", target.PostID)
	}
	return result, nil
}

func (s *commentServiceImpl) GetComment(ctx context.Context, commentID uint64) (*dto.CommentDTO, error) {
	c, err := s.commentRepo.GetCommentByID(ctx, commentID)
	if repository.IsNotFound(err) {
		return nil, ErrPostCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return toCommentDTO(c), nil
}

// GetCommentTree 一级评论按时间倒序分页，回复按时间正序挂在各自一级评论下
func (s *commentServiceImpl) GetCommentTree(ctx context.Context, postID uint64, page, pageSize int) (*dto.CommentPageDTO, error) {
	if _, err := s.postRepo.GetPost(ctx, postID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)

	total, err := s.commentRepo.CountRootCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	roots, err := s.commentRepo.GetRootCommentsByPostID(ctx, postID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	rootIDs := make([]uint64, 0, len(roots))
	list := make([]*dto.CommentDTO, 0, len(roots))
	nodes := make(map[uint64]*dto.CommentDTO, len(roots))
	for _, rc := range roots {
		node := toCommentDTO(rc)
		rootIDs = append(rootIDs, rc.ID)
		list = append(list, node)
		nodes[rc.ID] = node
	}

	children, err := s.commentRepo.GetChildrenByParentIDs(ctx, rootIDs)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if parent, ok := nodes[child.ParentID]; ok {
			parent.Children = append(parent.Children, toCommentDTO(child))
		}
	}

	return &dto.CommentPageDTO{
		List:    list,
		Total:   total,
		HasMore: int64(page*pageSize) < total,
	}, nil
}

// lockLiveComment 加锁读取评论，已软删除视为不存在
// lockThread 先锁一级评论再锁目标评论，评论写路径统一按此顺序加锁
// 目标为一级评论时 root 即 target；一级评论不存在时 root 为 nil
func (s *commentServiceImpl) lockThread(ctx context.Context, commentID uint64) (root, target *model.PostComment, err error) {
	// parent_id 创建后不再变化，可以无锁读取
	c, err := s.commentRepo.GetCommentByID(ctx, commentID)
	if repository.IsNotFound(err) {
		return nil, nil, ErrPostCommentNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if c.ParentID != 0 {
		root, err = s.commentRepo.GetCommentForUpdate(ctx, c.ParentID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, nil, err
		}
	}

	target, err = s.lockLiveComment(ctx, commentID)
	if err != nil {
		return nil, nil, err
	}
	if target.ParentID == 0 {
		root = target
	}
	return root, target, nil
}

func (s *commentServiceImpl) lockLiveComment(ctx context.Context, commentID uint64) (*model.PostComment, error) {
	c, err := s.commentRepo.GetCommentForUpdate(ctx, commentID)
	if repository.IsNotFound(err) {
		return nil, ErrPostCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		return nil, ErrPostCommentNotFound
	}
	return c, nil
}

func normalizeCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > MaxCommentLength {
		return "", ErrCommentContentInvalid
	}
	return content, nil
}

func toCommentDTO(c *model.PostComment) *dto.CommentDTO {
	res := &dto.CommentDTO{}
	_ = copier.Copy(res, c)
	res.IsDeleted = c.IsDeleted()
	if res.IsDeleted {
		res.Content = consts.CommentTombstone
	}
	res.Children = make([]*dto.CommentDTO, 0)
	return res
}
