package service

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"

	"github.com/jinzhu/copier"
)

type PostService interface {
	CreatePost(ctx context.Context, userID uint64, req *dto.PostCreateDTO) (*dto.PostDTO, error)
	GetPost(ctx context.Context, viewerID, postID uint64, now time.Time) (*dto.PostDTO, error)
	GetPostByUserId(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.PostDTO, error)
	UpdatePost(ctx context.Context, userID, postID uint64, req *dto.PostUpdateDTO) (*dto.PostDTO, error)
	DeletePost(ctx context.Context, userID, postID uint64) error
	GetTotals(ctx context.Context) (*dto.EngagementTotalsDTO, error)
}

type postServiceImpl struct {
	postRepo    repository.PostRepo
	counterRepo repository.PostCounterRepo
	actionSvc   PostActionService
	notifier    EngagementNotifier
}

func NewPostService(
	postRepo repository.PostRepo,
	counterRepo repository.PostCounterRepo,
	actionSvc PostActionService,
	notifier EngagementNotifier,
) PostService {
	return &postServiceImpl{
		postRepo:    postRepo,
		counterRepo: counterRepo,
		actionSvc:   actionSvc,
		notifier:    notifier,
	}
}

func (s *postServiceImpl) CreatePost(ctx context.Context, userID uint64, req *dto.PostCreateDTO) (*dto.PostDTO, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Content) == "" {
		return nil, ErrParamInvalid
	}

	post := &model.Post{
		UserID:      userID,
		Title:       title,
		Content:     req.Content,
		IsPublished: true,
	}
	if req.IsPublished != nil {
		post.IsPublished = *req.IsPublished
	}

	if err := s.postRepo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "post created", "postID", post.ID, "userID", userID)
	return toPostDTO(post), nil
}

// GetPost 登录用户查看帖子时记录一次浏览；未发布的帖子仅作者可见
func (s *postServiceImpl) GetPost(ctx context.Context, viewerID, postID uint64, now time.Time) (*dto.PostDTO, error) {
	post, err := s.postRepo.GetPost(ctx, postID)
	if repository.IsNotFound(err) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	if !post.IsPublished && post.UserID != viewerID {
		return nil, ErrPostNotFound
	}

	res := toPostDTO(post)
	if viewerID == 0 {
		return res, nil
	}

	counted, err := s.actionSvc.TrackPostView(ctx, viewerID, postID, now)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, err
		}
		log.ErrorContext(ctx, "track post view failed", "postID", postID, "viewerID", viewerID, "err", err)
	}
	if counted {
		res.ViewCount++
	}

	if res.IsLiked, err = s.actionSvc.IsLiked(ctx, viewerID, postID); err != nil {
		log.WarnContext(ctx, "check post liked failed", "postID", postID, "err", err)
	}
	return res, nil
}

func (s *postServiceImpl) GetPostByUserId(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.PostDTO, error) {
	page, pageSize = normalizePage(page, pageSize)
	posts, err := s.postRepo.GetPostsByUserID(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.PostDTO, 0, len(posts))
	for _, p := range posts {
		res = append(res, toPostDTO(p))
	}
	return res, nil
}

func (s *postServiceImpl) UpdatePost(ctx context.Context, userID, postID uint64, req *dto.PostUpdateDTO) (*dto.PostDTO, error) {
	post, err := s.getOwnedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrParamInvalid
		}
		fields["title"] = title
		post.Title = title
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, ErrParamInvalid
		}
		fields["content"] = *req.Content
		post.Content = *req.Content
	}
	if req.IsPublished != nil {
		fields["is_published"] = *req.IsPublished
		post.IsPublished = *req.IsPublished
	}
	if len(fields) == 0 {
		return toPostDTO(post), nil
	}

	if err = s.postRepo.UpdatePost(ctx, postID, fields); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	post.UpdatedAt = time.Now()
	return toPostDTO(post), nil
}

// DeletePost 逻辑删除，之后该帖子的所有互动操作均返回不存在
func (s *postServiceImpl) DeletePost(ctx context.Context, userID, postID uint64) error {
	if _, err := s.getOwnedPost(ctx, userID, postID); err != nil {
		return err
	}
	if err := s.postRepo.DeletePost(ctx, postID); err != nil {
		if repository.IsNotFound(err) {
			return ErrPostNotFound
		}
		return err
	}
	s.notifier.InvalidateStats(ctx, postID)
	log.InfoContext(ctx, "post deleted", "postID", postID, "userID", userID)
	return nil
}

func (s *postServiceImpl) GetTotals(ctx context.Context) (*dto.EngagementTotalsDTO, error) {
	totals, err := s.counterRepo.GetTotals(ctx)
	if err != nil {
		return nil, err
	}
	res := &dto.EngagementTotalsDTO{}
	if err = copier.Copy(res, totals); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *postServiceImpl) getOwnedPost(ctx context.Context, userID, postID uint64) (*model.Post, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	post, err := s.postRepo.GetPost(ctx, postID)
	if repository.IsNotFound(err) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrNoPermission
	}
	return post, nil
}

func toPostDTO(p *model.Post) *dto.PostDTO {
	res := &dto.PostDTO{}
	_ = copier.Copy(res, p)
	return res
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = consts.DefaultPageSize
	}
	if pageSize > consts.MaxPageSize {
		pageSize = consts.MaxPageSize
	}
	return page, pageSize
}
