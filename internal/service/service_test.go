package service

import (
	"Agora/internal/model"
	"Agora/internal/pkg/kafka"
	"Agora/internal/pkg/testutil"
	"Agora/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*kafka.EngagementEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *kafka.EngagementEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Enabled() bool { return true }

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []kafka.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]kafka.EventType, 0, len(p.events))
	for _, e := range p.events {
		res = append(res, e.Type)
	}
	return res
}

type testEnv struct {
	db         *gorm.DB
	mr         *miniredis.Miniredis
	publisher  *recordingPublisher
	actionSvc  PostActionService
	commentSvc CommentService
	postSvc    PostService

	buildActionSvc  func(repository.PostActionRepo) PostActionService
	buildCommentSvc func(repository.CommentRepo) CommentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	mr := testutil.NewRedis(t)
	publisher := &recordingPublisher{}

	txManager := repository.NewTxManager(db)
	postRepo := repository.NewPostRepository(db)
	counterRepo := repository.NewPostCounterRepo(db)
	notifier := NewEngagementNotifier(publisher, kafka.MarkPostDirty, true)

	buildActionSvc := func(actionRepo repository.PostActionRepo) PostActionService {
		return NewPostActionService(
			actionRepo,
			postRepo,
			counterRepo,
			repository.NewEngagementLocker(db, txManager),
			notifier,
			NewViewPolicy(time.Hour),
			time.Minute,
		)
	}
	actionSvc := buildActionSvc(repository.NewPostActionRepo(db))
	buildCommentSvc := func(commentRepo repository.CommentRepo) CommentService {
		return NewCommentService(commentRepo, postRepo, counterRepo, txManager, notifier)
	}

	return &testEnv{
		db:         db,
		mr:         mr,
		publisher:  publisher,
		actionSvc:  actionSvc,
		commentSvc: buildCommentSvc(repository.NewCommentRepo(db)),
		postSvc:    NewPostService(postRepo, counterRepo, actionSvc, notifier),

		buildActionSvc:  buildActionSvc,
		buildCommentSvc: buildCommentSvc,
	}
}

// racingActionRepo 模拟并发请求：存在性检查看不到对方刚写入的记录
type racingActionRepo struct {
	repository.PostActionRepo
	createViewErr error
}

func (r *racingActionRepo) CheckLikeExists(context.Context, uint64, uint64) (bool, error) {
	return false, nil
}

func (r *racingActionRepo) CreateView(ctx context.Context, view *model.PostView) error {
	if r.createViewErr != nil {
		return r.createViewErr
	}
	// 另一请求抢先插入同一条浏览记录
	if err := r.PostActionRepo.CreateView(ctx, view); err != nil {
		return err
	}
	return r.PostActionRepo.CreateView(ctx, view)
}

func (e *testEnv) newPost(t *testing.T, authorID uint64) *model.Post {
	return testutil.CreatePost(t, e.db, authorID)
}

func (e *testEnv) reload(t *testing.T, postID uint64) *model.Post {
	return testutil.ReloadPost(t, e.db, postID)
}

func (e *testEnv) countRows(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(m).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
