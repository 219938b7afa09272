package wire

import (
	"Agora/internal/api"
	"Agora/internal/api/config"
	"Agora/internal/api/handler"
	"Agora/internal/job"
	"Agora/internal/pkg/cron"
	"Agora/internal/pkg/kafka"
	"Agora/internal/pkg/security"
	"Agora/internal/repository"
	"Agora/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	CronMgr      *cron.Manager
	Publisher    kafka.EventPublisher
	KafkaManager *kafka.ConsumerManager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	security.Init(cfg.JWT.Secret, cfg.JWT.Expire)

	publisher, err := kafka.NewEventPublisher(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	kafkaMgr, err := kafka.NewConsumerManager(cfg, kafka.MarkPostDirty)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}
	// 没有消费者时由本进程直接标记待校准帖子
	markInline := !publisher.Enabled() || kafkaMgr == nil

	txManager := repository.NewTxManager(db)
	postRepo := repository.NewPostRepository(db)
	actionRepo := repository.NewPostActionRepo(db)
	commentRepo := repository.NewCommentRepo(db)
	counterRepo := repository.NewPostCounterRepo(db)
	locker := repository.NewEngagementLocker(db, txManager)

	notifier := service.NewEngagementNotifier(publisher, kafka.MarkPostDirty, markInline)
	actionService := service.NewPostActionService(
		actionRepo,
		postRepo,
		counterRepo,
		locker,
		notifier,
		service.NewViewPolicy(cfg.Engagement.ViewWindow),
		cfg.Engagement.StatsCacheTTL,
	)
	commentService := service.NewCommentService(commentRepo, postRepo, counterRepo, txManager, notifier)
	postService := service.NewPostService(postRepo, counterRepo, actionService, notifier)

	handlers := &api.HandlersGroup{
		PostHandler:       handler.NewPostHandler(postService),
		PostActionHandler: handler.NewPostActionHandler(actionService),
		CommentHandler:    handler.NewCommentHandler(commentService),
		AdminHandler:      handler.NewAdminHandler(postService),
	}

	router := api.SetupRouter(handlers, cfg.Server.AllowedOrigins)

	cronMgr := cron.NewCronManager(job.NewPostCounterJob(actionService), cfg.Engagement.ReconcileSpec)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		CronMgr:      cronMgr,
		Publisher:    publisher,
		KafkaManager: kafkaMgr,
	}, nil
}
