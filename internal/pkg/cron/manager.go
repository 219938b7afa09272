package cron

import (
	"Agora/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

const DefaultReconcileSpec = "@every 10m"

type Manager struct {
	engine         *cron.Cron
	postCounterJob *job.PostCounterJob
	reconcileSpec  string
}

func NewCronManager(postCounterJob *job.PostCounterJob, reconcileSpec string) *Manager {
	if reconcileSpec == "" {
		reconcileSpec = DefaultReconcileSpec
	}
	return &Manager{
		engine: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		postCounterJob: postCounterJob,
		reconcileSpec:  reconcileSpec,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.reconcileSpec, s.postCounterJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
