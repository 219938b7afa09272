package cron

import log "log/slog"

// InitCron 注册并启动所有定时任务
func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	mgr.Start()

	for _, entry := range mgr.engine.Entries() {
		log.Info("Cron job scheduled", "entry", entry.ID, "next", entry.Next)
	}
	return nil
}
