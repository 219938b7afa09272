package service

import "time"

const DefaultViewWindow = time.Hour

// ViewPolicy 同一用户在窗口期内对同一帖子的重复浏览只计一次
type ViewPolicy struct {
	Window time.Duration
}

func NewViewPolicy(window time.Duration) ViewPolicy {
	if window <= 0 {
		window = DefaultViewWindow
	}
	return ViewPolicy{Window: window}
}

// Countable 距上次计数严格超过窗口期才可再次计数，恰好等于窗口期不计
func (p ViewPolicy) Countable(lastViewedAt, now time.Time) bool {
	return now.Sub(lastViewedAt) > p.Window
}
