package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestViewPolicy_Countable(t *testing.T) {
	policy := NewViewPolicy(time.Hour)
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"same instant", t0, false},
		{"within window", t0.Add(30 * time.Minute), false},
		{"exactly at window edge", t0.Add(time.Hour), false},
		{"one nanosecond past the edge", t0.Add(time.Hour + time.Nanosecond), true},
		{"61 minutes later", t0.Add(61 * time.Minute), true},
		{"clock went backwards", t0.Add(-time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Countable(t0, tt.now))
		})
	}
}

func TestNewViewPolicy_DefaultWindow(t *testing.T) {
	assert.Equal(t, DefaultViewWindow, NewViewPolicy(0).Window)
	assert.Equal(t, 5*time.Minute, NewViewPolicy(5*time.Minute).Window)
}
