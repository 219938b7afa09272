package logger

import (
	"bytes"
	"context"
	log "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestHandlers_TraceRouting(t *testing.T) {
	var local, remote bytes.Buffer
	tee := NewTeeHandler(
		log.NewJSONHandler(&local, nil),
		NewRemoteFilterHandler(log.NewJSONHandler(&remote, nil)),
	)
	l := log.New(NewContextHandler(tee))

	l.InfoContext(context.Background(), "no trace")
	assert.Contains(t, local.String(), "no trace")
	assert.Empty(t, remote.String())

	ctx := context.WithValue(context.Background(), TraceIDKey, "abc")
	l.InfoContext(ctx, "traced")
	assert.Contains(t, local.String(), `"trace_id":"abc"`)
	assert.Contains(t, remote.String(), `"trace_id":"abc"`)
	assert.NotContains(t, remote.String(), "no trace")

	ctx = context.WithValue(ctx, UserIDKey, uint64(7))
	l.With("component", "test").InfoContext(ctx, "derived")
	assert.Contains(t, local.String(), `"user_id":7`)
	assert.Contains(t, local.String(), `"component":"test"`)
}

func TestParseGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseGormLevel("silent"))
	assert.Equal(t, gormlogger.Error, ParseGormLevel("error"))
	assert.Equal(t, gormlogger.Info, ParseGormLevel("info"))
	assert.Equal(t, gormlogger.Warn, ParseGormLevel(""))
	assert.Equal(t, gormlogger.Warn, NewGormLogger("bogus").LogLevel)
}
