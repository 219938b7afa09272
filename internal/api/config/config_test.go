package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	require.NoError(t, LoadConfig())
	require.NotNil(t, Cfg)

	assert.Equal(t, 8080, Cfg.Server.Port)
	assert.Equal(t, "mysql", Cfg.DB.Driver)
	assert.Equal(t, "agora-engagement", Cfg.Kafka.Producer.Topic)
	assert.Equal(t, "agora-engagement-dirty", Cfg.Kafka.Consumer.GroupID)
	assert.False(t, Cfg.Kafka.Consumer.Enable)
	assert.Equal(t, time.Hour, Cfg.Engagement.ViewWindow)
	assert.Equal(t, 10*time.Minute, Cfg.Engagement.StatsCacheTTL)
	assert.Equal(t, "@every 10m", Cfg.Engagement.ReconcileSpec)
	assert.Equal(t, 24*time.Hour, Cfg.JWT.Expire)
}
