package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.max_idle", 10)
	viper.SetDefault("database.max_open", 100)
	viper.SetDefault("database.max_lifetime", 60)
	viper.SetDefault("database.log_level", "warn")
	viper.SetDefault("redis.pool_size", 20)
	viper.SetDefault("kafka.producer.topic", "agora-engagement")
	viper.SetDefault("kafka.producer.max_retries", 3)
	viper.SetDefault("kafka.producer.timeout", 5)
	viper.SetDefault("kafka.consumer.group_id", "agora-engagement-dirty")
	viper.SetDefault("kafka.consumer.session_timeout", 10)
	viper.SetDefault("kafka.consumer.heartbeat_interval", 3)
	viper.SetDefault("kafka.consumer.rebalance_timeout", 60)
	viper.SetDefault("kafka.consumer.max_processing_time", 1)
	viper.SetDefault("jwt.expire", 24*time.Hour)
	viper.SetDefault("engagement.view_window", time.Hour)
	viper.SetDefault("engagement.stats_cache_ttl", 10*time.Minute)
	viper.SetDefault("engagement.reconcile_spec", "@every 10m")
}
