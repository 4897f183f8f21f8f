package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppSync struct {
	// AppSync GraphQL endpoint
	Url string

	// API key used to authorize mutations
	Token string

	// Publish backoff configuration, 0 is no limit
	BackoffMaxElapsedTime time.Duration
	BackoffMaxInterval    time.Duration

	// Num of workers that publish messages
	MaxWorkers int

	// Max num of requests in worker's queue
	MaxQueueSize int
}

func setAppSyncDefaults() {
	viper.SetDefault("AppSync.Url", "")
	viper.SetDefault("AppSync.Token", "")
	viper.SetDefault("AppSync.BackoffMaxElapsedTime", "10m")
	viper.SetDefault("AppSync.BackoffMaxInterval", "60s")
	viper.SetDefault("AppSync.MaxWorkers", "5")
	viper.SetDefault("AppSync.MaxQueueSize", "100")
}
