package config

import (
	"time"

	"github.com/spf13/viper"
)

type Relayer struct {
	// How many seals may sit in the pending queue before enqueues block
	QueueChannelSize int

	// Max number of seals handed to the worker pool in one iteration
	QueueMaxBatchSize int

	// How many times a seal is requeued before it is failed for good
	QueueMaxRetries int

	// Number of workers that advance seals through their lifecycle
	WorkerPoolMaxWorkers int

	// Max number of seals that wait in the worker's queue
	WorkerPoolMaxQueueSize int

	// How often the queue is polled for the next batch
	WorkerInterval time.Duration

	// Max time between failed retries of a single lifecycle step
	WorkerBackoffMaxInterval time.Duration

	// Give up retrying in place after this time and requeue instead, 0 never
	// gives up
	WorkerBackoffMaxElapsedTime time.Duration

	// How often unfinished seals are swept from the database back into the queue
	SweeperInterval time.Duration

	// Max number of unfinished seals loaded per sweep
	SweeperBatchSize int

	// How long an in-flight seal may go without a status change before the
	// sweeper considers it abandoned
	SweeperStaleAfter time.Duration

	// Maximum length of the channel with lifecycle events to be published
	EventsChannelSize int

	// Name of the Redis pub/sub channel for seal lifecycle events
	EventsRedisChannelName string

	// Name of the AppSync channel for seal lifecycle events, empty disables it
	EventsAppSyncChannelName string

	// Maximum length of the channel with database notifications
	NotificationsChannelSize int
}

func setRelayerDefaults() {
	viper.SetDefault("Relayer.QueueChannelSize", "1000")
	viper.SetDefault("Relayer.QueueMaxBatchSize", "50")
	viper.SetDefault("Relayer.QueueMaxRetries", "5")
	viper.SetDefault("Relayer.WorkerPoolMaxWorkers", "20")
	viper.SetDefault("Relayer.WorkerPoolMaxQueueSize", "100")
	viper.SetDefault("Relayer.WorkerInterval", "1s")
	viper.SetDefault("Relayer.WorkerBackoffMaxInterval", "30s")
	viper.SetDefault("Relayer.WorkerBackoffMaxElapsedTime", "2m")
	viper.SetDefault("Relayer.SweeperInterval", "1m")
	viper.SetDefault("Relayer.SweeperBatchSize", "100")
	viper.SetDefault("Relayer.SweeperStaleAfter", "5m")
	viper.SetDefault("Relayer.EventsChannelSize", "100")
	viper.SetDefault("Relayer.EventsRedisChannelName", "seals")
	viper.SetDefault("Relayer.EventsAppSyncChannelName", "")
	viper.SetDefault("Relayer.NotificationsChannelSize", "100")
}
