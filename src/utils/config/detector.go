package config

import (
	"time"

	"github.com/spf13/viper"
)

type Detector struct {
	// Maximum length of the channel with detected deposits
	ChannelBufferLength int

	// How long a seen transaction hash is remembered before hitting the
	// database again
	SeenCacheTTL time.Duration

	// How often expired entries are removed from the seen cache
	SeenCacheCleanupInterval time.Duration

	// How often the set of watched deposit addresses is reloaded from the
	// database
	WatchedRefreshInterval time.Duration

	// Is the Ethereum poller on
	EvmEnabled bool

	// How often poll for new Ethereum blocks
	EvmInterval time.Duration

	// Max batch size for the number of blocks scanned in one iteration
	EvmBatchSize int

	// Blocks below the head that are considered final
	EvmConfirmations int64

	// Max time between failed retries to scan a block
	EvmBackoffInterval time.Duration

	// Is the Solana poller on
	SolanaEnabled bool

	// How often poll for new signatures
	SolanaInterval time.Duration

	// Max number of signatures fetched in one iteration
	SolanaSignatureLimit int

	// Max time between failed retries to fetch a transaction
	SolanaBackoffInterval time.Duration

	// Is the Sui poller on
	SuiEnabled bool

	// How often poll for new events
	SuiInterval time.Duration

	// Max number of events fetched in one page
	SuiPageSize int

	// Is the NEAR poller on
	NearEnabled bool

	// How often poll for new blocks
	NearInterval time.Duration

	// Max batch size for the number of blocks scanned in one iteration
	NearBatchSize int

	// Max batch size before scan cursors are written to the database
	StoreBatchSize int

	// After this time scan cursors are written to the database
	StoreInterval time.Duration

	// Max time between failed retries to save scan cursors
	StoreMaxBackoffInterval time.Duration

	// Is webhook registration with external providers on
	WebhookEnabled bool

	// Base URL of the webhook provider's management API
	WebhookProviderUrl string

	// Token used to authorize provider management calls
	WebhookProviderToken string

	// Publicly reachable URL the provider delivers notifications to
	WebhookCallbackUrl string

	// Timeout for a single provider management call
	WebhookRequestTimeout time.Duration

	// Max time between failed retries to register an address
	WebhookBackoffInterval time.Duration

	// How often the watch list is pushed to the webhook provider
	WebhookRegisterInterval time.Duration
}

func setDetectorDefaults() {
	viper.SetDefault("Detector.ChannelBufferLength", "100")
	viper.SetDefault("Detector.SeenCacheTTL", "10m")
	viper.SetDefault("Detector.SeenCacheCleanupInterval", "15m")
	viper.SetDefault("Detector.WatchedRefreshInterval", "30s")
	viper.SetDefault("Detector.EvmEnabled", "true")
	viper.SetDefault("Detector.EvmInterval", "10s")
	viper.SetDefault("Detector.EvmBatchSize", "50")
	viper.SetDefault("Detector.EvmConfirmations", "12")
	viper.SetDefault("Detector.EvmBackoffInterval", "3s")
	viper.SetDefault("Detector.SolanaEnabled", "true")
	viper.SetDefault("Detector.SolanaInterval", "10s")
	viper.SetDefault("Detector.SolanaSignatureLimit", "100")
	viper.SetDefault("Detector.SolanaBackoffInterval", "3s")
	viper.SetDefault("Detector.SuiEnabled", "true")
	viper.SetDefault("Detector.SuiInterval", "10s")
	viper.SetDefault("Detector.SuiPageSize", "50")
	viper.SetDefault("Detector.NearEnabled", "false")
	viper.SetDefault("Detector.NearInterval", "10s")
	viper.SetDefault("Detector.NearBatchSize", "20")
	viper.SetDefault("Detector.StoreBatchSize", "50")
	viper.SetDefault("Detector.StoreInterval", "2s")
	viper.SetDefault("Detector.StoreMaxBackoffInterval", "30s")
	viper.SetDefault("Detector.WebhookEnabled", "false")
	viper.SetDefault("Detector.WebhookProviderUrl", "")
	viper.SetDefault("Detector.WebhookProviderToken", "")
	viper.SetDefault("Detector.WebhookCallbackUrl", "")
	viper.SetDefault("Detector.WebhookRequestTimeout", "30s")
	viper.SetDefault("Detector.WebhookBackoffInterval", "3s")
	viper.SetDefault("Detector.WebhookRegisterInterval", "1m")
}
