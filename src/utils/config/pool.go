package config

import (
	"time"

	"github.com/spf13/viper"
)

type Pool struct {
	// Wallets kept ready per curve, counting available and assigned ones
	TargetSize int

	// Replenishment kicks in when fewer than this many wallets are available
	// for a curve
	MinAvailable int

	// How many wallets are requested from the signing network in one
	// replenishment round
	ReplenishBatchSize int

	// Curves the pool keeps wallets for
	Curves []string

	// Max time between failed retries to provision a wallet
	ReplenishBackoffMaxInterval time.Duration

	// Give up provisioning a wallet after this time, 0 is no limit
	ReplenishBackoffMaxElapsedTime time.Duration

	// Cron schedule for reconciling pool counters with the database
	ReconcileSchedule string

	// Give up on a single key generation ceremony after this time
	ProvisionTimeout time.Duration

	// How many available wallets reconcile verifies on chain per sweep
	ReconcileVerifyBatchSize int
}

func setPoolDefaults() {
	viper.SetDefault("Pool.TargetSize", "20")
	viper.SetDefault("Pool.MinAvailable", "10")
	viper.SetDefault("Pool.ReplenishBatchSize", "5")
	viper.SetDefault("Pool.Curves", []string{"secp256k1", "ed25519"})
	viper.SetDefault("Pool.ReplenishBackoffMaxInterval", "60s")
	viper.SetDefault("Pool.ReplenishBackoffMaxElapsedTime", "15m")
	viper.SetDefault("Pool.ReconcileSchedule", "@every 5m")
	viper.SetDefault("Pool.ProvisionTimeout", "10m")
	viper.SetDefault("Pool.ReconcileVerifyBatchSize", "20")
}
