package config

import (
	"time"

	"github.com/spf13/viper"
)

type Near struct {
	// JSON-RPC endpoint of the NEAR node
	RpcUrl string

	// NFT contract accounts the deposit scan enumerates. NEAR has no way to
	// list tokens across contracts, detection only covers this set.
	Contracts []string

	// Timeout for a single JSON-RPC request
	RequestTimeout time.Duration
}

func setNearDefaults() {
	viper.SetDefault("Near.RpcUrl", "https://rpc.mainnet.near.org")
	viper.SetDefault("Near.Contracts", "")
	viper.SetDefault("Near.RequestTimeout", "30s")
}
