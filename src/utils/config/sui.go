package config

import (
	"time"

	"github.com/spf13/viper"
)

type Sui struct {
	// JSON-RPC endpoint of the Sui fullnode
	RpcUrl string

	// Websocket endpoint used for event subscriptions
	WsUrl string

	// Move event type carrying seal attestations, empty disables the
	// subscription
	SealEventType string

	// Maximum length of the channel with incoming events
	EventsChannelSize int

	// Timeout for a single JSON-RPC request
	RequestTimeout time.Duration
}

func setSuiDefaults() {
	viper.SetDefault("Sui.RpcUrl", "https://fullnode.testnet.sui.io:443")
	viper.SetDefault("Sui.WsUrl", "wss://fullnode.testnet.sui.io:443")
	viper.SetDefault("Sui.SealEventType", "")
	viper.SetDefault("Sui.EventsChannelSize", "100")
	viper.SetDefault("Sui.RequestTimeout", "30s")
}
