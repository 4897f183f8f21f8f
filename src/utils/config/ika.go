package config

import (
	"time"

	"github.com/spf13/viper"
)

type Ika struct {
	// Base URL of the Ika signing gateway
	GatewayUrl string

	// API key sent with every gateway call
	ApiKey string

	// Gateway calls are paced to at most this many requests per second
	RequestsPerSecond int

	// Timeout for a single HTTP request to the gateway
	RequestTimeout time.Duration

	// How long a threshold-signing round may take before the attempt is
	// abandoned and retried
	SignTimeout time.Duration

	// How often a pending signature request is polled for completion
	SignPollInterval time.Duration
}

func setIkaDefaults() {
	viper.SetDefault("Ika.GatewayUrl", "http://127.0.0.1:9000")
	viper.SetDefault("Ika.ApiKey", "")
	viper.SetDefault("Ika.RequestsPerSecond", "10")
	viper.SetDefault("Ika.RequestTimeout", "30s")
	viper.SetDefault("Ika.SignTimeout", "2m")
	viper.SetDefault("Ika.SignPollInterval", "2s")
}
