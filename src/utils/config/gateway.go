package config

import (
	"time"

	"github.com/spf13/viper"
)

type Gateway struct {
	// REST API address. Serves deposit address assignment and webhooks.
	RESTListenAddress string

	// Max duration of a single deposit address assignment
	AssignTimeout time.Duration

	// URL of the webhook provider's JWKS used to verify delivery signatures,
	// empty disables verification
	WebhookJwksUrl string

	// Expected issuer of webhook JWTs
	WebhookIssuer string

	// Bearer token guarding operator routes, empty disables them
	OperatorToken string
}

func setGatewayDefaults() {
	viper.SetDefault("Gateway.RESTListenAddress", "0.0.0.0:4000")
	viper.SetDefault("Gateway.AssignTimeout", "10s")
	viper.SetDefault("Gateway.WebhookJwksUrl", "")
	viper.SetDefault("Gateway.WebhookIssuer", "")
	viper.SetDefault("Gateway.OperatorToken", "")
}
