package report

import "go.uber.org/atomic"

type GatewayErrors struct {
	AssignFailures      atomic.Uint64 `json:"assign_failures"`
	WebhookAuthFailures atomic.Uint64 `json:"webhook_auth_failures"`
	BadRequests         atomic.Uint64 `json:"bad_requests"`
}

type GatewayState struct {
	AddressesAssigned atomic.Uint64 `json:"addresses_assigned"`
	WebhooksReceived  atomic.Uint64 `json:"webhooks_received"`
}

type GatewayReport struct {
	State  GatewayState  `json:"state"`
	Errors GatewayErrors `json:"errors"`
}
