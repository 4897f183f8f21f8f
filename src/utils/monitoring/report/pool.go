package report

import "go.uber.org/atomic"

type PoolErrors struct {
	ProvisionFailures atomic.Uint64 `json:"provision_failures"`
	AssignFailures    atomic.Uint64 `json:"assign_failures"`
	ReconcileFailures atomic.Uint64 `json:"reconcile_failures"`
}

type PoolState struct {
	WalletsAvailable       atomic.Int64  `json:"wallets_available"`
	WalletsAssigned        atomic.Int64  `json:"wallets_assigned"`
	WalletsSealed          atomic.Int64  `json:"wallets_sealed"`
	WalletsProvisioned     atomic.Uint64 `json:"wallets_provisioned"`
	ReplenishRounds        atomic.Uint64 `json:"replenish_rounds"`
	LastReplenishTimestamp atomic.Int64  `json:"last_replenish_timestamp"`
}

type PoolReport struct {
	State  PoolState  `json:"state"`
	Errors PoolErrors `json:"errors"`
}
