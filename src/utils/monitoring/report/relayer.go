package report

import "go.uber.org/atomic"

type RelayerErrors struct {
	SignFailures        atomic.Uint64 `json:"sign_failures"`
	VerifyFailures      atomic.Uint64 `json:"verify_failures"`
	MintFailures        atomic.Uint64 `json:"mint_failures"`
	CloseFailures       atomic.Uint64 `json:"close_failures"`
	SealRejections      atomic.Uint64 `json:"seal_rejections"`
	StoreFailures       atomic.Uint64 `json:"store_failures"`
	SweeperFailures     atomic.Uint64 `json:"sweeper_failures"`
	PermanentFailures   atomic.Uint64 `json:"permanent_failures"`
	EventsDropped       atomic.Uint64 `json:"events_dropped"`
	NotifierFailures    atomic.Uint64 `json:"notifier_failures"`
	EventSourceFailures atomic.Uint64 `json:"event_source_failures"`
}

type RelayerState struct {
	SealsQueued                    atomic.Int64   `json:"seals_queued"`
	SealsProcessing                atomic.Int64   `json:"seals_processing"`
	SealsCompleted                 atomic.Uint64  `json:"seals_completed"`
	SealsFailed                    atomic.Uint64  `json:"seals_failed"`
	SealsRequeued                  atomic.Uint64  `json:"seals_requeued"`
	SealsSwept                     atomic.Uint64  `json:"seals_swept"`
	LastCompletedTimestamp         atomic.Int64   `json:"last_completed_timestamp"`
	AverageSealsCompletedPerMinute atomic.Float64 `json:"average_seals_completed_per_minute"`
}

type RelayerReport struct {
	State  RelayerState  `json:"state"`
	Errors RelayerErrors `json:"errors"`
}
