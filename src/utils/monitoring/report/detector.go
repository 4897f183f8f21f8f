package report

import "go.uber.org/atomic"

type DetectorErrors struct {
	EvmFetchFailures        atomic.Uint64 `json:"evm_fetch_failures"`
	SolanaFetchFailures     atomic.Uint64 `json:"solana_fetch_failures"`
	SuiFetchFailures        atomic.Uint64 `json:"sui_fetch_failures"`
	NearFetchFailures       atomic.Uint64 `json:"near_fetch_failures"`
	DepositInsertFailures   atomic.Uint64 `json:"deposit_insert_failures"`
	CursorSaveFailures      atomic.Uint64 `json:"cursor_save_failures"`
	WebhookRegisterFailures atomic.Uint64 `json:"webhook_register_failures"`
}

type DetectorState struct {
	EvmCurrentHeight         atomic.Int64   `json:"evm_current_height"`
	NearCurrentHeight        atomic.Int64   `json:"near_current_height"`
	SolanaTxsScanned         atomic.Uint64  `json:"solana_txs_scanned"`
	SuiEventsScanned         atomic.Uint64  `json:"sui_events_scanned"`
	DepositsDetected         atomic.Uint64  `json:"deposits_detected"`
	DepositsDuplicate        atomic.Uint64  `json:"deposits_duplicate"`
	WebhooksRegistered       atomic.Uint64  `json:"webhooks_registered"`
	AverageDepositsPerMinute atomic.Float64 `json:"average_deposits_per_minute"`
	AverageFailuresPerMinute atomic.Float64 `json:"average_failures_per_minute"`
}

type DetectorReport struct {
	State  DetectorState  `json:"state"`
	Errors DetectorErrors `json:"errors"`
}
