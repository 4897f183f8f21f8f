package model

import "time"

type SyncState struct {
	Component SyncedComponent `gorm:"primaryKey"`

	// Height of the last fully scanned block, EVM style chains
	FinishedBlockHeight int64

	// Last processed signature, Solana
	LastSignature string

	// Opaque paging cursor, Sui and NEAR
	Cursor string

	UpdatedAt time.Time
}

func (SyncState) TableName() string {
	return "sync_state"
}
