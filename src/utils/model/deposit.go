package model

import (
	"time"

	"github.com/jackc/pgtype"
)

const TableDeposits = "deposits"

// Postgres channel notified by the deposit insert trigger
const DepositNotificationChannel = "deposit_detected"

type DepositStatus string

const (
	DepositStatusDetected   DepositStatus = "detected"
	DepositStatusProcessing DepositStatus = "processing"
	DepositStatusProcessed  DepositStatus = "processed"
	DepositStatusFailed     DepositStatus = "failed"
)

type Deposit struct {
	Id       int64  `gorm:"primaryKey" json:"id"`
	WalletId int64  `json:"wallet_id"`
	Chain    string `json:"chain"`
	Contract string `json:"contract"`
	TokenId  string `json:"token_id"`

	// Unique, both detection paths dedup on this
	TxHash string `json:"tx_hash"`

	BlockHeight uint64        `json:"block_height"`
	Sender      string        `json:"sender"`
	Status      DepositStatus `json:"status"`
	DetectedAt  time.Time     `json:"detected_at"`
	Metadata    pgtype.JSONB  `json:"metadata"`
}

// Versioned payload stored in the metadata column
type DepositMetadata struct {
	Version     int    `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MediaUri    string `json:"media_uri"`
	Collection  string `json:"collection"`

	// Token standard on the source chain, e.g. erc721
	Standard string `json:"standard"`

	// Which detection path produced the record
	Source string `json:"source"`
}
