package model

import "time"

const TableCustodyWallets = "custody_wallets"

type Curve string

const (
	CurveSecp256k1 Curve = "secp256k1"
	CurveEd25519   Curve = "ed25519"
)

type WalletStatus string

const (
	// Provisioned and waiting to be handed out
	WalletStatusAvailable WalletStatus = "available"

	// Handed out to a depositor, waiting for the asset to arrive
	WalletStatusAssigned WalletStatus = "assigned"

	// The held asset got sealed, the wallet is never reused
	WalletStatusSealed WalletStatus = "sealed"

	// Provisioning failed halfway, reconcile marks these for inspection
	WalletStatusBroken WalletStatus = "broken"
)

type CustodyWallet struct {
	Id        int64  `gorm:"primaryKey" json:"id"`
	DwalletId string `json:"dwallet_id"`
	CapId     string `json:"cap_id"`
	PublicKey string `json:"public_key"`
	Curve     Curve  `json:"curve"`

	// Chain the primary deposit address targets
	Chain          string `json:"chain"`
	DepositAddress string `json:"deposit_address"`

	Status     WalletStatus `json:"status"`
	AssignedTo string       `json:"assigned_to"`
	AssignedAt *time.Time   `json:"assigned_at"`
	SealHash   string       `json:"seal_hash"`
	CreatedAt  time.Time    `json:"created_at"`
}
