package model

import "time"

const TableSeals = "seals"

type SealStatus string

const (
	SealStatusSealed    SealStatus = "sealed"
	SealStatusSigning   SealStatus = "signing"
	SealStatusSigned    SealStatus = "signed"
	SealStatusVerifying SealStatus = "verifying"
	SealStatusVerified  SealStatus = "verified"
	SealStatusMinting   SealStatus = "minting"
	SealStatusMinted    SealStatus = "minted"
	SealStatusClosing   SealStatus = "closing"
	SealStatusCompleted SealStatus = "completed"
	SealStatusFailed    SealStatus = "failed"
)

// Rank orders lifecycle statuses. Transitions never decrease it.
func (self SealStatus) Rank() int {
	switch self {
	case SealStatusSealed:
		return 0
	case SealStatusSigning:
		return 1
	case SealStatusSigned:
		return 2
	case SealStatusVerifying:
		return 3
	case SealStatusVerified:
		return 4
	case SealStatusMinting:
		return 5
	case SealStatusMinted:
		return 6
	case SealStatusClosing:
		return 7
	case SealStatusCompleted:
		return 8
	case SealStatusFailed:
		return 9
	}
	return -1
}

func (self SealStatus) IsTerminal() bool {
	return self == SealStatusCompleted || self == SealStatusFailed
}

// CanAdvanceTo tells whether the transition moves the lifecycle forward.
// Failed is reachable from every non-terminal status.
func (self SealStatus) CanAdvanceTo(next SealStatus) bool {
	if self.IsTerminal() {
		return false
	}
	if next == SealStatusFailed {
		return true
	}
	return next.Rank() > self.Rank() && next.Rank() <= SealStatusCompleted.Rank()
}

type Seal struct {
	SealHash       string     `gorm:"primaryKey" json:"seal_hash"`
	Status         SealStatus `json:"status"`
	SourceChain    uint16     `json:"source_chain"`
	DestChain      uint16     `json:"dest_chain"`
	SourceContract string     `json:"source_contract"`
	TokenId        string     `json:"token_id"`
	Nonce          uint64     `json:"nonce"`

	// Asset metadata carried into the reborn token
	Name        string `json:"name"`
	Description string `json:"description"`
	MediaUri    string `json:"media_uri"`
	Collection  string `json:"collection"`

	// Receiver of the reborn asset on the destination chain
	Recipient string `json:"recipient"`

	// Custody dwallet holding the original asset
	DwalletId     string `json:"dwallet_id"`
	DwalletCapId  string `json:"dwallet_cap_id"`
	CustodyPubkey string `json:"custody_pubkey"`

	// Filled in as the lifecycle progresses
	Signature        string `json:"signature"`
	DestAssetAddress string `json:"dest_asset_address"`
	Error            string `json:"error"`

	// Transaction references per lifecycle phase
	SignTx   string `json:"sign_tx"`
	VerifyTx string `json:"verify_tx"`
	MintTx   string `json:"mint_tx"`
	CloseTx  string `json:"close_tx"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
