package response

import (
	"time"

	"github.com/ika-tensei/relayer/src/utils/model"
)

// Seal status as served to clients, custody internals stay private
type Seal struct {
	SealHash         string `json:"seal_hash"`
	Status           string `json:"status"`
	SourceChain      uint16 `json:"source_chain"`
	DestChain        uint16 `json:"dest_chain"`
	SourceContract   string `json:"source_contract"`
	TokenId          string `json:"token_id"`
	Recipient        string `json:"recipient"`
	Name             string `json:"name"`
	Collection       string `json:"collection"`
	MediaUri         string `json:"media_uri"`
	DestAssetAddress string `json:"dest_asset_address,omitempty"`
	Error            string `json:"error,omitempty"`

	SignTx   string `json:"sign_tx,omitempty"`
	VerifyTx string `json:"verify_tx,omitempty"`
	MintTx   string `json:"mint_tx,omitempty"`
	CloseTx  string `json:"close_tx,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func SealToResponse(seal *model.Seal) *Seal {
	return &Seal{
		SealHash:         seal.SealHash,
		Status:           string(seal.Status),
		SourceChain:      seal.SourceChain,
		DestChain:        seal.DestChain,
		SourceContract:   seal.SourceContract,
		TokenId:          seal.TokenId,
		Recipient:        seal.Recipient,
		Name:             seal.Name,
		Collection:       seal.Collection,
		MediaUri:         seal.MediaUri,
		DestAssetAddress: seal.DestAssetAddress,
		Error:            seal.Error,
		SignTx:           seal.SignTx,
		VerifyTx:         seal.VerifyTx,
		MintTx:           seal.MintTx,
		CloseTx:          seal.CloseTx,
		CreatedAt:        seal.CreatedAt,
		UpdatedAt:        seal.UpdatedAt,
	}
}
