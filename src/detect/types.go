package detect

import (
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/tensei"
)

// DepositPayload is what the chain pollers and the webhook handlers hand to
// the detector. One payload per asset that arrived at a watched address.
type DepositPayload struct {
	Chain          tensei.Chain
	WalletId       int64
	DepositAddress string
	Contract       string
	TokenId        string

	// Transaction that delivered the asset, unique per deposit
	TxHash string

	BlockHeight uint64
	Sender      string

	// Optional, filled when the source chain exposes token metadata
	Metadata *model.DepositMetadata
}
