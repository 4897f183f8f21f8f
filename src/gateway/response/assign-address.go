package response

import "github.com/ika-tensei/relayer/src/utils/model"

type AssignAddress struct {
	RequestId      string `json:"request_id"`
	Chain          string `json:"chain"`
	DepositAddress string `json:"deposit_address"`
	PublicKey      string `json:"public_key"`
	Curve          string `json:"curve"`
}

func AssignedWalletToResponse(requestId string, wallet *model.CustodyWallet) *AssignAddress {
	return &AssignAddress{
		RequestId:      requestId,
		Chain:          wallet.Chain,
		DepositAddress: wallet.DepositAddress,
		PublicKey:      wallet.PublicKey,
		Curve:          string(wallet.Curve),
	}
}
