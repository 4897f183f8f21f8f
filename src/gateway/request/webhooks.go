package request

// Address activity delivery in the shape EVM webhook providers send

type EvmActivity struct {
	Id    string `json:"id"`
	Type  string `json:"type"`
	Event struct {
		Network  string             `json:"network"`
		Activity []EvmActivityEntry `json:"activity"`
	} `json:"event"`
}

type EvmActivityEntry struct {
	FromAddress   string `json:"fromAddress"`
	ToAddress     string `json:"toAddress"`
	BlockNum      string `json:"blockNum"`
	Hash          string `json:"hash"`
	Category      string `json:"category"`
	Erc721TokenId string `json:"erc721TokenId"`
	RawContract   struct {
		Address string `json:"address"`
	} `json:"rawContract"`
}

// Enhanced transaction delivery in the shape Solana webhook providers send,
// the body is a plain array of these

type SolanaTransaction struct {
	Signature      string                `json:"signature"`
	Slot           uint64                `json:"slot"`
	Type           string                `json:"type"`
	FeePayer       string                `json:"feePayer"`
	TokenTransfers []SolanaTokenTransfer `json:"tokenTransfers"`
}

type SolanaTokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	Mint            string  `json:"mint"`
	TokenAmount     float64 `json:"tokenAmount"`
	TokenStandard   string  `json:"tokenStandard"`
}
