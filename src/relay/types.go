package relay

import (
	"encoding/json"
	"time"

	"github.com/hamba/avro"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/tensei"
)

// SealEvent triggers lifecycle processing of one seal. Carried by queue
// items, produced by the deposit consumer, the attestation event source and
// the sweeper. The persisted seal record stays authoritative, the event only
// identifies it and seeds creation when the record doesn't exist yet.
type SealEvent struct {
	SealHash    string       `json:"seal_hash"`
	SourceChain tensei.Chain `json:"source_chain"`
	Contract    string       `json:"contract"`
	TokenId     string       `json:"token_id"`
	Nonce       uint64       `json:"nonce"`
	Recipient   string       `json:"recipient"`

	// Asset metadata captured at deposit time
	Name        string `json:"name"`
	Description string `json:"description"`
	MediaUri    string `json:"media_uri"`
	Collection  string `json:"collection"`

	// Custody wallet holding the source asset
	DwalletId     string `json:"dwallet_id"`
	DwalletCapId  string `json:"dwallet_cap_id"`
	CustodyPubkey string `json:"custody_pubkey"`
	WalletId      int64  `json:"wallet_id"`

	// Deposit that triggered the event, 0 when the trigger came from an
	// attestation event or a sweep
	DepositId int64 `json:"deposit_id"`
}

// NewSeal builds the initial record for a freshly observed seal. All trigger
// paths insert the same shape, the earliest insert wins.
func NewSeal(event *SealEvent) (out *model.Seal) {
	now := time.Now()
	return &model.Seal{
		SealHash:       event.SealHash,
		Status:         model.SealStatusSealed,
		SourceChain:    uint16(event.SourceChain),
		DestChain:      uint16(tensei.ChainSolana),
		SourceContract: event.Contract,
		TokenId:        event.TokenId,
		Nonce:          event.Nonce,
		Name:           event.Name,
		Description:    event.Description,
		MediaUri:       event.MediaUri,
		Collection:     event.Collection,
		Recipient:      event.Recipient,
		DwalletId:      event.DwalletId,
		DwalletCapId:   event.DwalletCapId,
		CustodyPubkey:  event.CustodyPubkey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SealStatusEvent is published on every major lifecycle transition.
// Redis subscribers get the Avro encoding, AppSync gets JSON.
type SealStatusEvent struct {
	SealHash         string `json:"seal_hash" avro:"seal_hash"`
	Status           string `json:"status" avro:"status"`
	SourceChain      int    `json:"source_chain" avro:"source_chain"`
	DestAssetAddress string `json:"dest_asset_address" avro:"dest_asset_address"`
	Error            string `json:"error" avro:"error"`
	Timestamp        int64  `json:"timestamp" avro:"timestamp"`
}

var sealStatusEventSchema = avro.MustParse(`{
	"type": "record",
	"name": "SealStatusEvent",
	"fields": [
		{"name": "seal_hash", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "source_chain", "type": "int"},
		{"name": "dest_asset_address", "type": "string"},
		{"name": "error", "type": "string"},
		{"name": "timestamp", "type": "long"}
	]
}`)

func (self *SealStatusEvent) MarshalBinary() ([]byte, error) {
	return avro.Marshal(sealStatusEventSchema, self)
}

func (self *SealStatusEvent) MarshalJSON() ([]byte, error) {
	type plain SealStatusEvent
	return json.Marshal((*plain)(self))
}
