package tensei

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

const (
	// Leading byte of a seal attestation payload
	PayloadTypeSeal = 0x01

	// Type byte + chain id + two field hashes + custody pubkey + receiver
	MinSealPayloadLength = 1 + 2 + 32 + 32 + 32 + 32

	// Field limits enforced by the destination program
	MaxUriLength      = 200
	MaxNameLength     = 32
	MaxContractLength = 64
	MaxTokenIdLength  = 64
)

// SealPayload is the attestation emitted when an asset gets sealed.
// Variable length fields travel as their SHA-256 so the payload stays
// fixed-offset, only the token URI trails it raw.
type SealPayload struct {
	SourceChain   Chain
	ContractHash  [32]byte
	TokenIdHash   [32]byte
	CustodyPubkey [32]byte
	Receiver      [32]byte
	TokenUri      string
}

func (self *SealPayload) Bytes() []byte {
	out := make([]byte, 0, MinSealPayloadLength+len(self.TokenUri))
	out = append(out, PayloadTypeSeal)
	out = binary.BigEndian.AppendUint16(out, uint16(self.SourceChain))
	out = append(out, self.ContractHash[:]...)
	out = append(out, self.TokenIdHash[:]...)
	out = append(out, self.CustodyPubkey[:]...)
	out = append(out, self.Receiver[:]...)
	out = append(out, []byte(self.TokenUri)...)
	return out
}

func ParseSealPayload(data []byte) (self *SealPayload, err error) {
	if len(data) < MinSealPayloadLength {
		err = fmt.Errorf("seal payload too short: %d bytes", len(data))
		return
	}
	if data[0] != PayloadTypeSeal {
		err = fmt.Errorf("unknown payload type: 0x%02x", data[0])
		return
	}

	self = new(SealPayload)
	self.SourceChain = Chain(binary.BigEndian.Uint16(data[1:3]))
	copy(self.ContractHash[:], data[3:35])
	copy(self.TokenIdHash[:], data[35:67])
	copy(self.CustodyPubkey[:], data[67:99])
	copy(self.Receiver[:], data[99:131])
	self.TokenUri = string(data[131:])

	return
}

// NewSealPayload hashes the variable length fields into the fixed layout
func NewSealPayload(sourceChain Chain, contract, tokenId []byte, custodyPubkey, receiver [32]byte, tokenUri string) *SealPayload {
	return &SealPayload{
		SourceChain:   sourceChain,
		ContractHash:  sha256.Sum256(contract),
		TokenIdHash:   sha256.Sum256(tokenId),
		CustodyPubkey: custodyPubkey,
		Receiver:      receiver,
		TokenUri:      tokenUri,
	}
}
