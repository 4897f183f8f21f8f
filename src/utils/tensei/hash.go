package tensei

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// SealHash is the identity of a seal. Contract and token id go in hashed,
// their raw encodings differ per chain and may exceed the fixed layout.
func SealHash(sourceChain Chain, contract, tokenId []byte, nonce uint64) (out [32]byte) {
	h := sha256.New()

	var chainBytes [2]byte
	binary.BigEndian.PutUint16(chainBytes[:], uint16(sourceChain))
	h.Write(chainBytes[:])

	contractHash := sha256.Sum256(contract)
	h.Write(contractHash[:])

	tokenIdHash := sha256.Sum256(tokenId)
	h.Write(tokenIdHash[:])

	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	h.Write(nonceBytes[:])

	copy(out[:], h.Sum(nil))
	return
}

// ValidateAssetFields checks the limits the destination program enforces,
// rejecting early saves a doomed round trip
func ValidateAssetFields(name, uri, contract, tokenId string) error {
	if len(name) > MaxNameLength {
		return fmt.Errorf("name too long: %d > %d", len(name), MaxNameLength)
	}
	if len(uri) > MaxUriLength {
		return fmt.Errorf("uri too long: %d > %d", len(uri), MaxUriLength)
	}
	if len(contract) > MaxContractLength {
		return fmt.Errorf("contract address too long: %d > %d", len(contract), MaxContractLength)
	}
	if len(tokenId) > MaxTokenIdLength {
		return fmt.Errorf("token id too long: %d > %d", len(tokenId), MaxTokenIdLength)
	}
	return nil
}
