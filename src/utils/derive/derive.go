package derive

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"golang.org/x/crypto/blake2b"
)

const (
	// Sui address derivation prepends the signature scheme flag
	suiSchemeFlagEd25519 = 0x00

	ed25519PublicKeyLength = 32
)

// DepositAddress turns a custody public key into the chain-native address
// depositors send the asset to. Addresses are normalized so lookups can
// compare them byte for byte.
func DepositAddress(chain tensei.Chain, publicKey []byte) (address string, err error) {
	switch chain {
	case tensei.ChainEthereum:
		return evmAddress(publicKey)
	case tensei.ChainSui:
		return suiAddress(publicKey)
	case tensei.ChainSolana:
		return solanaAddress(publicKey)
	case tensei.ChainNear:
		return nearAddress(publicKey)
	}

	err = fmt.Errorf("no address derivation for chain %s", chain)
	return
}

// CurveMatches tells whether the raw key material fits the chain
func CurveMatches(chain tensei.Chain, curve model.Curve) bool {
	return chain.Curve() == curve
}

func evmAddress(publicKey []byte) (address string, err error) {
	var pub *ecdsa.PublicKey
	switch len(publicKey) {
	case 33:
		pub, err = crypto.DecompressPubkey(publicKey)
	case 65:
		pub, err = crypto.UnmarshalPubkey(publicKey)
	default:
		err = fmt.Errorf("secp256k1 public key has %d bytes, want 33 or 65", len(publicKey))
	}
	if err != nil {
		return
	}

	address = strings.ToLower(crypto.PubkeyToAddress(*pub).Hex())
	return
}

func suiAddress(publicKey []byte) (address string, err error) {
	if len(publicKey) != ed25519PublicKeyLength {
		err = fmt.Errorf("ed25519 public key has %d bytes, want %d", len(publicKey), ed25519PublicKeyLength)
		return
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return
	}
	h.Write([]byte{suiSchemeFlagEd25519})
	h.Write(publicKey)

	address = "0x" + hex.EncodeToString(h.Sum(nil))
	return
}

func solanaAddress(publicKey []byte) (address string, err error) {
	if len(publicKey) != ed25519PublicKeyLength {
		err = fmt.Errorf("ed25519 public key has %d bytes, want %d", len(publicKey), ed25519PublicKeyLength)
		return
	}

	address = solana.PublicKeyFromBytes(publicKey).String()
	return
}

// NEAR implicit accounts are the hex of the ed25519 public key
func nearAddress(publicKey []byte) (address string, err error) {
	if len(publicKey) != ed25519PublicKeyLength {
		err = fmt.Errorf("ed25519 public key has %d bytes, want %d", len(publicKey), ed25519PublicKeyLength)
		return
	}

	address = hex.EncodeToString(publicKey)
	return
}
