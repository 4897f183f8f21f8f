package tensei

import (
	"errors"

	"github.com/ika-tensei/relayer/src/utils/model"
)

// Protocol chain ids, stable across every component and the on-chain
// programs
type Chain uint16

const (
	ChainEthereum Chain = 1
	ChainSui      Chain = 2
	ChainSolana   Chain = 3
	ChainNear     Chain = 4
	ChainBitcoin  Chain = 5
)

func (chain Chain) String() string {
	switch chain {
	case ChainEthereum:
		return "ethereum"
	case ChainSui:
		return "sui"
	case ChainSolana:
		return "solana"
	case ChainNear:
		return "near"
	case ChainBitcoin:
		return "bitcoin"
	}
	return ""
}

func ChainFromName(name string) (chain Chain, err error) {
	switch name {
	case "ethereum":
		chain = ChainEthereum
		return
	case "sui":
		chain = ChainSui
		return
	case "solana":
		chain = ChainSolana
		return
	case "near":
		chain = ChainNear
		return
	case "bitcoin":
		chain = ChainBitcoin
		return
	}

	err = errors.New("chain unknown")
	return
}

// Curve of the key material a custody wallet needs on this chain
func (chain Chain) Curve() model.Curve {
	switch chain {
	case ChainEthereum, ChainBitcoin:
		return model.CurveSecp256k1
	}
	return model.CurveEd25519
}

// Payloads bridged through Wormhole carry its chain numbering instead of the
// protocol one
const (
	WormholeChainNear uint16 = 15
	WormholeChainSui  uint16 = 21
)

// ChainFromPayloadId resolves the source chain field of a seal payload. Ids
// in the protocol range map directly, the non-overlapping Wormhole ids are
// translated.
func ChainFromPayloadId(id uint16) (chain Chain, err error) {
	switch id {
	case WormholeChainNear:
		return ChainNear, nil
	case WormholeChainSui:
		return ChainSui, nil
	}

	if id >= uint16(ChainEthereum) && id <= uint16(ChainBitcoin) {
		return Chain(id), nil
	}

	err = errors.New("chain id unknown")
	return
}
