package derive

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"golang.org/x/crypto/blake2b"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestDeriveTestSuite(t *testing.T) {
	suite.Run(t, new(DeriveTestSuite))
}

type DeriveTestSuite struct {
	suite.Suite
}

// Public key of secp256k1 private key 1, its address is a fixture every EVM
// toolbox agrees on
const (
	generatorCompressed   = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	generatorUncompressed = "0479be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8"
	generatorAddress      = "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"
)

func (s *DeriveTestSuite) TestEvmAddress() {
	compressed, err := hex.DecodeString(generatorCompressed)
	require.Nil(s.T(), err)

	address, err := DepositAddress(tensei.ChainEthereum, compressed)
	require.Nil(s.T(), err)
	require.Equal(s.T(), generatorAddress, address)

	// Uncompressed form of the same key lands on the same address
	uncompressed, err := hex.DecodeString(generatorUncompressed)
	require.Nil(s.T(), err)

	address, err = DepositAddress(tensei.ChainEthereum, uncompressed)
	require.Nil(s.T(), err)
	require.Equal(s.T(), generatorAddress, address)
}

func (s *DeriveTestSuite) TestEvmAddressIsLowercase() {
	compressed, _ := hex.DecodeString(generatorCompressed)
	address, err := DepositAddress(tensei.ChainEthereum, compressed)
	require.Nil(s.T(), err)
	require.Equal(s.T(), strings.ToLower(address), address)
}

func (s *DeriveTestSuite) TestSolanaAddress() {
	publicKey := make([]byte, 32)

	address, err := DepositAddress(tensei.ChainSolana, publicKey)
	require.Nil(s.T(), err)
	require.Equal(s.T(), "11111111111111111111111111111111", address)
}

func (s *DeriveTestSuite) TestSuiAddress() {
	publicKey := make([]byte, 32)
	publicKey[0] = 0x42

	address, err := DepositAddress(tensei.ChainSui, publicKey)
	require.Nil(s.T(), err)

	// Blake2b over the scheme flag and the key, per the Sui address spec
	h, err := blake2b.New256(nil)
	require.Nil(s.T(), err)
	h.Write([]byte{0x00})
	h.Write(publicKey)
	require.Equal(s.T(), "0x"+hex.EncodeToString(h.Sum(nil)), address)
}

func (s *DeriveTestSuite) TestNearAddress() {
	publicKey := make([]byte, 32)
	publicKey[31] = 0x01

	address, err := DepositAddress(tensei.ChainNear, publicKey)
	require.Nil(s.T(), err)
	require.Equal(s.T(), hex.EncodeToString(publicKey), address)
	require.Len(s.T(), address, 64)
}

func (s *DeriveTestSuite) TestRejectsWrongKeyLength() {
	_, err := DepositAddress(tensei.ChainEthereum, make([]byte, 32))
	require.NotNil(s.T(), err)

	_, err = DepositAddress(tensei.ChainSolana, make([]byte, 31))
	require.NotNil(s.T(), err)

	_, err = DepositAddress(tensei.ChainSui, make([]byte, 33))
	require.NotNil(s.T(), err)
}

func (s *DeriveTestSuite) TestNoBitcoinDerivation() {
	_, err := DepositAddress(tensei.ChainBitcoin, make([]byte, 33))
	require.NotNil(s.T(), err)
}

func (s *DeriveTestSuite) TestCurveMatches() {
	require.True(s.T(), CurveMatches(tensei.ChainEthereum, model.CurveSecp256k1))
	require.True(s.T(), CurveMatches(tensei.ChainSolana, model.CurveEd25519))
	require.False(s.T(), CurveMatches(tensei.ChainEthereum, model.CurveEd25519))
	require.False(s.T(), CurveMatches(tensei.ChainSui, model.CurveSecp256k1))
}
