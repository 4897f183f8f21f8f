package relay

import (
	"testing"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/tensei"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestPoolTestSuite(t *testing.T) {
	suite.Run(t, new(PoolTestSuite))
}

type PoolTestSuite struct {
	suite.Suite
	pool *Pool
}

func (s *PoolTestSuite) SetupTest() {
	s.pool = NewPool(config.Default())
}

func (s *PoolTestSuite) TestPrimaryChainPerCurve() {
	require.Equal(s.T(), tensei.ChainEthereum, primaryChain(model.CurveSecp256k1))
	require.Equal(s.T(), tensei.ChainSolana, primaryChain(model.CurveEd25519))
}

func (s *PoolTestSuite) TestDecodePublicKey() {
	out, err := decodePublicKey("0xdeadbeef")
	require.Nil(s.T(), err)
	require.Equal(s.T(), []byte{0xde, 0xad, 0xbe, 0xef}, out)

	// The prefix is optional
	out, err = decodePublicKey("deadbeef")
	require.Nil(s.T(), err)
	require.Equal(s.T(), []byte{0xde, 0xad, 0xbe, 0xef}, out)

	_, err = decodePublicKey("0xnothex")
	require.NotNil(s.T(), err)
}

func (s *PoolTestSuite) TestDepositAddressFollowsRequestedChain() {
	// Same ed25519 key lands on different addresses per chain
	key := "0x" + "00000000000000000000000000000000000000000000000000000000000000ff"

	solanaAddress, err := s.pool.depositAddress(tensei.ChainSolana, key)
	require.Nil(s.T(), err)
	require.NotEmpty(s.T(), solanaAddress)

	suiAddress, err := s.pool.depositAddress(tensei.ChainSui, key)
	require.Nil(s.T(), err)
	require.NotEqual(s.T(), solanaAddress, suiAddress)

	nearAddress, err := s.pool.depositAddress(tensei.ChainNear, key)
	require.Nil(s.T(), err)
	require.Equal(s.T(), "00000000000000000000000000000000000000000000000000000000000000ff", nearAddress)
}

func (s *PoolTestSuite) TestReplenishSignalNeverBlocks() {
	// Signals past the channel capacity are dropped, a replenish is already
	// on its way anyway
	for i := 0; i < 100; i++ {
		s.pool.TriggerReplenish(model.CurveEd25519)
	}
}
