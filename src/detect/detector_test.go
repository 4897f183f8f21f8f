package detect

import (
	"testing"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/model"
	monitor_relayer "github.com/ika-tensei/relayer/src/utils/monitoring/relayer"
	"github.com/ika-tensei/relayer/src/utils/tensei"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestDetectorTestSuite(t *testing.T) {
	suite.Run(t, new(DetectorTestSuite))
}

type DetectorTestSuite struct {
	suite.Suite
	monitor  *monitor_relayer.Monitor
	detector *Detector
}

func (s *DetectorTestSuite) SetupTest() {
	s.monitor = monitor_relayer.NewMonitor().WithMaxHistorySize(1)
	s.detector = NewDetector(config.Default()).
		WithMonitor(s.monitor)
}

func (s *DetectorTestSuite) TestWatchedKeyNormalizesEvmCase() {
	require.Equal(s.T(),
		watchedKey(tensei.ChainEthereum, "0xAbCdEf"),
		watchedKey(tensei.ChainEthereum, "0xabcdef"))

	// Other chains are case sensitive
	require.NotEqual(s.T(),
		watchedKey(tensei.ChainSolana, "PubKey"),
		watchedKey(tensei.ChainSolana, "pubkey"))

	// The chain is part of the key, same address on two chains never collides
	require.NotEqual(s.T(),
		watchedKey(tensei.ChainEthereum, "0xabc"),
		watchedKey(tensei.ChainSui, "0xabc"))
}

func (s *DetectorTestSuite) TestLookupIgnoresEvmCase() {
	wallet := &model.CustodyWallet{Id: 1, Chain: "ethereum", DepositAddress: "0xdeposit"}
	s.detector.watched[watchedKey(tensei.ChainEthereum, wallet.DepositAddress)] = wallet

	require.Equal(s.T(), wallet, s.detector.Lookup(tensei.ChainEthereum, "0xDePoSiT"))
	require.Nil(s.T(), s.detector.Lookup(tensei.ChainEthereum, "0xother"))
	require.Nil(s.T(), s.detector.Lookup(tensei.ChainSui, "0xdeposit"))
}

func (s *DetectorTestSuite) TestWatchedAddressesFiltersByChain() {
	s.detector.watched[watchedKey(tensei.ChainEthereum, "0xa")] =
		&model.CustodyWallet{Chain: "ethereum", DepositAddress: "0xa"}
	s.detector.watched[watchedKey(tensei.ChainSolana, "DepositPubkey")] =
		&model.CustodyWallet{Chain: "solana", DepositAddress: "DepositPubkey"}

	require.Equal(s.T(), []string{"0xa"}, s.detector.WatchedAddresses(tensei.ChainEthereum))
	require.Equal(s.T(), []string{"DepositPubkey"}, s.detector.WatchedAddresses(tensei.ChainSolana))
	require.Empty(s.T(), s.detector.WatchedAddresses(tensei.ChainNear))
}

func (s *DetectorTestSuite) TestEmitDropsSeenTransactions() {
	// Seeded under the normalized key, the mixed case delivery must hit it
	// before reaching the database
	s.detector.seenCache.SetDefault("ethereum/0xabcdef", struct{}{})

	err := s.detector.emit(&DepositPayload{
		Chain:  tensei.ChainEthereum,
		TxHash: "0xABCDEF",
	})
	require.Nil(s.T(), err)
	require.Equal(s.T(), uint64(1),
		s.monitor.GetReport().Detector.State.DepositsDuplicate.Load())
}
