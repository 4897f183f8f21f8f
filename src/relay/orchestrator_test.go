package relay

import (
	"strings"
	"testing"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/errs"
	"github.com/ika-tensei/relayer/src/utils/model"
	monitor_relayer "github.com/ika-tensei/relayer/src/utils/monitoring/relayer"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

type OrchestratorTestSuite struct {
	suite.Suite
	monitor      *monitor_relayer.Monitor
	orchestrator *Orchestrator
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.monitor = monitor_relayer.NewMonitor().WithMaxHistorySize(1)
	s.orchestrator = NewOrchestrator(config.Default()).
		WithMonitor(s.monitor)
}

func (s *OrchestratorTestSuite) TestResumeStatusPicksFurthestArtifact() {
	require.Equal(s.T(), model.SealStatusSealed,
		resumeStatus(&model.Seal{Status: model.SealStatusFailed}))

	require.Equal(s.T(), model.SealStatusSigned,
		resumeStatus(&model.Seal{Signature: "aa"}))

	// The verify artifact outranks the signature it needed
	require.Equal(s.T(), model.SealStatusVerified,
		resumeStatus(&model.Seal{Signature: "aa", VerifyTx: "tx1"}))

	require.Equal(s.T(), model.SealStatusMinted,
		resumeStatus(&model.Seal{Signature: "aa", VerifyTx: "tx1", MintTx: "tx2"}))

	require.Equal(s.T(), model.SealStatusMinted,
		resumeStatus(&model.Seal{DestAssetAddress: "AssetPubkey"}))
}

func (s *OrchestratorTestSuite) TestMintNamePrefersOriginal() {
	name := s.orchestrator.mintName(&model.Seal{
		Name:       "Lost Samurai #42",
		Collection: "Lost Samurai",
		TokenId:    "42",
	})
	require.Equal(s.T(), "Lost Samurai #42", name)
}

func (s *OrchestratorTestSuite) TestMintNameFallsBackToCollection() {
	name := s.orchestrator.mintName(&model.Seal{
		Collection: "Lost Samurai",
		TokenId:    "42",
	})
	require.Equal(s.T(), "Lost Samurai #42", name)
}

func (s *OrchestratorTestSuite) TestMintNameTruncated() {
	name := s.orchestrator.mintName(&model.Seal{
		Name: strings.Repeat("x", 100),
	})
	require.Len(s.T(), name, 32)
}

func (s *OrchestratorTestSuite) TestDecodeSealHash() {
	hash, err := s.orchestrator.decodeSealHash(strings.Repeat("ab", 32))
	require.Nil(s.T(), err)
	require.Equal(s.T(), byte(0xab), hash[0])

	_, err = s.orchestrator.decodeSealHash("abcd")
	require.True(s.T(), errs.IsRejection(err))

	_, err = s.orchestrator.decodeSealHash("not-hex")
	require.True(s.T(), errs.IsRejection(err))
}

func (s *OrchestratorTestSuite) TestDecodeCustodyPubkey() {
	key, err := s.orchestrator.decodeCustodyPubkey("0x" + strings.Repeat("cd", 32))
	require.Nil(s.T(), err)
	require.Equal(s.T(), byte(0xcd), key[31])

	// Bare hex without the prefix is accepted too
	_, err = s.orchestrator.decodeCustodyPubkey(strings.Repeat("cd", 32))
	require.Nil(s.T(), err)

	_, err = s.orchestrator.decodeCustodyPubkey("0x1234")
	require.True(s.T(), errs.IsRejection(err))
}

func (s *OrchestratorTestSuite) TestPublishNeverBlocks() {
	listening := make(chan *SealStatusEvent, 1)
	full := make(chan *SealStatusEvent)

	s.orchestrator.WithEventChannel(listening).WithEventChannel(full)

	s.orchestrator.publish(&model.Seal{
		SealHash: "deadbeef",
		Status:   model.SealStatusCompleted,
	})

	event := <-listening
	require.Equal(s.T(), "deadbeef", event.SealHash)
	require.Equal(s.T(), "completed", event.Status)

	// The unbuffered channel had nobody listening, the event was dropped
	require.Equal(s.T(), uint64(1),
		s.monitor.GetReport().Relayer.Errors.EventsDropped.Load())
}
