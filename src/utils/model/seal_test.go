package model

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestSealStatusTestSuite(t *testing.T) {
	suite.Run(t, new(SealStatusTestSuite))
}

type SealStatusTestSuite struct {
	suite.Suite
}

var lifecycleOrder = []SealStatus{
	SealStatusSealed,
	SealStatusSigning,
	SealStatusSigned,
	SealStatusVerifying,
	SealStatusVerified,
	SealStatusMinting,
	SealStatusMinted,
	SealStatusClosing,
	SealStatusCompleted,
}

func (s *SealStatusTestSuite) TestForwardTransitions() {
	for i := 0; i < len(lifecycleOrder)-1; i++ {
		require.True(s.T(), lifecycleOrder[i].CanAdvanceTo(lifecycleOrder[i+1]),
			"%s -> %s", lifecycleOrder[i], lifecycleOrder[i+1])
	}
}

func (s *SealStatusTestSuite) TestSkippingForwardIsAllowed() {
	// A restart resumes from persisted artifacts, which can put the seal
	// several phases ahead of its stored status
	require.True(s.T(), SealStatusSealed.CanAdvanceTo(SealStatusVerified))
	require.True(s.T(), SealStatusSigned.CanAdvanceTo(SealStatusMinted))
}

func (s *SealStatusTestSuite) TestBackwardTransitionsRefused() {
	for i := 1; i < len(lifecycleOrder); i++ {
		require.False(s.T(), lifecycleOrder[i].CanAdvanceTo(lifecycleOrder[i-1]),
			"%s -> %s", lifecycleOrder[i], lifecycleOrder[i-1])
	}
}

func (s *SealStatusTestSuite) TestFailedReachableFromAnyNonTerminal() {
	for _, status := range lifecycleOrder[:len(lifecycleOrder)-1] {
		require.True(s.T(), status.CanAdvanceTo(SealStatusFailed), "%s -> failed", status)
	}
}

func (s *SealStatusTestSuite) TestTerminalStatusesBlockEverything() {
	for _, terminal := range []SealStatus{SealStatusCompleted, SealStatusFailed} {
		require.True(s.T(), terminal.IsTerminal())
		for _, next := range append(lifecycleOrder, SealStatusFailed) {
			require.False(s.T(), terminal.CanAdvanceTo(next), "%s -> %s", terminal, next)
		}
	}
}

func (s *SealStatusTestSuite) TestUnknownStatusRanksBelowEverything() {
	require.Equal(s.T(), -1, SealStatus("bogus").Rank())
}
