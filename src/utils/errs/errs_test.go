package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestErrsTestSuite(t *testing.T) {
	suite.Run(t, new(ErrsTestSuite))
}

type ErrsTestSuite struct {
	suite.Suite
}

func (s *ErrsTestSuite) TestClassification() {
	rejection := Rejection(errors.New("already minted"))
	require.True(s.T(), IsRejection(rejection))
	require.False(s.T(), IsRecoverable(rejection))
	require.False(s.T(), IsFatal(rejection))

	recoverable := Recoverable(errors.New("rpc timeout"))
	require.True(s.T(), IsRecoverable(recoverable))
	require.False(s.T(), IsRejection(recoverable))

	fatal := Fatal(errors.New("bad keypair"))
	require.True(s.T(), IsFatal(fatal))
	require.False(s.T(), IsRecoverable(fatal))
}

func (s *ErrsTestSuite) TestWrappingPreservesClass() {
	cause := Rejection(errors.New("registry closed"))
	wrapped := fmt.Errorf("failed to close seal: %w", cause)

	require.True(s.T(), IsRejection(wrapped))
	require.False(s.T(), IsRecoverable(wrapped))
}

func (s *ErrsTestSuite) TestUnwrapKeepsCause() {
	cause := errors.New("custody pool exhausted")
	require.True(s.T(), errors.Is(Recoverable(cause), cause))
}

func (s *ErrsTestSuite) TestNilStaysNil() {
	require.Nil(s.T(), Rejection(nil))
	require.Nil(s.T(), Recoverable(nil))
	require.Nil(s.T(), Fatal(nil))
}

func (s *ErrsTestSuite) TestPlainErrorsHaveNoClass() {
	err := errors.New("plain")
	require.False(s.T(), IsRejection(err))
	require.False(s.T(), IsRecoverable(err))
	require.False(s.T(), IsFatal(err))
}
