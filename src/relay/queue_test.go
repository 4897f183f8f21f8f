package relay

import (
	"testing"

	"github.com/ika-tensei/relayer/src/utils/config"
	monitor_relayer "github.com/ika-tensei/relayer/src/utils/monitoring/relayer"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestQueueTestSuite(t *testing.T) {
	suite.Run(t, new(QueueTestSuite))
}

type QueueTestSuite struct {
	suite.Suite
	config *config.Config
	queue  *Queue
}

func (s *QueueTestSuite) SetupSuite() {
	s.config = config.Default()
	s.config.Relayer.QueueMaxRetries = 2
}

func (s *QueueTestSuite) SetupTest() {
	s.queue = NewQueue(s.config).
		WithMonitor(monitor_relayer.NewMonitor().WithMaxHistorySize(1))
}

func (s *QueueTestSuite) TestEnqueueDeduplicates() {
	require.True(s.T(), s.queue.Enqueue(&SealEvent{SealHash: "a"}, PriorityNormal))
	require.False(s.T(), s.queue.Enqueue(&SealEvent{SealHash: "a"}, PriorityNormal))
	require.Equal(s.T(), 1, s.queue.Len())
}

func (s *QueueTestSuite) TestFreshBeatsSwept() {
	s.queue.Enqueue(&SealEvent{SealHash: "swept"}, PrioritySweep)
	s.queue.Enqueue(&SealEvent{SealHash: "fresh"}, PriorityNormal)

	batch := s.queue.NextBatch(10)
	require.Len(s.T(), batch, 2)
	require.Equal(s.T(), "fresh", batch[0].SealHash)
	require.Equal(s.T(), "swept", batch[1].SealHash)
}

func (s *QueueTestSuite) TestSamePriorityKeepsEnqueueOrder() {
	s.queue.Enqueue(&SealEvent{SealHash: "first"}, PriorityNormal)
	s.queue.Enqueue(&SealEvent{SealHash: "second"}, PriorityNormal)

	batch := s.queue.NextBatch(10)
	require.Equal(s.T(), "first", batch[0].SealHash)
	require.Equal(s.T(), "second", batch[1].SealHash)
}

func (s *QueueTestSuite) TestNextBatchHonorsLimit() {
	s.queue.Enqueue(&SealEvent{SealHash: "a"}, PriorityNormal)
	s.queue.Enqueue(&SealEvent{SealHash: "b"}, PriorityNormal)
	s.queue.Enqueue(&SealEvent{SealHash: "c"}, PriorityNormal)

	require.Len(s.T(), s.queue.NextBatch(2), 2)
}

func (s *QueueTestSuite) TestStartProcessingClaimsOnce() {
	s.queue.Enqueue(&SealEvent{SealHash: "a"}, PriorityNormal)

	require.True(s.T(), s.queue.StartProcessing("a"))
	require.False(s.T(), s.queue.StartProcessing("a"))

	// Locked hashes are refused until the lock clears
	require.False(s.T(), s.queue.Enqueue(&SealEvent{SealHash: "a"}, PriorityNormal))
	require.Empty(s.T(), s.queue.NextBatch(10))

	s.queue.FinishProcessing("a")
	require.True(s.T(), s.queue.Enqueue(&SealEvent{SealHash: "a"}, PriorityNormal))
}

func (s *QueueTestSuite) TestStartProcessingUnknownHash() {
	require.False(s.T(), s.queue.StartProcessing("never-enqueued"))
}

func (s *QueueTestSuite) TestRequeueOrdersBehindFresh() {
	s.queue.Enqueue(&SealEvent{SealHash: "tried"}, PriorityNormal)

	item := s.queue.NextBatch(1)[0]
	require.True(s.T(), s.queue.StartProcessing("tried"))
	s.queue.Release("tried")
	require.True(s.T(), s.queue.Requeue(item))

	s.queue.Enqueue(&SealEvent{SealHash: "fresh"}, PriorityNormal)

	batch := s.queue.NextBatch(10)
	require.Len(s.T(), batch, 2)
	require.Equal(s.T(), "fresh", batch[0].SealHash)
	require.Equal(s.T(), "tried", batch[1].SealHash)
	require.Equal(s.T(), 1, batch[1].Retries)
}

func (s *QueueTestSuite) TestRetriesExhausted() {
	s.queue.Enqueue(&SealEvent{SealHash: "doomed"}, PriorityNormal)
	item := s.queue.NextBatch(1)[0]

	for i := 0; i < s.config.Relayer.QueueMaxRetries; i++ {
		require.True(s.T(), s.queue.StartProcessing("doomed"))
		s.queue.Release("doomed")
		require.True(s.T(), s.queue.Requeue(item))
	}

	require.True(s.T(), s.queue.StartProcessing("doomed"))
	s.queue.Release("doomed")
	require.False(s.T(), s.queue.Requeue(item))

	select {
	case terminal := <-s.queue.TerminalFailures:
		require.Equal(s.T(), "doomed", terminal.SealHash)
		require.Equal(s.T(), s.config.Relayer.QueueMaxRetries+1, terminal.Retries)
	default:
		s.T().Fatal("expected a terminal failure")
	}
}

func (s *QueueTestSuite) TestRetryByHashAlone() {
	require.True(s.T(), s.queue.Retry("failed-seal"))

	batch := s.queue.NextBatch(1)
	require.Len(s.T(), batch, 1)
	require.Equal(s.T(), "failed-seal", batch[0].Event.SealHash)

	require.False(s.T(), s.queue.Retry("failed-seal"))
}
