package relay

import (
	"time"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
)

// Sweeper re-enqueues unfinished seals that stopped moving. Covers crashes,
// lost notifications and instances that died mid-seal, the store is the
// source of truth and the queue dedup keeps double sweeps harmless.
type Sweeper struct {
	*task.Task

	monitor monitoring.Monitor
	store   *Store
	queue   *Queue
}

func NewSweeper(config *config.Config) (self *Sweeper) {
	self = new(Sweeper)

	self.Task = task.NewTask(config, "sweeper").
		WithPeriodicSubtaskFunc(config.Relayer.SweeperInterval, self.sweep)

	return
}

func (self *Sweeper) WithMonitor(monitor monitoring.Monitor) *Sweeper {
	self.monitor = monitor
	return self
}

func (self *Sweeper) WithStore(store *Store) *Sweeper {
	self.store = store
	return self
}

func (self *Sweeper) WithQueue(queue *Queue) *Sweeper {
	self.queue = queue
	return self
}

func (self *Sweeper) sweep() (err error) {
	olderThan := time.Now().Add(-self.Config.Relayer.SweeperStaleAfter)

	seals, err := self.store.LoadStale(self.Ctx, olderThan, self.Config.Relayer.SweeperBatchSize)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.SweeperFailures.Inc()
		self.Log.WithError(err).Error("Failed to load stale seals")
		return nil
	}

	swept := 0
	for _, seal := range seals {
		if self.IsStopping.Load() {
			return nil
		}

		// The record already exists, the hash is all the event needs to carry
		event := &SealEvent{
			SealHash:    seal.SealHash,
			SourceChain: tensei.Chain(seal.SourceChain),
		}
		if self.queue.Enqueue(event, PrioritySweep) {
			swept += 1
			self.monitor.GetReport().Relayer.State.SealsSwept.Inc()
		}
	}

	if swept > 0 {
		self.Log.WithField("count", swept).Info("Re-enqueued stale seals")
	}
	return nil
}
