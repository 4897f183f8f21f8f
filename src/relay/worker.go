package relay

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/errs"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/task"
)

// Worker pulls batches off the queue and hands each seal to the pool of
// goroutines that advance it. Transient failures retry in place with
// backoff, then go back to the queue with lowered priority. Rejections fail
// the seal immediately, retrying can't fix them.
type Worker struct {
	*task.Task

	monitor      monitoring.Monitor
	queue        *Queue
	orchestrator *Orchestrator
}

func NewWorker(config *config.Config) (self *Worker) {
	self = new(Worker)

	self.Task = task.NewTask(config, "worker").
		WithPeriodicSubtaskFunc(config.Relayer.WorkerInterval, self.dispatch).
		WithSubtaskFunc(self.drainTerminal).
		WithWorkerPool(config.Relayer.WorkerPoolMaxWorkers, config.Relayer.WorkerPoolMaxQueueSize)

	return
}

func (self *Worker) WithMonitor(monitor monitoring.Monitor) *Worker {
	self.monitor = monitor
	return self
}

func (self *Worker) WithQueue(queue *Queue) *Worker {
	self.queue = queue
	return self
}

func (self *Worker) WithOrchestrator(orchestrator *Orchestrator) *Worker {
	self.orchestrator = orchestrator
	return self
}

func (self *Worker) dispatch() error {
	batch := self.queue.NextBatch(self.Config.Relayer.QueueMaxBatchSize)
	for _, item := range batch {
		if self.IsStopping.Load() {
			return nil
		}

		// Lost to a concurrent dispatch or the seal got locked meanwhile
		if !self.queue.StartProcessing(item.SealHash) {
			continue
		}

		item := item
		self.SubmitToWorker(func() {
			self.process(item)
		})
	}
	return nil
}

func (self *Worker) process(item *QueueItem) {
	err := task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(self.Config.Relayer.WorkerBackoffMaxElapsedTime).
		WithMaxInterval(self.Config.Relayer.WorkerBackoffMaxInterval).
		WithAcceptableDuration(self.Config.Relayer.WorkerBackoffMaxInterval * 2).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if errors.Is(err, context.Canceled) && self.IsStopping.Load() {
				return backoff.Permanent(err)
			}
			if errs.IsRejection(err) {
				return backoff.Permanent(err)
			}

			self.Log.WithError(err).
				WithField("seal_hash", item.SealHash).
				Warn("Failed to advance seal, retrying")
			return err
		}).
		Run(func() error {
			return self.orchestrator.Process(self.Ctx, item)
		})

	switch {
	case err == nil:
		self.queue.FinishProcessing(item.SealHash)
	case errors.Is(err, context.Canceled) && self.IsStopping.Load():
		// Shutting down, the sweeper brings the seal back after restart
		self.queue.Release(item.SealHash)
	case errs.IsRejection(err):
		self.monitor.GetReport().Relayer.Errors.SealRejections.Inc()
		self.Log.WithError(err).
			WithField("seal_hash", item.SealHash).
			Error("Seal rejected")
		self.orchestrator.Fail(self.Ctx, item, err.Error())
		self.queue.FinishProcessing(item.SealHash)
	default:
		// Transient trouble outlasted the in-place backoff. Release before
		// requeueing, the queue refuses items it still considers locked.
		self.queue.Release(item.SealHash)
		self.queue.Requeue(item)
	}
}

// Seals that exhausted their requeue budget get parked with an error
func (self *Worker) drainTerminal() (err error) {
	for {
		select {
		case <-self.Ctx.Done():
			return nil
		case item, ok := <-self.queue.TerminalFailures:
			if !ok {
				return nil
			}

			self.monitor.GetReport().Relayer.Errors.PermanentFailures.Inc()
			self.Log.WithField("seal_hash", item.SealHash).
				WithField("retries", item.Retries).
				Error("Seal failed permanently, retry budget exhausted")
			self.orchestrator.Fail(self.Ctx, item, "retry budget exhausted")
		}
	}
}
