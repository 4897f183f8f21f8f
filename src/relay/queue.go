package relay

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/logger"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/sirupsen/logrus"
)

// Enqueue priorities. Fresh triggers beat swept backlog, each requeue of an
// item sinks it by one.
const (
	PriorityNormal = 0
	PrioritySweep  = -10
)

type QueueItem struct {
	SealHash   string
	Event      *SealEvent
	Priority   int
	EnqueuedAt time.Time
	Retries    int
}

// Queue orders pending seals by priority and keeps one invariant: a seal
// hash is queued, or locked for processing, never both. Enqueueing the same
// hash twice is a no-op, which is what lets every trigger path (deposit
// insert, database notification, attestation event, sweep) fire blindly.
type Queue struct {
	config  *config.Config
	log     *logrus.Entry
	monitor monitoring.Monitor

	// Items whose retries ran out, consumed by the worker to fail the seal
	TerminalFailures chan *QueueItem

	mtx        sync.Mutex
	items      deque.Deque[*QueueItem]
	queued     map[string]struct{}
	locked     map[string]struct{}
	processing map[string]struct{}
}

func NewQueue(config *config.Config) (self *Queue) {
	self = new(Queue)
	self.config = config
	self.log = logger.NewSublogger("queue")

	self.TerminalFailures = make(chan *QueueItem, config.Relayer.QueueChannelSize)

	self.queued = make(map[string]struct{})
	self.locked = make(map[string]struct{})
	self.processing = make(map[string]struct{})

	return
}

func (self *Queue) WithMonitor(monitor monitoring.Monitor) *Queue {
	self.monitor = monitor
	return self
}

// Enqueue inserts the event ordered by priority, ties broken by enqueue
// time. Returns false without touching anything when the seal hash is
// already queued, locked or processing.
func (self *Queue) Enqueue(event *SealEvent, priority int) bool {
	item := &QueueItem{
		SealHash:   event.SealHash,
		Event:      event,
		Priority:   priority,
		EnqueuedAt: time.Now(),
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.insert(item)
}

// Retry enqueues a seal by hash alone. The record already exists, the
// orchestrator resumes it from its persisted artifacts. Used by the
// operator retry route.
func (self *Queue) Retry(sealHash string) bool {
	return self.Enqueue(&SealEvent{SealHash: sealHash}, PriorityNormal)
}

// Requeue re-inserts a failed item with one more retry on record and a
// lowered priority. Past the retry limit the item goes to TerminalFailures
// instead. Re-insertion stamps a fresh enqueue time, a retried item does not
// inherit its original place in line.
func (self *Queue) Requeue(item *QueueItem) bool {
	item.Retries++

	if item.Retries > self.config.Relayer.QueueMaxRetries {
		self.log.WithField("seal_hash", item.SealHash).
			WithField("retries", item.Retries).
			Warn("Retries exhausted")
		self.TerminalFailures <- item
		return false
	}

	item.Priority--
	item.EnqueuedAt = time.Now()

	self.monitor.GetReport().Relayer.State.SealsRequeued.Inc()

	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.insert(item)
}

// NextBatch lists up to n queued items that aren't locked or processing.
// Items stay in the queue until StartProcessing claims them.
func (self *Queue) NextBatch(n int) (out []*QueueItem) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	for i := 0; i < self.items.Len() && len(out) < n; i++ {
		item := self.items.At(i)
		if _, ok := self.locked[item.SealHash]; ok {
			continue
		}
		if _, ok := self.processing[item.SealHash]; ok {
			continue
		}
		out = append(out, item)
	}
	return
}

// StartProcessing moves a seal hash from the queue into the locked state.
// Returns false when another worker got to it first.
func (self *Queue) StartProcessing(sealHash string) bool {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if _, ok := self.queued[sealHash]; !ok {
		return false
	}
	if _, ok := self.locked[sealHash]; ok {
		return false
	}

	idx := self.items.Index(func(item *QueueItem) bool {
		return item.SealHash == sealHash
	})
	if idx < 0 {
		return false
	}
	self.items.Remove(idx)
	delete(self.queued, sealHash)

	self.locked[sealHash] = struct{}{}
	self.processing[sealHash] = struct{}{}

	self.updateGauges()
	return true
}

// FinishProcessing releases the lock after the item's lifecycle step is done
func (self *Queue) FinishProcessing(sealHash string) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	delete(self.locked, sealHash)
	delete(self.processing, sealHash)
	self.updateGauges()
}

// Release clears the lock without requeueing, the caller decides what
// happens to the seal next
func (self *Queue) Release(sealHash string) {
	self.FinishProcessing(sealHash)
}

func (self *Queue) Len() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.items.Len()
}

// insert keeps the deque sorted by priority descending, enqueue time
// ascending. Caller holds the mutex.
func (self *Queue) insert(item *QueueItem) bool {
	if _, ok := self.queued[item.SealHash]; ok {
		return false
	}
	if _, ok := self.locked[item.SealHash]; ok {
		return false
	}
	if _, ok := self.processing[item.SealHash]; ok {
		return false
	}

	at := self.items.Len()
	for i := 0; i < self.items.Len(); i++ {
		other := self.items.At(i)
		if other.Priority < item.Priority ||
			(other.Priority == item.Priority && other.EnqueuedAt.After(item.EnqueuedAt)) {
			at = i
			break
		}
	}
	self.items.Insert(at, item)
	self.queued[item.SealHash] = struct{}{}

	self.updateGauges()
	return true
}

func (self *Queue) updateGauges() {
	self.monitor.GetReport().Relayer.State.SealsQueued.Store(int64(len(self.queued)))
	self.monitor.GetReport().Relayer.State.SealsProcessing.Store(int64(len(self.processing)))
}
