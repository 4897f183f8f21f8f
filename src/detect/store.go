package detect

import (
	"time"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/task"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store saves scan cursors in the sync_state table. Cursors arrive much
// faster than they are worth persisting, so writes are batched, only the
// newest cursor per component survives a flush window. One store instance
// runs per poller.
type Store struct {
	*task.Processor[*model.SyncState, *model.SyncState]

	db      *gorm.DB
	monitor monitoring.Monitor

	pending map[model.SyncedComponent]*model.SyncState
}

func NewStore(config *config.Config, name string) (self *Store) {
	self = new(Store)

	self.pending = make(map[model.SyncedComponent]*model.SyncState)

	self.Processor = task.NewProcessor[*model.SyncState, *model.SyncState](config, name).
		WithBatchSize(config.Detector.StoreBatchSize).
		WithOnFlush(config.Detector.StoreInterval, self.flush).
		WithOnProcess(self.process).
		WithBackoff(0, config.Detector.StoreMaxBackoffInterval)

	return
}

func (self *Store) WithMonitor(monitor monitoring.Monitor) *Store {
	self.monitor = monitor
	return self
}

func (self *Store) WithInputChannel(v chan *model.SyncState) *Store {
	self.Processor = self.Processor.WithInputChannel(v)
	return self
}

func (self *Store) WithDb(db *gorm.DB) *Store {
	self.db = db
	return self
}

func (self *Store) process(state *model.SyncState) (out []*model.SyncState, err error) {
	// Later cursors supersede earlier ones
	self.pending[state.Component] = state
	return
}

func (self *Store) flush([]*model.SyncState) (out []*model.SyncState, err error) {
	if len(self.pending) == 0 {
		return
	}

	states := make([]*model.SyncState, 0, len(self.pending))
	for _, state := range self.pending {
		state.UpdatedAt = time.Now()
		states = append(states, state)
	}

	self.Log.WithField("count", len(states)).Debug("Saving scan cursors")

	err = self.db.WithContext(self.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "component"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"finished_block_height",
				"last_signature",
				"cursor",
				"updated_at",
			}),
		}).
		Create(&states).
		Error
	if err != nil {
		self.monitor.GetReport().Detector.Errors.CursorSaveFailures.Inc()
		self.Log.WithError(err).Error("Failed to save scan cursors, retrying")
		return
	}

	self.pending = make(map[model.SyncedComponent]*model.SyncState)

	// Processing stops here, no need to return anything
	out = nil
	return
}
