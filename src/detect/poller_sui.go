package detect

import (
	"strconv"
	"strings"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/sui"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"gorm.io/gorm"
)

// PollerSui enumerates the objects owned by every watched deposit address.
// Sui has no address-scoped log filter, so each iteration sweeps the full
// inventory and relies on the dedup path to drop objects seen before. The
// transaction that last touched an object doubles as the deposit tx hash.
type PollerSui struct {
	*task.Task

	monitor   monitoring.Monitor
	detector  *Detector
	suiClient *sui.Client

	// Scan cursor updates, consumed by the store
	Output chan *model.SyncState

	// Page cursor of the interrupted sweep, consumed on the first page
	// after a restart
	resumeCursor string
}

func NewPollerSui(config *config.Config) (self *PollerSui) {
	self = new(PollerSui)

	self.Output = make(chan *model.SyncState, config.Detector.ChannelBufferLength)

	self.Task = task.NewTask(config, "poller-sui").
		WithPeriodicSubtaskFunc(config.Detector.SuiInterval, self.run).
		WithOnAfterStop(func() {
			close(self.Output)
		})

	return
}

func (self *PollerSui) WithMonitor(monitor monitoring.Monitor) *PollerSui {
	self.monitor = monitor
	return self
}

func (self *PollerSui) WithDetector(detector *Detector) *PollerSui {
	self.detector = detector
	return self
}

func (self *PollerSui) WithSuiClient(suiClient *sui.Client) *PollerSui {
	self.suiClient = suiClient
	return self
}

func (self *PollerSui) WithInitCursor(db *gorm.DB) *PollerSui {
	self.Task = self.Task.WithOnBeforeStart(func() (err error) {
		var state model.SyncState
		err = db.WithContext(self.Ctx).
			Where("component = ?", model.SyncedComponentDetectorSui).
			Limit(1).
			Find(&state).
			Error
		if err != nil {
			self.Log.WithError(err).Error("Failed to get saved page cursor")
			return
		}

		self.resumeCursor = state.Cursor
		return
	})
	return self
}

func (self *PollerSui) run() (err error) {
	for _, address := range self.detector.WatchedAddresses(tensei.ChainSui) {
		err = self.sweepAddress(address)
		if err != nil {
			self.monitor.GetReport().Detector.Errors.SuiFetchFailures.Inc()
			self.Log.WithError(err).WithField("address", address).
				Error("Failed to sweep deposit address")
		}
	}
	return nil
}

func (self *PollerSui) sweepAddress(address string) (err error) {
	cursor := self.resumeCursor
	self.resumeCursor = ""

	for {
		page, err := self.suiClient.GetOwnedObjects(self.Ctx, address, cursor, self.Config.Detector.SuiPageSize)
		if err != nil {
			if cursor != "" {
				// Stale cursor from a previous run, sweep from the start
				cursor = ""
				continue
			}
			return err
		}

		for _, entry := range page.Data {
			self.processObject(address, entry.Data)
		}

		if page.NextCursor != nil {
			cursor = *page.NextCursor
			self.emitCursor(cursor)
		}
		if !page.HasNextPage {
			return nil
		}
	}
}

func (self *PollerSui) processObject(address string, data *sui.ObjectData) {
	if data == nil {
		return
	}

	self.monitor.GetReport().Detector.State.SuiEventsScanned.Inc()

	// Gas and fungible balances are objects too
	if strings.HasPrefix(data.Type, "0x2::coin::Coin") {
		return
	}

	wallet := self.detector.Lookup(tensei.ChainSui, address)
	if wallet == nil {
		return
	}

	version, _ := strconv.ParseUint(data.Version, 10, 64)

	self.detector.Submit(&DepositPayload{
		Chain:          tensei.ChainSui,
		WalletId:       wallet.Id,
		DepositAddress: address,
		Contract:       data.Type,
		TokenId:        data.ObjectId,
		TxHash:         data.PreviousTransaction,
		BlockHeight:    version,
		Metadata: &model.DepositMetadata{
			Version:     1,
			Name:        data.Field("name"),
			Description: data.Field("description"),
			MediaUri:    data.Field("url"),
			Standard:    "sui-object",
			Source:      "poller",
		},
	})
}

func (self *PollerSui) emitCursor(cursor string) {
	select {
	case <-self.Ctx.Done():
	case self.Output <- &model.SyncState{
		Component: model.SyncedComponentDetectorSui,
		Cursor:    cursor,
	}:
	}
}
