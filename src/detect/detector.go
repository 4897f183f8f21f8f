package detect

import (
	"strings"
	"sync"
	"time"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Detector is the single point through which every detected deposit passes,
// no matter which poller or webhook saw it first. It keeps the set of watched
// deposit addresses fresh, drops transactions it has already seen and inserts
// the rest into the deposits table. The tx_hash unique constraint is the
// authority on duplicates, the in-memory cache only saves database round trips
// when a poller and a webhook race on the same transaction.
type Detector struct {
	*task.Task

	db      *gorm.DB
	monitor monitoring.Monitor

	// Deposits inserted for the first time
	Output chan *model.Deposit

	input chan *DepositPayload

	// Recently inserted tx hashes
	seenCache *cache.Cache

	mtx     sync.RWMutex
	watched map[string]*model.CustodyWallet
}

func NewDetector(config *config.Config) (self *Detector) {
	self = new(Detector)

	self.Output = make(chan *model.Deposit, config.Detector.ChannelBufferLength)
	self.input = make(chan *DepositPayload, config.Detector.ChannelBufferLength)
	self.seenCache = cache.New(config.Detector.SeenCacheTTL, config.Detector.SeenCacheCleanupInterval)
	self.watched = make(map[string]*model.CustodyWallet)

	self.Task = task.NewTask(config, "detector").
		WithOnBeforeStart(self.refreshWatched).
		WithSubtaskFunc(self.run).
		WithPeriodicSubtaskFunc(config.Detector.WatchedRefreshInterval, self.refreshWatched).
		WithOnAfterStop(func() {
			close(self.Output)
		})

	return
}

func (self *Detector) WithDb(db *gorm.DB) *Detector {
	self.db = db
	return self
}

func (self *Detector) WithMonitor(monitor monitoring.Monitor) *Detector {
	self.monitor = monitor
	return self
}

// Submit hands a detected deposit over to the detector. Blocks when the
// detector can't keep up, that back pressure pauses the pollers.
func (self *Detector) Submit(payload *DepositPayload) {
	select {
	case <-self.Ctx.Done():
	case self.input <- payload:
	}
}

// Lookup resolves a deposit address seen on chain to the custody wallet
// waiting for it. Returns nil when the address isn't watched.
func (self *Detector) Lookup(chain tensei.Chain, address string) (wallet *model.CustodyWallet) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.watched[watchedKey(chain, address)]
}

// WatchedAddresses lists the deposit addresses currently assigned on one
// chain, in the form the chain uses
func (self *Detector) WatchedAddresses(chain tensei.Chain) (out []string) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	for _, wallet := range self.watched {
		if wallet.Chain == chain.String() {
			out = append(out, wallet.DepositAddress)
		}
	}
	return
}

func (self *Detector) run() (err error) {
	for {
		select {
		case <-self.StopChannel:
			// Payloads still buffered get dropped here, the pollers see
			// those transactions again on their next scan
			return nil
		case payload := <-self.input:
			err = self.emit(payload)
			if err != nil {
				// Already counted, the poller that saw the deposit will scan it again
				self.Log.WithError(err).
					WithField("tx_hash", payload.TxHash).
					Error("Failed to insert deposit")
			}
		}
	}
}

func (self *Detector) emit(payload *DepositPayload) (err error) {
	// Ethereum encoders disagree on address and hash casing. The seal hash
	// is computed over these strings later, so both detection paths have to
	// produce byte-identical values.
	if payload.Chain == tensei.ChainEthereum {
		payload.Contract = strings.ToLower(payload.Contract)
		payload.TxHash = strings.ToLower(payload.TxHash)
		payload.Sender = strings.ToLower(payload.Sender)
	}

	key := payload.Chain.String() + "/" + payload.TxHash
	if _, ok := self.seenCache.Get(key); ok {
		self.monitor.GetReport().Detector.State.DepositsDuplicate.Inc()
		return
	}

	deposit := &model.Deposit{
		WalletId:    payload.WalletId,
		Chain:       payload.Chain.String(),
		Contract:    payload.Contract,
		TokenId:     payload.TokenId,
		TxHash:      payload.TxHash,
		BlockHeight: payload.BlockHeight,
		Sender:      payload.Sender,
		Status:      model.DepositStatusDetected,
		DetectedAt:  time.Now(),
	}

	if payload.Metadata != nil {
		err = deposit.Metadata.Set(payload.Metadata)
	} else {
		err = deposit.Metadata.Set(nil)
	}
	if err != nil {
		self.monitor.GetReport().Detector.Errors.DepositInsertFailures.Inc()
		return
	}

	query := self.db.WithContext(self.Ctx).
		Table(model.TableDeposits).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}},
			DoNothing: true,
		}).
		Create(deposit)
	if query.Error != nil {
		self.monitor.GetReport().Detector.Errors.DepositInsertFailures.Inc()
		return query.Error
	}

	self.seenCache.SetDefault(key, struct{}{})

	if query.RowsAffected == 0 {
		// Another path got there first
		self.monitor.GetReport().Detector.State.DepositsDuplicate.Inc()
		return
	}

	self.monitor.GetReport().Detector.State.DepositsDetected.Inc()

	self.Log.WithField("chain", payload.Chain).
		WithField("contract", payload.Contract).
		WithField("token_id", payload.TokenId).
		WithField("tx_hash", payload.TxHash).
		Info("Detected deposit")

	select {
	case <-self.Ctx.Done():
	case self.Output <- deposit:
	}
	return
}

func (self *Detector) refreshWatched() (err error) {
	var wallets []*model.CustodyWallet
	err = self.db.WithContext(self.Ctx).
		Table(model.TableCustodyWallets).
		Where("status = ?", model.WalletStatusAssigned).
		Find(&wallets).
		Error
	if err != nil {
		self.Log.WithError(err).Error("Failed to load watched deposit addresses")
		return
	}

	watched := make(map[string]*model.CustodyWallet, len(wallets))
	for _, wallet := range wallets {
		chain, err := tensei.ChainFromName(wallet.Chain)
		if err != nil {
			self.Log.WithField("chain", wallet.Chain).Warn("Custody wallet on unknown chain")
			continue
		}
		watched[watchedKey(chain, wallet.DepositAddress)] = wallet
	}

	self.mtx.Lock()
	self.watched = watched
	self.mtx.Unlock()

	self.Log.WithField("count", len(watched)).Debug("Refreshed watched deposit addresses")
	return nil
}

// EVM addresses arrive in whatever case the log topic decoder produced, the
// other chains are case sensitive
func watchedKey(chain tensei.Chain, address string) string {
	if chain == tensei.ChainEthereum {
		address = strings.ToLower(address)
	}
	return chain.String() + "/" + address
}
