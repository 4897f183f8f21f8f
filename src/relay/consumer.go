package relay

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"github.com/jackc/pgtype"
	"gorm.io/gorm"
)

// Fields of the pg_notify payload fired by the deposit insert trigger
type depositNotification struct {
	Id int64 `json:"id"`
}

// Consumer turns detected deposits into seals. Two inputs converge here,
// the in-process detector output and the postgres notification channel that
// also carries inserts made by other instances. Both paths land on the same
// conditional writes, handling a deposit twice is harmless.
type Consumer struct {
	*task.Task

	db      *gorm.DB
	monitor monitoring.Monitor
	store   *Store
	queue   *Queue

	deposits      chan *model.Deposit
	notifications chan string
}

func NewConsumer(config *config.Config, db *gorm.DB) (self *Consumer) {
	self = new(Consumer)
	self.db = db

	self.Task = task.NewTask(config, "consumer").
		WithSubtaskFunc(self.runDeposits).
		WithSubtaskFunc(self.runNotifications).
		WithPeriodicSubtaskFunc(config.Relayer.SweeperInterval, self.recoverStuck)

	return
}

func (self *Consumer) WithMonitor(monitor monitoring.Monitor) *Consumer {
	self.monitor = monitor
	return self
}

func (self *Consumer) WithStore(store *Store) *Consumer {
	self.store = store
	return self
}

func (self *Consumer) WithQueue(queue *Queue) *Consumer {
	self.queue = queue
	return self
}

func (self *Consumer) WithDeposits(deposits chan *model.Deposit) *Consumer {
	self.deposits = deposits
	return self
}

func (self *Consumer) WithNotifications(notifications chan string) *Consumer {
	self.notifications = notifications
	return self
}

// Producers close their channels on stop
func (self *Consumer) runDeposits() (err error) {
	for deposit := range self.deposits {
		self.handleDeposit(deposit)
	}
	return nil
}

func (self *Consumer) runNotifications() (err error) {
	for payload := range self.notifications {
		self.handleNotification(payload)
	}
	return nil
}

func (self *Consumer) handleNotification(payload string) {
	var notification depositNotification
	if err := json.Unmarshal([]byte(payload), &notification); err != nil {
		self.monitor.GetReport().Relayer.Errors.NotifierFailures.Inc()
		self.Log.WithError(err).Warn("Malformed deposit notification, skipping")
		return
	}

	deposit, err := self.getDeposit(notification.Id)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.NotifierFailures.Inc()
		self.Log.WithError(err).
			WithField("deposit_id", notification.Id).
			Error("Failed to load notified deposit")
		return
	}
	if deposit == nil || deposit.Status != model.DepositStatusDetected {
		// The in-process path or another instance got there first
		return
	}

	self.handleDeposit(deposit)
}

// Deposits that never made it into a seal, typically because the store was
// unreachable when they came in. The detected status is the marker, every
// later stage moves off it.
func (self *Consumer) recoverStuck() (err error) {
	var stuck []*model.Deposit
	err = self.db.WithContext(self.Ctx).
		Table(model.TableDeposits).
		Where("status = ? AND detected_at < ?",
			model.DepositStatusDetected,
			time.Now().Add(-self.Config.Relayer.SweeperStaleAfter)).
		Order("detected_at ASC").
		Limit(self.Config.Relayer.SweeperBatchSize).
		Find(&stuck).
		Error
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.NotifierFailures.Inc()
		self.Log.WithError(err).Error("Failed to load stuck deposits")
		return nil
	}

	for _, deposit := range stuck {
		if self.IsStopping.Load() {
			return nil
		}
		self.Log.WithField("deposit_id", deposit.Id).
			WithField("tx_hash", deposit.TxHash).
			Info("Retrying stuck deposit")
		self.handleDeposit(deposit)
	}
	return nil
}

func (self *Consumer) handleDeposit(deposit *model.Deposit) {
	chain, err := tensei.ChainFromName(deposit.Chain)
	if err != nil {
		self.Log.WithField("deposit_id", deposit.Id).
			WithField("chain", deposit.Chain).
			Error("Deposit on an unknown chain")
		self.failDeposit(deposit.Id)
		return
	}

	wallet, err := self.store.GetWallet(self.Ctx, deposit.WalletId)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.NotifierFailures.Inc()
		self.Log.WithError(err).
			WithField("deposit_id", deposit.Id).
			Error("Failed to load custody wallet for deposit")
		return
	}
	if wallet == nil {
		self.Log.WithField("deposit_id", deposit.Id).
			WithField("wallet_id", deposit.WalletId).
			Error("Deposit on an unknown custody wallet")
		self.failDeposit(deposit.Id)
		return
	}

	sealHash := tensei.SealHash(chain, []byte(deposit.Contract), []byte(deposit.TokenId), 0)

	var metadata model.DepositMetadata
	if deposit.Metadata.Status == pgtype.Present {
		// Best effort, a seal without metadata still mints
		_ = json.Unmarshal(deposit.Metadata.Bytes, &metadata)
	}

	event := &SealEvent{
		SealHash:      hex.EncodeToString(sealHash[:]),
		SourceChain:   chain,
		Contract:      deposit.Contract,
		TokenId:       deposit.TokenId,
		Recipient:     wallet.AssignedTo,
		Name:          metadata.Name,
		Description:   metadata.Description,
		MediaUri:      metadata.MediaUri,
		Collection:    metadata.Collection,
		DwalletId:     wallet.DwalletId,
		DwalletCapId:  wallet.CapId,
		CustodyPubkey: wallet.PublicKey,
		WalletId:      wallet.Id,
		DepositId:     deposit.Id,
	}

	created, err := self.store.CreateSeal(self.Ctx, NewSeal(event))
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.NotifierFailures.Inc()
		self.Log.WithError(err).
			WithField("seal_hash", event.SealHash).
			Error("Failed to create seal from deposit")
		// Deposit stays detected, recoverStuck retries it
		return
	}
	if created {
		self.Log.WithField("seal_hash", event.SealHash).
			WithField("deposit_id", deposit.Id).
			WithField("source_chain", chain.String()).
			Info("Seal created from deposit")
	}

	err = self.store.SetDepositStatus(self.Ctx, deposit.Id, model.DepositStatusProcessing)
	if err != nil {
		self.Log.WithError(err).
			WithField("deposit_id", deposit.Id).
			Warn("Failed to mark deposit processing")
	}

	self.queue.Enqueue(event, PriorityNormal)
}

func (self *Consumer) failDeposit(depositId int64) {
	err := self.store.SetDepositStatus(self.Ctx, depositId, model.DepositStatusFailed)
	if err != nil {
		self.Log.WithError(err).
			WithField("deposit_id", depositId).
			Warn("Failed to mark deposit failed")
	}
}

func (self *Consumer) getDeposit(depositId int64) (out *model.Deposit, err error) {
	var deposit model.Deposit
	err = self.db.WithContext(self.Ctx).
		Table(model.TableDeposits).
		Where("id = ?", depositId).
		Limit(1).
		Find(&deposit).
		Error
	if err != nil {
		return
	}
	if deposit.Id == 0 {
		return nil, nil
	}
	return &deposit, nil
}
