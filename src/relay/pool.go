package relay

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/derive"
	"github.com/ika-tensei/relayer/src/utils/errs"
	"github.com/ika-tensei/relayer/src/utils/ika"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/sui"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"github.com/robfig/cron"
	"go.uber.org/atomic"
	"gorm.io/gorm"
)

var ErrPoolExhausted = errors.New("custody pool exhausted")

// How many times Assign re-fetches after losing a claim race before it
// reports exhaustion
const assignAttempts = 3

// Pool keeps a supply of pre-provisioned custody wallets per curve so that
// key generation, a multi-round MPC ceremony, never sits on the user-facing
// path. Wallets move available -> assigned -> sealed and are never reused.
// Replenishment runs in the background, one flight per curve.
type Pool struct {
	*task.Task

	db        *gorm.DB
	monitor   monitoring.Monitor
	ikaClient *ika.Client
	suiClient *sui.Client

	replenishSignal chan model.Curve
	replenishing    map[model.Curve]*atomic.Bool

	cron *cron.Cron
}

func NewPool(config *config.Config) (self *Pool) {
	self = new(Pool)

	self.replenishSignal = make(chan model.Curve, len(config.Pool.Curves)*2)
	self.replenishing = make(map[model.Curve]*atomic.Bool, len(config.Pool.Curves))
	for _, curve := range config.Pool.Curves {
		self.replenishing[model.Curve(curve)] = atomic.NewBool(false)
	}

	self.cron = cron.New()

	self.Task = task.NewTask(config, "pool").
		WithSubtaskFunc(self.run).
		WithWorkerPool(len(config.Pool.Curves), config.Pool.ReplenishBatchSize).
		WithOnBeforeStart(self.start).
		WithOnAfterStop(func() {
			self.cron.Stop()
		})

	return
}

func (self *Pool) WithDb(db *gorm.DB) *Pool {
	self.db = db
	return self
}

func (self *Pool) WithMonitor(monitor monitoring.Monitor) *Pool {
	self.monitor = monitor
	return self
}

func (self *Pool) WithIkaClient(ikaClient *ika.Client) *Pool {
	self.ikaClient = ikaClient
	return self
}

func (self *Pool) WithSuiClient(suiClient *sui.Client) *Pool {
	self.suiClient = suiClient
	return self
}

func (self *Pool) start() (err error) {
	err = self.cron.AddFunc(self.Config.Pool.ReconcileSchedule, self.reconcile)
	if err != nil {
		return
	}
	self.cron.Start()

	// Top up in the background, starting the service doesn't wait for
	// key generation ceremonies
	for _, curve := range self.Config.Pool.Curves {
		self.TriggerReplenish(model.Curve(curve))
	}
	return
}

// Assign claims one available wallet for the requester and binds it to the
// chain the deposit will arrive on. The claim is a conditional update,
// exactly one of any number of concurrent callers wins a given wallet, the
// losers fetch again. Exhaustion triggers replenishment without blocking.
func (self *Pool) Assign(ctx context.Context, chain tensei.Chain, requester string) (out *model.CustodyWallet, err error) {
	curve := chain.Curve()

	for attempt := 0; attempt < assignAttempts; attempt++ {
		var wallet model.CustodyWallet
		err = self.db.WithContext(ctx).
			Table(model.TableCustodyWallets).
			Where("curve = ? AND status = ?", curve, model.WalletStatusAvailable).
			Order("id ASC").
			Limit(1).
			Find(&wallet).
			Error
		if err != nil {
			self.monitor.GetReport().Pool.Errors.AssignFailures.Inc()
			return
		}
		if wallet.Id == 0 {
			break
		}

		var address string
		address, err = self.depositAddress(chain, wallet.PublicKey)
		if err != nil {
			self.monitor.GetReport().Pool.Errors.AssignFailures.Inc()
			return
		}

		now := time.Now()
		query := self.db.WithContext(ctx).
			Table(model.TableCustodyWallets).
			Where("id = ? AND status = ?", wallet.Id, model.WalletStatusAvailable).
			Updates(map[string]interface{}{
				"status":          model.WalletStatusAssigned,
				"assigned_to":     requester,
				"assigned_at":     now,
				"chain":           chain.String(),
				"deposit_address": address,
			})
		if query.Error != nil {
			self.monitor.GetReport().Pool.Errors.AssignFailures.Inc()
			err = query.Error
			return
		}
		if query.RowsAffected == 0 {
			// Lost the race, another caller claimed this wallet
			continue
		}

		wallet.Status = model.WalletStatusAssigned
		wallet.AssignedTo = requester
		wallet.AssignedAt = &now
		wallet.Chain = chain.String()
		wallet.DepositAddress = address

		self.Log.WithField("wallet_id", wallet.Id).
			WithField("chain", chain).
			WithField("address", address).
			Info("Custody wallet assigned")

		self.afterAssign(ctx, curve)
		return &wallet, nil
	}

	self.TriggerReplenish(curve)

	// Recoverable, replenishment is already on its way
	return nil, errs.Recoverable(ErrPoolExhausted)
}

// MarkSealed retires a wallet for good once the seal that consumed it is
// committed on chain. Keyed by dwallet id, that's what the seal record
// carries.
func (self *Pool) MarkSealed(ctx context.Context, dwalletId string, sealHash string) (err error) {
	query := self.db.WithContext(ctx).
		Table(model.TableCustodyWallets).
		Where("dwallet_id = ? AND status = ?", dwalletId, model.WalletStatusAssigned).
		Updates(map[string]interface{}{
			"status":    model.WalletStatusSealed,
			"seal_hash": sealHash,
		})
	if query.Error != nil {
		return query.Error
	}
	if query.RowsAffected == 0 {
		// Already sealed by an earlier attempt of the same seal
		self.Log.WithField("dwallet_id", dwalletId).Debug("Wallet not in assigned status, skipping")
		return nil
	}

	self.monitor.GetReport().Pool.State.WalletsSealed.Inc()
	return nil
}

// InitPool synchronously tops every curve up to the target size. Run by the
// pool-init command, the service itself replenishes in the background.
func (self *Pool) InitPool(ctx context.Context) (err error) {
	for _, name := range self.Config.Pool.Curves {
		curve := model.Curve(name)

		needed, err := self.walletsNeeded(ctx, curve)
		if err != nil {
			return err
		}

		self.Log.WithField("curve", curve).WithField("needed", needed).Info("Provisioning custody wallets")

		for i := 0; i < needed; i++ {
			err = self.provisionWallet(ctx, curve)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// TriggerReplenish asks the background worker to top up one curve. Never
// blocks, a full signal channel means a replenish is already pending.
func (self *Pool) TriggerReplenish(curve model.Curve) {
	select {
	case self.replenishSignal <- curve:
	default:
	}
}

func (self *Pool) run() (err error) {
	for {
		var curve model.Curve
		select {
		case <-self.StopChannel:
			return nil
		case curve = <-self.replenishSignal:
		}

		if _, ok := self.replenishing[curve]; !ok {
			self.Log.WithField("curve", curve).Warn("Replenish requested for unknown curve")
			continue
		}

		// One replenish in flight per curve
		if !self.replenishing[curve].CompareAndSwap(false, true) {
			continue
		}

		curve := curve
		self.SubmitToWorker(func() {
			defer self.replenishing[curve].Store(false)
			self.replenish(curve)
		})
	}
}

func (self *Pool) replenish(curve model.Curve) {
	needed, err := self.walletsNeeded(self.Ctx, curve)
	if err != nil {
		self.monitor.GetReport().Pool.Errors.ProvisionFailures.Inc()
		self.Log.WithError(err).WithField("curve", curve).Error("Failed to count wallets")
		return
	}
	if needed <= 0 {
		return
	}
	if needed > self.Config.Pool.ReplenishBatchSize {
		needed = self.Config.Pool.ReplenishBatchSize
	}

	self.Log.WithField("curve", curve).WithField("count", needed).Info("Replenishing custody pool")

	for i := 0; i < needed; i++ {
		err = task.NewRetry().
			WithContext(self.Ctx).
			WithMaxElapsedTime(self.Config.Pool.ReplenishBackoffMaxElapsedTime).
			WithMaxInterval(self.Config.Pool.ReplenishBackoffMaxInterval).
			WithOnError(func(err error, isDurationAcceptable bool) error {
				self.monitor.GetReport().Pool.Errors.ProvisionFailures.Inc()
				self.Log.WithError(err).WithField("curve", curve).
					Warn("Could not provision wallet, retrying...")
				return err
			}).
			Run(func() error {
				return self.provisionWallet(self.Ctx, curve)
			})
		if err != nil {
			// One curve failing must not starve the other, reconcile
			// retries later
			self.Log.WithError(err).WithField("curve", curve).Error("Giving up on replenish round")
			return
		}
	}

	self.monitor.GetReport().Pool.State.ReplenishRounds.Inc()
	self.monitor.GetReport().Pool.State.LastReplenishTimestamp.Store(time.Now().Unix())
}

// provisionWallet runs one key generation ceremony and persists the result
// with the curve's primary deposit address
func (self *Pool) provisionWallet(ctx context.Context, curve model.Curve) (err error) {
	ctx, cancel := context.WithTimeout(ctx, self.Config.Pool.ProvisionTimeout)
	defer cancel()

	dwallet, err := self.ikaClient.CreateDwallet(ctx, curve)
	if err != nil {
		return
	}

	publicKey, err := decodePublicKey(dwallet.PublicKey)
	if err != nil {
		return
	}

	chain := primaryChain(curve)
	address, err := derive.DepositAddress(chain, publicKey)
	if err != nil {
		return
	}

	wallet := &model.CustodyWallet{
		DwalletId:      dwallet.DwalletId,
		CapId:          dwallet.CapId,
		PublicKey:      dwallet.PublicKey,
		Curve:          curve,
		Chain:          chain.String(),
		DepositAddress: address,
		Status:         model.WalletStatusAvailable,
		CreatedAt:      time.Now(),
	}

	err = self.db.WithContext(ctx).
		Table(model.TableCustodyWallets).
		Create(wallet).
		Error
	if err != nil {
		return
	}

	self.monitor.GetReport().Pool.State.WalletsProvisioned.Inc()
	self.Log.WithField("wallet_id", wallet.Id).
		WithField("curve", curve).
		WithField("dwallet_id", dwallet.DwalletId).
		Info("Custody wallet provisioned")
	return
}

// reconcile recounts the pool, verifies that available wallets still have a
// live dwallet object behind them and tops up curves that fell below the
// threshold
func (self *Pool) reconcile() {
	counts, err := self.countByStatus(self.Ctx)
	if err != nil {
		self.monitor.GetReport().Pool.Errors.ReconcileFailures.Inc()
		self.Log.WithError(err).Error("Failed to reconcile pool counters")
		return
	}

	self.monitor.GetReport().Pool.State.WalletsAvailable.Store(counts[model.WalletStatusAvailable])
	self.monitor.GetReport().Pool.State.WalletsAssigned.Store(counts[model.WalletStatusAssigned])
	self.monitor.GetReport().Pool.State.WalletsSealed.Store(counts[model.WalletStatusSealed])

	self.verifyAvailable()

	for _, name := range self.Config.Pool.Curves {
		curve := model.Curve(name)
		available, err := self.countAvailable(self.Ctx, curve)
		if err != nil {
			self.monitor.GetReport().Pool.Errors.ReconcileFailures.Inc()
			continue
		}
		if available < int64(self.Config.Pool.MinAvailable) {
			self.TriggerReplenish(curve)
		}
	}
}

// verifyAvailable marks wallets broken when their dwallet object is gone
// from the coordination chain, those must never be handed out
func (self *Pool) verifyAvailable() {
	var wallets []*model.CustodyWallet
	err := self.db.WithContext(self.Ctx).
		Table(model.TableCustodyWallets).
		Where("status = ?", model.WalletStatusAvailable).
		Order("created_at ASC").
		Limit(self.Config.Pool.ReconcileVerifyBatchSize).
		Find(&wallets).
		Error
	if err != nil {
		self.monitor.GetReport().Pool.Errors.ReconcileFailures.Inc()
		return
	}

	for _, wallet := range wallets {
		object, err := self.suiClient.GetObject(self.Ctx, wallet.DwalletId)
		if err != nil {
			// Node trouble, leave the wallet alone
			self.Log.WithError(err).WithField("wallet_id", wallet.Id).Debug("Could not verify dwallet object")
			continue
		}
		if object != nil {
			continue
		}

		self.Log.WithField("wallet_id", wallet.Id).
			WithField("dwallet_id", wallet.DwalletId).
			Warn("Dwallet object gone, marking wallet broken")

		err = self.db.WithContext(self.Ctx).
			Table(model.TableCustodyWallets).
			Where("id = ? AND status = ?", wallet.Id, model.WalletStatusAvailable).
			Update("status", model.WalletStatusBroken).
			Error
		if err != nil {
			self.monitor.GetReport().Pool.Errors.ReconcileFailures.Inc()
		}
	}
}

func (self *Pool) afterAssign(ctx context.Context, curve model.Curve) {
	self.monitor.GetReport().Pool.State.WalletsAssigned.Inc()
	self.monitor.GetReport().Pool.State.WalletsAvailable.Dec()

	available, err := self.countAvailable(ctx, curve)
	if err != nil {
		return
	}
	if available <= int64(self.Config.Pool.MinAvailable) {
		self.TriggerReplenish(curve)
	}
}

func (self *Pool) walletsNeeded(ctx context.Context, curve model.Curve) (needed int, err error) {
	var count int64
	err = self.db.WithContext(ctx).
		Table(model.TableCustodyWallets).
		Where("curve = ? AND status IN ?", curve,
			[]model.WalletStatus{model.WalletStatusAvailable, model.WalletStatusAssigned}).
		Count(&count).
		Error
	if err != nil {
		return
	}

	needed = self.Config.Pool.TargetSize - int(count)
	if needed < 0 {
		needed = 0
	}
	return
}

func (self *Pool) countAvailable(ctx context.Context, curve model.Curve) (count int64, err error) {
	err = self.db.WithContext(ctx).
		Table(model.TableCustodyWallets).
		Where("curve = ? AND status = ?", curve, model.WalletStatusAvailable).
		Count(&count).
		Error
	return
}

func (self *Pool) countByStatus(ctx context.Context) (out map[model.WalletStatus]int64, err error) {
	var rows []struct {
		Status model.WalletStatus
		Count  int64
	}
	err = self.db.WithContext(ctx).
		Table(model.TableCustodyWallets).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).
		Error
	if err != nil {
		return
	}

	out = make(map[model.WalletStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return
}

func (self *Pool) depositAddress(chain tensei.Chain, publicKey string) (address string, err error) {
	raw, err := decodePublicKey(publicKey)
	if err != nil {
		return
	}
	return derive.DepositAddress(chain, raw)
}

// Chain of the address stored at provisioning time. Assignment re-derives
// for the chain the depositor actually picked.
func primaryChain(curve model.Curve) tensei.Chain {
	if curve == model.CurveSecp256k1 {
		return tensei.ChainEthereum
	}
	return tensei.ChainSolana
}

func decodePublicKey(publicKey string) (out []byte, err error) {
	out, err = hex.DecodeString(strings.TrimPrefix(publicKey, "0x"))
	if err != nil {
		err = errors.New("custody public key is not valid hex")
	}
	return
}
