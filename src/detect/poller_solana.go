package detect

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/sol"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"gorm.io/gorm"
)

// PollerSolana walks the signature history of every watched deposit address
// and picks out transactions that delivered an NFT, a post balance of exactly
// one token with zero decimals. Cursors are per address and in memory, after
// a restart the first iteration rescans recent history and the tx_hash
// constraint swallows what was already recorded.
type PollerSolana struct {
	*task.Task

	monitor   monitoring.Monitor
	detector  *Detector
	solClient *sol.Client

	// Scan cursor updates, consumed by the store
	Output chan *model.SyncState

	// Newest processed signature per deposit address
	cursors map[string]solana.Signature

	// Fallback cursor loaded from the database, bounds the rescan after a
	// restart
	initialSignature solana.Signature
}

func NewPollerSolana(config *config.Config) (self *PollerSolana) {
	self = new(PollerSolana)

	self.Output = make(chan *model.SyncState, config.Detector.ChannelBufferLength)
	self.cursors = make(map[string]solana.Signature)

	self.Task = task.NewTask(config, "poller-solana").
		WithPeriodicSubtaskFunc(config.Detector.SolanaInterval, self.run).
		WithOnAfterStop(func() {
			close(self.Output)
		})

	return
}

func (self *PollerSolana) WithMonitor(monitor monitoring.Monitor) *PollerSolana {
	self.monitor = monitor
	return self
}

func (self *PollerSolana) WithDetector(detector *Detector) *PollerSolana {
	self.detector = detector
	return self
}

func (self *PollerSolana) WithSolClient(solClient *sol.Client) *PollerSolana {
	self.solClient = solClient
	return self
}

func (self *PollerSolana) WithInitLastSignature(db *gorm.DB) *PollerSolana {
	self.Task = self.Task.WithOnBeforeStart(func() (err error) {
		var state model.SyncState
		err = db.WithContext(self.Ctx).
			Where("component = ?", model.SyncedComponentDetectorSolana).
			Limit(1).
			Find(&state).
			Error
		if err != nil {
			self.Log.WithError(err).Error("Failed to get last processed signature")
			return
		}

		if state.LastSignature != "" {
			self.initialSignature, err = solana.SignatureFromBase58(state.LastSignature)
			if err != nil {
				// Not fatal, the scan just reaches further back
				self.Log.WithError(err).Warn("Stored signature does not parse, starting without a cursor")
				err = nil
			}
		}
		return
	})
	return self
}

func (self *PollerSolana) run() (err error) {
	for _, address := range self.detector.WatchedAddresses(tensei.ChainSolana) {
		account, err := solana.PublicKeyFromBase58(address)
		if err != nil {
			self.Log.WithField("address", address).Warn("Watched address is not a valid Solana address")
			continue
		}

		err = self.scanAddress(address, account)
		if err != nil {
			self.monitor.GetReport().Detector.Errors.SolanaFetchFailures.Inc()
			self.Log.WithError(err).WithField("address", address).
				Error("Failed to scan deposit address")
		}
	}
	return nil
}

func (self *PollerSolana) scanAddress(address string, account solana.PublicKey) (err error) {
	until, ok := self.cursors[address]
	if !ok {
		// An until signature from another address's history is ignored by
		// the node, worst case the scan returns a full page
		until = self.initialSignature
	}

	signatures, err := self.solClient.GetSignaturesForAddress(self.Ctx, account, until, self.Config.Detector.SolanaSignatureLimit)
	if err != nil {
		return
	}
	if len(signatures) == 0 {
		return
	}

	// Newest first from the node, process in chain order
	for i := len(signatures) - 1; i >= 0; i-- {
		if signatures[i].Err != nil {
			continue
		}

		err = self.processTransaction(address, signatures[i].Signature)
		if err != nil {
			return
		}
	}

	self.cursors[address] = signatures[0].Signature
	self.emitCursor(signatures[0].Signature)
	return
}

func (self *PollerSolana) processTransaction(address string, signature solana.Signature) (err error) {
	var result *rpc.GetTransactionResult
	err = task.NewRetry().
		WithContext(self.Ctx).
		// Retries infinitely until success
		WithMaxElapsedTime(0).
		WithMaxInterval(self.Config.Detector.SolanaBackoffInterval).
		WithAcceptableDuration(self.Config.Detector.SolanaBackoffInterval * 2).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if errors.Is(err, context.Canceled) && self.IsStopping.Load() {
				return backoff.Permanent(err)
			}

			self.monitor.GetReport().Detector.Errors.SolanaFetchFailures.Inc()
			self.Log.WithError(err).WithField("signature", signature).
				Warn("Could not get transaction, retrying...")
			return err
		}).
		Run(func() (err error) {
			result, err = self.solClient.GetTransaction(self.Ctx, signature)
			return
		})
	if err != nil {
		return
	}

	self.monitor.GetReport().Detector.State.SolanaTxsScanned.Inc()

	if result == nil || result.Meta == nil {
		return
	}

	for _, balance := range result.Meta.PostTokenBalances {
		if balance.Owner == nil || balance.Owner.String() != address {
			continue
		}
		if balance.UiTokenAmount == nil ||
			balance.UiTokenAmount.Amount != "1" ||
			balance.UiTokenAmount.Decimals != 0 {
			continue
		}
		if self.heldBefore(result.Meta.PreTokenBalances, balance.Mint, address) {
			continue
		}

		wallet := self.detector.Lookup(tensei.ChainSolana, address)
		if wallet == nil {
			continue
		}

		self.detector.Submit(&DepositPayload{
			Chain:          tensei.ChainSolana,
			WalletId:       wallet.Id,
			DepositAddress: address,
			Contract:       balance.Mint.String(),
			TokenId:        balance.Mint.String(),
			TxHash:         signature.String(),
			BlockHeight:    result.Slot,
			Sender:         self.feePayer(result),
			Metadata: &model.DepositMetadata{
				Version:  1,
				Standard: "spl-token",
				Source:   "poller",
			},
		})
	}
	return
}

// A post balance of one only counts as an arrival when the wallet didn't hold
// the mint before the transaction
func (self *PollerSolana) heldBefore(preBalances []rpc.TokenBalance, mint solana.PublicKey, address string) bool {
	for _, balance := range preBalances {
		if balance.Owner == nil || balance.Owner.String() != address {
			continue
		}
		if balance.Mint.Equals(mint) && balance.UiTokenAmount != nil && balance.UiTokenAmount.Amount != "0" {
			return true
		}
	}
	return false
}

func (self *PollerSolana) feePayer(result *rpc.GetTransactionResult) (out string) {
	if result.Transaction == nil {
		return
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil || tx == nil || len(tx.Message.AccountKeys) == 0 {
		return
	}

	return tx.Message.AccountKeys[0].String()
}

func (self *PollerSolana) emitCursor(signature solana.Signature) {
	select {
	case <-self.Ctx.Done():
	case self.Output <- &model.SyncState{
		Component:     model.SyncedComponentDetectorSolana,
		LastSignature: signature.String(),
	}:
	}
}
