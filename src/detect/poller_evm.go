package detect

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/eth"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"gorm.io/gorm"
)

// PollerEvm scans finalized Ethereum blocks for ERC-721 transfers into
// watched deposit addresses. On every iteration it compares the finalized
// height with the last scanned one and walks the difference in batches,
// emitting a cursor update after each batch.
type PollerEvm struct {
	*task.Task

	monitor   monitoring.Monitor
	detector  *Detector
	ethClient *ethclient.Client

	// Scan cursor updates, consumed by the store
	Output chan *model.SyncState

	lastSyncedBlockHeight int64
}

func NewPollerEvm(config *config.Config) (self *PollerEvm) {
	self = new(PollerEvm)

	self.Output = make(chan *model.SyncState, config.Detector.ChannelBufferLength)

	self.Task = task.NewTask(config, "poller-evm").
		WithPeriodicSubtaskFunc(config.Detector.EvmInterval, self.run).
		WithOnAfterStop(func() {
			close(self.Output)
		})

	return
}

func (self *PollerEvm) WithMonitor(monitor monitoring.Monitor) *PollerEvm {
	self.monitor = monitor
	return self
}

func (self *PollerEvm) WithDetector(detector *Detector) *PollerEvm {
	self.detector = detector
	return self
}

func (self *PollerEvm) WithEthClient(ethClient *ethclient.Client) *PollerEvm {
	self.ethClient = ethClient
	return self
}

func (self *PollerEvm) WithInitStartBlockHeight(db *gorm.DB) *PollerEvm {
	self.Task = self.Task.WithOnBeforeStart(func() (err error) {
		var state model.SyncState
		err = db.WithContext(self.Ctx).
			Where("component = ?", model.SyncedComponentDetectorEvm).
			Limit(1).
			Find(&state).
			Error
		if err != nil {
			self.Log.WithError(err).Error("Failed to get last scanned block height")
			return
		}

		switch {
		case state.FinishedBlockHeight > 0:
			self.lastSyncedBlockHeight = state.FinishedBlockHeight
		case self.Config.Evm.StartBlockHeight > 0:
			self.lastSyncedBlockHeight = self.Config.Evm.StartBlockHeight - 1
		default:
			// Fresh database, start at the current finality edge
			var height int64
			height, err = eth.GetBlockHeight(self.Ctx, self.ethClient)
			if err != nil {
				self.Log.WithError(err).Error("Failed to get current block height")
				return
			}
			self.lastSyncedBlockHeight = height - self.Config.Detector.EvmConfirmations
		}

		self.Log.WithField("height", self.lastSyncedBlockHeight).Info("Starting Ethereum scan")
		return
	})
	return self
}

func (self *PollerEvm) run() (err error) {
	currentBlockHeight, err := eth.GetBlockHeight(self.Ctx, self.ethClient)
	if err != nil {
		self.monitor.GetReport().Detector.Errors.EvmFetchFailures.Inc()
		self.Log.WithError(err).Error("Could not get current block height")
		return nil
	}

	self.monitor.GetReport().Detector.State.EvmCurrentHeight.Store(currentBlockHeight)

	// Blocks above this height can still get reorged out
	finalizedHeight := currentBlockHeight - self.Config.Detector.EvmConfirmations
	if finalizedHeight <= self.lastSyncedBlockHeight {
		self.Log.Debug("No finalized blocks to scan, exiting")
		return nil
	}

	recipients := self.watchedRecipients()
	if len(recipients) == 0 {
		// Nothing assigned, skip ahead. Safe because the finality lag is
		// longer than the watch list refresh, a deposit to a freshly
		// assigned wallet finalizes after the wallet is already watched.
		self.lastSyncedBlockHeight = finalizedHeight
		self.emitCursor()
		return nil
	}

	for self.lastSyncedBlockHeight < finalizedHeight {
		batchEnd := self.lastSyncedBlockHeight + int64(self.Config.Detector.EvmBatchSize)
		if batchEnd > finalizedHeight {
			batchEnd = finalizedHeight
		}

		err = self.scanRange(self.lastSyncedBlockHeight+1, batchEnd, recipients)
		if err != nil {
			// Only when stopping, the cursor stays put and the range gets
			// scanned again on the next run
			return nil
		}

		self.lastSyncedBlockHeight = batchEnd
		self.emitCursor()
	}

	return nil
}

func (self *PollerEvm) scanRange(fromBlock, toBlock int64, recipients []common.Address) (err error) {
	return task.NewRetry().
		WithContext(self.Ctx).
		// Retries infinitely until success
		WithMaxElapsedTime(0).
		WithMaxInterval(self.Config.Detector.EvmBackoffInterval).
		WithAcceptableDuration(self.Config.Detector.EvmBackoffInterval * 2).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if errors.Is(err, context.Canceled) && self.IsStopping.Load() {
				return backoff.Permanent(err)
			}

			self.monitor.GetReport().Detector.Errors.EvmFetchFailures.Inc()
			self.Log.WithError(err).
				WithField("from", fromBlock).
				WithField("to", toBlock).
				Warn("Could not scan block range, retrying...")
			return err
		}).
		Run(func() error {
			logs, err := eth.FilterTransfers(self.Ctx, self.ethClient, fromBlock, toBlock, recipients)
			if err != nil {
				return err
			}

			for _, transferLog := range logs {
				from, to, tokenId, ok := eth.ParseTransfer(transferLog)
				if !ok {
					continue
				}

				wallet := self.detector.Lookup(tensei.ChainEthereum, to.String())
				if wallet == nil {
					continue
				}

				self.detector.Submit(&DepositPayload{
					Chain:          tensei.ChainEthereum,
					WalletId:       wallet.Id,
					DepositAddress: wallet.DepositAddress,
					Contract:       transferLog.Address.String(),
					TokenId:        tokenId.String(),
					TxHash:         transferLog.TxHash.String(),
					BlockHeight:    transferLog.BlockNumber,
					Sender:         from.String(),
					Metadata:       self.tokenMetadata(transferLog.Address, tokenId),
				})
			}
			return nil
		})
}

// Metadata is best effort, a contract that reverts on tokenURI doesn't block
// detection
func (self *PollerEvm) tokenMetadata(contract common.Address, tokenId *big.Int) (metadata *model.DepositMetadata) {
	ctx, cancel := context.WithTimeout(self.Ctx, 10*time.Second)
	defer cancel()

	uri, err := eth.TokenURI(ctx, self.ethClient, contract, tokenId)
	if err != nil {
		self.Log.WithError(err).WithField("contract", contract).Debug("Failed to get token URI")
		return nil
	}

	name, err := eth.CollectionName(ctx, self.ethClient, contract)
	if err != nil {
		self.Log.WithError(err).WithField("contract", contract).Debug("Failed to get collection name")
	}

	return &model.DepositMetadata{
		Version:    1,
		MediaUri:   uri,
		Collection: name,
		Standard:   "erc721",
		Source:     "poller",
	}
}

func (self *PollerEvm) watchedRecipients() (out []common.Address) {
	for _, address := range self.detector.WatchedAddresses(tensei.ChainEthereum) {
		if !common.IsHexAddress(address) {
			self.Log.WithField("address", address).Warn("Watched address is not a valid Ethereum address")
			continue
		}
		out = append(out, common.HexToAddress(address))
	}
	return
}

func (self *PollerEvm) emitCursor() {
	select {
	case <-self.Ctx.Done():
	case self.Output <- &model.SyncState{
		Component:           model.SyncedComponentDetectorEvm,
		FinishedBlockHeight: self.lastSyncedBlockHeight,
	}:
	}
}
