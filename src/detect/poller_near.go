package detect

import (
	"fmt"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/near"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
)

// PollerNear asks every configured NFT contract which tokens the watched
// deposit addresses own. NEP-181 enumeration carries no originating
// transaction, so the tx hash is synthesized from the contract and token id,
// which is just as unique for dedup purposes because a custody address
// receives any given token at most once.
type PollerNear struct {
	*task.Task

	monitor    monitoring.Monitor
	detector   *Detector
	nearClient *near.Client
}

func NewPollerNear(config *config.Config) (self *PollerNear) {
	self = new(PollerNear)

	self.Task = task.NewTask(config, "poller-near").
		WithPeriodicSubtaskFunc(config.Detector.NearInterval, self.run)

	return
}

func (self *PollerNear) WithMonitor(monitor monitoring.Monitor) *PollerNear {
	self.monitor = monitor
	return self
}

func (self *PollerNear) WithDetector(detector *Detector) *PollerNear {
	self.detector = detector
	return self
}

func (self *PollerNear) WithNearClient(nearClient *near.Client) *PollerNear {
	self.nearClient = nearClient
	return self
}

func (self *PollerNear) run() (err error) {
	watched := self.detector.WatchedAddresses(tensei.ChainNear)
	if len(watched) == 0 {
		return nil
	}

	height, err := self.nearClient.LatestBlockHeight(self.Ctx)
	if err != nil {
		self.monitor.GetReport().Detector.Errors.NearFetchFailures.Inc()
		self.Log.WithError(err).Error("Could not get current block height")
	} else {
		self.monitor.GetReport().Detector.State.NearCurrentHeight.Store(int64(height))
	}

	for _, contract := range self.Config.Near.Contracts {
		for _, address := range watched {
			err = self.scanOwner(contract, address, height)
			if err != nil {
				self.monitor.GetReport().Detector.Errors.NearFetchFailures.Inc()
				self.Log.WithError(err).
					WithField("contract", contract).
					WithField("address", address).
					Error("Failed to enumerate tokens")
			}
		}
	}
	return nil
}

func (self *PollerNear) scanOwner(contract string, address string, height uint64) (err error) {
	tokens, err := self.nearClient.NftTokensForOwner(self.Ctx, contract, address, self.Config.Detector.NearBatchSize)
	if err != nil {
		return
	}

	wallet := self.detector.Lookup(tensei.ChainNear, address)
	if wallet == nil {
		return
	}

	for _, token := range tokens {
		var metadata *model.DepositMetadata
		if token.Metadata != nil {
			metadata = &model.DepositMetadata{
				Version:     1,
				Name:        token.Metadata.Title,
				Description: token.Metadata.Description,
				MediaUri:    token.Metadata.Media,
				Standard:    "nep171",
				Source:      "poller",
			}
		}

		self.detector.Submit(&DepositPayload{
			Chain:          tensei.ChainNear,
			WalletId:       wallet.Id,
			DepositAddress: address,
			Contract:       contract,
			TokenId:        token.TokenId,
			TxHash:         fmt.Sprintf("near:%s:%s", contract, token.TokenId),
			BlockHeight:    height,
			Metadata:       metadata,
		})
	}
	return
}
