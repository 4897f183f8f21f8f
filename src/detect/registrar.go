package detect

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/hook"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
)

// Registrar keeps the webhook provider's watch list in sync with the
// assigned deposit addresses. The full list is pushed on an interval, an
// upsert on the provider side, so a missed push heals on the next one.
type Registrar struct {
	*task.Task

	monitor    monitoring.Monitor
	detector   *Detector
	hookClient *hook.Client
}

func NewRegistrar(config *config.Config) (self *Registrar) {
	self = new(Registrar)

	self.Task = task.NewTask(config, "registrar").
		WithPeriodicSubtaskFunc(config.Detector.WebhookRegisterInterval, self.run)

	return
}

func (self *Registrar) WithMonitor(monitor monitoring.Monitor) *Registrar {
	self.monitor = monitor
	return self
}

func (self *Registrar) WithDetector(detector *Detector) *Registrar {
	self.detector = detector
	return self
}

func (self *Registrar) WithHookClient(hookClient *hook.Client) *Registrar {
	self.hookClient = hookClient
	return self
}

func (self *Registrar) run() (err error) {
	// Providers cover the chains with native address activity feeds
	for _, chain := range []tensei.Chain{tensei.ChainEthereum, tensei.ChainSolana} {
		addresses := self.detector.WatchedAddresses(chain)
		if len(addresses) == 0 {
			continue
		}

		err = self.register(chain, addresses)
		if err != nil {
			self.Log.WithError(err).WithField("chain", chain).
				Error("Failed to register watched addresses")
		}
	}
	return nil
}

func (self *Registrar) register(chain tensei.Chain, addresses []string) (err error) {
	return task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(self.Config.Detector.WebhookRegisterInterval).
		WithMaxInterval(self.Config.Detector.WebhookBackoffInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if errors.Is(err, context.Canceled) && self.IsStopping.Load() {
				return backoff.Permanent(err)
			}

			self.monitor.GetReport().Detector.Errors.WebhookRegisterFailures.Inc()
			self.Log.WithError(err).WithField("chain", chain).
				Warn("Could not push watch list, retrying...")
			return err
		}).
		Run(func() (err error) {
			err = self.hookClient.RegisterAddresses(self.Ctx, chain.String(), addresses)
			if err != nil {
				return
			}

			self.monitor.GetReport().Detector.State.WebhooksRegistered.Inc()
			return
		})
}
