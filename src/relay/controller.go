package relay

import (
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ika-tensei/relayer/src/detect"
	"github.com/ika-tensei/relayer/src/gateway"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/hook"
	"github.com/ika-tensei/relayer/src/utils/ika"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	monitor_relayer "github.com/ika-tensei/relayer/src/utils/monitoring/relayer"
	"github.com/ika-tensei/relayer/src/utils/near"
	"github.com/ika-tensei/relayer/src/utils/notify"
	"github.com/ika-tensei/relayer/src/utils/publisher"
	"github.com/ika-tensei/relayer/src/utils/sol"
	"github.com/ika-tensei/relayer/src/utils/sui"
	"github.com/ika-tensei/relayer/src/utils/task"
)

type Controller struct {
	*task.Task
}

// Main class that orchestrates the relayer
// Sets up deposit detection, the seal lifecycle pipeline and the gateway
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	self.Task = task.NewTask(config, "relay-controller")

	monitor := monitor_relayer.NewMonitor().
		WithMaxHistorySize(30)

	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	watched := func() *task.Task {
		db, err := model.NewConnection(self.Ctx, self.Config, "relayer")
		if err != nil {
			panic(err)
		}

		ikaClient := ika.NewClient(config)

		suiClient := sui.NewClient(config)

		solClient, err := sol.NewClient(config)
		if err != nil {
			panic(err)
		}

		// Watches custody deposit addresses across the source chains
		detector := detect.NewDetector(config).
			WithDb(db).
			WithMonitor(monitor)

		// Keeps pre-provisioned custody wallets ready for assignment
		pool := NewPool(config).
			WithDb(db).
			WithMonitor(monitor).
			WithIkaClient(ikaClient).
			WithSuiClient(suiClient)

		store := NewStore(db)

		queue := NewQueue(config).
			WithMonitor(monitor)

		// Drives each seal through sign, verify, mint and close
		orchestrator := NewOrchestrator(config).
			WithMonitor(monitor).
			WithStore(store).
			WithPool(pool).
			WithIkaClient(ikaClient).
			WithSolClient(solClient)

		worker := NewWorker(config).
			WithMonitor(monitor).
			WithQueue(queue).
			WithOrchestrator(orchestrator)

		// Brings abandoned seals back into the queue after a crash
		sweeper := NewSweeper(config).
			WithMonitor(monitor).
			WithStore(store).
			WithQueue(queue)

		// Deposit notifications from other instances arrive over Postgres
		streamer := notify.NewStreamer(config).
			WithNotificationChannelName(model.DepositNotificationChannel).
			WithCapacity(config.Relayer.NotificationsChannelSize)

		// Turns detected deposits into seals and enqueues them
		consumer := NewConsumer(config, db).
			WithMonitor(monitor).
			WithStore(store).
			WithQueue(queue).
			WithDeposits(detector.Output).
			WithNotifications(streamer.Output)

		// Public REST surface for deposit addresses, seal lookups and
		// webhooks. Seal lookups run on the read-only connection
		readDb, err := model.NewReadOnlyConnection(self.Ctx, self.Config, "gateway")
		if err != nil {
			panic(err)
		}

		gatewayServer := gateway.NewServer(config).
			WithMonitor(monitor).
			WithPool(pool).
			WithSeals(NewStore(readDb)).
			WithRetrier(queue).
			WithDepositSink(detector)

		watchedTask := task.NewTask(config, "watched").
			WithSubtask(detector.Task).
			WithSubtask(pool.Task).
			WithSubtask(streamer.Task).
			WithSubtask(consumer.Task).
			WithSubtask(worker.Task).
			WithSubtask(sweeper.Task).
			WithSubtask(gatewayServer.Task)

		// One publisher per configured Redis, each with its own channel so a
		// slow instance doesn't stall the others
		for i := range config.Redis {
			events := make(chan *SealStatusEvent, config.Relayer.EventsChannelSize)
			orchestrator.WithEventChannel(events)

			redisPublisher := publisher.NewRedisPublisher[*SealStatusEvent](config, config.Redis[i], fmt.Sprintf("redis-publisher-%d", i)).
				WithChannelName(config.Relayer.EventsRedisChannelName).
				WithInputChannel(events).
				WithMonitor(monitor)

			watchedTask = watchedTask.
				WithSubtask(redisPublisher.Task)
		}

		if config.Relayer.EventsAppSyncChannelName != "" {
			events := make(chan *SealStatusEvent, config.Relayer.EventsChannelSize)
			orchestrator.WithEventChannel(events)

			appSyncPublisher := publisher.NewAppSyncPublisher[*SealStatusEvent](config, "appsync-publisher").
				WithChannelName(config.Relayer.EventsAppSyncChannelName).
				WithInputChannel(events)

			watchedTask = watchedTask.
				WithSubtask(appSyncPublisher.Task)
		}

		// Seals attested straight on the orchestration chain, without a
		// deposit, arrive over the event subscription
		if config.Sui.SealEventType != "" {
			eventSource := NewEventSource(config).
				WithMonitor(monitor).
				WithStore(store).
				WithQueue(queue)

			watchedTask = watchedTask.
				WithSubtask(eventSource.Task)
		}

		if config.Detector.EvmEnabled {
			ethClient, err := ethclient.DialContext(self.Ctx, config.Evm.RpcUrl)
			if err != nil {
				panic(err)
			}

			pollerEvm := detect.NewPollerEvm(config).
				WithMonitor(monitor).
				WithDetector(detector).
				WithEthClient(ethClient).
				WithInitStartBlockHeight(db)

			storeEvm := detect.NewStore(config, "store-evm").
				WithMonitor(monitor).
				WithInputChannel(pollerEvm.Output).
				WithDb(db)

			watchedTask = watchedTask.
				WithSubtask(pollerEvm.Task).
				WithSubtask(storeEvm.Task)
		}

		if config.Detector.SolanaEnabled {
			pollerSolana := detect.NewPollerSolana(config).
				WithMonitor(monitor).
				WithDetector(detector).
				WithSolClient(solClient).
				WithInitLastSignature(db)

			storeSolana := detect.NewStore(config, "store-solana").
				WithMonitor(monitor).
				WithInputChannel(pollerSolana.Output).
				WithDb(db)

			watchedTask = watchedTask.
				WithSubtask(pollerSolana.Task).
				WithSubtask(storeSolana.Task)
		}

		if config.Detector.SuiEnabled {
			pollerSui := detect.NewPollerSui(config).
				WithMonitor(monitor).
				WithDetector(detector).
				WithSuiClient(suiClient).
				WithInitCursor(db)

			storeSui := detect.NewStore(config, "store-sui").
				WithMonitor(monitor).
				WithInputChannel(pollerSui.Output).
				WithDb(db)

			watchedTask = watchedTask.
				WithSubtask(pollerSui.Task).
				WithSubtask(storeSui.Task)
		}

		// NEAR inventories are rescanned from scratch, there's no cursor to
		// persist and no store
		if config.Detector.NearEnabled {
			pollerNear := detect.NewPollerNear(config).
				WithMonitor(monitor).
				WithDetector(detector).
				WithNearClient(near.NewClient(config))

			watchedTask = watchedTask.
				WithSubtask(pollerNear.Task)
		}

		// Keeps the provider-side watch list in step with the custody wallets
		if config.Detector.WebhookEnabled {
			registrar := detect.NewRegistrar(config).
				WithMonitor(monitor).
				WithDetector(detector).
				WithHookClient(hook.NewClient(config))

			watchedTask = watchedTask.
				WithSubtask(registrar.Task)
		}

		return watchedTask
	}

	watchdog := task.NewWatchdog(config).
		WithTask(watched).
		WithIsOK(func() bool {
			isOK := monitor.IsOK()
			if !isOK {
				monitor.GetReport().Run.Errors.NumWatchdogRestarts.Inc()
			}
			return isOK
		})

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(server.Task).
		WithSubtask(watchdog.Task)

	return
}
