package cmd

import (
	"github.com/ika-tensei/relayer/src/relay"
	"github.com/ika-tensei/relayer/src/utils/ika"
	"github.com/ika-tensei/relayer/src/utils/logger"
	"github.com/ika-tensei/relayer/src/utils/model"
	monitor_relayer "github.com/ika-tensei/relayer/src/utils/monitoring/relayer"
	"github.com/ika-tensei/relayer/src/utils/sui"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(poolInitCmd)
}

var poolInitCmd = &cobra.Command{
	Use:   "pool-init",
	Short: "Provision custody wallets up to the configured pool size and exit",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		err = model.Migrate(applicationCtx, conf)
		if err != nil {
			return
		}

		db, err := model.NewConnection(applicationCtx, conf, "pool-init")
		if err != nil {
			return
		}

		// The monitor only backs the counters here, it is never started
		pool := relay.NewPool(conf).
			WithDb(db).
			WithMonitor(monitor_relayer.NewMonitor().WithMaxHistorySize(1)).
			WithIkaClient(ika.NewClient(conf)).
			WithSuiClient(sui.NewClient(conf))

		err = pool.InitPool(applicationCtx)
		if err != nil {
			return
		}

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("pool-init-cmd")
		log.Debug("Finished pool-init command")
		applicationCtxCancel()
		return
	},
}
