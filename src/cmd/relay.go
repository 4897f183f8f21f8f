package cmd

import (
	"github.com/ika-tensei/relayer/src/relay"
	"github.com/ika-tensei/relayer/src/utils/logger"
	"github.com/ika-tensei/relayer/src/utils/model"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(relayCmd)
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Detect deposits and drive seals through the reincarnation lifecycle",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		err = model.Migrate(applicationCtx, conf)
		if err != nil {
			return
		}

		controller, err := relay.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("relay-cmd")
		log.Debug("Finished relay command")
		applicationCtxCancel()
		return
	},
}
