package config

import (
	"github.com/spf13/viper"
)

type Evm struct {
	// JSON-RPC endpoint of the Ethereum node
	RpcUrl string

	// Block the deposit scan starts from when the database has no cursor yet,
	// 0 means the current head
	StartBlockHeight int64
}

func setEvmDefaults() {
	viper.SetDefault("Evm.RpcUrl", "https://ethereum-rpc.publicnode.com")
	viper.SetDefault("Evm.StartBlockHeight", "0")
}
