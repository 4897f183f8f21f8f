package config

import (
	"time"

	"github.com/spf13/viper"
)

type Solana struct {
	// JSON-RPC endpoint of the Solana node
	RpcUrl string

	// RPC calls are paced to at most this many requests per second
	RequestsPerSecond int

	// Base58 address of the reincarnation program
	ProgramId string

	// Path to the relayer's payer keypair file, solana-keygen JSON format
	KeypairPath string

	// Base58 address receiving the mint fee
	FeeRecipient string

	// Commitment level used for queries and confirmations
	Commitment string

	// Skip preflight simulation when sending transactions
	SkipPreflight bool

	// How long to wait for a sent transaction to be confirmed
	ConfirmTimeout time.Duration

	// How often a sent transaction is polled for confirmation
	ConfirmInterval time.Duration
}

func setSolanaDefaults() {
	viper.SetDefault("Solana.RpcUrl", "https://api.devnet.solana.com")
	viper.SetDefault("Solana.RequestsPerSecond", "10")
	viper.SetDefault("Solana.ProgramId", "")
	viper.SetDefault("Solana.KeypairPath", "")
	viper.SetDefault("Solana.FeeRecipient", "")
	viper.SetDefault("Solana.Commitment", "confirmed")
	viper.SetDefault("Solana.SkipPreflight", "false")
	viper.SetDefault("Solana.ConfirmTimeout", "90s")
	viper.SetDefault("Solana.ConfirmInterval", "2s")
}
