package config

import (
	"github.com/spf13/viper"
)

type Profiler struct {
	// Are profiling endpoints registered
	Enabled bool

	// Fraction of blocking events sampled for the block profile
	BlockProfileRate int

	// Fraction of mutex contention events sampled, 0 turns it off
	MutexProfileFraction int
}

func setProfilerDefaults() {
	viper.SetDefault("Profiler.Enabled", "true")
	viper.SetDefault("Profiler.BlockProfileRate", "50")
	viper.SetDefault("Profiler.MutexProfileFraction", "10")
}
