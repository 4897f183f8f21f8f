package build_info

// Set through ldflags upon building the production binary
var (
	Version   = "dev"
	BuildDate = "unknown"
)
