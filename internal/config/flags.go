package config

import (
	"flag"
	"strings"
)

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagStrict  = flag.Bool("strict", false, "Abort definition loading on the first invariant violation")
	flagPreview = flag.Bool("preview", false, "Preview mode: skip bone validation")
	flagGRF     = flag.String("grf", "", "Comma-separated GRF archives to load models from")
	flagModels  = flag.String("models", "", "Directory to load models from")
	flagLogFile = flag.String("log", "", "Log file path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagStrict {
		cfg.Validation.Strict = true
	}
	if *flagPreview {
		cfg.Validation.Simulating = false
	}
	if *flagGRF != "" {
		for _, p := range strings.Split(*flagGRF, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Data.GRFPaths = append(cfg.Data.GRFPaths, p)
			}
		}
	}
	if *flagModels != "" {
		cfg.Data.ModelDirs = []string{*flagModels}
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
