package viewer

import (
	"fmt"
	"time"

	"github.com/mabhi256/livetree/internal/config"
	"github.com/mabhi256/livetree/internal/logger"
)

// LogConfig keeps log output off the terminal the viewer draws on. With debug
// enabled everything goes to a json file, otherwise logging is discarded.
func LogConfig(cfg *config.Config) logger.Config {
	lc := cfg.Log
	lc.DisableStdErr = true
	lc.AddOutputPaths = nil

	if !cfg.Debug {
		return lc
	}

	if cfg.DebugLogFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		cfg.DebugLogFile = fmt.Sprintf("livetree_debug_%s.log", timestamp)
	}
	lc.AddOutputPaths = []string{cfg.DebugLogFile}
	lc.DefaultLevel = "debug"
	lc.Format = logger.JSONOutput
	return lc
}
