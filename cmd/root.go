package cmd

import (
	"fmt"
	"os"

	"github.com/mabhi256/livetree/internal/config"
	"github.com/mabhi256/livetree/utils"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	addr       string
	interval   int
	bufferSize string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "livetree",
	Short: "Live view of a running script's variables and call stack",
	Long: `livetree serves the live state of a paused or running script (variables, module instances,
call frames, system variables and log) and shows it in a terminal viewer that stays in sync
while the program runs.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads --config when given and applies the flags the user set on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = addr
	}
	if flags.Changed("interval") {
		cfg.Interval = interval
	}
	if flags.Changed("buffer-size") {
		size, err := utils.ParseByteSize(bufferSize)
		if err != nil {
			return nil, err
		}
		cfg.BufferSize = int(size)
	}
	if flags.Changed("debug") {
		cfg.Debug = debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Config file (yaml)")
	flags.StringVarP(&addr, "addr", "a", config.DefaultAddr, "Server address")
	flags.IntVarP(&interval, "interval", "i", config.DefaultInterval, "Update interval in ms")
	flags.StringVar(&bufferSize, "buffer-size", utils.ByteSize(config.Default().BufferSize).String(), "Message buffer size, e.g. 64K or 1M")
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	_ = rootCmd.RegisterFlagCompletionFunc("config", utils.CompleteFiles(".yaml", ".yml"))
}
