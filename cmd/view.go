package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mabhi256/livetree/internal/transport"
	"github.com/mabhi256/livetree/internal/viewer"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Attach the terminal viewer to a running server",
	Long: `View attaches to a livetree server and shows the debuggee's object tree,
source and log, refreshed every interval.

Keys: enter expands a row, d shows details, tab switches the side pane,
c/p continue and pause, i/n/o step in, over and out, x terminates.

Examples:
  livetree view                         # Attach to the default address
  livetree view -a 10.0.0.5:7321        # Attach to a remote server
  livetree view -d                      # Write a json debug log`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := viewer.LogConfig(cfg).ApplyGlobal(); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}

		ctx := cmd.Context()
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		link, sessionID, err := transport.Dial(dialCtx, cfg.Addr)
		if errors.Is(err, transport.ErrBusy) {
			return fmt.Errorf("%s already has a viewer attached", cfg.Addr)
		}
		if err != nil {
			return fmt.Errorf("unable to attach to %s: %w", cfg.Addr, err)
		}

		client := transport.NewClient(link, cfg.BufferSize, sessionID)
		defer client.Close()

		if err := client.Hello(dialCtx); err != nil {
			return fmt.Errorf("handshake failed: %w", err)
		}

		if err := viewer.Start(ctx, cfg, client); err != nil {
			return fmt.Errorf("unable to start TUI: %w", err)
		}
		if cfg.Debug {
			fmt.Printf("Debug log written to %s\n", cfg.DebugLogFile)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
