package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mabhi256/livetree/internal/config"
	"github.com/mabhi256/livetree/internal/debuggee"
	"github.com/mabhi256/livetree/internal/logger"
	"github.com/mabhi256/livetree/internal/session"
	"github.com/mabhi256/livetree/internal/source"
	"github.com/mabhi256/livetree/internal/transport"
	"github.com/mabhi256/livetree/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const metricsNamespace = "livetree"

var (
	demo       bool
	metrics    bool
	logPath    string
	sourceDirs []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a debuggee's live state to one viewer",
	Long: `Serve exposes the debuggee's object tree over a websocket at /attach.
One viewer can be attached at a time; events produced while no viewer
is attached are queued and delivered after the next handshake.

Examples:
  livetree serve --demo                      # Run the built-in demo program
  livetree serve --demo --metrics            # Also expose /metrics
  livetree serve --demo -c livetree.yaml     # Load settings from a config file`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("metrics") {
			cfg.Metrics = metrics
		}
		if flags.Changed("log-path") {
			cfg.LogPath = logPath
		}
		if flags.Changed("source-dir") {
			cfg.SourceDirs = sourceDirs
		}
		if cfg.Debug {
			cfg.Log.DefaultLevel = "debug"
		}

		if !demo {
			return errors.New("no debuggee to serve: run with --demo to use the built-in program")
		}

		if err := cfg.Log.ApplyGlobal(); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg)
	},
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log := logger.NewNamed("serve")

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := transport.NewServer(version,
		transport.WithBufferSize(cfg.BufferSize),
		transport.WithPrometheus(promReg, metricsNamespace, ""),
	)
	defer srv.Close()

	sources := source.NewResolver(cfg.SourceDirs...)
	sources.Register(debuggee.DemoFile, debuggee.DemoSource)

	mem := debuggee.NewMemory()
	program := debuggee.NewDemo(mem)

	sess, err := session.New(cfg, mem, srv, sources,
		session.WithController(program),
		session.WithRunner(program),
		session.WithPrometheus(promReg, metricsNamespace),
	)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(transport.AttachPath, srv.AttachHandler())
	if cfg.Metrics {
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg}))
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	httpSrv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpSrv.Serve(listener)
	}()

	fmt.Printf("🔍 livetree %s serving on ws://%s%s\n", version, listener.Addr(), transport.AttachPath)
	if cfg.Metrics {
		fmt.Printf("📈 metrics on http://%s/metrics\n", listener.Addr())
	}
	fmt.Printf("💡 attach with: livetree view -a %s\n", listener.Addr())

	runErr := make(chan error, 1)
	go func() {
		runErr <- sess.Run(ctx)
	}()

	select {
	case err = <-runErr:
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := httpSrv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("http shutdown", zap.Error(shutdownErr))
	}

	switch {
	case err == nil:
		fmt.Printf("%s debuggee terminated\n", utils.GoodStyle.Render("✅"))
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, http.ErrServerClosed):
		log.Info("server stopped")
		return nil
	default:
		return err
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&demo, "demo", false, "Run the built-in demo program")
	serveCmd.Flags().BoolVarP(&metrics, "metrics", "m", false, "Expose prometheus metrics at /metrics")
	serveCmd.Flags().StringVar(&logPath, "log-path", "", "Save the debuggee log here when it terminates")
	serveCmd.Flags().StringSliceVar(&sourceDirs, "source-dir", nil, "Directories searched for source files")

	_ = serveCmd.MarkFlagDirname("source-dir")
}
