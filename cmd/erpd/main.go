// Erpd exposes validated remote operations against a Frappe/ERPNext backend
// as MCP tools over stdio.
//
// The process speaks the MCP protocol on stdout, logs to stderr, and
// optionally serves health and Prometheus metrics on a localhost HTTP
// sidecar. Configuration is merged from ~/.config/erpd/config.yaml and
// ERPD_-prefixed environment variables.
//
// Usage:
//
//	# Serve MCP on stdio with defaults
//	erpd
//
//	# Configure via environment
//	ERPD_ERP_BASE_URL=https://erp.example.com ERPD_HTTP_ENABLED=true erpd
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tallyforge/erpd/internal/audit"
	"github.com/tallyforge/erpd/internal/config"
	"github.com/tallyforge/erpd/internal/erp"
	httpserver "github.com/tallyforge/erpd/internal/http"
	"github.com/tallyforge/erpd/internal/logging"
	"github.com/tallyforge/erpd/internal/mcp"
	"github.com/tallyforge/erpd/internal/session"
	"github.com/tallyforge/erpd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// configPath is the --config flag value; empty means the default location.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "erpd",
	Short: "MCP server for Frappe/ERPNext remote operations",
	Long: `erpd exposes validated remote operations against a Frappe/ERPNext
backend as MCP tools over stdio.

Every tool returns a structured envelope: {ok, data} on success and
{ok, error: {code, message}} on failure. Stdout carries the MCP
protocol; logs go to stderr.

Examples:
  # Serve MCP on stdio
  erpd

  # Use an explicit config file
  erpd --config ~/.config/erpd/config.yaml`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("erpd\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/erpd/config.yaml)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "erpd: %v\n", err)
		os.Exit(1)
	}
}

// runServe starts the daemon and blocks until a signal arrives or the MCP
// client disconnects.
func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return run(ctx)
}

// run initializes all dependencies and serves MCP on stdio:
//  1. Loads and validates configuration
//  2. Initializes telemetry and the structured logger
//  3. Connects infrastructure (NATS audit trail, when enabled)
//  4. Builds the session manager and operation service
//  5. Pre-connects from file configuration, when present
//  6. Starts the health/metrics sidecar, when enabled
//  7. Serves the MCP protocol until shutdown
func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Telemetry, version))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	logger, err := initLogger(cfg, tel)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info(ctx, "starting erpd",
		zap.String("version", version),
		zap.Bool("http_sidecar", cfg.HTTP.Enabled),
		zap.Bool("nats_audit", cfg.NATS.Enabled),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", h.Reason))
	}

	deps, err := initDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer deps.Close()

	// Pre-connect from file configuration so preconfigured installs answer
	// their first tool call without an explicit connect. Failure is not
	// fatal: the auth gate reports it per call and the connect tool can
	// retry interactively.
	if cfg.ERP.BaseURL != "" {
		if res := deps.sessions.Connect(ctx, nil); !res.OK {
			logger.Warn(ctx, "startup connect failed",
				zap.String("base_url", cfg.ERP.BaseURL),
				zap.String("error", res.Err.Message),
			)
		}
	}

	if cfg.HTTP.Enabled {
		sidecar, err := httpserver.NewServer(deps.sessions, logger, &httpserver.Config{
			Host:    cfg.HTTP.Host,
			Port:    cfg.HTTP.Port,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating http sidecar: %w", err)
		}

		go func() {
			if err := sidecar.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error(ctx, "http sidecar failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration())
			defer shutdownCancel()
			if err := sidecar.Shutdown(shutdownCtx); err != nil {
				logger.Warn(shutdownCtx, "http sidecar shutdown failed", zap.Error(err))
			}
		}()
	}

	srv, err := mcp.NewServer(&mcp.Config{
		Name:    "erpd",
		Version: version,
		Logger:  logger,
	}, deps.ops, deps.sessions)
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}
	defer func() {
		_ = srv.Close()
	}()

	return srv.Run(ctx)
}

// initLogger maps the file-level logging knobs onto the full logging config.
func initLogger(cfg *config.Config, tel *telemetry.Telemetry) (*logging.Logger, error) {
	logCfg := logging.NewDefaultConfig()

	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logCfg.Level = level
	logCfg.Format = cfg.Logging.Format

	return logging.NewLogger(logCfg, tel.LoggerProvider())
}

// dependencies holds all infrastructure dependencies.
type dependencies struct {
	natsConn *nats.Conn
	sessions *session.Manager
	ops      *erp.Service
}

// Close releases all infrastructure resources.
func (d *dependencies) Close() {
	if d.natsConn != nil {
		d.natsConn.Close()
	}
}

// initDependencies connects infrastructure and builds the operation service.
func initDependencies(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*dependencies, error) {
	var recorder audit.Recorder = audit.NopRecorder{}
	var natsConn *nats.Conn

	if cfg.NATS.Enabled {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(5),
			nats.ReconnectWait(time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.NATS.URL, err)
		}

		pub, err := audit.NewPublisher(nc, logger)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("creating audit publisher: %w", err)
		}

		natsConn = nc
		recorder = pub
		logger.Info(ctx, "audit trail enabled", zap.String("nats_url", cfg.NATS.URL))
	}

	sessions := session.NewManager(&cfg.ERP, logger)

	ops, err := erp.NewService(sessions, logger, recorder)
	if err != nil {
		if natsConn != nil {
			natsConn.Close()
		}
		return nil, fmt.Errorf("creating operation service: %w", err)
	}

	return &dependencies{
		natsConn: natsConn,
		sessions: sessions,
		ops:      ops,
	}, nil
}
