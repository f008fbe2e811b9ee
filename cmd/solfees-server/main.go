// Command solfees-server runs the Solana prioritization-fee and
// blockhash RPC/WebSocket service described across spec.md: a single
// reducer task fed by an ingest source, exposed over two JSON-RPC
// dialects and one WebSocket subscription endpoint, plus a separate
// admin listener for health checks and Prometheus scraping.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/solfees-xyz/solfees-go/internal/config"
	"github.com/solfees-xyz/solfees-go/internal/httpapi"
	"github.com/solfees-xyz/solfees-go/internal/ingest"
	"github.com/solfees-xyz/solfees-go/internal/logging"
	"github.com/solfees-xyz/solfees-go/internal/metrics"
	"github.com/solfees-xyz/solfees-go/internal/rpcapi"
	"github.com/solfees-xyz/solfees-go/internal/subshub"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	app := &cli.App{
		Name:  "solfees-server",
		Usage: "Solana prioritization-fee and blockhash RPC service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				EnvVars: []string{"SOLFEES_CONFIG"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	log, err := logging.New(cfg.Tracing.JSON)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	metrics.Register(prometheus.DefaultRegisterer)

	hub := subshub.New(cfg.Request.StreamsBufferSize)
	reducer := ingest.New(log.Named("reducer"), hub, cfg.Request.QueueCapacity)

	var source ingest.Source
	if cfg.Ingest.FixturePath != "" {
		source, err = ingest.LoadFixtureSource(cfg.Ingest.FixturePath)
		if err != nil {
			return fmt.Errorf("load fixture: %w", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go reducer.Run(ctx)
	if source != nil {
		go ingest.Pump(ctx, source, reducer)
	}

	requestTimeout := time.Duration(cfg.Request.TimeoutSeconds) * time.Second
	solanaMux := rpcapi.NewMultiplexer(reducer, rpcapi.DialectSolana, cfg.Request.CallsMax, requestTimeout)
	tritonMux := rpcapi.NewMultiplexer(reducer, rpcapi.DialectTriton, cfg.Request.CallsMax, requestTimeout)

	publicBind, err := config.ResolveBind(cfg.Listen.Bind)
	if err != nil {
		return fmt.Errorf("resolve listen.bind: %w", err)
	}
	adminBind, err := config.ResolveBind(cfg.ListenAdmin.Bind)
	if err != nil {
		return fmt.Errorf("resolve listenAdmin.bind: %w", err)
	}

	publicServer := &http.Server{
		Addr:    publicBind,
		Handler: httpapi.NewRouter(log.Named("http"), hub, solanaMux, tritonMux),
	}
	adminServer := &http.Server{
		Addr:    adminBind,
		Handler: httpapi.NewAdminRouter(),
	}

	errC := make(chan error, 2)
	go func() {
		log.Infow("public listener starting", "bind", publicBind)
		errC <- publicServer.ListenAndServe()
	}()
	go func() {
		log.Infow("admin listener starting", "bind", adminBind)
		errC <- adminServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errC:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("listener failed", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = publicServer.Shutdown(shutdownCtx)
	_ = adminServer.Shutdown(shutdownCtx)

	return nil
}
