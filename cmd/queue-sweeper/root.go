package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/athulya-anil/queue-sweeper/pkg/api"
	"github.com/athulya-anil/queue-sweeper/pkg/arr"
	"github.com/athulya-anil/queue-sweeper/pkg/cleaner"
	"github.com/athulya-anil/queue-sweeper/pkg/config"
	"github.com/athulya-anil/queue-sweeper/pkg/logging"
	"github.com/athulya-anil/queue-sweeper/pkg/queue"
	"github.com/athulya-anil/queue-sweeper/pkg/scheduler"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue-sweeper",
		Short: "Remove stalled and dangerous downloads from Sonarr/Radarr queues",
		Long: `queue-sweeper polls the download queues of two services, removes entries
whose messages match a known failure signature, blocklists the release,
and repeats on a fixed interval. It is configured entirely through the
environment (SERVICE_A_URL, SERVICE_A_API_KEY, SERVICE_B_URL,
SERVICE_B_API_KEY, CYCLE_INTERVAL_SECONDS).`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}
}

// run wires the components and blocks until ctx is cancelled.
func run(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stdout sync errors are not actionable

	logger.Info("🚀 queue-sweeper starting",
		zap.Stringer("service_a", cfg.ServiceA),
		zap.Stringer("service_b", cfg.ServiceB),
		zap.Duration("interval", cfg.CycleInterval),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Strings("signatures", cfg.Signatures),
	)

	client := arr.NewClient(logger,
		arr.WithTimeout(cfg.HTTPTimeout),
		arr.WithRateLimit(cfg.RequestRate),
	)
	c := cleaner.New(queue.NewFetcher(client, logger), client, cfg.Signatures, logger)
	s := scheduler.NewScheduler(c, cfg.Endpoints(), cfg.CycleInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(gctx)
	})

	if cfg.StatusAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           api.NewAPI(s.Reports(), s.Interval()).NewRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("🎧 Status API listening", zap.String("addr", cfg.StatusAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info("👋 queue-sweeper stopped")
		return nil
	}
	if err != nil {
		logger.Error("❌ queue-sweeper failed", zap.Error(err))
	}
	return err
}
