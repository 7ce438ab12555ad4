// internal/daemon/runner.go
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/launchpad/internal/asset"
	"github.com/rovshanmuradov/launchpad/internal/config"
	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/feediscount"
	"github.com/rovshanmuradov/launchpad/internal/launchpad"
	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/storage/postgres"
	"github.com/rovshanmuradov/launchpad/internal/treasury"
	"github.com/rovshanmuradov/launchpad/internal/types"
	"github.com/rovshanmuradov/launchpad/internal/utils/metrics"
	"github.com/rovshanmuradov/launchpad/internal/venue"
)

// Runner assembles the engine and its supporting services from a config
// file and keeps them alive until a shutdown signal arrives.
type Runner struct {
	logger     *zap.Logger
	config     *config.Config
	bus        *events.Bus
	engine     *launchpad.Engine
	store      storage.Storage
	recorder   *storage.Recorder
	collector  *metrics.Collector
	metricsSrv *http.Server
	shutdownCh chan os.Signal
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		logger:     logger,
		shutdownCh: make(chan os.Signal, 1),
	}
}

// Initialize loads the configuration and wires every component: the event
// bus, the persistence layer when a postgres URL is configured, the fee
// discount ledger, the trading venue and the engine itself.
func (r *Runner) Initialize(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	r.config = cfg

	r.bus = events.NewBus(r.logger, cfg.EventBufferSize)

	if cfg.PostgresURL != "" {
		store, err := postgres.NewStorage(ctx, cfg.PostgresURL, r.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		if err := store.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		r.store = store
		r.recorder = storage.NewRecorder(store, r.logger)
		r.recorder.Attach(r.bus)
	}

	r.collector = metrics.NewCollector(r.logger)
	r.collector.Attach(r.bus)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", r.collector.Handler())
		r.metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	}

	clock := types.NewWallClock(time.Duration(cfg.BlockIntervalMS) * time.Millisecond)

	var discounts *feediscount.Ledger
	if cfg.FeeReduction.MinThreshold != "" {
		governance := asset.NewToken(
			common.HexToAddress(cfg.FeeReduction.GovernanceAddress),
			"Governance", "GOV",
		)
		minT, _ := config.ParseAmount(cfg.FeeReduction.MinThreshold)
		maxT, _ := config.ParseAmount(cfg.FeeReduction.MaxThreshold)
		discounts, err = feediscount.NewLedger(governance, clock, cfg.ActivationDelayBlocks, feediscount.Config{
			MinThreshold:     minT,
			MaxThreshold:     maxT,
			MinMultiplierBps: cfg.FeeReduction.MinMultiplierBps,
			MaxMultiplierBps: cfg.FeeReduction.MaxMultiplierBps,
		}, r.logger)
		if err != nil {
			return fmt.Errorf("failed to build fee discount ledger: %w", err)
		}
	}

	var virtualPairing = launchpad.DefaultVirtualPairingReserve
	if cfg.VirtualPairingReserve != "" {
		virtualPairing, err = config.ParseAmount(cfg.VirtualPairingReserve)
		if err != nil {
			return fmt.Errorf("invalid virtual pairing reserve: %w", err)
		}
	}

	owner := common.HexToAddress(cfg.OwnerAddress)
	engine, err := launchpad.New(launchpad.Params{
		Owner:     owner,
		Clock:     clock,
		Venue:     venue.NewAMM("graduation", r.logger),
		Treasury:  treasury.NewPool("protocol", r.logger),
		Discounts: discounts,
		Bus:       r.bus,
		FeeConfig: launchpad.TradingFeeConfig{
			FeeBps:          cfg.TradingFeeBps,
			CreatorShareBps: cfg.CreatorShareBps,
		},
		VirtualPairingReserve: virtualPairing,
		Logger:                r.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	r.engine = engine

	for i, p := range cfg.Pairings {
		addr := common.HexToAddress(p.Address)
		pairing := asset.NewToken(addr, fmt.Sprintf("Pairing %d", i), "PAIR")
		threshold, _ := config.ParseAmount(p.GraduationThreshold)
		pcfg := launchpad.PairingConfig{
			GraduationThreshold: threshold,
			Enabled:             p.Enabled,
		}
		if p.MintCost != "" {
			pcfg.MintCost, _ = config.ParseAmount(p.MintCost)
		}
		if err := engine.RegisterPairingAsset(owner, pairing, pcfg); err != nil {
			return fmt.Errorf("failed to register pairing %s: %w", p.Address, err)
		}
	}

	for _, a := range cfg.AgentAllowlist {
		addr := common.HexToAddress(a)
		agent := asset.NewToken(addr, "Agent", "AGT")
		if err := engine.AllowAgentAsset(owner, agent, true); err != nil {
			return fmt.Errorf("failed to allow agent asset %s: %w", a, err)
		}
	}

	r.logger.Info("Engine initialized",
		zap.String("owner", cfg.OwnerAddress),
		zap.Int("pairings", len(cfg.Pairings)),
		zap.Bool("persistence", r.store != nil),
		zap.Bool("fee_discounts", discounts != nil))
	return nil
}

// Engine exposes the wired engine for embedding callers.
func (r *Runner) Engine() *launchpad.Engine { return r.engine }

// Run blocks until the context is cancelled or a termination signal
// arrives, then tears the services down in reverse order.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("Signal received: " + sig.String())
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if r.metricsSrv != nil {
		g.Go(func() error {
			r.logger.Info("Metrics endpoint listening", zap.String("addr", r.metricsSrv.Addr))
			if err := r.metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			return r.metricsSrv.Shutdown(closeCtx)
		})
	}

	err := g.Wait()
	if shutdownErr := r.Shutdown(context.Background()); err == nil {
		err = shutdownErr
	}
	return err
}

// Shutdown detaches the recorder and drains the event bus.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.logger.Info("Shutting down")

	if r.collector != nil {
		r.collector.Detach()
	}
	if r.recorder != nil {
		r.recorder.Detach()
	}
	if r.bus != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := r.bus.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("Event bus shutdown incomplete", zap.Error(err))
		}
	}

	if err := r.logger.Sync(); err != nil {
		if !os.IsNotExist(err) &&
			err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: inappropriate ioctl for device" {
			fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
		}
	}
	return nil
}
