package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/eodsync/internal/common"
	"github.com/ternarybob/eodsync/internal/eodhd"
	"github.com/ternarybob/eodsync/internal/interfaces"
)

// Snapshot folders under <data.root>/EOD.
const (
	snapshotFundamentals   = "fundamentals"
	snapshotQuotes         = "quotes"
	snapshotQuotesAdjusted = "quotes-split-adjusted"
)

// Updater drives the full synchronization pipeline: the producer pulls from
// the market data provider, the consumer normalizes and persists into the
// backend, with a queue of typed events in between.
type Updater struct {
	*Base

	market   interfaces.MarketDataClient
	cfg      *common.Config
	basePath string

	// firstRun gates the backfill phases; it flips to false after the first
	// cycle completes, whether or not that cycle succeeded.
	firstRun bool

	runMu     sync.Mutex
	isRunning bool
}

// New creates an Updater and its snapshot directory tree.
func New(cfg *common.Config, market interfaces.MarketDataClient, backend interfaces.BackendClient, logger arbor.ILogger) (*Updater, error) {
	basePath := filepath.Join(cfg.Data.Root, "EOD")
	for _, folder := range []string{snapshotFundamentals, snapshotQuotes, snapshotQuotesAdjusted} {
		if err := os.MkdirAll(filepath.Join(basePath, folder), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	return &Updater{
		Base:     NewBase("eodhd", backend, logger),
		market:   market,
		cfg:      cfg,
		basePath: basePath,
		firstRun: true,
	}, nil
}

// Run starts the consumer, the optional live trade stream, runs one update
// cycle immediately, and then follows the configured cron schedule until ctx
// is cancelled.
func (u *Updater) Run(ctx context.Context) error {
	common.SafeGoWithContext(ctx, u.logger, "consumer", func() {
		u.RunConsumer(ctx)
	})

	if u.cfg.Stream.Enabled {
		common.SafeGoWithContext(ctx, u.logger, "stream", func() {
			u.runStream(ctx)
		})
	}

	u.runCycleGuarded(ctx)

	c := cron.New()
	if _, err := c.AddFunc(u.cfg.Update.Schedule, func() {
		u.runCycleGuarded(ctx)
	}); err != nil {
		return fmt.Errorf("invalid update schedule %q: %w", u.cfg.Update.Schedule, err)
	}
	c.Start()
	u.logger.Info().Str("schedule", u.cfg.Update.Schedule).Msg("Update scheduler started")

	<-ctx.Done()

	stop := c.Stop()
	<-stop.Done()
	u.logger.Info().Msg("Update scheduler stopped")
	return ctx.Err()
}

// runCycleGuarded runs a cycle unless one is already in flight. Overlapping
// schedule fires are skipped, not queued.
func (u *Updater) runCycleGuarded(ctx context.Context) {
	u.runMu.Lock()
	if u.isRunning {
		u.runMu.Unlock()
		u.logger.Warn().Msg("Update cycle still running, skipping this trigger")
		return
	}
	u.isRunning = true
	u.runMu.Unlock()

	defer func() {
		u.runMu.Lock()
		u.isRunning = false
		u.runMu.Unlock()
	}()

	if err := u.RunCycle(ctx); err != nil {
		u.logger.Error().Err(err).Msg("Update cycle failed")
	}
}

// runStream forwards live trades into the log. Tick data is informational
// only; daily quotes still come from the end-of-day feeds.
func (u *Updater) runStream(ctx context.Context) {
	stream := eodhd.NewStream(u.cfg.EODHD.APIKey, eodhd.WithStreamLogger(u.logger))

	if err := stream.Connect(ctx); err != nil {
		u.logger.Error().Err(err).Msg("Failed to connect trade stream")
		return
	}
	defer stream.Close()

	if err := stream.Subscribe(u.cfg.Stream.Symbols); err != nil {
		u.logger.Error().Err(err).Msg("Failed to subscribe trade stream")
		return
	}
	u.logger.Info().Strs("symbols", u.cfg.Stream.Symbols).Msg("Trade stream connected")

	err := stream.Listen(ctx, func(t eodhd.Trade) {
		u.logger.Debug().
			Str("symbol", t.Symbol).
			Float64("price", t.Price).
			Int("volume", int(t.Volume)).
			Msg("Trade")
	})
	if err != nil && ctx.Err() == nil {
		u.logger.Error().Err(err).Msg("Trade stream closed")
	}
}
