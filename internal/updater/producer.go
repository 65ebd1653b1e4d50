package updater

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/eodsync/internal/common"
	"github.com/ternarybob/eodsync/internal/eodhd"
)

// RunCycle executes one full update cycle: bulk daily feeds, first-run
// backfill, pending tickers, top lists, and the budget-bounded oldest-first
// refresh. Fetched data is published to the queue; the consumer persists it.
func (u *Updater) RunCycle(ctx context.Context) error {
	cycleID := common.NewCycleID()
	log := u.logger.WithCorrelationId(cycleID)

	log.Info().Str("cycle", cycleID).Msg("Starting update cycle")
	start := time.Now()

	// The first-run phases and the pending set are one-shot per process
	// lifetime, even when the cycle fails partway.
	defer func() {
		u.firstRun = false
		u.ClearPending()

		if r := recover(); r != nil {
			common.WriteCrashFile(r, common.GetStackTrace())
			log.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("Update cycle panicked")
		}
	}()

	u.logUsage(ctx, log)
	u.RefreshTickers(ctx)

	// Symbols refreshed in this cycle; the oldest-first loop skips them.
	updated := make(map[string]bool)

	if u.cfg.Update.DailyRun && isTradingFollowUpDay(time.Now()) {
		u.fetchExchangeTickers(ctx, log, defaultExchange, false)
		u.fetchBulkFeeds(ctx, log, time.Time{})
	}

	if u.firstRun {
		if err := u.runFirstRunPhases(ctx, log, updated); err != nil {
			return err
		}
	}

	if err := u.runPendingUpdates(ctx, log, updated); err != nil {
		return err
	}

	if u.cfg.Update.TopStocks {
		log.Info().Int("count", len(topUSStocks)).Msg("Updating top US stocks")
		if err := u.runListUpdates(ctx, log, topUSStocks, updated); err != nil {
			return err
		}
	}
	if u.cfg.Update.TopETFs {
		log.Info().Int("count", len(topUSETFs)).Msg("Updating top US ETFs")
		if err := u.runListUpdates(ctx, log, topUSETFs, updated); err != nil {
			return err
		}
	}

	if u.cfg.Update.Oldest {
		if err := u.runOldestFirst(ctx, log, updated); err != nil {
			return err
		}
	}

	log.Info().
		Int("updated", len(updated)).
		Str("duration", time.Since(start).Round(time.Second).String()).
		Msg("Update cycle finished")
	return nil
}

// runFirstRunPhases executes the one-time backfill work: historical bulk
// days, the delisted ticker list, and the anchor ETF seeding run.
func (u *Updater) runFirstRunPhases(ctx context.Context, log arbor.ILogger, updated map[string]bool) error {
	dates, invalid := u.cfg.BackfillDates()
	for _, raw := range invalid {
		log.Warn().Str("date", raw).Msg("Ignoring invalid backfill date")
	}
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Info().Str("date", date.Format("2006-01-02")).Msg("Backfilling bulk feeds")
		u.fetchBulkFeeds(ctx, log, date)
	}

	if u.cfg.Update.Delisted {
		u.fetchExchangeTickers(ctx, log, defaultExchange, true)
	}

	if u.cfg.Update.InitialRun {
		return u.runInitialSeed(ctx, log, updated)
	}
	return nil
}

// runInitialSeed performs a full update of the anchor index ETFs, all of
// their constituents, and the sector ETF list. The anchor fundamentals are
// fetched once: the same payload yields the constituent list and the
// anchor's own update.
func (u *Updater) runInitialSeed(ctx context.Context, log arbor.ILogger, updated map[string]bool) error {
	log.Info().Strs("anchors", anchorETFs).Msg("Running initial anchor ETF seed")

	targets := make([]string, 0, len(sectorETFs))
	for _, anchor := range anchorETFs {
		if err := ctx.Err(); err != nil {
			return err
		}
		sym := anchor + "." + defaultExchange
		fundamentals, err := u.market.GetFundamentals(ctx, sym)
		if err != nil {
			log.Error().Err(err).Str("symbol", anchor).Msg("Failed to fetch anchor ETF fundamentals")
			continue
		}
		if fundamentals == nil {
			log.Warn().Str("symbol", anchor).Msg("Empty anchor ETF fundamentals payload")
			continue
		}

		constituents := extractETFTickers(fundamentals)
		log.Info().Str("symbol", anchor).Int("constituents", len(constituents)).Msg("Anchor ETF holdings resolved")
		targets = append(targets, constituents...)

		u.publishFundamentals(ctx, log, sym, fundamentals)
		u.fetchQuoteSeries(ctx, log, anchor, defaultExchange)
		updated[anchor] = true
	}
	targets = append(targets, sectorETFs...)

	return u.runListUpdates(ctx, log, targets, updated)
}

// runPendingUpdates performs a full update for every ticker marked during
// earlier phases (typically symbols seen in the bulk splits and dividends
// feeds).
func (u *Updater) runPendingUpdates(ctx context.Context, log arbor.ILogger, updated map[string]bool) error {
	pending := u.PendingTickers()
	if len(pending) == 0 {
		return nil
	}
	log.Info().Int("count", len(pending)).Msg("Updating pending tickers")

	for _, ref := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if updated[ref.Symbol] {
			continue
		}
		if !u.cfg.Update.AddNewTicker {
			known, err := u.IsKnownTicker(ref.Symbol, ref.Exchange, false)
			if err != nil {
				log.Warn().Err(err).Str("ticker", ref.String()).Msg("Skipping pending ticker")
				continue
			}
			if !known {
				log.Warn().Str("ticker", ref.String()).Msg("Skipping unknown pending ticker, new ticker registration is disabled")
				continue
			}
		}
		u.fullUpdate(ctx, log, ref.Symbol, ref.Exchange)
		updated[ref.Symbol] = true
	}
	return nil
}

// runListUpdates performs a full update for each US symbol not already
// refreshed this cycle.
func (u *Updater) runListUpdates(ctx context.Context, log arbor.ILogger, symbols []string, updated map[string]bool) error {
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		symbol = strings.ToUpper(symbol)
		if updated[symbol] {
			continue
		}
		u.fullUpdate(ctx, log, symbol, defaultExchange)
		updated[symbol] = true
	}
	return nil
}

// runOldestFirst refreshes the stalest known tickers until the remaining
// daily API budget falls below the configured reserve. The budget is
// re-checked against the provider after every ticker because a full update
// costs several calls.
func (u *Updater) runOldestFirst(ctx context.Context, log arbor.ILogger, updated map[string]bool) error {
	u.RefreshTickers(ctx)

	rows := u.Snapshot().SortedByLastUpdate()
	log.Info().Int("candidates", len(rows)).Msg("Starting oldest-first refresh")

	refreshed := 0
	for i := range rows {
		row := &rows[i]
		if err := ctx.Err(); err != nil {
			return err
		}

		code := strings.ToUpper(row.Code)
		if updated[code] || row.IsDelisted {
			continue
		}

		exchange := row.Exchange.VirtualExchange
		if exchange == "" {
			exchange = row.Exchange.Code
		}

		u.fullUpdate(ctx, log, code, strings.ToUpper(exchange))
		updated[code] = true
		refreshed++

		user, err := u.market.GetUser(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to check API usage, stopping oldest-first refresh")
			break
		}
		if user.Remaining() < u.cfg.EODHD.APILimitReserve {
			log.Info().
				Int("remaining", user.Remaining()).
				Int("reserve", u.cfg.EODHD.APILimitReserve).
				Msg("API budget reserve reached, stopping oldest-first refresh")
			break
		}
	}

	log.Info().Int("refreshed", refreshed).Msg("Oldest-first refresh finished")
	return nil
}

// fullUpdate pulls fundamentals, quotes, dividends and splits for one
// security, snapshots the raw payloads and publishes the events. Returns
// whether fundamentals were fetched successfully; an empty fundamentals
// payload aborts the whole update.
func (u *Updater) fullUpdate(ctx context.Context, log arbor.ILogger, symbol, exchange string) bool {
	sym := symbol + "." + exchange
	log.Info().Str("symbol", sym).Msg("Full update")

	success := true
	fundamentals, err := u.market.GetFundamentals(ctx, sym)
	switch {
	case err != nil:
		log.Error().Err(err).Str("symbol", sym).Msg("Failed to fetch fundamentals")
		success = false
	case fundamentals == nil:
		log.Warn().Str("symbol", sym).Msg("Empty fundamentals payload, skipping update")
		return false
	default:
		u.publishFundamentals(ctx, log, sym, fundamentals)
	}

	u.fetchQuoteSeries(ctx, log, symbol, exchange)
	return success
}

// publishFundamentals snapshots a fundamentals payload and publishes it
// together with the downloaded logo.
func (u *Updater) publishFundamentals(ctx context.Context, log arbor.ILogger, ticker string, fundamentals *eodhd.FundamentalsResponse) {
	logoURL, logoBase64 := u.processLogo(ctx, log, fundamentals)
	u.writeSnapshot(log, snapshotFundamentals, ticker, fundamentals)
	u.Publish(&FundamentalsEvent{
		Fundamentals: fundamentals,
		LogoURL:      logoURL,
		LogoBase64:   logoBase64,
	})
}

// fetchQuoteSeries pulls the quote, dividend and split history for one
// security, snapshots the quote payloads and publishes the events.
func (u *Updater) fetchQuoteSeries(ctx context.Context, log arbor.ILogger, symbol, exchange string) {
	sym := symbol + "." + exchange

	raw, err := u.market.GetEOD(ctx, sym, eodhd.WithOrder("a"))
	if err != nil {
		log.Error().Err(err).Str("symbol", sym).Msg("Failed to fetch quotes")
	} else {
		adjusted, err := u.market.GetSplitAdjustedQuotes(ctx, sym, eodhd.WithOrder("a"))
		if err != nil {
			log.Error().Err(err).Str("symbol", sym).Msg("Failed to fetch split-adjusted quotes")
		} else {
			u.writeSnapshot(log, snapshotQuotes, sym, raw)
			u.writeSnapshot(log, snapshotQuotesAdjusted, sym, adjusted)
			u.Publish(&QuotesEvent{
				Code:          symbol,
				ExchangeCode:  exchange,
				Quotes:        raw,
				SplitAdjusted: adjusted,
			})
		}
	}

	dividends, err := u.market.GetDividends(ctx, sym)
	if err != nil {
		log.Error().Err(err).Str("symbol", sym).Msg("Failed to fetch dividends")
	} else {
		u.Publish(&DividendsEvent{Code: symbol, ExchangeCode: exchange, Dividends: dividends})
	}

	splits, err := u.market.GetSplits(ctx, sym)
	if err != nil {
		log.Error().Err(err).Str("symbol", sym).Msg("Failed to fetch splits")
	} else {
		u.Publish(&SplitsEvent{Code: symbol, ExchangeCode: exchange, Splits: splits})
	}
}

// fetchExchangeTickers publishes the symbol list of one exchange, filtered
// to stocks and ETFs.
func (u *Updater) fetchExchangeTickers(ctx context.Context, log arbor.ILogger, exchange string, delisted bool) {
	symbols, err := u.market.GetExchangeSymbolList(ctx, exchange, delisted)
	if err != nil {
		log.Error().Err(err).Str("exchange", exchange).Bool("delisted", delisted).Msg("Failed to fetch exchange symbol list")
		return
	}

	filtered := symbols[:0]
	for _, sym := range symbols {
		if sym.Type == "Common Stock" || sym.Type == "ETF" {
			filtered = append(filtered, sym)
		}
	}
	log.Info().
		Str("exchange", exchange).
		Bool("delisted", delisted).
		Int("count", len(filtered)).
		Msg("Fetched exchange symbol list")

	u.Publish(&ExchangeTickersEvent{Exchange: exchange, Delisted: delisted, Symbols: filtered})
}

// fetchBulkFeeds publishes the bulk last-day quotes, splits and dividends
// for the default exchange. A zero date means the most recent trading day.
// Symbols with a split or dividend are marked for a later full update.
func (u *Updater) fetchBulkFeeds(ctx context.Context, log arbor.ILogger, date time.Time) {
	var opts []eodhd.QueryOption
	if !date.IsZero() {
		opts = append(opts, eodhd.WithDate(date))
	}

	quotes, err := u.market.GetBulkQuotes(ctx, defaultExchange, opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch bulk quotes")
	} else {
		log.Info().Int("count", len(quotes)).Msg("Fetched bulk quotes")
		u.Publish(&BulkQuotesEvent{Quotes: quotes})
	}

	splits, err := u.market.GetBulkSplits(ctx, defaultExchange, opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch bulk splits")
	} else {
		log.Info().Int("count", len(splits)).Msg("Fetched bulk splits")
		for _, s := range splits {
			u.MarkForUpdate(s.Code, bulkExchange(s.Exchange))
		}
		u.Publish(&BulkSplitsEvent{Splits: splits})
	}

	dividends, err := u.market.GetBulkDividends(ctx, defaultExchange, opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch bulk dividends")
	} else {
		log.Info().Int("count", len(dividends)).Msg("Fetched bulk dividends")
		for _, d := range dividends {
			u.MarkForUpdate(d.Code, bulkExchange(d.Exchange))
		}
		u.Publish(&BulkDividendsEvent{Dividends: dividends})
	}
}

// processLogo downloads and stores the company logo, returning the provider
// logo path and the base64 image data. Missing or failed logos degrade to
// empty strings; they never fail the update.
func (u *Updater) processLogo(ctx context.Context, log arbor.ILogger, fundamentals *eodhd.FundamentalsResponse) (string, string) {
	logoURL := fundamentals.General.LogoURL
	if logoURL == "" {
		return "", ""
	}

	data, err := u.market.DownloadLogo(ctx, logoURL)
	if err != nil {
		log.Warn().Err(err).Str("url", logoURL).Msg("Failed to download logo")
		return logoURL, ""
	}
	if data == nil {
		log.Debug().Str("url", logoURL).Msg("Logo not found")
		return logoURL, ""
	}

	path := filepath.Join(u.cfg.Data.Root, filepath.FromSlash(strings.TrimPrefix(logoURL, "/")))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to create logo directory")
	} else if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to store logo")
	}

	return logoURL, base64.StdEncoding.EncodeToString(data)
}

// writeSnapshot stores one raw provider payload as
// <basePath>/<folder>/<SYMBOL>.<EXCHANGE>.json, so the same code listed on
// two exchanges keeps two snapshots.
func (u *Updater) writeSnapshot(log arbor.ILogger, folder, ticker string, payload interface{}) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to encode snapshot")
		return
	}

	path := filepath.Join(u.basePath, folder, strings.ToUpper(ticker)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write snapshot")
	}
}

// logUsage fetches and logs the current API usage.
func (u *Updater) logUsage(ctx context.Context, log arbor.ILogger) {
	user, err := u.market.GetUser(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch API usage")
		return
	}
	log.Info().
		Str("usage", fmt.Sprintf("%d/%d", user.APIRequests, user.DailyRateLimit)).
		Str("subscription", user.SubscriptionType).
		Msg("Provider API usage")
}

// isTradingFollowUpDay reports whether the bulk daily feeds should run:
// Tuesday through Saturday, i.e. the day after a US trading day.
func isTradingFollowUpDay(now time.Time) bool {
	switch now.Weekday() {
	case time.Sunday, time.Monday:
		return false
	default:
		return true
	}
}

// bulkExchange normalizes the exchange code carried by bulk feed rows.
func bulkExchange(exchange string) string {
	if exchange == "" {
		return defaultExchange
	}
	return strings.ToUpper(exchange)
}
