package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ternarybob/eodsync/internal/ascentrade"
	"github.com/ternarybob/eodsync/internal/common"
)

// RunConsumer drains the event queue until ctx is cancelled, normalizing
// each event into the backend. A failed event is logged and dropped; it
// never stops the loop.
func (u *Updater) RunConsumer(ctx context.Context) {
	u.logger.Info().Msg("Consumer started")

	for {
		event, err := u.Dequeue(ctx)
		if err != nil {
			u.logger.Info().Msg("Consumer stopped")
			return
		}
		u.handleEvent(ctx, event)
	}
}

func (u *Updater) handleEvent(ctx context.Context, event Event) {
	// A handler panic drops the event, never the consumer.
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error().
				Str("kind", event.Kind()).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", common.GetStackTrace()).
				Msg("Recovered from panic while handling event")
		}
	}()

	switch e := event.(type) {
	case *QuotesEvent:
		u.handleQuotes(ctx, e)
	case *DividendsEvent:
		u.handleDividends(ctx, e)
	case *SplitsEvent:
		u.handleSplits(ctx, e)
	case *ExchangeTickersEvent:
		u.handleExchangeTickers(ctx, e)
	case *BulkQuotesEvent:
		u.handleBulkQuotes(ctx, e)
	case *BulkSplitsEvent:
		u.handleBulkSplits(ctx, e)
	case *BulkDividendsEvent:
		u.handleBulkDividends(ctx, e)
	case *FundamentalsEvent:
		u.handleFundamentals(ctx, e)
	default:
		u.logger.Warn().Str("kind", event.Kind()).Msg("Unhandled event kind")
	}
}

func (u *Updater) handleQuotes(ctx context.Context, e *QuotesEvent) {
	if len(e.Quotes) == 0 {
		u.logger.Warn().Str("code", e.Code).Msg("No quotes to update")
		return
	}

	input := ascentrade.SecurityQuotesInput{
		Code:         e.Code,
		ExchangeCode: e.ExchangeCode,
		Quotes:       mergeQuotes(e.Quotes, e.SplitAdjusted),
	}
	result, err := u.backend.UpdateSecurityQuotes(ctx, input)
	if err != nil {
		u.logger.Error().Err(err).Str("code", e.Code).Msg("Failed to update quotes")
		return
	}
	if !result.Success {
		u.logger.Warn().Str("code", e.Code).Str("error", result.Error).Msg("Backend rejected quotes update")
		return
	}
	u.logger.Info().Str("code", e.Code).Int("count", len(input.Quotes)).Msg("Quotes updated")
}

func (u *Updater) handleDividends(ctx context.Context, e *DividendsEvent) {
	if len(e.Dividends) == 0 {
		return
	}

	entries := make([]ascentrade.DividendEntry, 0, len(e.Dividends))
	for i := range e.Dividends {
		entries = append(entries, dividendEntry(&e.Dividends[i]))
	}

	input := ascentrade.DividendsInput{Code: e.Code, ExchangeCode: e.ExchangeCode, Dividends: entries}
	result, err := u.backend.UpdateDividends(ctx, input)
	if err != nil {
		u.logger.Error().Err(err).Str("code", e.Code).Msg("Failed to update dividends")
		return
	}
	if !result.Success {
		u.logger.Warn().Str("code", e.Code).Str("error", result.Error).Msg("Backend rejected dividends update")
		return
	}
	u.logger.Info().Str("code", e.Code).Int("count", len(entries)).Msg("Dividends updated")
}

func (u *Updater) handleSplits(ctx context.Context, e *SplitsEvent) {
	entries := make([]ascentrade.SplitEntry, 0, len(e.Splits))
	for i := range e.Splits {
		s := &e.Splits[i]
		newShares, oldShares, err := common.ParseSplit(s.Split)
		if err != nil {
			u.logger.Warn().Err(err).Str("code", e.Code).Str("split", s.Split).Msg("Skipping malformed split")
			continue
		}
		entries = append(entries, ascentrade.SplitEntry{Date: s.DateStr, New: newShares, Old: oldShares})
	}
	if len(entries) == 0 {
		return
	}

	input := ascentrade.SplitsInput{Code: e.Code, ExchangeCode: e.ExchangeCode, Splits: entries}
	result, err := u.backend.UpdateSplits(ctx, input)
	if err != nil {
		u.logger.Error().Err(err).Str("code", e.Code).Msg("Failed to update splits")
		return
	}
	if !result.Success {
		u.logger.Warn().Str("code", e.Code).Str("error", result.Error).Msg("Backend rejected splits update")
		return
	}
	u.logger.Info().Str("code", e.Code).Int("count", len(entries)).Msg("Splits updated")
}

// handleExchangeTickers registers every symbol of an exchange listing that
// the backend does not know yet. It is a no-op unless new ticker
// registration is enabled.
func (u *Updater) handleExchangeTickers(ctx context.Context, e *ExchangeTickersEvent) {
	if !u.cfg.Update.AddNewTicker {
		u.logger.Warn().Str("exchange", e.Exchange).Msg("Ignoring exchange symbol list, new ticker registration is disabled")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	added := 0
	for i := range e.Symbols {
		sym := &e.Symbols[i]

		exchange := sym.Exchange
		if exchange == "" {
			exchange = defaultExchange
		}

		known, err := u.IsKnownTicker(sym.Code, exchange, e.Delisted)
		if err != nil {
			u.logger.Warn().Err(err).Str("code", sym.Code).Msg("Skipping symbol row")
			continue
		}
		if known {
			continue
		}

		input := ascentrade.SecurityInput{
			Code:            sym.Code,
			Name:            sym.Name,
			Type:            securityType(sym.Type),
			ExchangeCode:    exchange,
			CountryAlpha3:   sym.Country,
			CurrencyISOCode: sym.Currency,
			Isin:            sym.Isin,
			IsDelisted:      e.Delisted,
			LastUpdate:      now,
		}
		result, err := u.backend.UpdateSecurity(ctx, input)
		if err != nil {
			u.logger.Error().Err(err).Str("code", sym.Code).Msg("Failed to register security")
			continue
		}
		if !result.Success {
			u.logger.Warn().Str("code", sym.Code).Str("error", result.Error).Msg("Backend rejected security registration")
			continue
		}
		added++
	}

	u.logger.Info().Str("exchange", e.Exchange).Bool("delisted", e.Delisted).Int("added", added).Msg("Exchange symbol list processed")
	if added > 0 {
		u.RefreshTickers(ctx)
	}
}

func (u *Updater) handleBulkQuotes(ctx context.Context, e *BulkQuotesEvent) {
	updated := 0
	for i := range e.Quotes {
		q := &e.Quotes[i]

		exchange := bulkExchange(q.ExchangeShort)
		known, err := u.IsKnownTicker(q.Code, exchange, false)
		if err != nil || !known {
			continue
		}

		input := ascentrade.SecurityQuotesInput{
			Code:         q.Code,
			ExchangeCode: exchange,
			Quotes:       []ascentrade.QuoteDay{bulkQuoteDay(q)},
		}
		result, err := u.backend.UpdateSecurityQuotes(ctx, input)
		if err != nil {
			u.logger.Error().Err(err).Str("code", q.Code).Msg("Failed to update bulk quote")
			continue
		}
		if !result.Success {
			u.logger.Warn().Str("code", q.Code).Str("error", result.Error).Msg("Backend rejected bulk quote")
			continue
		}
		updated++
	}
	u.logger.Info().Int("updated", updated).Int("total", len(e.Quotes)).Msg("Bulk quotes processed")
}

func (u *Updater) handleBulkSplits(ctx context.Context, e *BulkSplitsEvent) {
	updated := 0
	for i := range e.Splits {
		s := &e.Splits[i]

		exchange := bulkExchange(s.Exchange)
		known, err := u.IsKnownTicker(s.Code, exchange, false)
		if err != nil || !known {
			continue
		}

		newShares, oldShares, err := common.ParseSplit(s.Split)
		if err != nil {
			u.logger.Warn().Err(err).Str("code", s.Code).Str("split", s.Split).Msg("Skipping malformed bulk split")
			continue
		}

		input := ascentrade.SplitsInput{
			Code:         s.Code,
			ExchangeCode: exchange,
			Splits:       []ascentrade.SplitEntry{{Date: s.DateStr, New: newShares, Old: oldShares}},
		}
		result, err := u.backend.UpdateSplits(ctx, input)
		if err != nil {
			u.logger.Error().Err(err).Str("code", s.Code).Msg("Failed to update bulk split")
			continue
		}
		if !result.Success {
			u.logger.Warn().Str("code", s.Code).Str("error", result.Error).Msg("Backend rejected bulk split")
			continue
		}
		updated++
	}
	u.logger.Info().Int("updated", updated).Int("total", len(e.Splits)).Msg("Bulk splits processed")
}

func (u *Updater) handleBulkDividends(ctx context.Context, e *BulkDividendsEvent) {
	updated := 0
	for i := range e.Dividends {
		d := &e.Dividends[i]

		exchange := bulkExchange(d.Exchange)
		known, err := u.IsKnownTicker(d.Code, exchange, false)
		if err != nil || !known {
			continue
		}

		value, err := decimal.NewFromString(d.Dividend)
		if err != nil {
			u.logger.Warn().Err(err).Str("code", d.Code).Str("value", d.Dividend).Msg("Skipping malformed bulk dividend")
			continue
		}

		input := ascentrade.DividendsInput{
			Code:         d.Code,
			ExchangeCode: exchange,
			Dividends: []ascentrade.DividendEntry{{
				Date:            d.DateStr,
				DeclarationDate: d.DeclarationDate,
				RecordDate:      d.RecordDate,
				PaymentDate:     d.PaymentDate,
				Period:          common.ParseDividendPeriod(d.Period),
				Value:           value,
				AdjustedValue:   &value,
			}},
		}
		result, err := u.backend.UpdateDividends(ctx, input)
		if err != nil {
			u.logger.Error().Err(err).Str("code", d.Code).Msg("Failed to update bulk dividend")
			continue
		}
		if !result.Success {
			u.logger.Warn().Str("code", d.Code).Str("error", result.Error).Msg("Backend rejected bulk dividend")
			continue
		}
		updated++
	}
	u.logger.Info().Int("updated", updated).Int("total", len(e.Dividends)).Msg("Bulk dividends processed")
}

// handleFundamentals upserts the flattened security record, then its
// outstanding shares history when present.
func (u *Updater) handleFundamentals(ctx context.Context, e *FundamentalsEvent) {
	general := e.Fundamentals.General
	if general == nil {
		u.logger.Warn().Msg("Fundamentals event without general section")
		return
	}
	if general.Exchange == "" {
		u.logger.Warn().Str("code", general.Code).Msg("Skipping fundamentals without exchange")
		return
	}

	kind := securityType(general.Type)
	if kind != "Stock" && kind != "ETF" {
		u.logger.Warn().Str("code", general.Code).Str("type", general.Type).Msg("Skipping unsupported security type")
		return
	}

	known, err := u.IsKnownTicker(general.Code, general.Exchange, general.IsDelisted)
	if err != nil {
		u.logger.Warn().Err(err).Str("code", general.Code).Msg("Skipping fundamentals")
		return
	}
	if !known && !u.cfg.Update.AddNewTicker {
		u.logger.Warn().Str("code", general.Code).Msg("Skipping unknown security, new ticker registration is disabled")
		return
	}

	input := buildSecurityInput(e.Fundamentals, e.LogoURL, e.LogoBase64, time.Now().UTC())
	result, err := u.backend.UpdateSecurity(ctx, input)
	if err != nil {
		u.logger.Error().Err(err).Str("code", general.Code).Msg("Failed to update security")
		return
	}
	if !result.Success {
		u.logger.Warn().Str("code", general.Code).Str("error", result.Error).Msg("Backend rejected security update")
	} else {
		u.logger.Info().Str("code", general.Code).Msg("Security updated")
	}

	shares := outstandingSharesInput(e.Fundamentals, general.Code, general.Exchange)
	if shares == nil {
		return
	}
	result, err = u.backend.UpdateOutstandingShares(ctx, *shares)
	if err != nil {
		u.logger.Error().Err(err).Str("code", general.Code).Msg("Failed to update outstanding shares")
		return
	}
	if !result.Success {
		u.logger.Warn().Str("code", general.Code).Str("error", result.Error).Msg("Backend rejected outstanding shares update")
	}
}
