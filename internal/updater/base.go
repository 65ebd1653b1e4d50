// Package updater implements the producer/consumer pipeline that keeps the
// backend in sync with the upstream market data provider.
package updater

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/eodsync/internal/ascentrade"
	"github.com/ternarybob/eodsync/internal/interfaces"
	"github.com/ternarybob/eodsync/internal/queue"
)

// TickerRef identifies one security by symbol and exchange, upper-cased.
type TickerRef struct {
	Symbol   string
	Exchange string
}

func (r TickerRef) String() string {
	return r.Symbol + "." + r.Exchange
}

// TickerSnapshot is an immutable point-in-time copy of all tickers known to
// the backend. It is replaced wholesale on refresh, never mutated, so reads
// across suspension points stay consistent.
type TickerSnapshot struct {
	rows   []ascentrade.SecurityTicker
	byCode map[string][]int
}

// NewTickerSnapshot builds a snapshot with a code lookup index.
func NewTickerSnapshot(rows []ascentrade.SecurityTicker) *TickerSnapshot {
	s := &TickerSnapshot{
		rows:   rows,
		byCode: make(map[string][]int, len(rows)),
	}
	for i, row := range rows {
		code := strings.ToUpper(row.Code)
		s.byCode[code] = append(s.byCode[code], i)
	}
	return s
}

// Len returns the number of tickers in the snapshot.
func (s *TickerSnapshot) Len() int {
	return len(s.rows)
}

// Contains reports whether a ticker with the given code, exchange and listing
// state exists. The exchange matches either the real or the virtual exchange
// code. Inputs must already be upper-cased.
func (s *TickerSnapshot) Contains(code, exchange string, delisted bool) bool {
	for _, i := range s.byCode[code] {
		row := &s.rows[i]
		if row.IsDelisted != delisted {
			continue
		}
		if strings.ToUpper(row.Exchange.Code) == exchange || strings.ToUpper(row.Exchange.VirtualExchange) == exchange {
			return true
		}
	}
	return false
}

// SortedByLastUpdate returns the snapshot rows ordered stalest first.
func (s *TickerSnapshot) SortedByLastUpdate() []ascentrade.SecurityTicker {
	rows := make([]ascentrade.SecurityTicker, len(s.rows))
	copy(rows, s.rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].LastUpdate.Before(rows[j].LastUpdate)
	})
	return rows
}

// Base holds the shared state of an updater: the backend connection, the
// known-tickers snapshot, the work queue and the pending-update set.
type Base struct {
	name    string
	backend interfaces.BackendClient
	logger  arbor.ILogger
	queue   *queue.Queue[Event]
	tickers atomic.Pointer[TickerSnapshot]

	// The pending set is only touched from the producer task, but the mutex
	// stays as a guard against future concurrent writers.
	pendingMu sync.Mutex
	pending   map[string]TickerRef
}

// NewBase creates the shared updater state.
func NewBase(name string, backend interfaces.BackendClient, logger arbor.ILogger) *Base {
	b := &Base{
		name:    name,
		backend: backend,
		logger:  logger,
		queue:   queue.New[Event](),
		pending: make(map[string]TickerRef),
	}
	b.tickers.Store(NewTickerSnapshot(nil))
	return b
}

// RefreshTickers replaces the known-tickers snapshot with a fresh pull from
// the backend. On failure the previous snapshot stays in place.
func (b *Base) RefreshTickers(ctx context.Context) {
	b.logger.Info().Msg("Get all available tickers...")
	rows, err := b.backend.AllSecurityTickers(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to refresh ticker snapshot")
		return
	}
	b.tickers.Store(NewTickerSnapshot(rows))
	b.logger.Info().Int("count", len(rows)).Msg("Ticker snapshot refreshed")
}

// Snapshot returns the current known-tickers snapshot.
func (b *Base) Snapshot() *TickerSnapshot {
	return b.tickers.Load()
}

// IsKnownTicker reports whether a security is already known to the backend.
// Comparison is case-insensitive and matches either the real or the virtual
// exchange code.
func (b *Base) IsKnownTicker(symbol, exchangeCode string, delisted bool) (bool, error) {
	if symbol == "" || exchangeCode == "" {
		return false, fmt.Errorf("invalid input parameters for IsKnownTicker(%q, %q)", symbol, exchangeCode)
	}
	return b.Snapshot().Contains(strings.ToUpper(symbol), strings.ToUpper(exchangeCode), delisted), nil
}

// MarkForUpdate adds a ticker to the pending full-update set.
// Duplicates are dropped.
func (b *Base) MarkForUpdate(symbol, exchange string) {
	if symbol == "" || exchange == "" {
		return
	}
	ref := TickerRef{
		Symbol:   strings.ToUpper(symbol),
		Exchange: strings.ToUpper(exchange),
	}

	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	if _, exists := b.pending[ref.String()]; !exists {
		b.pending[ref.String()] = ref
	}
}

// PendingTickers returns a copy of the pending full-update set, ordered
// deterministically.
func (b *Base) PendingTickers() []TickerRef {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	refs := make([]TickerRef, 0, len(b.pending))
	for _, ref := range b.pending {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].String() < refs[j].String()
	})
	return refs
}

// ClearPending empties the pending full-update set.
func (b *Base) ClearPending() {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	b.pending = make(map[string]TickerRef)
}

// Publish appends an event to the work queue.
func (b *Base) Publish(event Event) {
	b.queue.Publish(event)
}

// Dequeue blocks until an event is available or ctx is cancelled.
func (b *Base) Dequeue(ctx context.Context) (Event, error) {
	return b.queue.Dequeue(ctx)
}
