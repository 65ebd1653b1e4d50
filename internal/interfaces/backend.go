package interfaces

import (
	"context"

	"github.com/ternarybob/eodsync/internal/ascentrade"
)

// BackendClient is the write API the consumer persists normalized data through.
type BackendClient interface {
	Ping(ctx context.Context) error
	AllSecurityTickers(ctx context.Context) ([]ascentrade.SecurityTicker, error)
	UpdateSecurity(ctx context.Context, input ascentrade.SecurityInput) (ascentrade.MutationResult, error)
	UpdateSecurityQuotes(ctx context.Context, input ascentrade.SecurityQuotesInput) (ascentrade.MutationResult, error)
	UpdateSplits(ctx context.Context, input ascentrade.SplitsInput) (ascentrade.MutationResult, error)
	UpdateDividends(ctx context.Context, input ascentrade.DividendsInput) (ascentrade.MutationResult, error)
	UpdateOutstandingShares(ctx context.Context, input ascentrade.OutstandingSharesInput) (ascentrade.MutationResult, error)
}
