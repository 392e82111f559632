package service

import (
	"context"

	"contactfinder/internal/model"
)

// Store is the durable ledger the services run on. The concrete
// implementation lives in internal/repository; tests swap in fakes.
type Store interface {
	GetAccount(ctx context.Context, userID string) (*model.Account, error)
	CreateAccount(ctx context.Context, userID, displayName string, startingCredits int64) (*model.Account, error)
	AdjustCredits(ctx context.Context, userID string, delta int64) (int64, error)
	ReserveCredits(ctx context.Context, userID string, cost int64) (int64, error)
	AppendSearchRecord(ctx context.Context, rec *model.SearchRecord) (int64, error)
	RecentSearches(ctx context.Context, userID string, limit int) ([]model.SearchRecord, error)
}

// AccountingService is the surface presentation adapters drive. All
// transport layers (HTTP, NATS) depend on this interface, not on the
// concrete accountant.
type AccountingService interface {
	Execute(ctx context.Context, userID, query string, kind model.QueryKind) (*model.Outcome, error)
	GetBalance(ctx context.Context, userID string) (*model.BalanceSummary, error)
	EnsureAccount(ctx context.Context, userID, displayName string) (*model.Account, error)
	GrantCredits(ctx context.Context, userID string, amount int64) (int64, error)
	RecentSearches(ctx context.Context, userID string, limit int) ([]model.SearchRecord, error)
}
