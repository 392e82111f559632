package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contactfinder/internal/gateway"
	"contactfinder/internal/model"
	"contactfinder/internal/repository"
)

const (
	defaultSearchCost      = 1
	defaultStartingCredits = 10
	defaultLookupTimeout   = 15 * time.Second
)

// Options carries the optional collaborators and tunables of the
// accountant. Zero values fall back to defaults; Bus and Cache may stay nil
// when NATS or Redis aren't wired.
type Options struct {
	Bus             repository.MessageBus
	Cache           *repository.BalanceCache
	SearchCost      int64
	StartingCredits int64
	LookupTimeout   time.Duration
}

// Accountant orchestrates one search transaction: reserve a credit, ask the
// gateway, record the attempt, settle the reservation. It is stateless
// between calls; everything durable lives in the store.
type Accountant struct {
	store           Store
	ledger          *CreditLedger
	gw              gateway.Lookup
	bus             repository.MessageBus
	cache           *repository.BalanceCache
	searchCost      int64
	startingCredits int64
	lookupTimeout   time.Duration
}

func NewAccountant(store Store, ledger *CreditLedger, gw gateway.Lookup, opts Options) *Accountant {
	a := &Accountant{
		store:           store,
		ledger:          ledger,
		gw:              gw,
		bus:             opts.Bus,
		cache:           opts.Cache,
		searchCost:      opts.SearchCost,
		startingCredits: opts.StartingCredits,
		lookupTimeout:   opts.LookupTimeout,
	}
	if a.searchCost < 1 {
		a.searchCost = defaultSearchCost
	}
	if a.startingCredits < 0 {
		a.startingCredits = defaultStartingCredits
	}
	if a.lookupTimeout <= 0 {
		a.lookupTimeout = defaultLookupTimeout
	}
	return a
}

// Execute runs one search transaction for the user. Rejections for missing
// credit come back as repository.ErrInsufficientCredits before anything is
// written; every call that gets past the reservation produces exactly one
// history record. Gateway failures of any kind settle as a refund and a
// not-found outcome — the user is never charged for a question we couldn't
// ask.
func (a *Accountant) Execute(ctx context.Context, userID, query string, kind model.QueryKind) (*model.Outcome, error) {
	res, err := a.ledger.TryReserve(ctx, userID, a.searchCost)
	if err != nil {
		return nil, err
	}

	// From here the transaction must finish even if the caller walks away
	// mid-lookup: a disconnected chat user must not leave a dangling debit.
	ctx = context.WithoutCancel(ctx)

	profile, lerr := a.lookup(ctx, query, kind)
	found := lerr == nil
	if lerr != nil && !errors.Is(lerr, gateway.ErrNotFound) {
		slog.Warn("lookup gateway failed, treating as not found",
			"user_id", userID, "kind", kind, "error", lerr)
	}

	rec := &model.SearchRecord{
		UserID:      userID,
		Query:       query,
		ResultLabel: profile.Label(),
		Found:       found,
	}
	if found {
		rec.ContactValue = profile.Email
	}
	if _, err := a.store.AppendSearchRecord(ctx, rec); err != nil {
		// The debit must not stand without a history row. Put the credit
		// back and surface the store failure.
		if _, serr := a.ledger.Settle(ctx, res, true); serr != nil {
			slog.Error("failed to release reservation after store error",
				"user_id", userID, "reservation", res.ID(), "error", serr)
		}
		return nil, fmt.Errorf("record search: %w", err)
	}

	balance, err := a.ledger.Settle(ctx, res, !found)
	if err != nil {
		return nil, err
	}

	a.dropCachedBalance(ctx, userID)
	a.publishSearchEvent(rec)

	out := &model.Outcome{Found: found, Query: query, Credits: balance}
	if found {
		out.Result = profile
	}
	return out, nil
}

// lookup calls the gateway under its own deadline. A panicking gateway is
// contained here and accounted like any other provider failure.
func (a *Accountant) lookup(ctx context.Context, query string, kind model.QueryKind) (profile *model.CompanyProfile, err error) {
	lookupCtx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			profile, err = nil, fmt.Errorf("lookup panic: %v", r)
		}
	}()
	return a.gw.Search(lookupCtx, query, kind)
}

func (a *Accountant) GetBalance(ctx context.Context, userID string) (*model.BalanceSummary, error) {
	if a.cache != nil {
		if summary, err := a.cache.Get(ctx, userID); err == nil {
			return summary, nil
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			slog.Warn("balance cache read failed", "user_id", userID, "error", err)
		}
	}

	acc, err := a.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &model.BalanceSummary{
		Credits:            acc.Credits,
		TotalSearches:      acc.TotalSearches,
		SuccessfulSearches: acc.SuccessfulSearches,
	}
	if a.cache != nil {
		if err := a.cache.Set(ctx, userID, summary); err != nil {
			slog.Warn("balance cache write failed", "user_id", userID, "error", err)
		}
	}
	return summary, nil
}

// EnsureAccount returns the user's account, creating it with the starting
// grant on first contact. A create racing another create is resolved by
// re-reading.
func (a *Accountant) EnsureAccount(ctx context.Context, userID, displayName string) (*model.Account, error) {
	acc, err := a.store.GetAccount(ctx, userID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	acc, err = a.store.CreateAccount(ctx, userID, displayName, a.startingCredits)
	if err == nil {
		slog.Info("account created", "user_id", userID, "credits", a.startingCredits)
		return acc, nil
	}
	if errors.Is(err, repository.ErrAccountExists) {
		return a.store.GetAccount(ctx, userID)
	}
	return nil, err
}

func (a *Accountant) GrantCredits(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 1 {
		return 0, fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	balance, err := a.store.AdjustCredits(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	a.dropCachedBalance(ctx, userID)
	slog.Info("credits granted", "user_id", userID, "amount", amount, "balance", balance)
	return balance, nil
}

func (a *Accountant) RecentSearches(ctx context.Context, userID string, limit int) ([]model.SearchRecord, error) {
	return a.store.RecentSearches(ctx, userID, limit)
}

func (a *Accountant) dropCachedBalance(ctx context.Context, userID string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, userID); err != nil {
		slog.Warn("balance cache invalidation failed", "user_id", userID, "error", err)
	}
}

func (a *Accountant) publishSearchEvent(rec *model.SearchRecord) {
	if a.bus == nil {
		return
	}
	event := repository.SearchEvent{
		RecordID:  rec.ID,
		UserID:    rec.UserID,
		Query:     rec.Query,
		Found:     rec.Found,
		CreatedAt: rec.CreatedAt,
	}
	data, _ := json.Marshal(event)
	if err := a.bus.Publish(repository.TopicSearchCompleted, data); err != nil {
		slog.Warn("failed to publish search event", "user_id", rec.UserID, "error", err)
	}
}
