package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

var ErrReservationConsumed = errors.New("reservation already settled")

// Reservation is a provisional debit: one credit already taken off the
// balance, waiting to be kept or refunded. Single-use by construction —
// settling it twice is a caller bug and fails with ErrReservationConsumed.
type Reservation struct {
	id       uuid.UUID
	userID   string
	cost     int64
	balance  int64
	consumed atomic.Bool
}

func (r *Reservation) ID() string     { return r.id.String() }
func (r *Reservation) UserID() string { return r.userID }
func (r *Reservation) Cost() int64    { return r.cost }

// CreditLedger enforces the non-negative balance policy on top of the
// store's atomic conditional update. Per-user serialization happens at the
// account row, so concurrent reservations for different users never contend
// here.
type CreditLedger struct {
	store Store
}

func NewCreditLedger(store Store) *CreditLedger {
	return &CreditLedger{store: store}
}

// TryReserve atomically checks and debits the balance. On insufficient
// funds nothing is mutated and repository.ErrInsufficientCredits comes back
// immediately, without waiting on any in-flight lookup.
func (l *CreditLedger) TryReserve(ctx context.Context, userID string, cost int64) (*Reservation, error) {
	if cost < 1 {
		return nil, fmt.Errorf("reservation cost must be positive, got %d", cost)
	}
	balance, err := l.store.ReserveCredits(ctx, userID, cost)
	if err != nil {
		return nil, err
	}
	return &Reservation{
		id:      uuid.New(),
		userID:  userID,
		cost:    cost,
		balance: balance,
	}, nil
}

// Settle resolves the reservation: refund puts the cost back, keep leaves
// the earlier debit standing. Returns the balance as of settlement. If the
// refund write fails, the reservation is released again so the caller can
// retry instead of silently losing the credit.
func (l *CreditLedger) Settle(ctx context.Context, res *Reservation, refund bool) (int64, error) {
	if !res.consumed.CompareAndSwap(false, true) {
		return 0, ErrReservationConsumed
	}
	if !refund {
		return res.balance, nil
	}
	balance, err := l.store.AdjustCredits(ctx, res.userID, res.cost)
	if err != nil {
		res.consumed.Store(false)
		return 0, fmt.Errorf("refund reservation %s: %w", res.id, err)
	}
	return balance, nil
}
