package service

import (
	"context"
	"errors"
	"testing"

	"contactfinder/internal/repository"
)

func TestTryReserveDebitsBalance(t *testing.T) {
	store := newFakeStore()
	store.seed("u1", 3)
	ledger := NewCreditLedger(store)

	res, err := ledger.TryReserve(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UserID() != "u1" || res.Cost() != 1 {
		t.Errorf("reservation not bound to request: %s/%d", res.UserID(), res.Cost())
	}
	if acc := store.account("u1"); acc.Credits != 2 {
		t.Errorf("expected balance 2 after reserve, got %d", acc.Credits)
	}
}

func TestTryReserveInsufficient(t *testing.T) {
	store := newFakeStore()
	store.seed("u1", 0)
	ledger := NewCreditLedger(store)

	_, err := ledger.TryReserve(context.Background(), "u1", 1)
	if !errors.Is(err, repository.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if acc := store.account("u1"); acc.Credits != 0 {
		t.Errorf("failed reserve must not mutate, balance is %d", acc.Credits)
	}
}

func TestTryReserveUnknownAccount(t *testing.T) {
	ledger := NewCreditLedger(newFakeStore())

	_, err := ledger.TryReserve(context.Background(), "ghost", 1)
	if !errors.Is(err, repository.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestSettleRefundRestoresBalance(t *testing.T) {
	store := newFakeStore()
	store.seed("u1", 5)
	ledger := NewCreditLedger(store)

	res, err := ledger.TryReserve(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	balance, err := ledger.Settle(context.Background(), res, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 5 {
		t.Errorf("expected restored balance 5, got %d", balance)
	}
}

func TestSettleKeepLeavesDebit(t *testing.T) {
	store := newFakeStore()
	store.seed("u1", 5)
	ledger := NewCreditLedger(store)

	res, _ := ledger.TryReserve(context.Background(), "u1", 1)
	balance, err := ledger.Settle(context.Background(), res, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 4 {
		t.Errorf("expected balance 4 after kept debit, got %d", balance)
	}
	if acc := store.account("u1"); acc.Credits != 4 {
		t.Errorf("store balance is %d, expected 4", acc.Credits)
	}
}

func TestSettleTwiceFails(t *testing.T) {
	store := newFakeStore()
	store.seed("u1", 5)
	ledger := NewCreditLedger(store)

	res, _ := ledger.TryReserve(context.Background(), "u1", 1)
	if _, err := ledger.Settle(context.Background(), res, true); err != nil {
		t.Fatalf("first settle failed: %v", err)
	}
	if _, err := ledger.Settle(context.Background(), res, true); !errors.Is(err, ErrReservationConsumed) {
		t.Fatalf("expected ErrReservationConsumed, got %v", err)
	}
	// The double refund must not have gone through.
	if acc := store.account("u1"); acc.Credits != 5 {
		t.Errorf("double settle changed the balance to %d", acc.Credits)
	}
}

func TestSettleRefundFailureAllowsRetry(t *testing.T) {
	store := newFakeStore()
	store.seed("u1", 5)
	ledger := NewCreditLedger(store)

	res, _ := ledger.TryReserve(context.Background(), "u1", 1)

	store.adjustErr = errors.New("connection refused")
	if _, err := ledger.Settle(context.Background(), res, true); err == nil {
		t.Fatal("expected store failure to surface")
	}

	// A failed refund must not consume the reservation.
	store.adjustErr = nil
	balance, err := ledger.Settle(context.Background(), res, true)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if balance != 5 {
		t.Errorf("expected restored balance 5 after retry, got %d", balance)
	}
}

func TestTryReserveRejectsNonPositiveCost(t *testing.T) {
	store := newFakeStore()
	store.seed("u1", 5)
	ledger := NewCreditLedger(store)

	if _, err := ledger.TryReserve(context.Background(), "u1", 0); err == nil {
		t.Error("expected error for zero cost")
	}
}
