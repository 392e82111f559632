package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contactfinder/internal/model"
	"contactfinder/internal/repository"
)

type mockService struct {
	outcome    *model.Outcome
	executeErr error

	summary *model.BalanceSummary
	account *model.Account
	records []model.SearchRecord

	granted     int64
	grantResult int64

	lastQuery string
	lastKind  model.QueryKind
}

func (m *mockService) Execute(ctx context.Context, userID, query string, kind model.QueryKind) (*model.Outcome, error) {
	m.lastQuery = query
	m.lastKind = kind
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	return m.outcome, nil
}

func (m *mockService) GetBalance(ctx context.Context, userID string) (*model.BalanceSummary, error) {
	if m.summary == nil {
		return nil, repository.ErrAccountNotFound
	}
	return m.summary, nil
}

func (m *mockService) EnsureAccount(ctx context.Context, userID, displayName string) (*model.Account, error) {
	return m.account, nil
}

func (m *mockService) GrantCredits(ctx context.Context, userID string, amount int64) (int64, error) {
	m.granted = amount
	return m.grantResult, nil
}

func (m *mockService) RecentSearches(ctx context.Context, userID string, limit int) ([]model.SearchRecord, error) {
	return m.records, nil
}

func newTestMux(svc *mockService) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(svc).Register(mux)
	return mux
}

func TestSearchEndpoint(t *testing.T) {
	svc := &mockService{outcome: &model.Outcome{Found: true, Query: "Yandex", Credits: 9}}
	mux := newTestMux(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search",
		strings.NewReader(`{"user_id": "u1", "query": "Yandex"}`))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var outcome model.Outcome
	if err := json.NewDecoder(rec.Body).Decode(&outcome); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !outcome.Found || outcome.Credits != 9 {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
	// Kind defaults to company when the request omits it.
	if svc.lastKind != model.QueryKindCompany {
		t.Errorf("expected default kind company, got %q", svc.lastKind)
	}
}

func TestSearchEndpointInsufficientCredits(t *testing.T) {
	svc := &mockService{executeErr: repository.ErrInsufficientCredits}
	mux := newTestMux(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search",
		strings.NewReader(`{"user_id": "u1", "query": "Yandex"}`))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
}

func TestSearchEndpointMissingParams(t *testing.T) {
	mux := newTestMux(&mockService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"user_id": "u1"}`))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBalanceEndpoint(t *testing.T) {
	svc := &mockService{summary: &model.BalanceSummary{Credits: 5, TotalSearches: 2, SuccessfulSearches: 1}}
	mux := newTestMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance?user_id=u1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary model.BalanceSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if summary.Credits != 5 || summary.TotalSearches != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestBalanceEndpointUnknownAccount(t *testing.T) {
	mux := newTestMux(&mockService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance?user_id=ghost", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEnsureAccountEndpoint(t *testing.T) {
	svc := &mockService{account: &model.Account{UserID: "u1", Credits: 10}}
	mux := newTestMux(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/accounts",
		strings.NewReader(`{"user_id": "u1", "display_name": "alice"}`))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var acc model.Account
	if err := json.NewDecoder(rec.Body).Decode(&acc); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if acc.UserID != "u1" || acc.Credits != 10 {
		t.Errorf("unexpected account: %+v", acc)
	}
}

func TestGrantEndpoint(t *testing.T) {
	svc := &mockService{account: &model.Account{UserID: "u1"}, grantResult: 60}
	mux := newTestMux(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/credits/grant",
		strings.NewReader(`{"user_id": "u1", "amount": 50}`))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.granted != 50 {
		t.Errorf("expected grant of 50, got %d", svc.granted)
	}
	var resp map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp["balance"] != 60 {
		t.Errorf("unexpected balance %d", resp["balance"])
	}
}

func TestPackagesEndpoint(t *testing.T) {
	mux := newTestMux(&mockService{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/packages", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var packages []model.CreditPackage
	if err := json.NewDecoder(rec.Body).Decode(&packages); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(packages) != len(model.Packages) {
		t.Errorf("expected %d packages, got %d", len(model.Packages), len(packages))
	}
}
