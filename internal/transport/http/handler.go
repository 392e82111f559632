package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"contactfinder/internal/model"
	"contactfinder/internal/repository"
	"contactfinder/internal/service"
)

type Handler struct {
	svc service.AccountingService
}

func NewHandler(svc service.AccountingService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /accounts", h.EnsureAccount)
	mux.HandleFunc("GET /balance", h.GetBalance)
	mux.HandleFunc("POST /search", h.Search)
	mux.HandleFunc("GET /searches", h.RecentSearches)
	mux.HandleFunc("POST /credits/grant", h.GrantCredits)
	mux.HandleFunc("GET /packages", h.Packages)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) EnsureAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string `json:"user_id"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.UserID == "" {
		h.respondError(w, http.StatusBadRequest, "missing_user_id")
		return
	}
	acc, err := h.svc.EnsureAccount(r.Context(), req.UserID, req.DisplayName)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, acc)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.UserID == "" || req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "missing_params")
		return
	}
	if req.Kind == "" {
		req.Kind = model.QueryKindCompany
	}

	outcome, err := h.svc.Execute(r.Context(), req.UserID, req.Query, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientCredits):
			h.respondError(w, http.StatusPaymentRequired, "insufficient_credits")
		case errors.Is(err, repository.ErrAccountNotFound):
			h.respondError(w, http.StatusNotFound, "account_not_found")
		default:
			h.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	h.respondJSON(w, http.StatusOK, outcome)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.respondError(w, http.StatusBadRequest, "missing_params")
		return
	}
	summary, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			h.respondError(w, http.StatusNotFound, "account_not_found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) RecentSearches(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.respondError(w, http.StatusBadRequest, "missing_params")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.svc.RecentSearches(r.Context(), userID, limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, records)
}

func (h *Handler) GrantCredits(w http.ResponseWriter, r *http.Request) {
	var req model.GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.UserID == "" {
		h.respondError(w, http.StatusBadRequest, "missing_user_id")
		return
	}
	if _, err := h.svc.EnsureAccount(r.Context(), req.UserID, req.DisplayName); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	balance, err := h.svc.GrantCredits(r.Context(), req.UserID, req.Amount)
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (h *Handler) Packages(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, model.Packages)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
