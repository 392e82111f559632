package nats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"

	"contactfinder/internal/model"
	"contactfinder/internal/repository"
	"contactfinder/internal/service"
)

// Handler subscribes to NATS command topics so chat-bot front-ends can
// drive the accountant without going through HTTP. Requests carrying a
// reply subject get the outcome back; fire-and-forget publishes are also
// accepted.
type Handler struct {
	svc  service.AccountingService
	nc   *nats.Conn
	subs []*nats.Subscription
}

func NewHandler(svc service.AccountingService, nc *nats.Conn) *Handler {
	return &Handler{svc: svc, nc: nc}
}

// Start subscribes to command topics and blocks until ctx is cancelled.
func (h *Handler) Start(ctx context.Context) error {
	s1, err := h.nc.QueueSubscribe("commands.search", "accountant_group", func(m *nats.Msg) {
		var req model.SearchRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			slog.Error("nats: failed to unmarshal search command", "error", err)
			return
		}
		if req.Kind == "" {
			req.Kind = model.QueryKindCompany
		}
		outcome, err := h.svc.Execute(ctx, req.UserID, req.Query, req.Kind)
		if err != nil {
			if !errors.Is(err, repository.ErrInsufficientCredits) {
				slog.Error("nats: search failed", "error", err, "user_id", req.UserID)
			}
			h.reply(m, map[string]string{"error": err.Error()})
			return
		}
		h.reply(m, outcome)
	})
	if err != nil {
		return err
	}
	h.subs = append(h.subs, s1)

	s2, err := h.nc.QueueSubscribe("commands.grant", "accountant_group", func(m *nats.Msg) {
		var req model.GrantRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			slog.Error("nats: failed to unmarshal grant command", "error", err)
			return
		}
		if _, err := h.svc.EnsureAccount(ctx, req.UserID, req.DisplayName); err != nil {
			slog.Error("nats: ensure account failed", "error", err, "user_id", req.UserID)
			h.reply(m, map[string]string{"error": err.Error()})
			return
		}
		balance, err := h.svc.GrantCredits(ctx, req.UserID, req.Amount)
		if err != nil {
			slog.Error("nats: grant failed", "error", err, "user_id", req.UserID)
			h.reply(m, map[string]string{"error": err.Error()})
			return
		}
		h.reply(m, map[string]int64{"balance": balance})
	})
	if err != nil {
		return err
	}
	h.subs = append(h.subs, s2)

	slog.Info("NATS command handler is running")

	<-ctx.Done()
	slog.Info("NATS command handler shutting down, draining subscriptions...")

	for _, s := range h.subs {
		_ = s.Drain()
	}
	return nil
}

func (h *Handler) Stop(ctx context.Context) error {
	for _, s := range h.subs {
		_ = s.Unsubscribe()
	}
	return nil
}

func (h *Handler) reply(m *nats.Msg, payload interface{}) {
	if m.Reply == "" {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("nats: failed to marshal reply", "error", err)
		return
	}
	if err := m.Respond(data); err != nil {
		slog.Error("nats: failed to respond", "error", err)
	}
}
