// Package a2a serves the agent-side protocol surface: the well-known
// card manifest and the invoke endpoint. The directory's client half
// of the same protocol lives in adapter/a2aclient.
package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openagora/agora/internal/domain/card"
	"github.com/openagora/agora/internal/domain/task"
	"github.com/openagora/agora/internal/port/agentwork"
)

// Handler exposes one agent over HTTP: its card and its worker.
type Handler struct {
	card    card.Card
	worker  agentwork.Worker
	timeout time.Duration
}

// NewHandler creates an agent protocol handler. A zero timeout leaves
// worker execution bounded only by the request context.
func NewHandler(c card.Card, w agentwork.Worker, timeout time.Duration) *Handler {
	return &Handler{card: c, worker: w, timeout: timeout}
}

// Card returns the card this handler serves.
func (h *Handler) Card() card.Card { return h.card.Clone() }

// MountRoutes registers the protocol routes on the given chi router.
// These are mounted at the root level, not under /api/v1.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(WellKnownCardPath, h.handleCard)
	r.Post("/invoke", h.handleInvoke)
}

func (h *Handler) handleCard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.card)
}

func (h *Handler) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.TaskText) == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "taskText is required")
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	t := task.NewWithCorrelation(req.TaskText, req.CorrelationID)
	start := time.Now()
	res, err := h.worker.Work(ctx, t)
	if err != nil {
		slog.Error("worker failed",
			"agent", h.card.Name,
			"correlation_id", t.CorrelationID,
			"error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, CodeWorkerError, err.Error())
		return
	}

	slog.Info("task handled",
		"agent", h.card.Name,
		"correlation_id", t.CorrelationID,
		"duration", time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(InvokeResponse{ResultText: res.Text})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Code: code, Message: message})
}
