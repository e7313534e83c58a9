package payments

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/platform/httpx"
)

// Handler wires HTTP endpoints for payments.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *auth.Gate
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *auth.Gate) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		gate:      gate,
		validator: validator.New(),
	}
}

// MountRoutes registers payment routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuthenticated)
		r.Post("/payments/intent", h.openIntent)
		r.Post("/payments", h.record)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuthenticated)
		r.Use(h.gate.RequireRole(auth.RoleAdmin))
		r.Get("/payments", h.list)
	})

	// Customers see their own history; admins anyone's.
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuthenticated)
		r.Use(h.gate.RequireOwnerOrRole(func(r *http.Request) string {
			return chi.URLParam(r, "email")
		}, auth.RoleAdmin))
		r.Get("/payments/{email}", h.listByEmail)
	})
}

type intentRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency"`
}

func (h *Handler) openIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "a positive amount in cents is required")
		return
	}
	intent, err := h.service.OpenIntent(r.Context(), req.Amount, req.Currency)
	if err != nil {
		h.logger.Error("open payment intent", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clientSecret": intent.ClientSecret})
}

type recordRequest struct {
	TransactionID string    `json:"transactionId" validate:"required"`
	Amount        int64     `json:"amount" validate:"required,gt=0"`
	Currency      string    `json:"currency"`
	ApplicationID uuid.UUID `json:"applicationId" validate:"required"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "transactionId, amount and applicationId are required")
		return
	}
	claims := auth.ClaimsFromContext(r.Context())
	payment, err := h.service.Record(r.Context(), claims.Email, RecordRequest{
		TransactionID:  req.TransactionID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		ApplicationID:  req.ApplicationID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) listByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	payments, err := h.service.ListByEmail(r.Context(), email)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}
