package reviews

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/platform/httpx"
)

// Handler wires HTTP endpoints for testimonials.
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

// MountRoutes registers review routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reviews", h.list)

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuthenticated)
		r.Post("/reviews", h.submit)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list reviews", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reviews)
}

type submitRequest struct {
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Feedback string `json:"feedback" validate:"required"`
	PolicyID int64  `json:"policyId" validate:"required,gt=0"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "rating (1-5), feedback and policyId are required")
		return
	}
	claims := auth.ClaimsFromContext(r.Context())
	review, err := h.service.Submit(r.Context(), claims.Email, SubmitRequest{
		Rating:   req.Rating,
		Feedback: req.Feedback,
		PolicyID: req.PolicyID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, review)
}
