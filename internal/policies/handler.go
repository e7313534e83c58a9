package policies

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/platform/httpx"
	"github.com/aegis-life/aegis-api/internal/shared"
)

// Handler wires HTTP endpoints for the policy catalog.
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

// MountRoutes registers policy routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/policies", h.list)
	r.Get("/policies/popular", h.popular)
	r.Get("/policies/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuthenticated)
		r.Use(h.gate.RequireRole(auth.RoleAdmin))
		r.Post("/policies", h.create)
		r.Put("/policies/{id}", h.update)
		r.Delete("/policies/{id}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r, 9, 50)
	category := r.URL.Query().Get("category")
	search := r.URL.Query().Get("search")

	policies, pagination, err := h.service.List(r.Context(), category, search, page, perPage)
	if err != nil {
		h.logger.Error("list policies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"policies": policies, "pagination": pagination})
}

func (h *Handler) popular(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.Popular(r.Context())
	if err != nil {
		h.logger.Error("popular policies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, policies)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid policy id")
		return
	}
	policy, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, policy)
}

type policyRequest struct {
	Title       string `json:"title" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Details     string `json:"details"`
	ImageURL    string `json:"image"`
	Coverage    string `json:"coverage" validate:"required"`
	Term        string `json:"term" validate:"required"`
	BasePremium int64  `json:"basePremium" validate:"gte=0"`
}

func (h *Handler) decodePolicy(w http.ResponseWriter, r *http.Request) (*policyRequest, bool) {
	var req policyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "title, category, coverage and term are required")
		return nil, false
	}
	return &req, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePolicy(w, r)
	if !ok {
		return
	}
	policy, err := h.service.Create(r.Context(), Policy{
		Title:       req.Title,
		Category:    req.Category,
		Details:     req.Details,
		ImageURL:    req.ImageURL,
		Coverage:    req.Coverage,
		Term:        req.Term,
		BasePremium: req.BasePremium,
	})
	if err != nil {
		h.logger.Error("create policy", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, policy)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid policy id")
		return
	}
	req, ok := h.decodePolicy(w, r)
	if !ok {
		return
	}
	policy, err := h.service.Update(r.Context(), Policy{
		ID:          id,
		Title:       req.Title,
		Category:    req.Category,
		Details:     req.Details,
		ImageURL:    req.ImageURL,
		Coverage:    req.Coverage,
		Term:        req.Term,
		BasePremium: req.BasePremium,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, policy)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid policy id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}
