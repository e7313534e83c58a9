package blogs

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

// Handler wires HTTP endpoints for articles.
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

// MountRoutes registers blog routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/blogs", h.list)
	r.Get("/blogs/latest", h.latest)
	r.Get("/blogs/{id}", h.read)

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuthenticated)
		r.Use(h.gate.RequireRole(auth.RoleAgent, auth.RoleAdmin))
		r.Post("/blogs", h.publish)
		r.Put("/blogs/{id}", h.edit)
		r.Delete("/blogs/{id}", h.remove)
	})
}

func blogID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid blog id")
		return 0, false
	}
	return id, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r, 10, 50)
	blogs, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list blogs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"blogs": blogs, "pagination": pagination})
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.service.Latest(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, blogs)
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request) {
	id, ok := blogID(w, r)
	if !ok {
		return
	}
	blog, err := h.service.Read(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, blog)
}

type blogRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	ImageURL string `json:"image"`
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	var req blogRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "title and content are required")
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	blog, err := h.service.Publish(r.Context(), principal, PublishRequest{
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		h.logger.Error("publish blog", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, blog)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	id, ok := blogID(w, r)
	if !ok {
		return
	}
	var req blogRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "title and content are required")
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	blog, err := h.service.Edit(r.Context(), principal, id, PublishRequest{
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, blog)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := blogID(w, r)
	if !ok {
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	if err := h.service.Remove(r.Context(), principal, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}
