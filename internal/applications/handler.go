package applications

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/platform/httpx"
	"github.com/aegis-life/aegis-api/internal/shared"
)

// Handler wires HTTP endpoints for applications and claims.
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

// MountRoutes registers application routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuthenticated)
		r.Post("/applications", h.submit)
		r.Get("/applications/mine", h.mine)
		r.Post("/applications/{id}/claim", h.requestClaim)
		r.Get("/applications/{id}/document", h.document)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuthenticated)
		r.Use(h.gate.RequireRole(auth.RoleAgent))
		r.Get("/applications/assigned", h.assigned)
		r.Post("/applications/{id}/claim/approve", h.approveClaim)
	})

	// Status review is the one path shared by admins and agents.
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuthenticated)
		r.Use(h.gate.RequireRole(auth.RoleAdmin, auth.RoleAgent))
		r.Patch("/applications/{id}/status", h.updateStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAuthenticated)
		r.Use(h.gate.RequireRole(auth.RoleAdmin))
		r.Get("/applications", h.list)
		r.Patch("/applications/{id}/agent", h.assignAgent)
	})
}

func applicationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid application id")
		return uuid.Nil, false
	}
	return id, true
}

type submitRequest struct {
	ApplicantName       string `json:"applicantName" validate:"required"`
	ApplicantAddress    string `json:"applicantAddress" validate:"required"`
	NIDNumber           string `json:"nidNumber" validate:"required"`
	NomineeName         string `json:"nomineeName" validate:"required"`
	NomineeRelationship string `json:"nomineeRelationship" validate:"required"`
	HealthInfo          string `json:"healthInfo"`
	PolicyID            int64  `json:"policyId" validate:"required,gt=0"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "applicant details, nominee and policy are required")
		return
	}
	claims := auth.ClaimsFromContext(r.Context())
	app, err := h.service.Submit(r.Context(), claims.Email, SubmitRequest{
		ApplicantName:       req.ApplicantName,
		ApplicantAddress:    req.ApplicantAddress,
		NIDNumber:           req.NIDNumber,
		NomineeName:         req.NomineeName,
		NomineeRelationship: req.NomineeRelationship,
		HealthInfo:          req.HealthInfo,
		PolicyID:            req.PolicyID,
	})
	if err != nil {
		h.logger.Error("submit application", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, app)
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	apps, err := h.service.ListMine(r.Context(), claims.Email)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, apps)
}

func (h *Handler) assigned(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	apps, err := h.service.ListAssigned(r.Context(), principal.Email)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, apps)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r, 20, 100)
	apps, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list applications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"applications": apps, "pagination": pagination})
}

type assignAgentRequest struct {
	AgentID int64 `json:"agentId" validate:"required,gt=0"`
}

func (h *Handler) assignAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationID(w, r)
	if !ok {
		return
	}
	var req assignAgentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "agentId is required")
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	app, err := h.service.AssignAgent(r.Context(), principal.Email, id, req.AgentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

type updateStatusRequest struct {
	Status   string `json:"status" validate:"required"`
	Feedback string `json:"feedback"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "status is required")
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	app, err := h.service.UpdateStatus(r.Context(), principal.Email, id, Status(req.Status), req.Feedback)
	if err != nil {
		// The status change committed but the dependent counter update did
		// not; tell the caller exactly that instead of a generic failure.
		if errors.Is(err, shared.ErrPartialSideEffect) {
			httpx.JSON(w, http.StatusOK, map[string]any{"application": app, "warning": err.Error()})
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

type claimRequest struct {
	Details string `json:"details" validate:"required"`
}

func (h *Handler) requestClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationID(w, r)
	if !ok {
		return
	}
	var req claimRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "claim details are required")
		return
	}
	claims := auth.ClaimsFromContext(r.Context())
	app, err := h.service.RequestClaim(r.Context(), claims.Email, id, req.Details)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) approveClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationID(w, r)
	if !ok {
		return
	}
	principal := auth.PrincipalFromContext(r.Context())
	app, err := h.service.ApproveClaim(r.Context(), principal.Email, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationID(w, r)
	if !ok {
		return
	}
	claims := auth.ClaimsFromContext(r.Context())
	pdf, err := h.service.Document(r.Context(), claims.Email, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="application.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
