package roles

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haulpoint/haulpoint/internal/authz"
	"github.com/haulpoint/haulpoint/internal/platform/httpx"
)

// PermitFunc builds a middleware enforcing one permission key.
type PermitFunc func(perm string) func(http.Handler) http.Handler

// Handler exposes role administration over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	permit  PermitFunc
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// WithPermit installs the permission middleware factory used by MountRoutes.
func (h *Handler) WithPermit(permit PermitFunc) {
	h.permit = permit
}

// MountRoutes wires the role admin endpoints onto the router. Reads need the
// role view permission, mutations the role update permission.
func (h *Handler) MountRoutes(r chi.Router) {
	permit := h.permit
	if permit == nil {
		permit = func(string) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler { return next }
		}
	}
	r.With(permit(authz.PermRoleView)).Get("/", h.list)
	r.With(permit(authz.PermRoleUpdate)).Post("/", h.create)
	r.With(permit(authz.PermRoleView)).Get("/{name}", h.get)
	r.With(permit(authz.PermRoleUpdate)).Patch("/{name}", h.update)
	r.With(permit(authz.PermRoleUpdate)).Delete("/{name}", h.remove)
}

type createPayload struct {
	Name        string `json:"name"`
	Scope       string `json:"scope"`
	Description string `json:"description"`
	IsExclusive bool   `json:"isExclusive"`
	IsTemplate  bool   `json:"isTemplate"`
}

type updatePayload struct {
	Scope       *string `json:"scope"`
	Description *string `json:"description"`
	IsExclusive *bool   `json:"isExclusive"`
	IsTemplate  *bool   `json:"isTemplate"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "invalid json body")
		return
	}
	role, err := h.service.Create(r.Context(), CreateInput{
		Name:        payload.Name,
		Scope:       authz.RoleScope(payload.Scope),
		Description: payload.Description,
		IsExclusive: payload.IsExclusive,
		IsTemplate:  payload.IsTemplate,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, map[string]any{"role": role})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"role": role})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var payload updatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "invalid json body")
		return
	}
	in := UpdateInput{
		Description: payload.Description,
		IsExclusive: payload.IsExclusive,
		IsTemplate:  payload.IsTemplate,
	}
	if payload.Scope != nil {
		scope := authz.RoleScope(*payload.Scope)
		in.Scope = &scope
	}
	role, err := h.service.Update(r.Context(), chi.URLParam(r, "name"), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"role": role})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, httpx.CodeNotFound, "role not found")
	case errors.Is(err, ErrDuplicate):
		httpx.Fail(w, http.StatusConflict, httpx.CodeConflict, "role name already exists")
	case errors.Is(err, ErrSystemRole):
		httpx.Fail(w, http.StatusForbidden, httpx.CodeForbidden, "system roles are immutable")
	case errors.Is(err, ErrInvalidInput):
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, err.Error())
	default:
		h.logger.Error("role admin failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
	}
}
