package approval

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/haulpoint/haulpoint/internal/authz"
	"github.com/haulpoint/haulpoint/internal/guard"
	"github.com/haulpoint/haulpoint/internal/identity"
	"github.com/haulpoint/haulpoint/internal/platform/httpx"
)

// PermitFunc builds a middleware enforcing one permission key. Wired from
// the authz middleware by the router; nil means no permission gating.
type PermitFunc func(perm string) func(http.Handler) http.Handler

// Handler exposes the approval engine over HTTP.
type Handler struct {
	logger   *slog.Logger
	engine   *Engine
	validate *validator.Validate
	permit   PermitFunc
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, engine *Engine) *Handler {
	return &Handler{logger: logger, engine: engine, validate: validator.New()}
}

// WithPermit installs the permission middleware factory used by MountRoutes.
func (h *Handler) WithPermit(permit PermitFunc) {
	h.permit = permit
}

// MountRoutes registers approval routes. Starting requires the start
// permission, resolving requires review, reads require view.
func (h *Handler) MountRoutes(r chi.Router) {
	permit := h.permit
	if permit == nil {
		permit = func(string) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler { return next }
		}
	}
	r.With(permit(authz.PermApprovalStart)).Post("/start", h.start)
	r.With(permit(authz.PermApprovalView)).Get("/list", h.list)
	r.With(permit(authz.PermApprovalView)).Get("/{id}", h.get)
	r.With(permit(authz.PermApprovalReview)).Post("/{id}/apply", h.apply)
	r.With(permit(authz.PermApprovalReview)).Post("/{id}/reject", h.reject)
	r.With(permit(authz.PermApprovalStart)).Post("/{id}/cancel", h.cancel)
}

type requestDTO struct {
	ID              string    `json:"id"`
	Op              string    `json:"op"`
	TenantID        string    `json:"tenantId"`
	TargetID        string    `json:"targetId,omitempty"`
	InitiatorUserID string    `json:"initiatorUserId"`
	Status          Status    `json:"status"`
	Approvals       []Signoff `json:"approvals"`
	Reason          string    `json:"reason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toDTO(req *Request) requestDTO {
	approvals := req.Signoffs
	if approvals == nil {
		approvals = []Signoff{}
	}
	return requestDTO{
		ID:              req.ID,
		Op:              req.Op,
		TenantID:        req.TenantID,
		TargetID:        req.TargetID,
		InitiatorUserID: req.InitiatorUserID,
		Status:          req.Status,
		Approvals:       approvals,
		Reason:          req.Reason,
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
	}
}

type startPayload struct {
	Op              string `json:"op" validate:"required"`
	TenantID        string `json:"tenantId" validate:"required"`
	TargetID        string `json:"targetId"`
	InitiatorUserID string `json:"initiatorUserId"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var payload startPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "malformed request body")
		return
	}
	if ids, ok := guard.IdentifiersFromContext(r.Context()); ok {
		payload.TenantID = ids.TenantID
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "op and tenantId are required")
		return
	}
	initiator := payload.InitiatorUserID
	if actor := identity.ActorFromContext(r.Context()); actor != nil {
		initiator = actor.UserID
	}
	req, err := h.engine.Start(r.Context(), StartInput{
		Op:              payload.Op,
		TenantID:        payload.TenantID,
		TargetID:        payload.TargetID,
		InitiatorUserID: initiator,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, map[string]any{"approval": toDTO(req)})
}

type applyPayload struct {
	ApproverID string `json:"approverId"`
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	var payload applyPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "malformed request body")
		return
	}
	approver := payload.ApproverID
	if actor := identity.ActorFromContext(r.Context()); actor != nil {
		approver = actor.UserID
	}
	if approver == "" {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "approverId is required")
		return
	}
	req, err := h.engine.Apply(r.Context(), chi.URLParam(r, "id"), approver)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"approval": toDTO(req)})
}

type rejectPayload struct {
	ApproverID string `json:"approverId"`
	Reason     string `json:"reason"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	var payload rejectPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "malformed request body")
		return
	}
	approver := payload.ApproverID
	if actor := identity.ActorFromContext(r.Context()); actor != nil {
		approver = actor.UserID
	}
	if approver == "" {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "approverId is required")
		return
	}
	req, err := h.engine.Reject(r.Context(), chi.URLParam(r, "id"), approver, payload.Reason)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"approval": toDTO(req)})
}

type cancelPayload struct {
	InitiatorUserID string `json:"initiatorUserId"`
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var payload cancelPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "malformed request body")
		return
	}
	user := payload.InitiatorUserID
	if actor := identity.ActorFromContext(r.Context()); actor != nil {
		user = actor.UserID
	}
	if user == "" {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "initiatorUserId is required")
		return
	}
	req, err := h.engine.Cancel(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"approval": toDTO(req)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	req, err := h.engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"approval": toDTO(req)})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	requests, err := h.engine.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	dtos := make([]requestDTO, 0, len(requests))
	for i := range requests {
		dtos = append(dtos, toDTO(&requests[i]))
	}
	httpx.OK(w, http.StatusOK, map[string]any{"approvals": dtos})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, httpx.CodeNotFound, "approval request not found")
	case errors.Is(err, ErrAlreadyResolved):
		httpx.Fail(w, http.StatusConflict, httpx.CodeConflict, "approval request already resolved")
	case errors.Is(err, ErrSelfApproval):
		httpx.Fail(w, http.StatusForbidden, httpx.CodeForbidden, "initiator cannot approve own request")
	case errors.Is(err, ErrNotInitiator):
		httpx.Fail(w, http.StatusForbidden, httpx.CodeForbidden, "only the initiator may cancel")
	case errors.Is(err, ErrVersionConflict):
		httpx.Fail(w, http.StatusConflict, httpx.CodeConflict, "concurrent update, retry")
	case errors.Is(err, ErrInvalidInput):
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, err.Error())
	default:
		if h.logger != nil {
			h.logger.Error("approval request failed", slog.Any("error", err))
		}
		httpx.Fail(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
	}
}
