package badgehandler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/badge-oracle/api"
	"github.com/ruteri/badge-oracle/badges"
	"github.com/ruteri/badge-oracle/interfaces"
)

// Handler exposes a badges.Registry.
type Handler struct {
	registry *badges.Registry
	auth     *api.CallerAuth
	log      *slog.Logger
}

func NewHandler(registry *badges.Registry, auth *api.CallerAuth, log *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		auth:     auth,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/badges", func(r chi.Router) {
		r.Get("/", h.HandleTotalBadges)
		r.Get("/{id}", h.HandleBadgeInfo)
		r.Get("/{id}/issuers", h.HandleListIssuers)
		r.Get("/{id}/issuers/{account}", h.HandleIsIssuer)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware)
			r.Post("/", h.HandleNewBadge)
			r.Post("/{id}/issuers", h.HandleAddIssuer)
			r.Delete("/{id}/issuers/{account}", h.HandleRemoveIssuer)
			r.Post("/{id}/codes", h.HandleAddCode)
			r.Post("/{id}/issue", h.HandleIssue)
			r.Get("/{id}/code", h.HandleGetCode)
		})
	})
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (interfaces.AccountID, bool) {
	caller, ok := api.CallerFrom(r.Context())
	if !ok {
		api.WriteError(w, h.log, api.ErrUnauthenticated)
	}
	return caller, ok
}

func (h *Handler) badgeID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := badges.ParseID(r.PathValue("id"))
	if err != nil {
		api.WriteError(w, h.log, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request) (interfaces.AccountID, bool) {
	account, err := interfaces.NewAccountIDFromHex(r.PathValue("account"))
	if err != nil {
		api.WriteError(w, h.log, fmt.Errorf("%w: %w", interfaces.ErrInvalidParameter, err))
		return interfaces.AccountID{}, false
	}
	return account, true
}

// HandleNewBadge creates a badge administered by the caller.
//
// URL format: POST /api/badges
// Body: {"name": "..."}
// Response: {"id": <badge id>}
func (h *Handler) HandleNewBadge(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req api.NewBadgeRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	id, err := h.registry.NewBadge(caller, req.Name)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, api.NewBadgeResponse{ID: id})
}

func (h *Handler) HandleTotalBadges(w http.ResponseWriter, r *http.Request) {
	total, err := h.registry.TotalBadges()
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, api.TotalBadgesResponse{Total: total})
}

func (h *Handler) HandleBadgeInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.badgeID(w, r)
	if !ok {
		return
	}
	info, err := h.registry.BadgeInfo(id)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, info)
}

// HandleListIssuers returns every account allowed to issue badge id.
//
// URL format: GET /api/badges/{id}/issuers
func (h *Handler) HandleListIssuers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.badgeID(w, r)
	if !ok {
		return
	}
	issuers, err := h.registry.Issuers(id)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, api.IssuersResponse{Issuers: issuers})
}

func (h *Handler) HandleIsIssuer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.badgeID(w, r)
	if !ok {
		return
	}
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	isIssuer, err := h.registry.IsBadgeIssuer(id, account)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, api.IsIssuerResponse{Issuer: isIssuer})
}

// HandleAddIssuer grants issuance rights. Badge admin only.
//
// URL format: POST /api/badges/{id}/issuers
// Body: {"issuer": "0x<account>"}
func (h *Handler) HandleAddIssuer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.badgeID(w, r)
	if !ok {
		return
	}
	var req api.IssuerRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	if err := h.registry.AddIssuer(caller, id, req.Issuer); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) HandleRemoveIssuer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.badgeID(w, r)
	if !ok {
		return
	}
	account, ok := h.account(w, r)
	if !ok {
		return
	}

	if err := h.registry.RemoveIssuer(caller, id, account); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleAddCode appends codes to the badge inventory. Badge admin only.
//
// URL format: POST /api/badges/{id}/codes
// Body: {"codes": ["...", ...]}
func (h *Handler) HandleAddCode(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.badgeID(w, r)
	if !ok {
		return
	}
	var req api.AddCodeRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	if err := h.registry.AddCode(caller, id, req.Codes); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleIssue assigns the next code to dest. The caller must be an issuer.
//
// URL format: POST /api/badges/{id}/issue
// Body: {"dest": "0x<account>"}
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.badgeID(w, r)
	if !ok {
		return
	}
	var req api.IssueRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	if err := h.registry.Issue(caller, id, req.Dest); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleGetCode returns the code assigned to the caller.
func (h *Handler) HandleGetCode(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.badgeID(w, r)
	if !ok {
		return
	}

	code, err := h.registry.Get(caller, id)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, api.CodeResponse{Code: code})
}
