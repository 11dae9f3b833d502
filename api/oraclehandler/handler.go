package oraclehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/ruteri/badge-oracle/api"
	"github.com/ruteri/badge-oracle/attestation"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/oracle"
)

// codeAttestFailed reports an attest failure that carries only a raw reason.
const codeAttestFailed = "AttestFailed"

// Oracle is the surface shared by the gist oracle and the judger.
type Oracle interface {
	Admin(ctx context.Context) (interfaces.AccountID, error)
	Verifier(ctx context.Context) (attestation.Verifier, error)
	Redeem(ctx context.Context, caller interfaces.AccountID, att attestation.Attestation) error
	ConfigIssuer(caller interfaces.AccountID, contract interfaces.ContractLocator, badgeID uint32) error
}

// Handler serves one oracle.
type Handler struct {
	name   string
	oracle Oracle
	// attester is nil for oracles that cannot be submitted to the judger
	attester oracle.SubmittableOracle
	extra    func(r chi.Router)
	auth     *api.CallerAuth
	log      *slog.Logger
}

// NewGistHandler serves a gist oracle under /api/oracles/{name}, including
// the generic attest route.
func NewGistHandler(name string, gist *oracle.GistOracle, auth *api.CallerAuth, log *slog.Logger) *Handler {
	h := &Handler{
		name:     name,
		oracle:   gist,
		attester: gist,
		auth:     auth,
		log:      log,
	}
	h.extra = func(r chi.Router) {
		r.Post("/attest_gist", h.attestGist(gist))
	}
	return h
}

// NewJudgerHandler serves a judger under /api/oracles/{name}.
func NewJudgerHandler(name string, judger *oracle.Judger, auth *api.CallerAuth, log *slog.Logger) *Handler {
	h := &Handler{
		name:   name,
		oracle: judger,
		auth:   auth,
		log:    log,
	}
	h.extra = func(r chi.Router) {
		r.Post("/check_contract", h.checkContract(judger))
	}
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/oracles/"+h.name, func(r chi.Router) {
		r.Get("/admin", h.HandleAdmin)
		r.Get("/verifier", h.HandleVerifier)
		if h.attester != nil {
			r.Post("/attest", h.HandleAttest)
		}
		if h.extra != nil {
			h.extra(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware)
			r.Post("/redeem", h.HandleRedeem)
			r.Post("/config_issuer", h.HandleConfigIssuer)
		})
	})
}

func (h *Handler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.oracle.Admin(r.Context())
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, api.AdminResponse{Admin: admin})
}

func (h *Handler) HandleVerifier(w http.ResponseWriter, r *http.Request) {
	verifier, err := h.oracle.Verifier(r.Context())
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	api.WriteJSON(w, h.log, verifier)
}

// HandleAttest runs the generic submittable-oracle query.
//
// URL format: POST /api/oracles/{name}/attest
// Body: {"arg": "..."}
// Response: Attestation, or an error whose message is the raw failure reason
func (h *Handler) HandleAttest(w http.ResponseWriter, r *http.Request) {
	var req api.AttestRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	att, err := h.attester.Attest(r.Context(), req.Arg)
	if err != nil {
		h.writeAttestError(w, err)
		return
	}
	api.WriteJSON(w, h.log, att)
}

// writeAttestError keeps the domain error when there is one, otherwise
// passes the raw reason through under codeAttestFailed.
func (h *Handler) writeAttestError(w http.ResponseWriter, err error) {
	var attestErr *attestation.AttestError
	if !errors.As(err, &attestErr) {
		api.WriteError(w, h.log, err)
		return
	}
	if attestErr.Err != nil && interfaces.KindOf(attestErr.Err) != interfaces.KindUnknown {
		api.WriteError(w, h.log, attestErr.Err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Code: codeAttestFailed, Error: string(attestErr.Reason)})
}

func (h *Handler) attestGist(gist *oracle.GistOracle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.AttestGistRequest
		if err := api.DecodeJSON(r, &req); err != nil {
			api.WriteError(w, h.log, err)
			return
		}

		att, err := gist.AttestGist(r.Context(), req.URL)
		if err != nil {
			api.WriteError(w, h.log, err)
			return
		}
		api.WriteJSON(w, h.log, att)
	}
}

func (h *Handler) checkContract(judger *oracle.Judger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CheckContractRequest
		if err := api.DecodeJSON(r, &req); err != nil {
			api.WriteError(w, h.log, err)
			return
		}

		att, err := judger.CheckContract(r.Context(), req.Contract, req.URL)
		if err != nil {
			api.WriteError(w, h.log, err)
			return
		}
		api.WriteJSON(w, h.log, att)
	}
}

// HandleRedeem consumes an attestation on behalf of the caller.
//
// URL format: POST /api/oracles/{name}/redeem
// Body: Attestation
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CallerFrom(r.Context())
	if !ok {
		api.WriteError(w, h.log, api.ErrUnauthenticated)
		return
	}
	var att attestation.Attestation
	if err := api.DecodeJSON(r, &att); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	if err := h.oracle.Redeem(r.Context(), caller, att); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleConfigIssuer sets the badge issued on redemption. Oracle admin only.
func (h *Handler) HandleConfigIssuer(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CallerFrom(r.Context())
	if !ok {
		api.WriteError(w, h.log, api.ErrUnauthenticated)
		return
	}
	var req api.ConfigIssuerRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	if err := h.oracle.ConfigIssuer(caller, req.Contract, req.BadgeID); err != nil {
		api.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
