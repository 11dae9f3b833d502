package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/ruteri/badge-oracle/interfaces"
)

const (
	codeInternal        = "Internal"
	codeUnauthenticated = "Unauthenticated"
	codeBadRequest      = "BadRequest"
	codeRequestTooLarge = "RequestTooLarge"
)

var (
	ErrUnauthenticated = errors.New("caller authentication failed")
	ErrBadRequest      = errors.New("malformed request")
	ErrRequestTooLarge = errors.New("request body too large")
)

// StatusFor maps an error to its HTTP status through its kind.
func StatusFor(err error) int {
	if errors.Is(err, ErrUnauthenticated) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrBadRequest) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrRequestTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch interfaces.KindOf(err) {
	case interfaces.KindAuthorization:
		return http.StatusForbidden
	case interfaces.KindNotFound:
		return http.StatusNotFound
	case interfaces.KindValidation:
		return http.StatusBadRequest
	case interfaces.KindVerification:
		return http.StatusUnprocessableEntity
	case interfaces.KindConflict:
		return http.StatusConflict
	case interfaces.KindUpstream:
		return http.StatusBadGateway
	case interfaces.KindConfiguration:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return codeUnauthenticated
	case errors.Is(err, ErrBadRequest):
		return codeBadRequest
	case errors.Is(err, ErrRequestTooLarge):
		return codeRequestTooLarge
	}
	if code := interfaces.CodeOf(err); code != "" {
		return code
	}
	return codeInternal
}

// WriteError writes err as a JSON error body. Internal errors are logged
// and their message is not exposed.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("internal error", "err", err)
		message = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: codeFor(err), Error: message})
}

// WriteJSON writes v with status 200.
func WriteJSON(w http.ResponseWriter, log *slog.Logger, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// DecodeJSON decodes a request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// RemoteError is a failure reported by a remote component whose code is
// not known locally.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("remote error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

// DecodeError turns a non-2xx response into an error, resolving known codes
// to their sentinels.
func DecodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return &RemoteError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	switch errResp.Code {
	case codeUnauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, errResp.Error)
	case codeBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, errResp.Error)
	case codeRequestTooLarge:
		return fmt.Errorf("%w: %s", ErrRequestTooLarge, errResp.Error)
	}
	if sentinel, ok := interfaces.ErrorFromCode(errResp.Code); ok {
		return fmt.Errorf("%w: %s", sentinel, errResp.Error)
	}
	return &RemoteError{StatusCode: resp.StatusCode, Code: errResp.Code, Message: errResp.Error}
}
