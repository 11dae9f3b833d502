package interfaces

import (
	"errors"
	"sync"
)

// ErrorKind classifies domain errors. Transports map kinds to status codes.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuthorization
	KindNotFound
	KindValidation
	KindVerification
	KindConflict
	KindUpstream
	KindConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindVerification:
		return "verification"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error is a sentinel domain error with a stable wire code.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Error{}
)

// NewError creates a sentinel and registers its code for ErrorFromCode.
// The first sentinel registered for a code wins.
func NewError(kind ErrorKind, code, message string) *Error {
	e := &Error{Kind: kind, Code: code, Message: message}

	registryMu.Lock()
	defer registryMu.Unlock()
	if existing, ok := registry[code]; ok {
		return existing
	}
	registry[code] = e
	return e
}

// ErrorFromCode resolves a wire code to its registered sentinel.
func ErrorFromCode(code string) (*Error, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[code]
	return e, ok
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Errors shared by the registry and the oracles.
var (
	ErrBadOrigin        = NewError(KindAuthorization, "BadOrigin", "caller is not the admin")
	ErrInvalidParameter = NewError(KindValidation, "InvalidParameter", "invalid parameter")
)

// Oracle errors. They live here so that any binary decoding remote errors
// resolves their codes, whether or not it links the oracles.
var (
	ErrBadgeContractNotSetUp = NewError(KindConfiguration, "BadgeContractNotSetUp", "badge contract is not configured")
	ErrFailedToIssueBadge    = NewError(KindUpstream, "FailedToIssueBadge", "failed to issue badge")
	ErrRequestFailed         = NewError(KindUpstream, "RequestFailed", "evidence request failed")
	ErrInvalidSignature      = NewError(KindVerification, "InvalidSignature", "invalid attestation signature")
	ErrFailedToVerify        = NewError(KindVerification, "FailedToVerify", "failed to verify")
	ErrNoPermission          = NewError(KindAuthorization, "NoPermission", "attestation is bound to another account")
	ErrUsernameAlreadyInUse  = NewError(KindConflict, "UsernameAlreadyInUse", "username already redeemed")
	ErrAlreadySubmitted      = NewError(KindConflict, "AlreadySubmitted", "contract already submitted")
)

// Gist claim errors.
var (
	ErrInvalidURL           = NewError(KindValidation, "InvalidUrl", "invalid gist url")
	ErrNoClaimFound         = NewError(KindNotFound, "NoClaimFound", "no ownership claim found")
	ErrInvalidAddressLength = NewError(KindValidation, "InvalidAddressLength", "invalid address length")
	ErrInvalidAddress       = NewError(KindValidation, "InvalidAddress", "invalid address")
)
