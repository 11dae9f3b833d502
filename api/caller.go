package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/ruteri/badge-oracle/cryptoutils"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/store"
)

const (
	HeaderCallerTimestamp = "X-Caller-Timestamp"
	HeaderCallerNonce     = "X-Caller-Nonce"
	HeaderCallerSignature = "X-Caller-Signature"

	DefaultMaxClockSkew = 5 * time.Minute

	callerDomain        = "badge-oracle caller\n"
	maxRequestBodyBytes = 1 << 20
)

// RequestSigner signs caller authentication messages.
type RequestSigner interface {
	SignRequest(msg []byte) ([]byte, error)
}

// CallerMessage is the message a caller signs for one request.
func CallerMessage(method, path, timestamp, nonce string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(callerDomain)
	buf.WriteString(method)
	buf.WriteString(" ")
	buf.WriteString(path)
	buf.WriteString("\n")
	buf.WriteString(timestamp)
	buf.WriteString("\n")
	buf.WriteString(nonce)
	buf.WriteString("\n")
	buf.Write(body)
	return buf.Bytes()
}

// SignRequest sets the caller headers on req for the given body. Each call
// draws a fresh nonce, so two signed requests never share a message.
func SignRequest(req *http.Request, body []byte, signer RequestSigner, now time.Time) error {
	timestamp := strconv.FormatInt(now.Unix(), 10)
	nonce := uuid.NewString()
	sig, err := signer.SignRequest(CallerMessage(req.Method, req.URL.Path, timestamp, nonce, body))
	if err != nil {
		return fmt.Errorf("could not sign request: %w", err)
	}
	req.Header.Set(HeaderCallerTimestamp, timestamp)
	req.Header.Set(HeaderCallerNonce, nonce)
	req.Header.Set(HeaderCallerSignature, hexutil.Encode(sig))
	return nil
}

type callerKey struct{}

// CallerFrom returns the authenticated caller stored by CallerAuth.
func CallerFrom(ctx context.Context) (interfaces.AccountID, bool) {
	caller, ok := ctx.Value(callerKey{}).(interfaces.AccountID)
	return caller, ok
}

// WithCaller stores caller in ctx.
func WithCaller(ctx context.Context, caller interfaces.AccountID) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerAuth authenticates callers from the signature headers. Every
// accepted message is remembered in the store for twice the clock skew, the
// longest a timestamp stays acceptable, and is refused if seen again.
type CallerAuth struct {
	maxSkew time.Duration
	store   *store.Store
	now     func() time.Time
	log     *slog.Logger
}

func NewCallerAuth(maxSkew time.Duration, st *store.Store, log *slog.Logger) *CallerAuth {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxClockSkew
	}
	return &CallerAuth{maxSkew: maxSkew, store: st, now: time.Now, log: log}
}

func seenKey(msg []byte) []byte {
	return fmt.Appendf(nil, "auth/seen/%x", crypto.Keccak256(msg))
}

// Authenticate returns the account that signed r. The body is read and
// replaced so handlers can decode it again.
func (a *CallerAuth) Authenticate(r *http.Request) (interfaces.AccountID, error) {
	timestamp := r.Header.Get(HeaderCallerTimestamp)
	nonce := r.Header.Get(HeaderCallerNonce)
	sigHex := r.Header.Get(HeaderCallerSignature)
	if timestamp == "" || nonce == "" || sigHex == "" {
		return interfaces.AccountID{}, fmt.Errorf("%w: missing caller headers", ErrUnauthenticated)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return interfaces.AccountID{}, fmt.Errorf("%w: invalid timestamp", ErrUnauthenticated)
	}
	skew := a.now().Sub(time.Unix(ts, 0))
	if skew > a.maxSkew || skew < -a.maxSkew {
		return interfaces.AccountID{}, fmt.Errorf("%w: timestamp outside accepted window", ErrUnauthenticated)
	}

	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return interfaces.AccountID{}, fmt.Errorf("%w: invalid signature encoding", ErrUnauthenticated)
	}

	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return interfaces.AccountID{}, fmt.Errorf("%w: limit is %d bytes", ErrRequestTooLarge, tooLarge.Limit)
		}
		return interfaces.AccountID{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	msg := CallerMessage(r.Method, r.URL.Path, timestamp, nonce, body)
	caller, err := cryptoutils.RecoverAccount(msg, sig)
	if err != nil {
		return interfaces.AccountID{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if err := a.markSeen(msg); err != nil {
		return interfaces.AccountID{}, err
	}
	return caller, nil
}

// markSeen records msg, failing if it was already accepted.
func (a *CallerAuth) markSeen(msg []byte) error {
	key := seenKey(msg)
	err := a.store.Update(func(txn *store.Txn) error {
		seen, err := txn.Has(key)
		if err != nil {
			return err
		}
		if seen {
			return fmt.Errorf("%w: replayed request", ErrUnauthenticated)
		}
		return txn.PutWithTTL(key, nil, 2*a.maxSkew)
	})
	if errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("%w: replayed request", ErrUnauthenticated)
	}
	return err
}

// Middleware rejects unauthenticated requests and stores the caller in the
// request context.
func (a *CallerAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := a.Authenticate(r)
		if err != nil {
			a.log.Debug("caller authentication failed", "path", r.URL.Path, "err", err)
			WriteError(w, a.log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}
