package api

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/badge-oracle/cryptoutils"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSigner struct {
	privkey []byte
}

func newTestSigner(t *testing.T) (*testSigner, interfaces.AccountID) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &testSigner{privkey: crypto.FromECDSA(key)}, cryptoutils.AccountIDFromKey(&key.PublicKey)
}

func (s *testSigner) SignRequest(msg []byte) ([]byte, error) {
	return cryptoutils.Sign(msg, s.privkey)
}

func newTestAuth(t *testing.T, maxSkew time.Duration) *CallerAuth {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewCallerAuth(maxSkew, st, logger)
}

func newSignedRequest(t *testing.T, signer RequestSigner, method, path string, body []byte, at time.Time) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, SignRequest(req, body, signer, at))
	return req
}

func echoCaller(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		http.Error(w, "no caller", http.StatusInternalServerError)
		return
	}
	body, _ := io.ReadAll(r.Body)
	w.Write([]byte(caller.String() + "|" + string(body)))
}

func TestCallerAuthAcceptsSignedRequest(t *testing.T) {
	signer, account := newTestSigner(t)
	auth := newTestAuth(t, 0)
	handler := auth.Middleware(http.HandlerFunc(echoCaller))

	body := []byte(`{"name":"badge"}`)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newSignedRequest(t, signer, http.MethodPost, "/api/badges", body, time.Now()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, account.String()+"|"+string(body), w.Body.String())
}

func TestCallerAuthRejectsStaleTimestamp(t *testing.T) {
	signer, _ := newTestSigner(t)
	auth := newTestAuth(t, time.Minute)
	handler := auth.Middleware(http.HandlerFunc(echoCaller))

	for _, at := range []time.Time{time.Now().Add(-10 * time.Minute), time.Now().Add(10 * time.Minute)} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newSignedRequest(t, signer, http.MethodPost, "/api/badges", nil, at))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), codeUnauthenticated)
	}
}

func TestCallerAuthMissingHeaders(t *testing.T) {
	auth := newTestAuth(t, 0)
	handler := auth.Middleware(http.HandlerFunc(echoCaller))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/badges", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/badges", nil)
	req.Header.Set(HeaderCallerTimestamp, strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set(HeaderCallerNonce, "n")
	req.Header.Set(HeaderCallerSignature, "zz")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	signer, _ := newTestSigner(t)
	req = newSignedRequest(t, signer, http.MethodPost, "/api/badges", nil, time.Now())
	req.Header.Del(HeaderCallerNonce)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCallerAuthRejectsReplay(t *testing.T) {
	signer, account := newTestSigner(t)
	auth := newTestAuth(t, 0)
	handler := auth.Middleware(http.HandlerFunc(echoCaller))

	body := []byte(`{"codes":["x"]}`)
	original := newSignedRequest(t, signer, http.MethodPost, "/api/badges/0/codes", body, time.Now())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, original)
	require.Equal(t, http.StatusOK, w.Code)

	replayed := httptest.NewRequest(http.MethodPost, "/api/badges/0/codes", bytes.NewReader(body))
	replayed.Header = original.Header.Clone()
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, replayed)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "replayed request")

	// A freshly signed identical request gets its own nonce
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, newSignedRequest(t, signer, http.MethodPost, "/api/badges/0/codes", body, time.Now()))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, account.String()+"|"+string(body), w.Body.String())
}

func TestCallerAuthConcurrentReplayAcceptedOnce(t *testing.T) {
	signer, _ := newTestSigner(t)
	auth := newTestAuth(t, 0)

	body := []byte(`{"dest":"a"}`)
	original := newSignedRequest(t, signer, http.MethodPost, "/api/badges/0/issue", body, time.Now())

	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for range attempts {
		req := httptest.NewRequest(http.MethodPost, "/api/badges/0/issue", bytes.NewReader(body))
		req.Header = original.Header.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := auth.Authenticate(req)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrUnauthenticated)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
}

func TestCallerAuthRejectsOversizedBody(t *testing.T) {
	signer, _ := newTestSigner(t)
	handler := newTestAuth(t, 0).Middleware(http.HandlerFunc(echoCaller))

	body := bytes.Repeat([]byte("a"), maxRequestBodyBytes+1)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newSignedRequest(t, signer, http.MethodPost, "/api/badges/0/codes", body, time.Now()))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), codeRequestTooLarge)

	body = bytes.Repeat([]byte("a"), maxRequestBodyBytes)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, newSignedRequest(t, signer, http.MethodPost, "/api/badges/0/codes", body, time.Now()))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCallerAuthTamperedRequest(t *testing.T) {
	signer, account := newTestSigner(t)
	auth := newTestAuth(t, 0)

	req := newSignedRequest(t, signer, http.MethodPost, "/api/badges/0/issue", []byte(`{"dest":"a"}`), time.Now())
	req.Body = io.NopCloser(bytes.NewReader([]byte(`{"dest":"b"}`)))

	// A recoverable signature over other content yields some other account
	caller, err := auth.Authenticate(req)
	if err == nil {
		assert.NotEqual(t, account, caller)
	}

	req = newSignedRequest(t, signer, http.MethodPost, "/api/badges/0/issue", nil, time.Now())
	req.URL.Path = "/api/badges/1/issue"
	caller, err = auth.Authenticate(req)
	if err == nil {
		assert.NotEqual(t, account, caller)
	}
}

func TestCallerMessageDomain(t *testing.T) {
	msg := CallerMessage("POST", "/api/badges", "1700000000", "n1", []byte("{}"))
	assert.Equal(t, "badge-oracle caller\nPOST /api/badges\n1700000000\nn1\n{}", string(msg))
}
