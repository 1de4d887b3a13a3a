package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evalua/evalua/pkg/httpx"
	"github.com/evalua/evalua/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string

	tag := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}),
		tag("outer"), tag("inner"),
	)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	// The first listed middleware runs first.
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func newTestVerifier(t *testing.T) *jwtx.HS256 {
	t.Helper()
	v, err := jwtx.NewHS256(
		[]byte("0123456789abcdef0123456789abcdef"), "test-issuer", []string{"test-aud"})
	require.NoError(t, err)
	return v
}

func signTestToken(t *testing.T, s *jwtx.HS256, subject, role string) string {
	t.Helper()
	claims := jwtx.NewAccessClaims(
		subject, subject+"@example.com", role,
		time.Minute, "test-issuer", []string{"test-aud"}, time.Now())
	token, err := s.Sign(claims)
	require.NoError(t, err)
	return token
}

func TestAuthnMiddleware(t *testing.T) {
	verifier := newTestVerifier(t)

	var gotUserID, gotRole string
	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID, _ = r.Context().Value(httpx.CtxKeyUserID).(string)
			gotRole, _ = r.Context().Value(httpx.CtxKeyRole).(string)
			w.WriteHeader(http.StatusOK)
		}),
		httpx.AuthnMiddleware(verifier),
	)

	t.Run("valid bearer token admits and annotates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, verifier, "user-1", "Teacher"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user-1", gotUserID)
		require.Equal(t, "Teacher", gotRole)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAnyRole(t *testing.T) {
	verifier := newTestVerifier(t)

	handler := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		httpx.AuthnMiddleware(verifier),
		httpx.RequireAnyRole("Admin", "Teacher"),
	)

	send := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, verifier, "user-2", role))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("Admin"))
	require.Equal(t, http.StatusOK, send("Teacher"))
	require.Equal(t, http.StatusForbidden, send("Student"))
	require.Equal(t, http.StatusForbidden, send(""))
}
