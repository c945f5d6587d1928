package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	httptransport "github.com/Ephraimdevelops/bebax/internal/http"
	"github.com/Ephraimdevelops/bebax/internal/infra"
	"github.com/Ephraimdevelops/bebax/internal/logger"
)

type stubVerifier struct {
	token *infra.FirebaseToken
	err   error
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	return s.token, s.err
}

// Services are nil: every request in these tests is rejected by middleware
// before any handler touches a service.
func newRouter(verifier infra.TokenVerifier) http.Handler {
	return httptransport.NewRouter(httptransport.ServerDeps{
		Verifier: verifier,
		Log:      logger.Nop(),
	})
}

func TestHealthSkipsAuth(t *testing.T) {
	r := newRouter(&stubVerifier{err: errors.New("never called")})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	r := newRouter(&stubVerifier{err: errors.New("bad token")})
	for _, path := range []string{"/api/trips", "/api/fare/quote", "/api/admin/rates"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	verifier := &stubVerifier{token: &infra.FirebaseToken{
		UID:    "cust-1",
		Claims: map[string]interface{}{"role": "customer"},
	}}
	r := newRouter(verifier)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/rates/seed", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}
