package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"splitledger/internal/auth"
)

func TestMiddlewaresExcludePaths(t *testing.T) {
	var mwCalled bool
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mwCalled = true
			next.ServeHTTP(w, r)
		})
	}

	handler := MiddlewaresExcludePaths(mw, "/users/signup", "/users/login")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	tests := []struct {
		path       string
		wantCalled bool
	}{
		{"/users/signup", false},
		{"/users/login", false},
		{"/users/logout", true},
		{"/groups/1", true},
	}

	for _, tt := range tests {
		mwCalled = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))
		if mwCalled != tt.wantCalled {
			t.Errorf("path %s: middleware called = %v, want %v", tt.path, mwCalled, tt.wantCalled)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("path %s: status = %d, want 200", tt.path, rec.Code)
		}
	}
}

func TestJWTMiddlewareRejectsMissingCookie(t *testing.T) {
	handler := JWTMiddleware(auth.NewMemoryRevocationStore())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("next handler should not run without a token")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups/1", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got == "" {
		t.Error("X-Frame-Options header not set")
	}
}
