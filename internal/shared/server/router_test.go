package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"assistant-backend/internal/accounts"
	"assistant-backend/internal/billing"
	"assistant-backend/internal/plans"
	"assistant-backend/internal/shared/config"
)

func newTestRouter() http.Handler {
	accts := accounts.NewService(accounts.NewMemoryRepo())
	return NewRouter(RouterDeps{
		Config:         config.Config{CORSAllowOrigin: []string{"http://localhost:5173"}},
		AccountHandler: accounts.NewHandler(accts),
		BillingHandler: billing.NewHandler(billing.NewService(accts, nil), plans.DefaultCatalog(), "whsec"),
	})
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	r := newTestRouter()
	tests := []struct {
		path   string
		status int
	}{
		{path: "/api/v1/health", status: http.StatusOK},
		{path: "/api/v1/billing/plans", status: http.StatusOK},
		{path: "/api/v1/me", status: http.StatusUnauthorized},
		{path: "/metrics", status: http.StatusOK},
	}
	for _, tt := range tests {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if resp.Code != tt.status {
			t.Fatalf("%s: expected %d, got %d", tt.path, tt.status, resp.Code)
		}
	}
}

func TestMetricsExposition(t *testing.T) {
	r := newTestRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(resp.Body.String(), "go_goroutines") {
		t.Fatalf("expected go collector metrics in exposition")
	}
}

func TestAddr(t *testing.T) {
	for in, want := range map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"} {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
