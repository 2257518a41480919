package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"assistant-backend/internal/shared/auth"
)

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth())
	router.OPTIONS("/api/v1/images/generate", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/images/generate", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth())
	router.POST("/api/v1/images/generate", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/images/generate", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, resp.Code)
		}
	}
}

func TestAuthSetsIdentityFromToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "middleware-secret")
	token, err := auth.SignJWT(auth.Claims{
		Email:            "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "google:42"},
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	router := gin.New()
	router.Use(Auth())
	router.GET("/api/v1/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserIDFromContext(c), "email": UserEmailFromContext(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != `{"email":"user@example.com","id":"google:42"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestAuthSkipsPublicPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth())
	for _, path := range []string{"/api/v1/billing/webhook", "/api/v1/billing/plans", "/api/v1/health", "/api/v1/assets/images/a.png"} {
		router.Any(path, func(c *gin.Context) { c.Status(http.StatusOK) })
	}

	for _, path := range []string{"/api/v1/billing/webhook", "/api/v1/billing/plans", "/api/v1/health", "/api/v1/assets/images/a.png"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}
