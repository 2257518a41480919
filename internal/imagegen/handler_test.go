package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"assistant-backend/internal/llm"
	"assistant-backend/internal/plans"
	"assistant-backend/internal/shared/storage/object/local"
	"assistant-backend/internal/usage"
)

type staticPlans struct {
	plan plans.Plan
	err  error
}

func (s staticPlans) PlanFor(ctx context.Context, userID string) (plans.Plan, error) {
	return s.plan, s.err
}

func newTestRouter(h *Handler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		c.Next()
	})
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postGenerate(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/images/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return env
}

func TestGenerateThenQuotaExceeded(t *testing.T) {
	svc := newTestService(urlGenerator(), usage.NewService())
	router := newTestRouter(NewHandler(svc, staticPlans{plan: plans.Free}), "u1")

	resp := postGenerate(router, `{"prompt":"a red fox"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["success"] != true || payload["remainingDaily"] != float64(0) || payload["imageUrl"] == "" {
		t.Fatalf("unexpected payload: %v", payload)
	}

	resp = postGenerate(router, `{"prompt":"a red fox"}`)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	env := decodeError(t, resp)
	if env.Error.Code != "quota_exceeded" || env.Error.Details["window"] != "daily" || env.Error.Details["limit"] != float64(1) {
		t.Fatalf("unexpected error: %+v", env.Error)
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		genErr error
		status int
		code   string
	}{
		{name: "empty prompt", body: `{"prompt":"  "}`, status: http.StatusBadRequest, code: "validation_error"},
		{name: "bad json", body: `{"prompt":`, status: http.StatusBadRequest, code: "validation_error"},
		{name: "prohibited", body: `{"prompt":"NSFW"}`, status: http.StatusBadRequest, code: "prohibited_content"},
		{name: "provider rejected", body: `{"prompt":"ok"}`, genErr: llm.ErrContentRejected, status: http.StatusBadRequest, code: "invalid_prompt"},
		{name: "provider throttled", body: `{"prompt":"ok"}`, genErr: llm.ErrRateLimited, status: http.StatusServiceUnavailable, code: "service_rate_limited"},
		{name: "provider down", body: `{"prompt":"ok"}`, genErr: llm.ErrUnavailable, status: http.StatusBadGateway, code: "service_unavailable"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			gen := urlGenerator()
			gen.err = tt.genErr
			svc := newTestService(gen, usage.NewService())
			router := newTestRouter(NewHandler(svc, staticPlans{plan: plans.Pro}), "u1")

			resp := postGenerate(router, tt.body)
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			env := decodeError(t, resp)
			if env.Error.Code != tt.code {
				t.Fatalf("expected code %q, got %q", tt.code, env.Error.Code)
			}
			if tt.name == "empty prompt" && env.Error.Details["field"] != "prompt" {
				t.Fatalf("expected field details, got %v", env.Error.Details)
			}
			if tt.status == http.StatusServiceUnavailable && resp.Header().Get("Retry-After") == "" {
				t.Fatalf("expected Retry-After header")
			}
		})
	}
}

func TestGeneratePromptTooLong(t *testing.T) {
	svc := newTestService(urlGenerator(), usage.NewService())
	router := newTestRouter(NewHandler(svc, staticPlans{plan: plans.Free}), "u1")
	long := bytes.Repeat([]byte("a"), 501)

	resp := postGenerate(router, `{"prompt":"`+string(long)+`"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	env := decodeError(t, resp)
	if env.Error.Code != "prompt_too_long" || env.Error.Details["max"] != float64(500) {
		t.Fatalf("unexpected error: %+v", env.Error)
	}
}

func TestGenerateRequiresUser(t *testing.T) {
	svc := newTestService(urlGenerator(), usage.NewService())
	router := newTestRouter(NewHandler(svc, staticPlans{plan: plans.Free}), "")
	if resp := postGenerate(router, `{"prompt":"x"}`); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestGeneratePlanLookupFailureFailsClosed(t *testing.T) {
	gen := urlGenerator()
	svc := newTestService(gen, usage.NewService())
	router := newTestRouter(NewHandler(svc, staticPlans{err: errors.New("db down")}), "u1")
	resp := postGenerate(router, `{"prompt":"x"}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("generator should not be called")
	}
}

func TestUsageStatusFallsBackToFree(t *testing.T) {
	svc := newTestService(urlGenerator(), usage.NewService())
	router := newTestRouter(NewHandler(svc, staticPlans{err: errors.New("db down")}), "u1")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/images/usage", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var st Status
	if err := json.Unmarshal(resp.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Plan != plans.Free || st.MonthlyLimit != 10 || st.History == nil {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestAssetStreaming(t *testing.T) {
	store := local.New(t.TempDir())
	gen := &fakeGenerator{res: llm.ImageResult{Data: []byte("png-bytes"), ContentType: "image/png"}}
	svc := newTestService(gen, usage.NewService())
	svc.Store = store
	router := newTestRouter(NewHandler(svc, staticPlans{plan: plans.Free}), "u1")

	res, err := svc.RequestGeneration(context.Background(), GenerationRequest{UserID: "u1", Plan: plans.Free, Prompt: "moon"})
	if err != nil {
		t.Fatalf("RequestGeneration: %v", err)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, res.ImageURL, nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "png-bytes" {
		t.Fatalf("unexpected asset response %d %q", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/assets/images/missing.png", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/assets/other/file.png", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
