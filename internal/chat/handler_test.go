package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"assistant-backend/internal/llm"
)

type fakeChat struct {
	last llm.ChatRequest
	resp llm.ChatResponse
	err  error
}

func (f *fakeChat) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	f.last = req
	return f.resp, f.err
}

func newRouter(client llm.ChatClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "google:1")
		c.Next()
	})
	NewHandler(client).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestChatSuccess(t *testing.T) {
	client := &fakeChat{resp: llm.ChatResponse{Reply: "hi", Model: "gpt-4o-mini", Usage: llm.Usage{TotalTokens: 7}}}
	resp := post(newRouter(client), `{"messages":[{"role":"user","content":"hello"}]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Reply string `json:"reply"`
		Usage struct {
			TotalTokens int `json:"totalTokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Reply != "hi" || body.Usage.TotalTokens != 7 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if client.last.System != defaultSystem || len(client.last.Messages) != 1 {
		t.Fatalf("unexpected upstream request: %+v", client.last)
	}
}

func TestChatValidation(t *testing.T) {
	many := make([]string, 21)
	for i := range many {
		many[i] = `{"role":"user","content":"x"}`
	}
	tests := []struct {
		name string
		body string
	}{
		{name: "no messages", body: `{"messages":[]}`},
		{name: "too many", body: `{"messages":[` + strings.Join(many, ",") + `]}`},
		{name: "system role", body: `{"messages":[{"role":"system","content":"x"}]}`},
		{name: "too long", body: `{"messages":[{"role":"user","content":"` + strings.Repeat("a", 8001) + `"}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeChat{}
			resp := post(newRouter(client), tt.body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
		})
	}
}

func TestChatUpstreamErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{err: llm.ErrRateLimited, status: http.StatusServiceUnavailable, code: "service_rate_limited"},
		{err: llm.ErrUnavailable, status: http.StatusBadGateway, code: "upstream_error"},
		{err: llm.ErrNotConfigured, status: http.StatusBadGateway, code: "upstream_error"},
	}
	for _, tt := range tests {
		resp := post(newRouter(&fakeChat{err: tt.err}), `{"messages":[{"role":"user","content":"hello"}]}`)
		if resp.Code != tt.status {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.status, resp.Code)
		}
		var env struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		_ = json.Unmarshal(resp.Body.Bytes(), &env)
		if env.Error.Code != tt.code {
			t.Fatalf("%v: expected code %q, got %q", tt.err, tt.code, env.Error.Code)
		}
	}
}
