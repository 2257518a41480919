package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"assistant-backend/internal/accounts"
	googleauth "assistant-backend/internal/auth"
	"assistant-backend/internal/billing"
	"assistant-backend/internal/chat"
	"assistant-backend/internal/dictation"
	"assistant-backend/internal/imagegen"
	"assistant-backend/internal/services/health"
	"assistant-backend/internal/shared/config"
	"assistant-backend/internal/shared/metrics"
	"assistant-backend/internal/shared/server/middleware"
	"assistant-backend/internal/shared/server/respond"
)

const (
	rateGroupDefault = "DEFAULT"
	rateGroupChat    = "CHAT"
	rateGroupImages  = "IMAGES"
)

// RouterDeps carries the handlers mounted under /api/v1. Nil handlers are
// skipped.
type RouterDeps struct {
	Config           config.Config
	Limiter          middleware.Limiter
	Health           *health.Service
	GoogleAuth       *googleauth.GoogleService
	AccountHandler   *accounts.Handler
	ImageHandler     *imagegen.Handler
	ChatHandler      *chat.Handler
	DictationHandler *dictation.Handler
	BillingHandler   *billing.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	cfg := deps.Config
	chatBurst := cfg.ChatBurst
	if chatBurst <= 0 {
		chatBurst = 10
	}
	chatRate := cfg.ChatRatePerMin / 60
	if chatRate <= 0 {
		chatRate = 20.0 / 60
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.Limiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: 5, Burst: 30},
				rateGroupChat:    {Rate: chatRate, Burst: chatBurst},
				rateGroupImages:  {Rate: 0.5, Burst: 5},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.ImageHandler != nil {
		deps.ImageHandler.RegisterRoutes(api)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(api)
	}
	if deps.DictationHandler != nil {
		deps.DictationHandler.RegisterRoutes(api)
	}
	if deps.BillingHandler != nil {
		deps.BillingHandler.RegisterRoutes(api)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	switch c.FullPath() {
	case "/api/v1/chat", "/api/v1/dictation/correct":
		return rateGroupChat
	case "/api/v1/images/generate":
		return rateGroupImages
	case "/api/v1/billing/webhook", "/metrics", "/api/v1/health":
		return "NONE"
	default:
		return rateGroupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
