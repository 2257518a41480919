package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"assistant-backend/internal/accounts"
	googleauth "assistant-backend/internal/auth"
	"assistant-backend/internal/billing"
	"assistant-backend/internal/chat"
	"assistant-backend/internal/dictation"
	"assistant-backend/internal/imagegen"
	"assistant-backend/internal/llm"
	openai "assistant-backend/internal/llm/openai"
	"assistant-backend/internal/plans"
	"assistant-backend/internal/services/health"
	"assistant-backend/internal/shared/config"
	"assistant-backend/internal/shared/server"
	"assistant-backend/internal/shared/server/middleware"
	"assistant-backend/internal/shared/storage/db"
	"assistant-backend/internal/shared/storage/object"
	localstore "assistant-backend/internal/shared/storage/object/local"
	s3store "assistant-backend/internal/shared/storage/object/s3"
	"assistant-backend/internal/shared/telemetry"
	"assistant-backend/internal/usage"
)

const rateLimitKeyPrefix = "ratelimit"

// App holds shared dependencies and the wired router.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Mongo    *mongo.Client
	Redis    *redis.Client
	Store    object.ObjectStore
	Catalog  *plans.Catalog
	Health   *health.Service
	Accounts *accounts.Service
	Usage    *usage.Service
	Images   *imagegen.Service
	Billing  *billing.Service
}

// Build connects backing services and wires every handler onto the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	telemetry.SetLevel(cfg.LogLevel)
	ctx := context.Background()

	app := &App{
		Config:  cfg,
		Catalog: plans.DefaultCatalog(),
		Health:  health.NewService(),
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.Health.Register("postgres", sqlDB.PingContext)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	usageSvc, err := buildLedger(ctx, app)
	if err != nil {
		return nil, err
	}
	app.Usage = usageSvc

	limiter := buildLimiter(app)

	var acctRepo accounts.Repo = accounts.NewMemoryRepo()
	if app.DB != nil {
		acctRepo = &accounts.PGRepo{DB: app.DB}
	}
	app.Accounts = accounts.NewService(acctRepo)

	chatClient, imageClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app.Images = imagegen.NewService(app.Catalog, app.Usage, imageClient, app.Store, cfg.AssetBaseURL)
	app.Billing = billing.NewService(app.Accounts, billing.NewPriceMap(cfg.StripePricePro, cfg.StripePriceProMax))

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		Limiter:          limiter,
		Health:           app.Health,
		GoogleAuth:       googleauth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL, app.Accounts),
		AccountHandler:   accounts.NewHandler(app.Accounts),
		ImageHandler:     imagegen.NewHandler(app.Images, app.Accounts),
		ChatHandler:      chat.NewHandler(chatClient),
		DictationHandler: dictation.NewHandler(dictation.NewService(chatClient)),
		BillingHandler:   billing.NewHandler(app.Billing, app.Catalog, cfg.StripeWebhookSecret),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"ledger":       cfg.LedgerBackend,
		"object_store": cfg.ObjectStoreType,
		"postgres":     app.DB != nil,
		"mongo":        app.Mongo != nil,
		"redis":        app.Redis != nil,
	})
	return app, nil
}

// Close releases backing connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Disconnect(ctx))
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) || cfg.LedgerBackend != "postgres" {
			telemetry.Warn("bootstrap.database_disabled", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLedger(ctx context.Context, app *App) (*usage.Service, error) {
	cfg := app.Config
	switch cfg.LedgerBackend {
	case "mongo":
		if strings.TrimSpace(cfg.MongoURI) == "" {
			return nil, fmt.Errorf("LEDGER_BACKEND=mongo requires MONGO_URI")
		}
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		app.Mongo = client
		app.Health.Register("mongo", func(ctx context.Context) error { return client.Ping(ctx, nil) })

		store := usage.NewMongoStore(client.Database(cfg.MongoDatabase).Collection(usage.CollectionName))
		if err := store.EnsureIndexes(ctx); err != nil {
			telemetry.Warn("bootstrap.mongo_index_failed", map[string]any{"error": err.Error()})
		}
		return usage.NewMongoService(store), nil
	case "postgres":
		if app.DB != nil {
			return usage.NewPostgresService(usage.NewPGStore(app.DB)), nil
		}
		telemetry.Warn("bootstrap.ledger_fallback", map[string]any{"backend": "memory"})
		return usage.NewService(), nil
	default:
		return usage.NewService(), nil
	}
}

func buildLimiter(app *App) middleware.Limiter {
	memory := middleware.NewRateLimiter(nil)
	if strings.TrimSpace(app.Config.RedisURL) == "" {
		return memory
	}
	opts, err := redis.ParseURL(app.Config.RedisURL)
	if err != nil {
		telemetry.Warn("bootstrap.redis_url_invalid", map[string]any{"error": err.Error()})
		return memory
	}
	client := redis.NewClient(opts)
	app.Redis = client
	app.Health.Register("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
	return middleware.NewRedisLimiter(client, rateLimitKeyPrefix, memory)
}

func buildLLM(cfg config.Config) (llm.ChatClient, llm.ImageGenerator, error) {
	var chatClient llm.ChatClient = llm.PlaceholderClient{}
	var imageClient llm.ImageGenerator = llm.PlaceholderClient{}

	if strings.TrimSpace(cfg.ChatAPIKey) != "" {
		c, err := openai.NewClient(openai.Config{
			APIKey:    cfg.ChatAPIKey,
			BaseURL:   cfg.ChatBaseURL,
			ChatModel: cfg.ChatModel,
			Timeout:   cfg.LLMTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("chat client: %w", err)
		}
		chatClient = c
	} else {
		telemetry.Warn("bootstrap.chat_not_configured", nil)
	}

	if strings.TrimSpace(cfg.ImageAPIKey) != "" {
		c, err := openai.NewClient(openai.Config{
			APIKey:       cfg.ImageAPIKey,
			BaseURL:      cfg.ImageBaseURL,
			ImageModel:   cfg.ImageModel,
			Timeout:      cfg.LLMTimeout,
			InlineImages: true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("image client: %w", err)
		}
		imageClient = c
	} else {
		telemetry.Warn("bootstrap.images_not_configured", nil)
	}
	return chatClient, imageClient, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
