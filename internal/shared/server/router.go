package server

import (
	"context"
	"database/sql"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"annonce-backend/internal/extract"
	"annonce-backend/internal/listing"
	"annonce-backend/internal/llm"
	llmopenai "annonce-backend/internal/llm/openai"
	"annonce-backend/internal/notify"
	"annonce-backend/internal/pipeline"
	"annonce-backend/internal/record"
	"annonce-backend/internal/services/health"
	"annonce-backend/internal/shared/config"
	"annonce-backend/internal/shared/metrics"
	"annonce-backend/internal/shared/server/middleware"
	"annonce-backend/internal/shared/server/respond"
	"annonce-backend/internal/shared/storage/db"
	localstore "annonce-backend/internal/shared/storage/object/local"
	"annonce-backend/internal/shared/telemetry"
	transcribeopenai "annonce-backend/internal/transcribe/openai"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: 10, Burst: 30},
			},
		}),
	)

	// Dependencies
	store := localstore.New(cfg.LocalStoreDir)
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			telemetry.Error("db.connect_failed", map[string]any{"error": err.Error()})
		} else {
			if err := db.RunMigrations(context.Background(), dbConn); err != nil {
				telemetry.Error("db.migrate_failed", map[string]any{"error": err.Error()})
				dbConn = nil
			}
		}
		sqlDB = dbConn
	}

	var entryRepo listing.Repo
	if sqlDB != nil {
		entryRepo = &listing.PGRepo{DB: sqlDB}
	} else {
		entryRepo = listing.NewMemoryRepo()
	}

	dispatcher := &notify.Dispatcher{
		Mailer:    &notify.FileMailer{Dir: cfg.MailOutboxDir},
		Recipient: cfg.MailRecipient,
	}
	entries := &listing.Service{Repo: entryRepo, Notifier: dispatcher, Recordings: store}
	entryHandler := listing.NewHandler(entries)

	apiKey := os.Getenv("OPENAI_API_KEY")
	var llmClient llm.Client
	if cfg.LLMProvider == "openai" && cfg.LLMModel != "" {
		client, err := llmopenai.NewClient(apiKey, cfg.LLMModel)
		if err != nil {
			// Extraction degrades to the pattern fallback.
			telemetry.Warn("llm.disabled", map[string]any{"error": err.Error()})
		} else {
			llmClient = client
		}
	}
	extractor := extract.NewModel(llmClient, "French")

	transcriber := transcribeopenai.NewClient(apiKey, cfg.TranscribeModel, store)
	recorder := record.NewStoreRecorder(store)
	orch := pipeline.NewOrchestrator(recorder, transcriber, extractor, entries, store, cfg.TranscribeLocale)
	sessionHandler := pipeline.NewHandler(orch)

	healthSvc := health.NewService()

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	api.GET("/metrics", metrics.Handler())
	entryHandler.RegisterRoutes(api)
	sessionHandler.RegisterRoutes(api)

	return r
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
