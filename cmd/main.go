package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/replyloop-backend/internal/cache"
	"github.com/yungbote/replyloop-backend/internal/clients/openai"
	redisclient "github.com/yungbote/replyloop-backend/internal/clients/redis"
	"github.com/yungbote/replyloop-backend/internal/clients/xsearch"
	"github.com/yungbote/replyloop-backend/internal/db"
	"github.com/yungbote/replyloop-backend/internal/handlers"
	"github.com/yungbote/replyloop-backend/internal/observability"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/repos"
	"github.com/yungbote/replyloop-backend/internal/scheduler"
	"github.com/yungbote/replyloop-backend/internal/server"
	"github.com/yungbote/replyloop-backend/internal/services"
	"github.com/yungbote/replyloop-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "replyloop",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	stateRepo := repos.NewProcessingStateRepo(thePG, log)
	targetRepo := repos.NewTargetRepo(thePG, log)
	profileRepo := repos.NewVoiceProfileRepo(thePG, log)
	curatedPostRepo := repos.NewCuratedPostRepo(thePG, log)
	suggestionRepo := repos.NewSuggestionRepo(thePG, log)
	batchRunRepo := repos.NewBatchRunRepo(thePG, log)

	// Query cache: shared Redis when configured, per-process memory otherwise.
	var queryCache cache.QueryCache
	if os.Getenv("REDIS_ADDR") != "" {
		queryCache, err = redisclient.NewQueryCache(log)
		if err != nil {
			log.Error("Could not init Redis query cache", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("REDIS_ADDR not set, using in-memory query cache")
		queryCache = cache.NewMemoryCache()
	}

	// Clients
	searchClient, err := xsearch.NewClient(log)
	if err != nil {
		log.Error("Could not init search client", "error", err)
		os.Exit(1)
	}

	var aiClient openai.Client
	if os.Getenv("OPENAI_API_KEY") != "" {
		aiClient, err = openai.NewClient(log)
		if err != nil {
			log.Error("Could not init OpenAI client", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("OPENAI_API_KEY not set, scoring heuristically and skipping reply drafts")
	}

	// Services
	log.Info("Setting up Services from main...")
	spamPatterns, err := services.LoadSpamPatterns(utils.GetEnv("SPAM_PATTERNS_FILE", "", log), log)
	if err != nil {
		log.Error("Could not load spam patterns", "error", err)
		os.Exit(1)
	}

	cacheTTL := time.Duration(utils.GetEnvAsInt("CACHE_TTL_SECONDS", int(services.DefaultCacheTTL.Seconds()), log)) * time.Second
	broker := services.NewSearchBroker(log, searchClient, queryCache, cacheTTL)

	var judge services.Judge
	if aiClient != nil {
		judge = services.NewLLMJudge(log, aiClient)
	} else {
		judge = services.NewHeuristicJudge()
	}
	filter := services.NewQualityFilter(log, judge, spamPatterns)
	generator := services.NewReplyGenerator(log, aiClient, curatedPostRepo, suggestionRepo)

	batchScheduler := services.NewBatchScheduler(
		log,
		stateRepo,
		targetRepo,
		profileRepo,
		batchRunRepo,
		broker,
		filter,
		generator,
	)
	userAccounts := services.NewUserAccountService(log, userRepo, stateRepo)
	quotaStatus := services.NewQuotaStatusService(log, stateRepo, curatedPostRepo, suggestionRepo)
	batchAudit := services.NewBatchAuditService(log, batchRunRepo)
	suggestionReview := services.NewSuggestionReviewService(log, suggestionRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	batchHandler := handlers.NewBatchHandler(batchScheduler, batchAudit)
	suggestionHandler := handlers.NewSuggestionHandler(suggestionReview)
	quotaHandler := handlers.NewQuotaHandler(quotaStatus)
	userHandler := handlers.NewUserHandler(userAccounts)

	// Cron
	log.Info("Setting up scheduler from main...")
	cronScheduler := scheduler.New(log)
	batchCron := utils.GetEnv("BATCH_CRON", "*/5 * * * *", log)
	batchSize := utils.GetEnvAsInt("BATCH_SIZE", 0, log)
	if err := cronScheduler.AddJob("batch-tick", batchCron, func(ctx context.Context) error {
		batchScheduler.ProcessBatch(ctx, batchSize)
		return nil
	}); err != nil {
		log.Error("Could not schedule batch tick", "error", err)
		os.Exit(1)
	}
	if err := cronScheduler.AddJob("quota-reset", "0 0 * * *", func(ctx context.Context) error {
		dayStart := time.Now().UTC().Truncate(24 * time.Hour)
		_, err := stateRepo.ResetDailyQuotas(ctx, nil, dayStart)
		return err
	}); err != nil {
		log.Error("Could not schedule quota reset", "error", err)
		os.Exit(1)
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:       "replyloop",
		BatchHandler:      batchHandler,
		SuggestionHandler: suggestionHandler,
		QuotaHandler:      quotaHandler,
		UserHandler:       userHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
