package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"supportpilot/internal/ai"
	"supportpilot/internal/app"
	"supportpilot/internal/classifier"
	"supportpilot/internal/config"
	"supportpilot/internal/engine"
	"supportpilot/internal/gap"
	"supportpilot/internal/history"
	"supportpilot/internal/ingest"
	"supportpilot/internal/model"
	mysqlClient "supportpilot/internal/platform/mysql"
	rabbitmqClient "supportpilot/internal/platform/rabbitmq"
	redisClient "supportpilot/internal/platform/redis"
	"supportpilot/internal/recat"
	"supportpilot/internal/repository"
	"supportpilot/internal/vectorstore"
	"supportpilot/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	AuthService         *app.AuthService
	DocumentService     *app.DocumentService
	CategoryService     *app.CategoryService
	ConversationService *app.ConversationService
	GapService          *app.GapService

	classifyWorker *worker.ClassifyWorker
	recatWorker    *worker.RecatWorker
	gapRunner      *worker.GapRunner

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger, err := newLogger(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.Tenant{},
		&model.Document{},
		&model.Chunk{},
		&model.Category{},
		&model.Conversation{},
		&model.Message{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	tenantRepo := repository.NewTenantRepository(mysqlDB)
	docRepo := repository.NewDocumentRepository(mysqlDB)
	categoryRepo := repository.NewCategoryRepository(mysqlDB)
	convRepo := repository.NewConversationRepository(mysqlDB)
	messageRepo := repository.NewMessageRepository(mysqlDB)

	llmClient := ai.NewClient()
	embedder := ai.BoundEmbedder{
		Client: llmClient,
		Config: ai.EmbeddingConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.EmbeddingModel,
		},
	}
	generator := ai.BoundGenerator{
		Client: llmClient,
		Config: ai.ChatConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.GenerationModel,
		},
	}
	tagger := ai.BoundTagger{
		Client: llmClient,
		Config: ai.ChatConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.ClassifyModel,
			Timeout: time.Duration(cfg.LLM.ClassifyTimeoutSeconds) * time.Second,
		},
	}
	retryPolicy := ai.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseBackoff: time.Duration(cfg.Retry.BaseBackoffMS) * time.Millisecond,
	}

	store := vectorstore.NewGormStore(mysqlDB)

	ingestor := ingest.NewIngestor(docRepo, store, embedder,
		cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap, retryPolicy, logger)

	answerEngine := engine.New(store, embedder, generator,
		cfg.Retrieval.TopK, float32(cfg.Retrieval.RelevanceThreshold),
		cfg.Retrieval.FallbackResponse, retryPolicy, logger)

	historyCache := history.NewCache(redisCli,
		time.Duration(cfg.History.TTLSeconds)*time.Second,
		time.Duration(cfg.History.DirtyTTLSeconds)*time.Second)
	historyManager := history.NewManager(historyCache, messageRepo,
		cfg.History.WindowTurns, cfg.History.ContextBudgetChars, logger)

	messageClassifier := classifier.New(categoryRepo, tagger,
		cfg.Classifier.ConfidenceThreshold, retryPolicy, logger)

	gapAnalyzer := gap.NewAnalyzer(messageRepo, categoryRepo, embedder, store,
		float32(cfg.Retrieval.RelevanceThreshold), cfg.Retrieval.TopK,
		time.Duration(cfg.Gap.LookbackHours)*time.Hour,
		cfg.Gap.BatchSize, cfg.Gap.MaxKeywords, logger)

	recatJob := recat.NewJob(tenantRepo, categoryRepo, messageRepo, messageClassifier,
		cfg.Recat.BatchSize, cfg.Recat.Parallelism, logger)

	classifyPublisher := rabbitmqClient.NewPublisher(mqConn, cfg.RabbitMQ.ClassifyQueue)
	recatPublisher := rabbitmqClient.NewPublisher(mqConn, cfg.RabbitMQ.RecategorizeQueue)

	a := &App{
		Config: cfg,
		Logger: logger,
		MySQL:  mysqlDB,
		Redis:  redisCli,
		MQConn: mqConn,

		AuthService: app.NewAuthService(tenantRepo, cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute),
		DocumentService: app.NewDocumentService(docRepo, store, ingestor),
		CategoryService: app.NewCategoryService(categoryRepo, recatPublisher),
		ConversationService: app.NewConversationService(convRepo, messageRepo,
			historyManager, answerEngine, classifyPublisher, logger),

		StartedAt: time.Now(),
	}
	a.GapService = app.NewGapService(gapAnalyzer, categoryRepo, logger)

	a.classifyWorker = worker.NewClassifyWorker(mqConn, messageRepo, messageClassifier,
		cfg.RabbitMQ.ClassifyQueue, logger)
	if err := a.classifyWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start classify worker failed: %w", err)
	}

	a.recatWorker = worker.NewRecatWorker(mqConn, recatJob,
		cfg.RabbitMQ.RecategorizeQueue, logger)
	if err := a.recatWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start recategorize worker failed: %w", err)
	}

	a.gapRunner = worker.NewGapRunner(tenantRepo, a.GapService,
		time.Duration(cfg.Gap.ScanIntervalSeconds)*time.Second, logger)
	if err := a.gapRunner.Start(ctx); err != nil {
		return nil, fmt.Errorf("start gap runner failed: %w", err)
	}

	return a, nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func (a *App) Close() error {
	var closeErr error
	if a.gapRunner != nil {
		a.gapRunner.Close()
	}
	if a.recatWorker != nil {
		a.recatWorker.Close()
	}
	if a.classifyWorker != nil {
		a.classifyWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
