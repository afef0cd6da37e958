package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"documet/internal/ai"
	"documet/internal/app"
	"documet/internal/cache"
	"documet/internal/config"
	"documet/internal/logger"
	"documet/internal/model"
	mysqlClient "documet/internal/platform/mysql"
	"documet/internal/platform/qdrant"
	rabbitmqClient "documet/internal/platform/rabbitmq"
	redisClient "documet/internal/platform/redis"
	"documet/internal/repository"
	"documet/internal/worker"
)

// App holds the wired application: platform connections, repositories, and
// the services the HTTP layer serves.
type App struct {
	Config *config.Config
	Log    *slog.Logger

	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection
	Qdrant *qdrant.Client

	Auth       *app.AuthService
	Documents  *app.DocumentService
	QA         *app.QAService
	Waitlist   *app.WaitlistService
	SyncWorker *worker.VectorSyncWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log := logger.New(cfg.App.Env)

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.Section{},
		&model.Subsection{},
		&model.WaitlistEntry{},
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

	qdrantCli := qdrant.New(qdrant.Config{
		BaseURL:          cfg.Qdrant.URL,
		APIKey:           cfg.Qdrant.APIKey,
		CollectionPrefix: cfg.Qdrant.CollectionPrefix,
		Timeout:          time.Duration(cfg.Qdrant.TimeoutSeconds) * time.Second,
	})

	modelClient := ai.NewModelClient(
		ai.EmbeddingConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.EmbeddingModel,
		},
		ai.ChatConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		},
	)

	userRepo := repository.NewUserRepository(mysqlDB)
	docRepo := repository.NewDocumentRepository(mysqlDB)
	sectionRepo := repository.NewSectionRepository(mysqlDB)
	chunkRepo := repository.NewSubsectionRepository(mysqlDB)
	waitlistRepo := repository.NewWaitlistRepository(mysqlDB)

	answerCache := cache.NewAnswerCache(
		redisCli,
		time.Duration(cfg.Redis.SummaryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.QuestionsTTLSeconds)*time.Second,
	)
	jobQueue := rabbitmqClient.NewVectorJobPublisher(mqConn, cfg.RabbitMQ.VectorSyncQueue)

	authService := app.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	documentService := app.NewDocumentService(
		docRepo,
		sectionRepo,
		chunkRepo,
		modelClient,
		qdrantCli,
		jobQueue,
		answerCache,
		app.IngestOptions{
			MaxChunkSize:        cfg.Ingest.MaxChunkSize,
			EmbeddingBatchSize:  cfg.Ingest.EmbeddingBatchSize,
			MaxConcurrentEmbeds: cfg.Ingest.MaxConcurrentEmbeds,
			EmbedTimeout:        time.Duration(cfg.Ingest.EmbedTimeoutSeconds) * time.Second,
		},
		log,
	)
	qaService := app.NewQAService(
		docRepo,
		chunkRepo,
		modelClient,
		modelClient,
		qdrantCli,
		answerCache,
		app.QAOptions{
			TopK:               cfg.Retrieval.TopK,
			VectorOverfetch:    cfg.Retrieval.VectorOverfetch,
			AnswerMaxTokens:    cfg.LLM.AnswerMaxTokens,
			SummaryMaxTokens:   cfg.LLM.SummaryMaxTokens,
			QATemperature:      cfg.LLM.QATemperature,
			SummaryTemperature: cfg.LLM.SummaryTemperature,
			EmbedTimeout:       time.Duration(cfg.Ingest.EmbedTimeoutSeconds) * time.Second,
		},
		log,
	)
	waitlistService := app.NewWaitlistService(waitlistRepo)

	syncWorker := worker.NewVectorSyncWorker(mqConn, documentService, cfg.RabbitMQ.VectorSyncQueue, log)
	if err := syncWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start vector sync worker failed: %w", err)
	}

	return &App{
		Config:     cfg,
		Log:        log,
		MySQL:      mysqlDB,
		Redis:      redisCli,
		MQConn:     mqConn,
		Qdrant:     qdrantCli,
		Auth:       authService,
		Documents:  documentService,
		QA:         qaService,
		Waitlist:   waitlistService,
		SyncWorker: syncWorker,
		StartedAt:  time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.SyncWorker != nil {
		a.SyncWorker.Close()
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
	return closeErr
}
