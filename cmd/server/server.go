package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/meteogram/meteogram/internal/config"
	"github.com/meteogram/meteogram/internal/domain/chat"
	"github.com/meteogram/meteogram/internal/domain/tool"
	"github.com/meteogram/meteogram/internal/infrastructure/approvalstore"
	"github.com/meteogram/meteogram/internal/infrastructure/database"
	"github.com/meteogram/meteogram/internal/infrastructure/llmprovider"
	"github.com/meteogram/meteogram/internal/infrastructure/logger"
	"github.com/meteogram/meteogram/internal/infrastructure/queue"
	"github.com/meteogram/meteogram/internal/infrastructure/redisconn"
	conversationrepo "github.com/meteogram/meteogram/internal/infrastructure/repository/conversation"
	"github.com/meteogram/meteogram/internal/infrastructure/search"
	"github.com/meteogram/meteogram/internal/infrastructure/telegram"
	"github.com/meteogram/meteogram/internal/infrastructure/weather"
	"github.com/meteogram/meteogram/internal/interfaces/httpserver"
	"github.com/meteogram/meteogram/internal/worker"
)

// Application ties the HTTP server and the worker pool into one process.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	redisClient, err := redisconn.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer redisClient.Close()

	botClient := telegram.NewClient(telegram.DefaultBaseURL, cfg.TelegramBotToken)

	registry := tool.NewRegistry(cfg.SensitiveTools)
	weatherClient := weather.NewClient(weather.DefaultBaseURL, cfg.OpenWeatherMapAPIKey)
	if err := registry.Register(weather.NewTool(weatherClient)); err != nil {
		log.Fatal().Err(err).Msg("register weather tool")
	}
	if cfg.SerperAPIKey != "" {
		searchClient := search.NewClient(search.DefaultSerperURL, search.DefaultDuckDuckGoURL, cfg.SerperAPIKey)
		if err := registry.Register(search.NewTool(searchClient)); err != nil {
			log.Fatal().Err(err).Msg("register search tool")
		}
	}

	provider := llmprovider.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	turns := conversationrepo.NewRepository(db)
	approvals := approvalstore.NewRedisStore(redisClient, cfg.ApprovalTTL, log)

	processor := chat.NewService(
		provider,
		registry,
		turns,
		approvals,
		telegram.NewResponder(botClient),
		botClient,
		chat.Config{
			HistoryLimit: cfg.HistoryLimit,
			MaxToolDepth: cfg.MaxToolDepth,
			ToolTimeout:  cfg.ToolTimeout,
			Guardrail:    cfg.GuardrailEnabled,
		},
		log,
	)

	taskQueue := queue.NewRedisQueue(redisClient, log)
	workerPool := worker.NewPool(
		taskQueue,
		processor,
		worker.Config{
			WorkerCount: cfg.WorkerCount,
			JobTimeout:  cfg.JobTimeout,
		},
		log,
	)

	workerPool.Start(ctx)
	defer workerPool.Stop()

	httpServer := httpserver.New(cfg, log, taskQueue, botClient)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
