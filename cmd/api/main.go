package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/aaryan182/veterinary-chatbot-sdk/internal/api/router"
	"github.com/aaryan182/veterinary-chatbot-sdk/internal/appointments"
	"github.com/aaryan182/veterinary-chatbot-sdk/internal/booking"
	"github.com/aaryan182/veterinary-chatbot-sdk/internal/chat"
	appconfig "github.com/aaryan182/veterinary-chatbot-sdk/internal/config"
	"github.com/aaryan182/veterinary-chatbot-sdk/internal/observability/metrics"
	"github.com/aaryan182/veterinary-chatbot-sdk/internal/webchat"
	"github.com/aaryan182/veterinary-chatbot-sdk/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting veterinary chatbot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	engineOpts := []booking.Option{booking.WithAITimeout(cfg.AIExtractTimeout)}
	var llm chat.LLMClient
	if cfg.GeminiAPIKey != "" {
		genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = genaiClient.Close() }()
		extractor, err := booking.NewGeminiExtractor(genaiClient, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini extractor", "error", err)
			os.Exit(1)
		}
		engineOpts = append(engineOpts, booking.WithAIExtractor(extractor))

		geminiLLM, err := chat.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini llm client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = geminiLLM.Close() }()
		llm = geminiLLM
	} else {
		logger.Warn("GEMINI_API_KEY not set; AI extraction and health replies disabled")
	}

	chatMetrics := metrics.NewChatMetrics(nil)
	service := chat.NewService(chat.Deps{
		Engine:       booking.NewEngine(logger, engineOpts...),
		Sessions:     booking.NewRedisSessionStore(redisClient, cfg.SessionTTL),
		Appointments: appointments.NewService(appointments.NewRepository(pool), logger),
		LLM:          llm,
		Transcripts:  chat.NewTranscriptStore(redisClient, cfg.SessionTTL),
		Metrics:      chatMetrics,
		Logger:       logger,
		HistoryLimit: int64(cfg.HistoryLimit),
	})

	var publisher *chat.Publisher
	var worker *chat.Worker
	var webchatHandler *webchat.Handler
	if cfg.UseMemoryQueue {
		queue := chat.NewMemoryQueue(256)
		publisher = chat.NewPublisher(queue, logger)
		webchatHandler = webchat.NewHandler(publisher, service, logger)
		worker = chat.NewWorker(queue, service, webchatHandler, logger)
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if cfg.AWSEndpointOverride != "" {
				o.BaseEndpoint = aws.String(cfg.AWSEndpointOverride)
			}
		})
		queue := chat.NewSQSQueue(sqsClient, cfg.QueueURL)
		publisher = chat.NewPublisher(queue, logger)
		webchatHandler = webchat.NewHandler(publisher, service, logger)
		worker = chat.NewWorker(queue, service, webchatHandler, logger)
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	for i := 0; i < cfg.WorkerCount; i++ {
		go worker.Run(workerCtx)
	}
	logger.Info("chat workers started", "count", cfg.WorkerCount)

	r := router.New(&router.Config{
		Logger:             logger,
		WebchatHandler:     webchatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	stopWorkers()

	logger.Info("server stopped")
}
