/**
 * @description
 * This is the main entry point for the paylater-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the external credit bureau client, message brokers, repositories,
 * the core application service, the asynchronous check consumer, the operational
 * sweep, and the HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/robfig/cron/v3: For the scheduled stuck-application sweep.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/crcclient: Client for the external credit reference API.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/transfa/paylater-service/internal/api"
	"github.com/transfa/paylater-service/internal/app"
	"github.com/transfa/paylater-service/internal/config"
	"github.com/transfa/paylater-service/internal/domain"
	"github.com/transfa/paylater-service/internal/store"
	"github.com/transfa/paylater-service/pkg/crcclient"
	rmrabbit "github.com/transfa/paylater-service/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.InternalAPIKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"internal api key must be configured\" env=INTERNAL_API_KEY")
	}

	log.Printf("level=info component=bootstrap msg=\"starting paylater-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer used to enqueue check jobs and alerts.
	var producer rmrabbit.Publisher
	rabbitProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		producer = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the client for the external credit reference API.
	crcClient := crcclient.NewClient(cfg.CRCAPIBaseURL, cfg.CRCAPIKey)

	// Structured logger for the asynchronous workflow and scheduled jobs.
	workerLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Wire the core application service with its dependencies.
	scheduler := app.NewEventCheckScheduler(producer)
	alerter := app.NewEventAlerter(producer, workerLogger)
	paylaterService := app.NewService(repository, scheduler, alerter)

	// Optional Redis-backed submission rate limiting.
	if cfg.SubmissionLimitPerMin > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; submission rate limiting disabled\" env=REDIS_URL")
		} else if redisOptions, parseErr := redis.ParseURL(cfg.RedisURL); parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; submission rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; submission rate limiting disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				paylaterService.SetSubmissionRateLimiter(
					app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
					cfg.SubmissionLimitPerMin,
				)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
			cancelPing()
		}
	}

	// Wire the asynchronous credit check worker and its consumer.
	worker := app.NewCreditCheckWorker(repository, crcClient, workerLogger)
	checkConsumer := app.NewCreditCheckConsumer(worker, scheduler, alerter, workerLogger)
	checkConsumer.SetRetryPolicy(cfg.CheckMaxAttempts, time.Duration(cfg.CheckRetryDelaySeconds)*time.Second)

	rabbitConsumer, err := rmrabbit.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"rabbitmq consumer init failed\" err=%v", err)
	}
	defer rabbitConsumer.Close()

	checkBindings := map[string]func([]byte) bool{
		domain.CheckRequestedKey: checkConsumer.HandleMessage,
	}
	if err := rabbitConsumer.ConsumeWithBindings(domain.EventsExchange, cfg.CheckQueueName, checkBindings); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"credit check consumer start failed\" err=%v", err)
	}

	// Schedule the stuck-application sweep.
	jobs := app.NewJobs(repository, alerter, workerLogger, time.Duration(cfg.StuckThresholdMinutes)*time.Minute)
	cronScheduler := cron.New()
	if _, err := cronScheduler.AddFunc(cfg.StuckSweepSchedule, jobs.SweepStuckApplications); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"sweep schedule invalid\" schedule=%q err=%v", cfg.StuckSweepSchedule, err)
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// Initialize the API handlers and router.
	handlers := api.NewPayLaterHandlers(paylaterService)
	router := chi.NewRouter()
	router.Mount("/paylater", api.PayLaterRoutes(handlers, cfg.InternalAPIKey))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
