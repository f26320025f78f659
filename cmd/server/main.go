// Command server runs the commerce backend: the storefront and admin HTTP
// API, the messaging webhook, and the background conversation workers, all
// over one SQLite database.
//
// Configuration comes from the environment (optionally a .env file). The
// AMQP broker and Redis session store are optional; without them outbound
// messages go to the log and sessions stay in process memory.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/AI-Automated-Ecommerce/Backend/internal/agent"
	"github.com/AI-Automated-Ecommerce/Backend/internal/config"
	httpapi "github.com/AI-Automated-Ecommerce/Backend/internal/http"
	"github.com/AI-Automated-Ecommerce/Backend/internal/notify"
	"github.com/AI-Automated-Ecommerce/Backend/internal/observability"
	"github.com/AI-Automated-Ecommerce/Backend/internal/repo"
	"github.com/AI-Automated-Ecommerce/Backend/internal/services"
	"github.com/AI-Automated-Ecommerce/Backend/internal/session"
	"github.com/AI-Automated-Ecommerce/Backend/internal/storage"
	"github.com/AI-Automated-Ecommerce/Backend/internal/sysutil"
	"github.com/AI-Automated-Ecommerce/Backend/internal/worker"
)

// version is stamped by the build; "dev" otherwise.
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin failed, continuing without")
		}
	}

	// Outbound messaging: AMQP when configured, log transport otherwise.
	var transport notify.Transport = notify.LogTransport{}
	var amqpTransport *notify.AMQPTransport
	if cfg.AMQP.URL != "" {
		amqpTransport, err = notify.NewAMQPTransport(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			log.Fatal().Err(err).Msg("amqp connect failed")
		}
		transport = amqpTransport
		log.Info().Str("queue", cfg.AMQP.Queue).Msg("outbound messages via amqp")
	} else {
		log.Warn().Msg("AMQP_URL not set, outbound messages go to the log")
	}

	// Session store: Redis when configured, process memory otherwise.
	var sessions session.Store = session.NewMemoryStore()
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis connect failed")
		}
		sessions = session.NewRedisStore(redisClient, cfg.Redis.SessionTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("sessions via redis")
	}

	receipts, err := storage.NewDiskStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Upload.Dir).Msg("receipt store init failed")
	}

	locks := services.NewKeyedMutex()
	orders := services.NewOrderService(db, locks, notify.NewDispatcher(transport))
	carts := services.NewCartService(db, locks)

	processor := &agent.Processor{
		Decider: agent.RuleDecider{},
		Dispatcher: &agent.Dispatcher{
			DB:           db,
			Carts:        carts,
			Orders:       orders,
			Sessions:     sessions,
			BankDetails:  cfg.Business.BankDetails,
			BusinessInfo: cfg.Business.Info,
		},
		Messages:  &services.MessageService{DB: db},
		Transport: transport,
	}

	pool := worker.NewPool(cfg.Webhook.Workers, cfg.Webhook.QueueSize)

	// Keep the redelivery-guard table bounded.
	purgeDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := repo.PurgeExpiredWebhookEvents(ctx, db); err != nil {
					log.Warn().Err(err).Msg("webhook event purge failed")
				} else if n > 0 {
					log.Debug().Int64("purged", n).Msg("webhook events purged")
				}
			case <-purgeDone:
				return
			}
		}
	}()

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:        db,
		Orders:    orders,
		Receipts:  receipts,
		Processor: processor,
		Pool:      pool,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	// Drain queued conversation turns before closing their dependencies.
	pool.Close()
	close(purgeDone)

	if amqpTransport != nil {
		amqpTransport.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown failed")
	}

	log.Info().Msg("bye")
}
