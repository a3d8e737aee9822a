package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/eventhub/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/eventhub/internal/adapters/mongo"
	redisadapter "github.com/robertarktes/eventhub/internal/adapters/redis"
	"github.com/robertarktes/eventhub/internal/app"
	"github.com/robertarktes/eventhub/internal/auth"
	"github.com/robertarktes/eventhub/internal/config"
	httphandler "github.com/robertarktes/eventhub/internal/http"
	"github.com/robertarktes/eventhub/internal/idempotency"
	"github.com/robertarktes/eventhub/internal/observability"
	"github.com/robertarktes/eventhub/internal/rateLimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.RequireAPI(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "eventhub-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()
	observability.InitMetrics()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	crdbRepo := crdb.NewRepository(pool)
	if err := crdbRepo.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	mongoDB := mongoClient.Database(cfg.MongoDatabase)
	catalog := mongoadapter.NewCatalogRepository(mongoDB, logger)
	users := mongoadapter.NewUserRepository(mongoDB, logger)
	if err := users.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("failed to create user indexes: %v", err)
	}
	avatars, err := mongoadapter.NewAvatarStore(mongoDB, logger)
	if err != nil {
		log.Fatalf("failed to open avatar bucket: %v", err)
	}
	audit := mongoadapter.NewAuditLogger(mongoDB, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	redisCache := redisadapter.NewCache(redisClient)
	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), cfg.IdempotencyTTL)
	rl := rateLimit.NewRateLimiter(redisCache, logger)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	handlers := httphandler.NewHandlers(httphandler.Services{
		Tickets:       app.NewTicketService(crdbRepo, redisCache, audit, cfg.StatsCacheTTL, logger),
		Attendees:     app.NewAttendeeService(catalog, crdbRepo, audit, logger),
		Notifications: app.NewNotificationService(crdbRepo, logger),
		Users:         app.NewUserService(users, avatars, tokens, logger),
		Events:        app.NewEventService(catalog),
		Readiness: map[string]httphandler.Pinger{
			"crdb":  crdbRepo,
			"redis": redisCache,
			"mongo": pingFunc(func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) }),
		},
	}, cfg.MaxAvatarBytes, logger)

	r := httphandler.SetupRouter(handlers, logger, httphandler.RouterDeps{
		Tokens:      tokens,
		RateLimiter: rl,
		Limits:      httphandler.RateLimits{PerUser: cfg.RateLimitUser, PerIP: cfg.RateLimitIP, Period: time.Minute},
		Idempotency: idemp,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
