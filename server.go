package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/client"
	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/console"
	"github.com/mmdatafocus/shop_console/middlewares"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/session"
	"github.com/mmdatafocus/shop_console/utils"
	"github.com/mmdatafocus/shop_console/workflow"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// busNotifier publishes through the invalidation bus once it is connected.
type busNotifier struct {
	bus atomic.Pointer[workflow.InvalidationBus]
}

func (n *busNotifier) Publish(ctx context.Context, resource string) error {
	bus := n.bus.Load()
	if bus == nil {
		return nil
	}
	return bus.Publish(ctx, resource)
}

func getRedisClient(redisAddress string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	useRedis := strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != ""
	var ready atomic.Bool

	var (
		cache client.Cache
		store session.Store
	)
	if useRedis {
		cache = client.NewRedisCache(config.CacheLifespan())
		store = session.NewRedisStore(config.SessionLifespan())
	} else {
		logger.WithFields(logrus.Fields{"field": "redis"}).Warn("REDIS_ADDRESS not set; using in-memory cache and sessions")
		cache = client.NewMemoryCache(config.CacheLifespan())
		store = session.NewMemoryStore()
	}

	notifier := &busNotifier{}
	api := client.NewAPI(
		client.New(config.ApiBaseURL(),
			client.WithRateLimit(config.ApiRateLimitPerMin()),
			client.WithLogger(logger),
			client.WithHTTPClient(&http.Client{Timeout: config.ApiTimeout()}),
		),
		cache,
		notifier,
	)
	sessions := session.NewManager(api, store, config.SessionLifespan())
	poller := workflow.NewDashboardPoller(api, logger)

	opts := []console.Option{console.WithAuditDB(config.GetDB)}
	if config.ArchiveCheckinPhotos() {
		opts = append(opts, console.WithArchive(console.GCSArchive()))
	}
	handlers := console.New(api, sessions, poller, opts...)

	r := gin.New()
	r.Use(middlewares.CorrelationId())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Until redis and the audit database are connected, app endpoints return 503.
		if !ready.Load() {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production CORS_ALLOWED_ORIGINS is required; unset denies every origin.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = utils.SplitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if config.EnvBool("RATE_LIMIT_ENABLED") && useRedis {
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := middlewares.NewRateLimiter(getRedisClient(os.Getenv("REDIS_ADDRESS")), limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware(sessions))
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	handlers.Register(r)
	r.NoRoute(customNotFoundHandler)

	// Listen first; dependencies connect behind the readiness gate.
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	if useRedis {
		config.ConnectRedisWithRetry(sigCtx)
	}
	if config.AuditEnabled() {
		config.ConnectDatabaseWithRetry()
		if !config.EnvBool("SKIP_MIGRATIONS") {
			if err := models.MigrateTable(); err != nil {
				config.LogError(logger, "server.go", "main", "MigrateTable", nil, err)
			}
		} else {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
		}
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	if topic := config.InvalidationTopic(); topic != "" {
		if err := startInvalidationBus(workerCtx, topic, api, notifier, logger); err != nil {
			config.LogError(logger, "server.go", "main", "invalidation bus", topic, err)
		}
	}
	go poller.Run(workerCtx)

	ready.Store(true)
	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("console listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers before draining requests.
	cancelWorkers()
	if bus := notifier.bus.Load(); bus != nil {
		bus.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if db := config.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// startInvalidationBus connects the bus and applies invalidations published by
// other console instances to the local cache.
func startInvalidationBus(ctx context.Context, topic string, api *client.API, notifier *busNotifier, logger *logrus.Logger) error {
	psClient, err := config.GetPubSubClient(ctx)
	if err != nil {
		return err
	}
	origin := config.InstanceId()
	bus, err := workflow.NewInvalidationBus(ctx, psClient, topic, origin, logger)
	if err != nil {
		return err
	}
	notifier.bus.Store(bus)

	subscription := topic + "-" + origin
	go func() {
		err := bus.Subscribe(ctx, subscription, func(ctx context.Context, resource string) {
			if !api.ApplyRemoteInvalidation(ctx, resource) {
				logger.WithFields(logrus.Fields{"field": "invalidation", "resource": resource}).Debug("no cache for resource")
			}
		})
		if err != nil {
			config.LogError(logger, "server.go", "startInvalidationBus", subscription, nil, err)
		}
	}()
	return nil
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}
