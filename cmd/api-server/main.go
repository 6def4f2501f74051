package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/iiFadel/dynamic-form-allocation/internal/adapters/callback"
	httpAdapter "github.com/iiFadel/dynamic-form-allocation/internal/adapters/http"
	"github.com/iiFadel/dynamic-form-allocation/internal/adapters/store"
	"github.com/iiFadel/dynamic-form-allocation/internal/alias"
	"github.com/iiFadel/dynamic-form-allocation/internal/app"
	"github.com/iiFadel/dynamic-form-allocation/internal/config"
	"github.com/iiFadel/dynamic-form-allocation/internal/domain"
	"github.com/iiFadel/dynamic-form-allocation/internal/metrics"
	"github.com/iiFadel/dynamic-form-allocation/internal/token"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	codec := token.NewCodec(cfg.TokenSecret)
	if codec.InsecureDefault() {
		log.Warn("FORM_TOKEN_SECRET is not set; form tokens are signed with the public development fallback and carry NO integrity guarantee")
	}

	aliasStore, cleanup, err := buildAliasStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize alias store")
	}
	defer cleanup()

	m := metrics.New()
	registry := alias.NewRegistry(aliasStore, codec)
	relay := callback.NewHTTPRelay(cfg.CallbackTimeout, log)
	formService := app.NewFormService(registry, codec, relay, m, log)
	formHandler := httpAdapter.NewFormHandler(formService, cfg.BaseURL, log)

	gin.SetMode(gin.ReleaseMode)
	router := httpAdapter.SetupRouter(formHandler, m.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("starting form allocation server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server exited")
}

func buildAliasStore(cfg *config.Config, log *logrus.Logger) (domain.AliasStore, func(), error) {
	switch cfg.AliasStore {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, func() {}, err
		}
		log.WithField("addr", cfg.RedisAddr).Info("using redis alias store")
		return store.NewRedisStore(client, cfg.AliasTTL), func() { client.Close() }, nil
	default:
		// Aliases held in memory die with the process; links created
		// before a restart stop resolving. The signed token itself stays
		// valid.
		log.Info("using in-memory alias store; aliases will not survive a restart")
		return store.NewMemoryStore(), func() {}, nil
	}
}
