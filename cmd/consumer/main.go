package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"authgate/internal/allowlist"
	"authgate/internal/consumer"
	"authgate/internal/identity"
	"authgate/internal/platform/config"
	"authgate/internal/platform/httpserver"
	"authgate/internal/platform/logger"
	"authgate/internal/platform/postgres"
	"authgate/internal/platform/redis"
	"authgate/internal/sessiontoken"
	httptransport "authgate/internal/transport/http"
)

func main() {
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := config.ProviderFromEnv()
	if err != nil {
		log.Error("secret provider selection failed", "error", err)
		os.Exit(1)
	}
	cfg, err := config.ConsumerFromEnv(ctx, provider)
	if err != nil {
		log.Error("configuration failed", "error", err)
		os.Exit(1)
	}

	// Durable identity store: postgres when configured, in-memory otherwise.
	var store identity.Store = identity.NewMemoryStore()
	pool, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		store = identity.NewPostgresStore(pool)
	}

	// Session store: redis when configured, in-memory otherwise.
	var sessions consumer.SessionStore = consumer.NewMemorySessionStore()
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = consumer.NewRedisSessionStore(redisClient)
	}

	// Token verification expects the gateway as issuer and this app as
	// audience, under the shared secret.
	tokens := sessiontoken.New(cfg.SigningSecret, cfg.GatewayBaseURL, cfg.BaseURL)
	allow := allowlist.NewCache(allowlist.StaticLoader(cfg.AllowedEmails), 0)

	svc := consumer.NewService(tokens, store, allow, sessions, log,
		consumer.WithStoreTimeout(cfg.StoreTimeout),
	)

	health := func(ctx context.Context) error {
		if pool != nil {
			return pool.Health(ctx)
		}
		return nil
	}

	handler := httptransport.NewConsumerHandler(svc, httptransport.ConsumerConfig{
		LoginURL:      cfg.GatewayBaseURL + "/login",
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: isHTTPS(cfg.BaseURL),
	}, health)

	srv := httpserver.New(cfg.Addr, httptransport.NewConsumerRouter(handler))

	log.Info("starting consumer", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
}

func isHTTPS(baseURL string) bool {
	return len(baseURL) >= 8 && baseURL[:8] == "https://"
}
