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
	"authgate/internal/audit"
	"authgate/internal/gateway"
	gwmetrics "authgate/internal/gateway/metrics"
	"authgate/internal/oidc"
	"authgate/internal/platform/config"
	"authgate/internal/platform/httpserver"
	"authgate/internal/platform/logger"
	"authgate/internal/sessiontoken"
	httptransport "authgate/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := config.ProviderFromEnv()
	if err != nil {
		log.Error("secret provider selection failed", "error", err)
		os.Exit(1)
	}
	cfg, err := config.GatewayFromEnv(ctx, provider)
	if err != nil {
		log.Error("configuration failed", "error", err)
		os.Exit(1)
	}

	idp, err := oidc.NewClient(ctx, oidc.Config{
		IssuerURL:    cfg.IssuerURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
	}, &http.Client{Timeout: cfg.IdPTimeout})
	if err != nil {
		log.Error("identity provider discovery failed", "error", err)
		os.Exit(1)
	}

	var publisher audit.Publisher = audit.NewMemoryPublisher()
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("audit publisher setup failed", "error", err)
			os.Exit(1)
		}
	}
	defer publisher.Close()

	tokens := sessiontoken.New(cfg.SigningSecret, cfg.BaseURL, cfg.DownstreamURL)
	allow := allowlist.NewCache(allowlist.StaticLoader(cfg.AllowedEmails), 0)

	svc := gateway.NewService(cfg, idp, tokens, allow, log,
		gateway.WithAudit(publisher),
		gateway.WithMetrics(gwmetrics.New()),
	)

	router := httptransport.NewGatewayRouter(httptransport.NewGatewayHandler(svc))
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting gateway", "addr", cfg.Addr, "issuer", cfg.IssuerURL)

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
		log.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
}
