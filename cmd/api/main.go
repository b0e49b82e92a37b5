package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"advtopup/internal/auth"
	"advtopup/internal/config"
	"advtopup/internal/core/checkout"
	"advtopup/internal/gateway/advansispay"
	httpx "advtopup/internal/http"
	"advtopup/internal/provider"
	"advtopup/internal/provider/prymo"
	"advtopup/internal/provider/reloadly"
	"advtopup/internal/services/fulfillment"
	"advtopup/internal/services/history"
	"advtopup/internal/services/purchase"
	"advtopup/internal/store/postgres"
	redisstore "advtopup/internal/store/redis"
	"advtopup/internal/upstream"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	pool := postgres.MustOpen(ctx, cfg.DB.DSN)
	defer pool.Close()
	txRepo := postgres.NewTransactionRepo(pool)
	ledger := postgres.NewFulfillmentLedger(pool)

	// Wizard sessions live in Redis
	wizards := redisstore.NewSessionStore(cfg.Redis.Addr, cfg.Wizard.SessionTTL)
	if err := wizards.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis unreachable")
	}

	// Upstream API client with one-shot 401 refresh
	tokens := auth.NewManager(auth.Session{
		AccessToken:  cfg.Upstream.AccessToken,
		RefreshToken: cfg.Upstream.RefreshToken,
		CreatedAt:    time.Now(),
	}, auth.NewHTTPRefresher(cfg.Upstream.BaseURL, time.Duration(cfg.Upstream.TimeoutSec)*time.Second))
	api := upstream.New(cfg.Upstream.BaseURL, tokens, cfg.Upstream.TimeoutSec)

	// Credit providers
	registry := provider.NewRegistry()
	rl := reloadly.New(api)
	registry.Register(rl)
	registry.Register(prymo.New(api, prymo.DefaultNetworkRules))

	// Hosted checkout gateway and outcome resolution
	gateway := advansispay.New(api)
	checkoutMgr := checkout.NewManager(gateway, cfg.Checkout.PollInterval, cfg.Checkout.MaxPolls, cfg.Checkout.SessionTTL)

	// Services
	dispatcher := fulfillment.NewDispatcher(registry, ledger)
	resolveTimeout := cfg.Checkout.PollInterval*time.Duration(cfg.Checkout.MaxPolls) + 2*time.Minute
	purchaseSvc := purchase.NewService(wizards, rl, gateway, checkoutMgr, dispatcher, txRepo, registry, resolveTimeout)
	historySvc := history.NewService(txRepo)

	// Router
	r := httpx.NewRouter(httpx.RouterDependencies{
		Config:          cfg,
		PurchaseService: purchaseSvc,
		HistoryService:  historySvc,
		CheckoutManager: checkoutMgr,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Msgf("advtopup API listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Sweeper expires checkout sessions that never resolved
	g.Go(func() error {
		checkoutMgr.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}
