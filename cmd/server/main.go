package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/mailcheck/internal/api"
	"github.com/ignite/mailcheck/internal/batch"
	"github.com/ignite/mailcheck/internal/cache"
	"github.com/ignite/mailcheck/internal/checks"
	"github.com/ignite/mailcheck/internal/config"
	"github.com/ignite/mailcheck/internal/dedup"
	"github.com/ignite/mailcheck/internal/pkg/httpretry"
	"github.com/ignite/mailcheck/internal/pkg/logger"
	"github.com/ignite/mailcheck/internal/ratelimit"
	"github.com/ignite/mailcheck/internal/repository/postgres"
	"github.com/ignite/mailcheck/internal/validator"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("[Server] Config file unavailable (%v), using defaults", err)
		cfg = config.Default()
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.RedactPII())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[Server] Cache init failed: %v", err)
	}

	engine := buildEngine(cfg, store)
	processor := batch.NewProcessor(engine, cfg.Batch.ChunkSize, cfg.Batch.Workers)
	deduplicator := dedup.New(cfg.Dedup.SimilarityThreshold)

	var repo api.ResultsRepo
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		db, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			log.Fatalf("[Server] Database connection failed: %v", err)
		}
		defer db.Close()
		repo = postgres.NewResultsRepo(db)
		log.Printf("[Server] Results persistence enabled")
	}

	handlers := api.NewHandlers(engine, processor, store, deduplicator, repo)
	router := api.NewRouter(handlers)

	addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // batch validation holds connections open
	}

	go func() {
		log.Printf("[Server] Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] HTTP server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[Server] Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
}

// buildStore selects the cache backend: Redis when configured, the
// in-memory TTL store otherwise. The in-memory store gets a background
// sweeper on the configured interval.
func buildStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	opts := cache.Options{
		Enabled:       cfg.CacheEnabled(),
		DefaultTTL:    cfg.CacheDefaultTTL(),
		MaxSize:       cfg.Cache.MaxSize,
		EvictionSlack: cfg.Cache.EvictionSlack,
		CategoryTTLs:  cfg.CacheCategoryTTLs(),
	}

	if cfg.Cache.RedisURL != "" {
		store, err := cache.NewRedisStore(cfg.Cache.RedisURL, opts)
		if err != nil {
			return nil, err
		}
		log.Printf("[Server] Using Redis cache backend")
		return store, nil
	}

	store := cache.NewMemoryStore(opts)
	store.StartSweeper(ctx, time.Duration(cfg.Cache.CleanupIntervalSeconds)*time.Second)
	return store, nil
}

func buildEngine(cfg *config.Config, store cache.Store) *validator.Engine {
	resolver := net.DefaultResolver
	limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond)
	httpClient := httpretry.NewRetryClient(&http.Client{
		Timeout: time.Duration(cfg.Reputation.TimeoutSeconds) * time.Second,
	}, cfg.SMTP.MaxRetries)

	roles := checks.NewRoleCheck(nil)

	return validator.NewEngine(validator.Deps{
		Store:  store,
		Domain: checks.NewDomainCheck(resolver, limiter),
		Reputation: checks.NewReputationCheck(
			resolver, limiter,
			cfg.Reputation.BlacklistZones,
			cfg.Reputation.WhoisURL,
			httpClient,
		),
		Spam: checks.NewSpamCheck(roles),
		Disposable: checks.NewDisposableCheck(
			cfg.Disposable.ListPath,
			cfg.Disposable.LookupURL,
			httpClient,
		),
		SMTP: checks.NewSMTPCheck(resolver, limiter, checks.SMTPOptions{
			HeloDomain: cfg.SMTP.HeloDomain,
			MailFrom:   cfg.SMTP.MailFrom,
			Port:       cfg.SMTP.Port,
			Timeout:    cfg.SMTPTimeout(),
			MaxRetries: cfg.SMTP.MaxRetries,
		}),
		Typo: checks.NewTypoCheck(),
	})
}
