package main

import (
	"context"
	"flag"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"bookcore/internal/adapter/cache"
	"bookcore/internal/adapter/in_memory"
	"bookcore/internal/adapter/pg"
	httpapi "bookcore/internal/api/http"
	"bookcore/internal/config"
	"bookcore/internal/core"
	"bookcore/internal/metrics"
	"bookcore/internal/port"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	var repo port.Repository
	if cfg.PostgresDSN != "" {
		pgRepo, err := pg.NewPgRepo(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		defer pgRepo.Close()
		repo = pgRepo
		logger.Info("journal: postgres")
	} else {
		repo = in_memory.NewMemoryRepo()
		logger.Info("journal: in-memory")
	}

	var depthCache port.Cache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		defer redisCache.Close()
		depthCache = redisCache
		logger.Info("depth cache: redis", zap.String("addr", cfg.RedisAddr))
	} else {
		depthCache = in_memory.NewCache()
		logger.Info("depth cache: in-memory")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engine := core.NewEngine(cfg.Symbol, repo, depthCache, logger, metrics.NewSet(registry), cfg.SnapshotDepth)

	if _, err := engine.LoadRestingOrders(ctx); err != nil {
		logger.Fatal("replay journal", zap.Error(err))
	}

	server := httpapi.NewHTTPServer(engine, logger, registry, cfg.RateLimit)
	if err := server.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("http server", zap.Error(err))
	}
}
