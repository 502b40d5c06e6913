package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/api/handlers"
	"github.com/BaSui01/assetflow/config"
	"github.com/BaSui01/assetflow/generation/cache"
	"github.com/BaSui01/assetflow/generation/pipeline"
	"github.com/BaSui01/assetflow/internal/metrics"
	"github.com/BaSui01/assetflow/internal/server"
	"github.com/BaSui01/assetflow/internal/tlsutil"
	"github.com/BaSui01/assetflow/worker"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 持有 AssetFlow 服务的全部组件
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	registry  *prometheus.Registry
	collector *metrics.Collector

	store     cache.Store
	redis     *redis.Client
	pipelines *pipeline.Registry
	worker    *worker.Worker

	healthHandler     *handlers.HealthHandler
	generationHandler *handlers.GenerationHandler
	animationHandler  *handlers.AnimationHandler
	authHandler       *handlers.AuthHandler
	tokenIssuer       *handlers.TokenIssuer

	httpManager *server.Manager

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 构建缓存、流水线、任务执行器与 handlers，不监听端口
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, logger: logger}

	// 1. 指标
	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.collector = metrics.NewCollector("assetflow", s.registry, logger)

	// 2. 结果缓存
	store, client, err := newCacheStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s.store, s.redis = store, client

	// 3. 流水线与任务执行器
	s.pipelines = pipeline.NewRegistry(pipeline.Deps{
		Config:   cfg.Pipeline,
		Cache:    s.store,
		Recorder: s.collector,
		Logger:   logger,
	})
	s.worker, err = worker.New(cfg.Worker, s.pipelines,
		worker.WithLogger(logger),
		worker.WithRecorder(s.collector),
	)
	if err != nil {
		s.closeRedis()
		return nil, err
	}

	// 4. Handlers
	if err := s.initHandlers(); err != nil {
		_ = s.worker.Close(ctx)
		s.closeRedis()
		return nil, err
	}
	return s, nil
}

// newCacheStore 按 cache.backend 构建缓存。multi 模式下 Redis 不可用时退化为纯内存。
func newCacheStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, *redis.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	memory := cache.NewMemoryStore(cfg.Cache.TTL, nil)
	if cfg.Cache.Backend == "memory" {
		return memory, nil, nil
	}

	opts := &redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}
	if cfg.Redis.TLS {
		opts.TLSConfig = tlsutil.ForAddr(cfg.Redis.Addr)
	}
	client, err := cache.NewRedisClient(ctx, opts)
	if err != nil {
		if cfg.Cache.Backend == "multi" {
			logger.Warn("redis unavailable, falling back to in-memory cache", zap.Error(err))
			return memory, nil, nil
		}
		return nil, nil, err
	}

	remote := cache.NewRedisStore(client, cfg.Cache.KeyPrefix, cfg.Cache.TTL, logger)
	if cfg.Cache.Backend == "redis" {
		return remote, client, nil
	}
	return cache.NewMultiLevelStore(memory, remote, logger), client, nil
}

func (s *Server) initHandlers() error {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.SetVersion(Version)
	if s.redis != nil {
		client := s.redis
		s.healthHandler.RegisterCheck(handlers.NewPingHealthCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	}
	s.healthHandler.RegisterCheck(handlers.NewQueueHealthCheck("worker_queue", func() (int, int) {
		return s.worker.Stats().Queued, s.cfg.Worker.QueueSize
	}))

	s.generationHandler = handlers.NewGenerationHandler(s.worker, s.logger)
	s.animationHandler = handlers.NewAnimationHandler(s.cfg.Pipeline.Debug, s.logger)

	if s.cfg.Auth.Enabled {
		issuer, err := handlers.NewTokenIssuer(s.cfg.Auth)
		if err != nil {
			return err
		}
		s.tokenIssuer = issuer
		s.authHandler = handlers.NewAuthHandler(issuer, s.cfg.Auth.APIKeys, s.logger)
	}

	s.logger.Info("Handlers initialized", zap.Bool("auth_enabled", s.cfg.Auth.Enabled))
	return nil
}

// =============================================================================
// 🌐 路由与中间件
// =============================================================================

// Handler 返回带完整中间件链的根 handler
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	// API 路由
	mux.HandleFunc("POST /v1/models/generate", s.generationHandler.HandleGenerate)
	mux.HandleFunc("POST /v1/textures/generate", s.generationHandler.HandleGenerateTexture)
	mux.HandleFunc("POST /v1/animations/play", s.animationHandler.HandlePlay)
	mux.HandleFunc("GET /v1/jobs/{id}", s.generationHandler.HandleGetJob)
	mux.HandleFunc("GET /v1/assets/{id}", s.generationHandler.HandleGetAsset)
	if s.authHandler != nil {
		mux.HandleFunc("POST /v1/auth/login", s.authHandler.HandleLogin)
	}

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		RateLimiter(ctx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	}
	if s.tokenIssuer != nil {
		skipAuthPaths := []string{"/health", "/healthz", "/ready", "/version", "/metrics", "/v1/auth/login"}
		middlewares = append(middlewares, JWTAuth(s.tokenIssuer, skipAuthPaths, s.logger))
	}
	return Chain(mux, middlewares...)
}

// =============================================================================
// 🚀 启动与关闭
// =============================================================================

// Start 启动 HTTP 服务（非阻塞），并按顺序注册关闭钩子
func (s *Server) Start(shutdownHooks ...server.Hook) error {
	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel

	s.httpManager = server.NewManager(s.Handler(rateLimiterCtx), server.ConfigFrom(s.cfg.Server), s.logger)
	s.httpManager.OnShutdown("rate_limiter", func(context.Context) error {
		cancel()
		return nil
	})
	s.httpManager.OnShutdown("worker", s.worker.Close)
	s.httpManager.OnShutdown("redis", func(context.Context) error {
		return s.closeRedis()
	})
	for _, h := range shutdownHooks {
		s.httpManager.OnShutdown(h.Name, h.Fn)
	}

	if err := s.httpManager.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	s.logger.Info("HTTP server started",
		zap.String("addr", s.httpManager.ListenAddr()),
		zap.String("cache_backend", s.cfg.Cache.Backend),
		zap.Int("worker_concurrency", s.cfg.Worker.Concurrency),
	)
	return nil
}

// WaitForShutdown 阻塞到收到信号或 ctx 结束，然后执行优雅关闭
func (s *Server) WaitForShutdown(ctx context.Context) error {
	if s.httpManager == nil {
		return errors.New("server not started")
	}
	err := s.httpManager.WaitForShutdown(ctx)
	s.logger.Info("Graceful shutdown completed")
	return err
}

func (s *Server) closeRedis() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}
