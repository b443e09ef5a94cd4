package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/catalog"
	"github.com/fjod/go_cart/storefront-service/internal/config"
	h "github.com/fjod/go_cart/storefront-service/internal/http"
	"github.com/fjod/go_cart/storefront-service/internal/kv"
	"github.com/fjod/go_cart/storefront-service/internal/logger"
	"github.com/fjod/go_cart/storefront-service/internal/metrics"
	"github.com/fjod/go_cart/storefront-service/internal/poller"
	"github.com/fjod/go_cart/storefront-service/internal/registry"
	"github.com/fjod/go_cart/storefront-service/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func serve(parent context.Context, path string) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	repo, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()
	if err := repo.RunMigrations(); err != nil {
		return err
	}
	log.Info("catalog ready", zap.String("path", cfg.Catalog.DBPath))

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promRegistry)

	directory := session.NewDirectory(storage, log)
	clients := registry.New(storage, directory, log, m, cfg.AuthLatency(),
		registry.WithMaxClients(cfg.Registry.MaxClients),
		registry.WithIdleTTL(cfg.RegistryIdleTTL()))
	go clients.RunSweeper(ctx, cfg.RegistrySweepInterval())

	if len(cfg.Kafka.Brokers) > 0 {
		p := poller.NewPoller(clients, log, m, cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		defer p.Close()
		go p.Run(ctx)
		log.Info("checkout consumer started",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	router := h.NewRouter(h.RouterConfig{
		Catalog:        repo,
		Registry:       clients,
		Logger:         log,
		Gatherer:       promRegistry,
		RequestTimeout: cfg.RequestTimeoutDuration(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront-http"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeoutDuration() + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("storefront", healthpb.HealthCheckResponse_SERVING)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)

	errCh := make(chan error, 2)
	go func() {
		log.Info("gRPC health server listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server error: %w", err)
		}
	}()
	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTPPort), zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		log.Error("server failed", zap.Error(err))
	}

	log.Info("shutting down server...")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()

	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		log.Error("server forced to shutdown", zap.Error(errShutdown))
	}
	grpcServer.GracefulStop()

	log.Info("server exited")
	return err
}

// openStorage connects the configured backend. Remote backends sit behind a
// circuit breaker so a dead store fails fast instead of stalling requests.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (kv.Storage, func(), error) {
	breaker := kv.BreakerConfig{
		Name:             cfg.Storage.Backend,
		FailureThreshold: uint32(cfg.Storage.BreakerFailures),
		OpenTimeout:      cfg.BreakerTimeoutDuration(),
	}

	switch cfg.Storage.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("connected to redis", zap.String("addr", cfg.Storage.RedisAddr))
		return kv.NewBreakerStorage(kv.NewRedisStorage(client), breaker, log), func() { client.Close() }, nil

	case config.BackendMongo:
		db, err := kv.ConnectMongoDB(ctx, kv.MongoOptions{
			URI:                    cfg.Storage.MongoURI,
			Database:               cfg.Storage.MongoDatabase,
			MaxPoolSize:            cfg.Storage.MongoMaxPoolSize,
			ConnectTimeout:         cfg.MongoConnectTimeoutDuration(),
			ServerSelectionTimeout: cfg.MongoServerSelectionTimeoutDuration(),
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to mongodb", zap.String("database", cfg.Storage.MongoDatabase))
		closeFn := func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Error("failed to disconnect mongodb", zap.Error(err))
			}
		}
		return kv.NewBreakerStorage(kv.NewMongoStorage(db), breaker, log), closeFn, nil

	default:
		log.Warn("using in-memory storage; carts and sessions are lost on restart")
		return kv.NewMemoryStorage(), func() {}, nil
	}
}
