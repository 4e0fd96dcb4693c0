package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrcases-be/config"
	"hrcases-be/controllers"
	"hrcases-be/metrics"
	"hrcases-be/routes"
	"hrcases-be/services"
	"hrcases-be/store"
	authUtils "hrcases-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const uploadURLPrefix = "/uploads"

func main() {
	mintToken := flag.String("mint-token", "", "print a signed write token for this subject and exit")
	tokenTTL := flag.Duration("token-ttl", 72*time.Hour, "lifetime of a minted token")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if *mintToken != "" {
		token, err := authUtils.GenerateToken(*mintToken, os.Getenv("JWT_SECRET"), *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to mint token: %v", err)
		}
		fmt.Println(token)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, "hrcases-be")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	logger.Info("MongoDB connection established", zap.String("database", cfg.MongoDatabase))

	if err := store.EnsureIndexes(ctx, db.Collection(cfg.CasesCollection), db.Collection(cfg.HistoryCollection)); err != nil {
		return err
	}

	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Info("Redis connection established", zap.String("address", cfg.RedisAddress))
	} else {
		logger.Info("Redis not configured; using in-process outbox without analytics cache")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cases := store.NewMongoCaseStore(db, cfg.CasesCollection, cfg.MongoTimeout)
	history := store.NewMongoHistoryStore(db, cfg.HistoryCollection, cfg.MongoTimeout)

	var outbox store.HistoryOutbox = store.NewMemoryHistoryOutbox()
	var cache services.AnalyticsCache = services.NopAnalyticsCache{}
	if rdb != nil {
		outbox = store.NewRedisHistoryOutbox(rdb, store.DefaultOutboxKey)
		if cfg.AnalyticsCacheTTL > 0 {
			cache = services.NewRedisAnalyticsCache(rdb, cfg.AnalyticsCacheTTL, services.DefaultCachePrefix)
		}
	}

	caseService := services.NewCaseService(services.CaseServiceDeps{
		Cases:               cases,
		History:             history,
		Outbox:              outbox,
		Cache:               cache,
		Metrics:             m,
		Logger:              logger.Named("cases"),
		EnforceUniqueCaseID: cfg.EnforceUniqueCaseID,
	})
	analyticsService := services.NewAnalyticsService(cases, cache, m, logger.Named("analytics"))

	reconciler := services.NewReconciler(history, outbox, cfg.ReconcileInterval, m, logger.Named("reconciler"))
	reconcilerDone := make(chan struct{})
	go func() {
		defer close(reconcilerDone)
		reconciler.Run(ctx)
	}()

	files, err := store.NewLocalFileStore(cfg.UploadDir, uploadURLPrefix)
	if err != nil {
		return err
	}

	health := map[string]controllers.Pinger{
		"mongodb": func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
	}
	if rdb != nil {
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.NewRouter(routes.RouterDeps{
		Cases:           caseService,
		Analytics:       analyticsService,
		Files:           files,
		Health:          health,
		Metrics:         m,
		Gatherer:        reg,
		Logger:          logger.Named("http"),
		Redis:           rdb,
		WriteRateLimit:  cfg.WriteRateLimit,
		WriteRateWindow: cfg.WriteRateWindow,
		JWTSecret:       cfg.JWTSecret,
		UploadDir:       files.Root(),
		UploadURL:       uploadURLPrefix,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		CORSOrigins:     cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-reconcilerDone
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	<-reconcilerDone
	return nil
}
