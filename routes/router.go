package routes

import (
	"time"

	"hrcases-be/controllers"
	"hrcases-be/metrics"
	"hrcases-be/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RouterDeps carries everything the HTTP surface is assembled from.
type RouterDeps struct {
	Cases     controllers.CaseService
	Analytics controllers.AnalyticsService
	Files     controllers.FileStore
	Health    map[string]controllers.Pinger

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger

	// Redis enables the write rate limiter when non-nil.
	Redis           *redis.Client
	WriteRateLimit  int
	WriteRateWindow time.Duration

	// JWTSecret guards write routes when non-empty.
	JWTSecret string

	UploadDir      string
	UploadURL      string
	MaxUploadBytes int64
	CORSOrigins    []string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d RouterDeps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger(d.Logger, d.Metrics))

	corsCfg := cors.DefaultConfig()
	if len(d.CORSOrigins) == 0 || (len(d.CORSOrigins) == 1 && d.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = d.CORSOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	var guard []gin.HandlerFunc
	if d.JWTSecret != "" {
		guard = append(guard, middlewares.AuthMiddleware(d.JWTSecret, d.Logger))
	}
	if d.Redis != nil && d.WriteRateLimit > 0 {
		guard = append(guard, middlewares.WriteRateLimiter(d.Redis, middlewares.DefaultRateLimitPrefix, d.WriteRateLimit, d.WriteRateWindow, d.Logger))
	}

	health := controllers.NewHealthController(d.Health)
	r.GET("/ping", health.Ping)
	r.GET("/healthz", health.Health)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	CaseRoutes(r,
		controllers.NewCaseController(d.Cases, d.Logger),
		controllers.NewEvidenceController(d.Cases, d.Files, d.MaxUploadBytes, d.Logger),
		guard,
	)
	AnalyticsRoutes(r, controllers.NewAnalyticsController(d.Analytics, d.Logger))

	if d.UploadDir != "" && d.UploadURL != "" {
		r.Static(d.UploadURL, d.UploadDir)
	}
	return r
}
