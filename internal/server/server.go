package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	analysisdomain "github.com/fleetops/fuelrate/internal/analysis/domain"
	"github.com/fleetops/fuelrate/internal/config"
	"github.com/fleetops/fuelrate/internal/observability"
	obslogger "github.com/fleetops/fuelrate/internal/observability/logger"
	obsmetrics "github.com/fleetops/fuelrate/internal/observability/metrics"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obsmetrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, m *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(obsCfg, m)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	analysisSvc analysisdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	AnalysisSvc analysisdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		analysisSvc: p.AnalysisSvc,
	}

	svc.registerAnalysisRoutes()

	return svc
}

func (s *Server) registerAnalysisRoutes() {
	api := s.engine.Group("/api")

	api.POST("/analyses", s.CreateAnalysis)
	api.GET("/analyses/:id", s.GetAnalysis)
	api.DELETE("/analyses/:id", s.DeleteAnalysis)
	api.GET("/analyses/:id/intervals", s.ListIntervals)
	api.GET("/analyses/:id/summary", s.GetSummary)
	api.GET("/analyses/:id/report", s.GetReport)
	api.GET("/analyses/:id/activities", s.GetActivities)
	api.GET("/analyses/:id/outliers", s.GetOutliers)
	api.GET("/analyses/:id/export/intervals", s.ExportIntervals)
	api.GET("/analyses/:id/export/summary", s.ExportSummary)
}
