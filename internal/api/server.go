// Package api serves the strategy catalogue and transaction building over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	repertoire "github.com/karpatkey/defi-repertoire"
)

type Config struct {
	System         *repertoire.System
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
	RequestTimeout time.Duration
	// Env selects gin's debug mode when "dev".
	Env string
}

// NewEngine wires every handler on a fresh gin engine.
func NewEngine(cfg Config) *gin.Engine {
	// Large integer amounts must reach the validators intact.
	binding.EnableDecoderUseNumber = true
	if cfg.Env == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	if cfg.Logger != nil {
		engine.Use(AccessLog(cfg.Logger))
	}

	healthHandler := &HealthHandler{}
	healthHandler.Register(engine)
	strategyHandler := &StrategyHandler{System: cfg.System, Timeout: cfg.RequestTimeout}
	strategyHandler.Register(engine)

	if cfg.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	return engine
}
