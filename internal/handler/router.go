package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the middleware, probes, metrics endpoint and API routes.
func NewRouter(trail *TrailHandler, metrics http.Handler, logger *zap.Logger, checkers ...HealthChecker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(logger))

	r.GET("/healthz", HealthzHandler())
	r.GET("/readyz", ReadyzHandler(checkers...))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
	trail.RegisterRoutes(r)
	return r
}
