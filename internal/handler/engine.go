package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/maxviazov/user-records-service/internal/metrics"
	"github.com/maxviazov/user-records-service/internal/service"
	"github.com/rs/zerolog"
)

// NewEngine builds the full HTTP stack: recovery, access log, metrics, CORS, /metrics and the API.
func NewEngine(logger zerolog.Logger, allowedOrigins []string, store Pinger, userSvc service.UserService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger), metrics.Middleware(), CORS(allowedOrigins))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	Register(r, store, userSvc)
	return r
}
