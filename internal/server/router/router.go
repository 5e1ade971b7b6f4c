package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/driverledger/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(ledgerHandler *handlers.LedgerHandler, importHandler *handlers.ImportHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/shifts", ledgerHandler.ListShifts)
		api.POST("/shifts", ledgerHandler.CreateShift)
		api.DELETE("/shifts/:id", ledgerHandler.DeleteShift)

		api.GET("/config/:month", ledgerHandler.GetConfig)
		api.PUT("/config/:month", ledgerHandler.PutConfig)

		api.GET("/plan", ledgerHandler.GetPlan)

		api.POST("/import", importHandler.Import)
		api.POST("/import/sheets", importHandler.ImportSheet)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
