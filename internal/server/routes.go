package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/wordcloud/internal/entry"
	"github.com/zulandar/wordcloud/internal/identity"
	"github.com/zulandar/wordcloud/internal/live"
	"github.com/zulandar/wordcloud/internal/metrics"
	"github.com/zulandar/wordcloud/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// handlers holds the dependencies shared by every route.
type handlers struct {
	db        *gorm.DB
	entries   *entry.Service
	issuer    *identity.Issuer
	broker    *live.Broker
	defaults  session.Defaults
	maxUpload int64
	heartbeat time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// registerRoutes sets up all routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	router.GET("/healthz", h.healthz)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	// Presenter: session lifecycle.
	router.POST("/sessions", h.createSession)
	router.GET("/sessions", h.listSessions)
	router.GET("/sessions/:id", h.getSession)
	router.PATCH("/sessions/:id", h.updateSession)
	router.DELETE("/sessions/:id", h.deleteSession)
	router.GET("/sessions/:id/status", h.getSession)
	router.PATCH("/sessions/:id/status", h.setStatus)
	router.POST("/sessions/:id/reset-cooldown", h.resetCooldown)
	router.DELETE("/sessions/:id/aggregate-entry", h.removeAggregateEntry)

	// Participant: identity, submissions and quota.
	router.POST("/sessions/:id/participants", h.createParticipant)
	router.POST("/sessions/:id/entries", h.submitEntry)
	router.GET("/sessions/:id/quota", h.quotaStatus)
	router.GET("/sessions/:id/entry-count", h.entryCount)
	router.GET("/sessions/:id/last-submission", h.lastSubmission)

	// Aggregate views.
	router.GET("/sessions/:id/aggregate", h.aggregate)
	router.GET("/sessions/:id/cloud", h.cloud)
	router.GET("/sessions/:id/top", h.top)
	router.GET("/sessions/:id/events", h.events)

	router.GET("/session-order", h.getOrder)
	router.POST("/session-order", h.replaceOrder)

	router.POST("/upload/image", h.uploadImage)
}

func (h *handlers) healthz(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, errorBody{Status: statusError, Message: "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
