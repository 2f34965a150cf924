package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ammiranda/repose/executor"
	"github.com/ammiranda/repose/models"
	"github.com/ammiranda/repose/repository"
	"github.com/ammiranda/repose/storage"
)

// Store is the asynchronous storage the handlers drive
type Store interface {
	LoadCollections() *executor.Future[[]*models.Collection]
	SaveCollection(collection *models.Collection) *executor.Future[struct{}]
	LoadNodes(scope repository.Scope) *executor.Future[[]*models.Node]
	PutNode(node *models.Node) *executor.Future[*models.Node]
}

// NewRouter wires every API route onto a new gin engine
func NewRouter(store Store, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	collections := NewCollectionHandler(store, log)
	nodes := NewNodeHandler(store, log)

	api := r.Group("/api")
	{
		api.GET("/collections", collections.ListCollections)
		api.POST("/collections", collections.CreateCollection)
		api.GET("/nodes", nodes.ListNodes)
		api.POST("/nodes", nodes.CreateNode)
		api.PUT("/nodes/:id", nodes.UpdateNode)
	}
	return r
}

// RequestLogger logs one line per request
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// writeError maps storage and domain errors onto HTTP statuses
func writeError(c *gin.Context, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrParentNotFound), errors.Is(err, storage.ErrCollectionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrIntegrity),
		errors.Is(err, models.ErrPayloadChoice),
		errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, storage.ErrInvalidMove):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, executor.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
