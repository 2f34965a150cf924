package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ammiranda/repose/models"
)

// CollectionHandler handles collection-related HTTP requests
type CollectionHandler struct {
	store Store
	log   *zap.Logger
}

// NewCollectionHandler creates a new CollectionHandler instance
func NewCollectionHandler(store Store, log *zap.Logger) *CollectionHandler {
	return &CollectionHandler{store: store, log: log}
}

// ListCollections returns every collection with its node forest
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	collections, err := h.store.LoadCollections().Await(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if collections == nil {
		collections = []*models.Collection{}
	}
	c.JSON(http.StatusOK, collections)
}

// CreateCollection creates an empty collection
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req models.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := models.NewCollection(req.Name)
	if _, err := h.store.SaveCollection(collection).Await(c.Request.Context()); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, collection)
}
