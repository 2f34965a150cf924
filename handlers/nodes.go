package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ammiranda/repose/models"
	"github.com/ammiranda/repose/repository"
)

// NodeHandler handles folder and request node HTTP requests
type NodeHandler struct {
	store Store
	log   *zap.Logger
}

// NewNodeHandler creates a new NodeHandler instance
func NewNodeHandler(store Store, log *zap.Logger) *NodeHandler {
	return &NodeHandler{store: store, log: log}
}

// ListNodes returns the node forest of the scope given by the scope query parameter
func (h *NodeHandler) ListNodes(c *gin.Context) {
	scope, err := repository.ParseScope(c.Query("scope"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	nodes, err := h.store.LoadNodes(scope).Await(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

// CreateNode creates a folder or request node
func (h *NodeHandler) CreateNode(c *gin.Context) {
	h.save(c, "", http.StatusCreated)
}

// UpdateNode replaces the stored node with the given id
func (h *NodeHandler) UpdateNode(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}
	h.save(c, id, http.StatusOK)
}

func (h *NodeHandler) save(c *gin.Context, id string, status int) {
	var req models.SaveNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := req.ToNode(id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	saved, err := h.store.PutNode(node).Await(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(status, saved)
}
