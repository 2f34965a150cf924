// Package lambda serves the HTTP API from AWS Lambda behind an API Gateway proxy integration.
package lambda

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler replays API Gateway proxy events through the gin router
type Handler struct {
	adapter *ginadapter.GinLambda
	log     *zap.Logger
}

// NewHandler creates a new Handler dispatching to router
func NewHandler(router *gin.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{adapter: ginadapter.New(router), log: log}
}

// Handle processes API Gateway events. An event that cannot be turned into an
// HTTP request is answered with 400.
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp, err := h.adapter.ProxyWithContext(ctx, request)
	if err != nil {
		h.log.Warn("rejected proxy event",
			zap.String("method", request.HTTPMethod),
			zap.String("path", request.Path),
			zap.Error(err),
		)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error": "invalid request"}`,
		}, nil
	}
	return resp, nil
}
