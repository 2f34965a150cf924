package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammiranda/repose/handlers"
	"github.com/ammiranda/repose/repository"
	"github.com/ammiranda/repose/storage"
)

func setupHandler(t *testing.T) *Handler {
	gin.SetMode(gin.TestMode)
	s := storage.New(repository.NewMemoryRepository())
	t.Cleanup(func() { _ = s.Close() })
	return NewHandler(handlers.NewRouter(s, nil), nil)
}

func TestHandleCreateAndListCollections(t *testing.T) {
	h := setupHandler(t)
	ctx := context.Background()

	resp, err := h.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/api/collections",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"name": "Test collection"}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	assert.Contains(t, http.Header(resp.MultiValueHeaders).Get("Content-Type"), "application/json")

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &created))
	assert.Equal(t, "Test collection", created["name"])

	resp, err = h.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/api/collections",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created["id"], listed[0]["id"])
}

func TestHandleBase64BodyAndQuery(t *testing.T) {
	h := setupHandler(t)
	ctx := context.Background()

	body := base64.StdEncoding.EncodeToString([]byte(`{"folder": {"name": "scratch"}}`))
	resp, err := h.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:        http.MethodPost,
		Path:              "/api/nodes",
		MultiValueHeaders: map[string][]string{"Content-Type": {"application/json"}},
		Body:              body,
		IsBase64Encoded:   true,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)

	resp, err = h.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/api/nodes",
		QueryStringParameters: map[string]string{"scope": "detached"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var nodes []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "folder", nodes[0]["kind"])
	folder, ok := nodes[0]["folder"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "scratch", folder["name"])
}

func TestHandleErrors(t *testing.T) {
	h := setupHandler(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		request    events.APIGatewayProxyRequest
		wantStatus int
	}{
		{
			name:       "unknown route",
			request:    events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/api/unknown"},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "invalid base64 body",
			request: events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Path:            "/api/collections",
				Body:            "not base64!",
				IsBase64Encoded: true,
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "invalid scope",
			request: events.APIGatewayProxyRequest{
				HTTPMethod:                      http.MethodGet,
				Path:                            "/api/nodes",
				MultiValueQueryStringParameters: map[string][]string{"scope": {"everything"}},
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := h.Handle(ctx, tc.request)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}
