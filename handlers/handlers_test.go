package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammiranda/repose/models"
	"github.com/ammiranda/repose/repository"
	"github.com/ammiranda/repose/storage"
)

func setupTest(t *testing.T) (*gin.Engine, *storage.Storage) {
	gin.SetMode(gin.TestMode)
	s := storage.New(repository.NewMemoryRepository())
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close storage: %v", err)
		}
	})
	return NewRouter(s, nil), s
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createCollection(t *testing.T, router *gin.Engine, name string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/collections", models.CreateCollectionRequest{Name: name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response["id"].(string)
}

func createNode(t *testing.T, router *gin.Engine, req models.SaveNodeRequest) map[string]interface{} {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/nodes", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestListCollectionsEmpty(t *testing.T) {
	router, _ := setupTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/collections", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCollectionScenario(t *testing.T) {
	router, _ := setupTest(t)

	collectionID := createCollection(t, router, "Test collection")
	createNode(t, router, models.SaveNodeRequest{
		CollectionID: &collectionID,
		Request:      &models.RequestInput{Name: "req1", URL: "http://foo.com"},
	})
	createNode(t, router, models.SaveNodeRequest{
		CollectionID: &collectionID,
		Request:      &models.RequestInput{Name: "req2", URL: "http://bar.com", Method: "POST"},
	})
	dir := createNode(t, router, models.SaveNodeRequest{
		CollectionID: &collectionID,
		Folder:       &models.FolderInput{Name: "dir1"},
	})
	dirID := dir["id"].(string)
	child := createNode(t, router, models.SaveNodeRequest{
		ParentID: &dirID,
		Request:  &models.RequestInput{Name: "dir1 req1", URL: "http://foo.com/dir1"},
	})
	assert.Equal(t, collectionID, child["collection_id"], "a child inherits the collection of its parent")

	w := doJSON(t, router, http.MethodGet, "/api/collections", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var collections []*models.Collection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &collections))
	require.Len(t, collections, 1)
	assert.Equal(t, "Test collection", collections[0].Name)
	require.Len(t, collections[0].Nodes, 3)
	third := collections[0].Nodes[2]
	require.Len(t, third.Children, 1)
	assert.Equal(t, "dir1 req1", third.Children[0].Name())

	request, ok := collections[0].Nodes[0].Request()
	require.True(t, ok)
	assert.Equal(t, "GET", request.Method)
	assert.Len(t, request.Params, 1)
}

func TestCreateCollectionInvalidInput(t *testing.T) {
	router, _ := setupTest(t)

	testCases := []struct {
		name     string
		body     string
		expected int
	}{
		{name: "Empty name", body: `{"name":""}`, expected: http.StatusBadRequest},
		{name: "Name too long", body: `{"name":"` + strings.Repeat("x", 201) + `"}`, expected: http.StatusBadRequest},
		{name: "Malformed JSON", body: `{"name":`, expected: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, "/api/collections", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.expected, w.Code)
		})
	}
}

func TestCreateCollectionConflict(t *testing.T) {
	router, _ := setupTest(t)

	createCollection(t, router, "Taken")
	w := doJSON(t, router, http.MethodPost, "/api/collections", models.CreateCollectionRequest{Name: "Taken"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateNodeInvalidInput(t *testing.T) {
	router, _ := setupTest(t)

	badID := "not-a-uuid"
	testCases := []struct {
		name     string
		payload  models.SaveNodeRequest
		expected int
	}{
		{
			name:     "No payload",
			payload:  models.SaveNodeRequest{},
			expected: http.StatusBadRequest,
		},
		{
			name: "Both payloads",
			payload: models.SaveNodeRequest{
				Folder:  &models.FolderInput{Name: "dir"},
				Request: &models.RequestInput{Name: "req"},
			},
			expected: http.StatusBadRequest,
		},
		{
			name:     "Empty folder name",
			payload:  models.SaveNodeRequest{Folder: &models.FolderInput{}},
			expected: http.StatusBadRequest,
		},
		{
			name:     "Unknown method",
			payload:  models.SaveNodeRequest{Request: &models.RequestInput{Name: "req", Method: "FETCH"}},
			expected: http.StatusBadRequest,
		},
		{
			name:     "Invalid parent id",
			payload:  models.SaveNodeRequest{ParentID: &badID, Folder: &models.FolderInput{Name: "dir"}},
			expected: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/nodes", tc.payload)
			assert.Equal(t, tc.expected, w.Code, w.Body.String())
		})
	}
}

func TestCreateNodeNonExistentReferences(t *testing.T) {
	router, _ := setupTest(t)

	missing := "00000000-0000-4000-8000-000000000000"
	w := doJSON(t, router, http.MethodPost, "/api/nodes", models.SaveNodeRequest{
		ParentID: &missing,
		Folder:   &models.FolderInput{Name: "orphan"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/nodes", models.SaveNodeRequest{
		CollectionID: &missing,
		Folder:       &models.FolderInput{Name: "lost"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateNodeUnderRequestFails(t *testing.T) {
	router, _ := setupTest(t)

	req := createNode(t, router, models.SaveNodeRequest{Request: &models.RequestInput{Name: "leaf"}})
	reqID := req["id"].(string)

	w := doJSON(t, router, http.MethodPost, "/api/nodes", models.SaveNodeRequest{
		ParentID: &reqID,
		Folder:   &models.FolderInput{Name: "dir"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScratchNodes(t *testing.T) {
	router, _ := setupTest(t)

	dir := createNode(t, router, models.SaveNodeRequest{Folder: &models.FolderInput{Name: "scratch"}})
	dirID := dir["id"].(string)
	createNode(t, router, models.SaveNodeRequest{
		ParentID: &dirID,
		Request:  &models.RequestInput{Name: "draft", URL: "http://draft"},
	})

	w := doJSON(t, router, http.MethodGet, "/api/nodes?scope=detached", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var nodes []*models.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nodes))
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Children, 1)
	assert.Nil(t, nodes[0].Children[0].CollectionID)

	w = doJSON(t, router, http.MethodGet, "/api/nodes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/nodes?scope=everything", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateNode(t *testing.T) {
	router, _ := setupTest(t)

	collectionID := createCollection(t, router, "Updates")
	req := createNode(t, router, models.SaveNodeRequest{
		CollectionID: &collectionID,
		Request:      &models.RequestInput{Name: "req", URL: "http://old"},
	})
	reqID := req["id"].(string)

	w := doJSON(t, router, http.MethodPut, "/api/nodes/"+reqID, models.SaveNodeRequest{
		CollectionID: &collectionID,
		Request: &models.RequestInput{
			Name:   "req",
			URL:    "http://new",
			Method: "PUT",
			Params: []models.ParamInput{{Key: "q", Value: "1"}},
			Saved:  true,
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/collections", nil)
	var collections []*models.Collection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &collections))
	require.Len(t, collections[0].Nodes, 1, "an update does not add a node")
	request, ok := collections[0].Nodes[0].Request()
	require.True(t, ok)
	assert.Equal(t, "http://new", request.URL)
	assert.Equal(t, "PUT", request.Method)
	assert.Equal(t, []models.Param{{Key: "q", Value: "1"}}, request.Params)
	assert.True(t, request.Saved)

	w = doJSON(t, router, http.MethodPut, "/api/nodes/not-a-uuid", models.SaveNodeRequest{Folder: &models.FolderInput{Name: "x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateNodeRejectsCycles(t *testing.T) {
	router, _ := setupTest(t)

	outer := createNode(t, router, models.SaveNodeRequest{Folder: &models.FolderInput{Name: "outer"}})
	outerID := outer["id"].(string)
	inner := createNode(t, router, models.SaveNodeRequest{ParentID: &outerID, Folder: &models.FolderInput{Name: "inner"}})
	innerID := inner["id"].(string)

	// outer below inner
	w := doJSON(t, router, http.MethodPut, "/api/nodes/"+outerID, models.SaveNodeRequest{
		ParentID: &innerID,
		Folder:   &models.FolderInput{Name: "outer"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// outer below itself
	w = doJSON(t, router, http.MethodPut, "/api/nodes/"+outerID, models.SaveNodeRequest{
		ParentID: &outerID,
		Folder:   &models.FolderInput{Name: "outer"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/nodes?scope=detached", nil)
	assert.Equal(t, http.StatusOK, w.Code, "the stored forest is still consistent")
}

func TestUpdateNodeKeepsFolderWithChildren(t *testing.T) {
	router, _ := setupTest(t)

	collectionID := createCollection(t, router, "Folders")
	dir := createNode(t, router, models.SaveNodeRequest{
		CollectionID: &collectionID,
		Folder:       &models.FolderInput{Name: "dir"},
	})
	dirID := dir["id"].(string)
	createNode(t, router, models.SaveNodeRequest{
		ParentID: &dirID,
		Request:  &models.RequestInput{Name: "child", URL: "http://child"},
	})

	w := doJSON(t, router, http.MethodPut, "/api/nodes/"+dirID, models.SaveNodeRequest{
		CollectionID: &collectionID,
		Request:      &models.RequestInput{Name: "dir", URL: "http://dir"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/collections", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var collections []*models.Collection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &collections))
	require.Len(t, collections[0].Nodes, 1)
	assert.True(t, collections[0].Nodes[0].IsFolder())
	assert.Len(t, collections[0].Nodes[0].Children, 1)
}

func TestCreateUnnamedRequest(t *testing.T) {
	router, _ := setupTest(t)

	node := createNode(t, router, models.SaveNodeRequest{
		Request: &models.RequestInput{URL: "http://draft"},
	})
	request, ok := node["request"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "", request["name"])
}

func TestClosedStorage(t *testing.T) {
	router, s := setupTest(t)
	require.NoError(t, s.Close())

	w := doJSON(t, router, http.MethodGet, "/api/collections", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
