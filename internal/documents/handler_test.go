package documents

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	NewHandler(newTestService(t)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerDocumentLifecycle(t *testing.T) {
	r := newTestRouter(t)

	resp := doJSON(r, http.MethodPost, "/api/v1/documents", gin.H{"kind": "resume", "title": "CV"})
	require.Equal(t, http.StatusCreated, resp.Code)
	var created DocumentResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.Equal(t, 1, created.Version)

	path := "/api/v1/documents/" + created.ID
	resp = doJSON(r, http.MethodPatch, path, gin.H{"version": 1, "content": gin.H{"summary": "Hello"}})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(r, http.MethodPatch, path, gin.H{"version": 1, "title": "Stale"})
	require.Equal(t, http.StatusConflict, resp.Code)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Equal(t, "conflict", envelope.Error.Code)

	resp = doJSON(r, http.MethodGet, path+"/versions", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var versions struct {
		Versions []VersionResponse `json:"versions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &versions))
	require.Len(t, versions.Versions, 2)
	require.Equal(t, 2, versions.Versions[0].Version)

	resp = doJSON(r, http.MethodPost, path+"/versions/1/restore", gin.H{"version": 2})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(r, http.MethodGet, path+"/preview", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Header().Get("Content-Type"), "text/html")

	resp = doJSON(r, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = doJSON(r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandlerValidationDetails(t *testing.T) {
	r := newTestRouter(t)

	resp := doJSON(r, http.MethodPost, "/api/v1/documents", gin.H{"kind": "memo"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details []struct {
				Field string `json:"field"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Equal(t, "validation_error", envelope.Error.Code)
	require.NotEmpty(t, envelope.Error.Details)

	resp = doJSON(r, http.MethodPatch, "/api/v1/documents/6f1c2b1e-8a43-4a5e-9d67-0c8f8d7f2a11", gin.H{"title": "x"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandlerListPagination(t *testing.T) {
	r := newTestRouter(t)
	for _, title := range []string{"A", "B", "C"} {
		resp := doJSON(r, http.MethodPost, "/api/v1/documents", gin.H{"kind": "resume", "title": title})
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := doJSON(r, http.MethodGet, "/api/v1/documents?limit=2&offset=0", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var page struct {
		Documents []SummaryResponse `json:"documents"`
		Limit     int               `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Documents, 2)
	require.Equal(t, "C", page.Documents[0].Title)
	require.Equal(t, 2, page.Limit)
}
