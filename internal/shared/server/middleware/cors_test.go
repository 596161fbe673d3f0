package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.PATCH("/api/v1/documents/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestCORSPreflightForDocumentUpdate(t *testing.T) {
	r := corsRouter("https://app.example.com", " ")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/documents/abc", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, X-Guest-Id")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, "https://app.example.com", resp.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	require.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSExposesOperationalHeaders(t *testing.T) {
	r := corsRouter("https://app.example.com")

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/documents/abc", nil)
	req.Header.Set("Origin", "https://app.example.com")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	exposed := resp.Header().Get("Access-Control-Expose-Headers")
	require.Contains(t, exposed, "Retry-After")
	require.Contains(t, exposed, "Location")
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	r := corsRouter("https://app.example.com")

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/documents/abc", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusForbidden, resp.Code)
	require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDefaultsToLocalDevOrigin(t *testing.T) {
	r := corsRouter()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/documents/abc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "http://localhost:5173", resp.Header().Get("Access-Control-Allow-Origin"))
}
