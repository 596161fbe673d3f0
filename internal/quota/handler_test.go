package quota

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func usageRouter(svc *Service, guest bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Set("userPlan", "free")
		c.Set("isGuest", guest)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestGetUsage(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Increment(context.Background(), "user-1", 250, 0.0005)
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	usageRouter(svc, false).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body usageResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "free", body.Plan)
	require.Equal(t, 2, body.Limit)
	require.Equal(t, 1, body.OperationCount)
	require.Equal(t, int64(250), body.TokenCount)
	require.Equal(t, 1, body.Remaining)
	require.True(t, body.Allowed)
}

func TestGetUsageRejectsGuests(t *testing.T) {
	svc, _ := newTestService()
	resp := httptest.NewRecorder()
	usageRouter(svc, true).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}
