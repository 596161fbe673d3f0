package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"resume-builder/internal/shared/auth"
)

const testGuestID = "6f1c1c1e-8f57-4d7b-9d8e-3f3f6f0c2a11"

func testSigner(t *testing.T) *auth.Signer {
	t.Helper()
	signer, err := auth.NewSigner("test-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return signer
}

func identityRouter(t *testing.T, signer *auth.Signer, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(signer, "/api/v1/health"))
	handlers := append(extra, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserIDFromContext(c), "guest": IsGuest(c), "plan": UserPlanFromContext(c)})
	})
	router.GET("/api/v1/whoami", handlers...)
	router.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(testSigner(t)))
	router.OPTIONS("/api/v1/documents/current", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/documents/current", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	signer := testSigner(t)
	token, err := signer.Sign(auth.Claims{Plan: "pro", RegisteredClaims: jwt.RegisteredClaims{Subject: "user-42"}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	identityRouter(t, signer).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != `{"guest":false,"plan":"pro","userId":"user-42"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	router := identityRouter(t, testSigner(t))
	for _, header := range []string{"Bearer nope", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set("Authorization", header)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, resp.Code)
		}
	}
}

func TestAuthGuestHeader(t *testing.T) {
	router := identityRouter(t, testSigner(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("X-Guest-Id", testGuestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != `{"guest":true,"plan":"","userId":"guest:`+testGuestID+`"}` {
		t.Fatalf("unexpected body %s", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("X-Guest-Id", "not-a-uuid")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed guest id, got %d", resp.Code)
	}
}

func TestAuthPublicPrefixSkipsIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	identityRouter(t, testSigner(t)).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestRequireUserRejectsGuests(t *testing.T) {
	router := identityRouter(t, testSigner(t), RequireUser())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("X-Guest-Id", testGuestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
