package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"resume-builder/internal/authlimit"
	sharedauth "resume-builder/internal/shared/auth"
	"resume-builder/internal/users"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *sharedauth.Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	signer, err := sharedauth.NewSigner("test-secret", time.Hour, false)
	require.NoError(t, err)
	usersSvc := users.NewService(users.NewMemoryRepo(), sharedauth.NewPasswordHasher(bcrypt.MinCost))
	r := gin.New()
	NewHandler(usersSvc, signer, authlimit.NewLimiter(authlimit.NewMemoryStore())).RegisterRoutes(r.Group("/api/v1"))
	return r, signer
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.1.1.1:5000"
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestSignUpIssuesTokenWithPlan(t *testing.T) {
	r, signer := newAuthRouter(t)

	resp := postJSON(r, "/api/v1/auth/signup", gin.H{"email": "jane@example.com", "password": "longenough", "fullName": "Jane"})
	require.Equal(t, http.StatusCreated, resp.Code)
	var body struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotContains(t, body.User, "passwordHash")
	require.Equal(t, "free", body.User["plan"])

	claims, err := signer.Verify(body.Token)
	require.NoError(t, err)
	require.Equal(t, body.User["id"], claims.UserID())
	require.Equal(t, "free", claims.Plan)

	resp = postJSON(r, "/api/v1/auth/signup", gin.H{"email": "JANE@example.com", "password": "longenough"})
	require.Equal(t, http.StatusConflict, resp.Code)

	resp = postJSON(r, "/api/v1/auth/signup", gin.H{"email": "x@example.com", "password": "short"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSignInRateLimitsRepeatedFailures(t *testing.T) {
	r, _ := newAuthRouter(t)
	resp := postJSON(r, "/api/v1/auth/signup", gin.H{"email": "jane@example.com", "password": "longenough"})
	require.Equal(t, http.StatusCreated, resp.Code)

	for i := 0; i < authlimit.DefaultMaxFailures; i++ {
		resp = postJSON(r, "/api/v1/auth/signin", gin.H{"email": "jane@example.com", "password": "wrong-password"})
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	}

	// Even the right password is refused while the window is open.
	resp = postJSON(r, "/api/v1/auth/signin", gin.H{"email": "jane@example.com", "password": "longenough"})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	require.NotEmpty(t, resp.Header().Get("Retry-After"))
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Equal(t, "rate_limited", envelope.Error.Code)
}

func TestSignInSuccessResetsEmailCounter(t *testing.T) {
	r, _ := newAuthRouter(t)
	postJSON(r, "/api/v1/auth/signup", gin.H{"email": "jane@example.com", "password": "longenough"})

	for i := 0; i < authlimit.DefaultMaxFailures-1; i++ {
		postJSON(r, "/api/v1/auth/signin", gin.H{"email": "jane@example.com", "password": "nope-nope"})
	}
	resp := postJSON(r, "/api/v1/auth/signin", gin.H{"email": "jane@example.com", "password": "longenough"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = postJSON(r, "/api/v1/auth/signin", gin.H{"email": "jane@example.com", "password": "nope-nope"})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSignOut(t *testing.T) {
	r, _ := newAuthRouter(t)
	resp := postJSON(r, "/api/v1/auth/signout", nil)
	require.Equal(t, http.StatusNoContent, resp.Code)
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("https://app.example.com/callback?x=1", "abc")
	require.NoError(t, err)
	require.Equal(t, "https://app.example.com/callback?token=abc&x=1", got)

	_, err = appendToken("", "abc")
	require.Error(t, err)
}

func newGoogleRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	signer, err := sharedauth.NewSigner("test-secret", time.Hour, false)
	require.NoError(t, err)
	usersSvc := users.NewService(users.NewMemoryRepo(), sharedauth.NewPasswordHasher(bcrypt.MinCost))
	svc := NewGoogleService("client", "secret", "https://api.example.com/api/v1/auth/google/callback", "https://app.example.com/done", usersSvc, signer)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestGoogleStartSetsStateCookieAndPKCE(t *testing.T) {
	r := newGoogleRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))

	require.Equal(t, http.StatusFound, resp.Code)
	location, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "S256", location.Query().Get("code_challenge_method"))
	require.NotEmpty(t, location.Query().Get("code_challenge"))

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, stateCookieName, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.True(t, cookies[0].Secure)
	require.True(t, strings.HasPrefix(cookies[0].Value, location.Query().Get("state")+"."))
}

func TestGoogleCallbackRejectsMismatchedState(t *testing.T) {
	r := newGoogleRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=forged&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "expected.verifier"})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=expected&code=abc", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
