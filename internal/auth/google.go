package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"resume-builder/internal/shared/apperr"
	sharedauth "resume-builder/internal/shared/auth"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/users"
)

const (
	userInfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateCookieName = "rb_oauth_state"
	stateCookiePath = "/api/v1/auth/google"
)

// GoogleService runs the Google authorization-code flow with PKCE. The state
// and verifier ride in a short-lived HttpOnly cookie, so any instance can
// finish a flow another instance started.
type GoogleService struct {
	oauthConfig *oauth2.Config
	uiRedirect  string
	stateTTL    time.Duration
	users       *users.Service
	signer      *sharedauth.Signer
	userInfoURL string
}

func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, usersSvc *users.Service, signer *sharedauth.Signer) *GoogleService {
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		uiRedirect:  uiRedirect,
		stateTTL:    5 * time.Minute,
		users:       usersSvc,
		signer:      signer,
		userInfoURL: userInfoURL,
	}
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	return s.oauthConfig.ClientID != "" && s.oauthConfig.ClientSecret != "" && s.oauthConfig.RedirectURL != ""
}

func (s *GoogleService) secureCookie() bool {
	return strings.HasPrefix(s.oauthConfig.RedirectURL, "https://")
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusServiceUnavailable, "auth_not_configured", "Google sign-in is not configured", nil)
		return
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state+"."+verifier, int(s.stateTTL.Seconds()), stateCookiePath, "", s.secureCookie(), true)

	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier)))
}

func (s *GoogleService) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.FromError(c, apperr.Validation("missing state or code"))
		return
	}
	verifier, ok := s.consumeState(c, state)
	if !ok {
		respond.FromError(c, apperr.Validation("invalid or expired state"))
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		telemetry.Warn("auth.google_exchange_failed", map[string]any{"error": err.Error()})
		respond.FromError(c, apperr.Validation("failed to exchange code"))
		return
	}

	info, err := s.fetchUserInfo(ctx, token)
	if err != nil || info.Sub == "" || info.Email == "" {
		telemetry.Warn("auth.google_profile_failed", map[string]any{"error": fmt.Sprint(err)})
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}

	user, err := s.users.UpsertFromGoogle(ctx, info.Sub, info.Email, info.Name, info.Picture)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	jwt, err := IssueToken(s.signer, user)
	if err != nil {
		respond.FromError(c, err)
		return
	}

	redirectURL, err := appendToken(s.uiRedirect, jwt)
	if err != nil {
		respond.FromError(c, apperr.Internal(err))
		return
	}
	telemetry.Info("auth.signin", map[string]any{"user_id": user.ID, "provider": users.ProviderGoogle})
	c.Redirect(http.StatusFound, redirectURL)
}

// consumeState clears the flow cookie and returns its verifier when the state matches.
func (s *GoogleService) consumeState(c *gin.Context, state string) (string, bool) {
	raw, err := c.Cookie(stateCookieName)
	c.SetCookie(stateCookieName, "", -1, stateCookiePath, "", s.secureCookie(), true)
	if err != nil {
		return "", false
	}
	want, verifier, found := strings.Cut(raw, ".")
	if !found || verifier == "" {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(state)) != 1 {
		return "", false
	}
	return verifier, true
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *GoogleService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}
	// The v2 endpoint reports the subject as "id".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	return info, nil
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
