package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/authlimit"
	sharedauth "resume-builder/internal/shared/auth"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/users"
)

// Handler serves password sign-up, sign-in and sign-out.
type Handler struct {
	Users   *users.Service
	Signer  *sharedauth.Signer
	Limiter *authlimit.Limiter
}

func NewHandler(usersSvc *users.Service, signer *sharedauth.Signer, limiter *authlimit.Limiter) *Handler {
	return &Handler{Users: usersSvc, Signer: signer, Limiter: limiter}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", h.signUp)
	rg.POST("/auth/signin", h.signIn)
	rg.POST("/auth/signout", h.signOut)
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"max=200"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token string     `json:"token"`
	User  users.User `json:"user"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	user, err := h.Users.Register(c.Request.Context(), users.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	token, err := IssueToken(h.Signer, user)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	telemetry.Info("auth.signup", map[string]any{"user_id": user.ID})
	respond.JSON(c, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	emailKey := authlimit.EmailKey(req.Email)
	ipKey := authlimit.IPKey(c.ClientIP())
	if err := h.Limiter.Check(ctx, emailKey, ipKey); err != nil {
		respond.FromError(c, err)
		return
	}

	user, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			if ferr := h.Limiter.Fail(ctx, emailKey, ipKey); ferr != nil {
				telemetry.Error("auth.limiter_record_failed", map[string]any{"error": ferr.Error()})
			}
		}
		respond.FromError(c, err)
		return
	}
	if err := h.Limiter.Succeed(ctx, emailKey); err != nil {
		telemetry.Warn("auth.limiter_reset_failed", map[string]any{"error": err.Error()})
	}

	token, err := IssueToken(h.Signer, user)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	telemetry.Info("auth.signin", map[string]any{"user_id": user.ID, "provider": user.Provider})
	respond.JSON(c, http.StatusOK, sessionResponse{Token: token, User: user})
}

// Tokens are stateless; clients drop theirs.
func (h *Handler) signOut(c *gin.Context) {
	respond.NoContent(c)
}

// IssueToken signs a session token carrying the user's profile and plan.
func IssueToken(signer *sharedauth.Signer, user users.User) (string, error) {
	claims := sharedauth.Claims{
		Email:   user.Email,
		Name:    user.FullName,
		Picture: user.PictureURL,
		Plan:    user.Plan,
	}
	claims.Subject = user.ID
	return signer.Sign(claims)
}
