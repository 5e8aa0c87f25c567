package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"homease-backend/internal/config"
	"homease-backend/internal/middleware"
	"homease-backend/internal/models"
	"homease-backend/internal/services"
	"homease-backend/internal/supabase"
)

const (
	confirmEmailMessage = "Please check your email to confirm your account."
	codeVerifierMaxAge  = 10 * 60
)

// AuthHandler serves the sign-in, sign-up, callback and sign-out flows for
// both the browser forms and the JSON API.
type AuthHandler struct {
	auth   AuthAPI
	cfg    *config.Config
	logger *zap.Logger
}

func NewAuthHandler(auth AuthAPI, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		cfg:    cfg,
		logger: logger.Named("auth_handler"),
	}
}

func (h *AuthHandler) setSession(c *gin.Context, s *supabase.Session) {
	middleware.SetSession(c, s, h.cfg.IsProduction())
}

func signupRedirect(message string) string {
	return "/signup?message=" + url.QueryEscape(message)
}

// Login handles the login form.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusSeeOther, middleware.LoginRedirect("Invalid email or password format"))
		return
	}

	session, _, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("sign in failed", zap.Error(err))
		c.Redirect(http.StatusSeeOther, middleware.LoginRedirect("Could not authenticate user"))
		return
	}

	h.setSession(c, session)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// APILogin returns the session as JSON.
func (h *AuthHandler) APILogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, profile, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid credentials", Message: err.Error()})
		return
	}

	h.setSession(c, session)
	resp := models.SessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		UserID:       session.UserID.String(),
	}
	if profile != nil {
		resp.Role = profile.Role
	}
	c.JSON(http.StatusOK, resp)
}

// Signup handles the signup form.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusSeeOther, signupRedirect("Please provide a valid email, a password of at least 6 characters and a role"))
		return
	}

	result, err := h.auth.SignUp(c.Request.Context(), req)
	if err != nil {
		message := "Failed to create user profile."
		if errors.Is(err, services.ErrAccountExists) {
			message = "An account with this email already exists."
		}
		h.logger.Info("sign up failed", zap.Error(err))
		c.Redirect(http.StatusSeeOther, signupRedirect(message))
		return
	}

	if result.Session == nil {
		c.Redirect(http.StatusSeeOther, middleware.LoginRedirect(confirmEmailMessage))
		return
	}
	h.setSession(c, result.Session)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *AuthHandler) APISignup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.auth.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := models.SessionResponse{UserID: result.UserID.String(), Role: result.Role}
	if result.Session == nil {
		resp.Message = confirmEmailMessage
	} else {
		h.setSession(c, result.Session)
		resp.AccessToken = result.Session.AccessToken
		resp.RefreshToken = result.Session.RefreshToken
		resp.ExpiresIn = result.Session.ExpiresIn
	}
	c.JSON(http.StatusCreated, resp)
}

// OAuthStart sends the browser to an external provider and keeps the PKCE
// verifier in a short-lived cookie for the callback.
func (h *AuthHandler) OAuthStart(c *gin.Context) {
	authURL, verifier, err := h.auth.StartOAuth(c.Param("provider"))
	if err != nil {
		h.logger.Info("provider sign-in not started", zap.String("provider", c.Param("provider")), zap.Error(err))
		c.Redirect(http.StatusSeeOther, middleware.LoginRedirect("Could not log in"))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CodeVerifierCookie, verifier, codeVerifierMaxAge, "/", "", h.cfg.IsProduction(), true)
	c.Redirect(http.StatusSeeOther, authURL)
}

// Callback completes a sign-in. Provider sign-ins arrive with ?code= and
// the verifier cookie; confirmation emails arrive with ?token_hash=&type=.
func (h *AuthHandler) Callback(c *gin.Context) {
	failed := middleware.LoginRedirect("Could not log in")
	ctx := c.Request.Context()

	var session *supabase.Session
	var err error
	switch {
	case c.Query("code") != "":
		verifier, _ := c.Cookie(middleware.CodeVerifierCookie)
		c.SetCookie(middleware.CodeVerifierCookie, "", -1, "/", "", false, true)
		session, err = h.auth.ExchangeCode(ctx, c.Query("code"), verifier)
	case c.Query("token_hash") != "":
		session, err = h.auth.VerifyEmail(ctx, c.Query("token_hash"), c.Query("type"), h.cfg.BaseURL+"/auth/callback")
	default:
		c.Redirect(http.StatusFound, failed)
		return
	}
	if err != nil {
		h.logger.Info("auth callback failed", zap.Error(err))
		c.Redirect(http.StatusFound, failed)
		return
	}

	h.setSession(c, session)
	c.Redirect(http.StatusFound, "/dashboard")
}

// Logout revokes the session and clears the cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := middleware.TokenFromRequest(c); err == nil {
		h.auth.SignOut(token)
	}
	middleware.ClearSessionCookies(c)
	c.Redirect(http.StatusSeeOther, "/login")
}
