package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"homease-backend/internal/config"
	"homease-backend/internal/models"
	"homease-backend/internal/supabase"
)

// ProfileLookup resolves the role of a signed-in user. It is called on every
// request; roles are never cached between requests.
type ProfileLookup interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// SessionManager renews and ends hosted sessions. SignOut failures are the
// implementation's concern.
type SessionManager interface {
	Refresh(ctx context.Context, refreshToken string) (*supabase.Session, error)
	SignOut(accessToken string)
}

type roleAccess struct {
	dashboard string
	allowed   []string
}

var roleTable = map[string]roleAccess{
	models.RoleHomeowner:  {dashboard: "/homeowner/dashboard", allowed: []string{"/homeowner", "/api", "/logout"}},
	models.RoleContractor: {dashboard: "/contractor/dashboard", allowed: []string{"/contractor", "/api", "/logout"}},
	models.RoleAdmin:      {dashboard: "/admin/dashboard"},
}

var publicPaths = []string{"/", "/login", "/signup", "/auth/callback"}

const loginPath = "/login"

var profileMissingRedirect = LoginRedirect("Profile information missing")

// DashboardFor returns the landing page of a role.
func DashboardFor(role string) string {
	if access, ok := roleTable[role]; ok {
		return access.dashboard
	}
	return loginPath
}

// Allowed reports whether role may open path. Admins may open everything.
func Allowed(role, path string) bool {
	access, ok := roleTable[role]
	if !ok {
		return false
	}
	if access.allowed == nil {
		return true
	}
	for _, prefix := range access.allowed {
		if hasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isPublic(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return hasPathPrefix(path, "/auth/oauth")
}

// LoginRedirect builds the login URL carrying a user-facing message.
func LoginRedirect(message string) string {
	return loginPath + "?message=" + url.QueryEscape(message)
}

// AccessMiddleware guards page routes. It redirects instead of returning
// error bodies: anonymous users go to /login, users whose profile cannot be
// loaded are signed out, and users outside their role's allow-list land on
// their dashboard. An expired cookie session is renewed from the refresh
// cookie before any of that.
func AccessMiddleware(cfg *config.Config, profiles ProfileLookup, sessions SessionManager, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("access")

	signOut := func(c *gin.Context, tokenString string) {
		if sessions != nil {
			sessions.SignOut(tokenString)
		}
		ClearSessionCookies(c)
		c.Redirect(http.StatusFound, profileMissingRedirect)
		c.Abort()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		tokenString, err := TokenFromRequest(c)
		var userID uuid.UUID
		if err == nil {
			userID, err = ParseUserID(cfg.SupabaseJWTSecret, tokenString)
		}
		if err != nil && sessions != nil && c.GetHeader("Authorization") == "" {
			if refreshed, ok := refreshSession(c, cfg, sessions, logger); ok {
				tokenString = refreshed.AccessToken
				userID, err = refreshed.UserID, nil
			}
		}
		signedIn := err == nil

		if !signedIn {
			if isPublic(path) {
				c.Next()
				return
			}
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		if isPublic(path) && path != "/login" && path != "/signup" {
			c.Set(UserIDKey, userID.String())
			c.Set(AccessTokenKey, tokenString)
			c.Next()
			return
		}

		profile, err := profiles.GetProfile(c.Request.Context(), userID)
		if err != nil || profile == nil {
			logger.Warn("profile lookup failed, signing out",
				zap.String("user_id", userID.String()),
				zap.String("path", path),
				zap.Error(err),
			)
			signOut(c, tokenString)
			return
		}

		if _, known := roleTable[profile.Role]; !known {
			logger.Warn("unknown role", zap.String("user_id", userID.String()), zap.String("role", profile.Role))
			signOut(c, tokenString)
			return
		}

		dashboard := DashboardFor(profile.Role)
		if path == "/login" || path == "/signup" || path == "/dashboard" || !Allowed(profile.Role, path) {
			c.Redirect(http.StatusFound, dashboard)
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID.String())
		c.Set(RoleKey, profile.Role)
		c.Set(AccessTokenKey, tokenString)
		c.Next()
	}
}

// refreshSession renews the session from the refresh cookie and writes the
// new cookies. A rejected refresh token is cleared.
func refreshSession(c *gin.Context, cfg *config.Config, sessions SessionManager, logger *zap.Logger) (*supabase.Session, bool) {
	refreshToken, err := c.Cookie(RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		return nil, false
	}

	session, err := sessions.Refresh(c.Request.Context(), refreshToken)
	if err == nil {
		var userID uuid.UUID
		userID, err = ParseUserID(cfg.SupabaseJWTSecret, session.AccessToken)
		session.UserID = userID
	}
	if err != nil {
		logger.Info("session refresh failed", zap.Error(err))
		ClearSessionCookies(c)
		return nil, false
	}

	SetSession(c, session, cfg.IsProduction())
	return session, true
}

// RequireRole loads the caller's role for an API request and rejects roles
// outside the given set. It runs after AuthMiddleware.
func RequireRole(profiles ProfileLookup, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
			return
		}

		profile, err := profiles.GetProfile(c.Request.Context(), userID)
		if err != nil || profile == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: "Profile information missing",
			})
			return
		}
		c.Set(RoleKey, profile.Role)

		if len(roles) == 0 || profile.Role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, role := range roles {
			if profile.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "forbidden", Message: "role " + profile.Role + " may not access this resource"})
	}
}
