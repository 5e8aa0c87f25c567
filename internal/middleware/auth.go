package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"homease-backend/internal/config"
	"homease-backend/internal/models"
	"homease-backend/internal/supabase"
)

const (
	UserIDKey      = "user_id"
	RoleKey        = "role"
	AccessTokenKey = "access_token"
)

// Session cookies set by the auth handlers.
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
	CodeVerifierCookie = "sb-code-verifier"
)

var (
	ErrMissingToken = errors.New("missing authorization token")
	ErrInvalidToken = errors.New("invalid token")
)

// TokenFromRequest returns the bearer token of the Authorization header, or
// the session cookie when no header is sent.
func TokenFromRequest(c *gin.Context) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", errors.New("invalid authorization header format")
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			return "", ErrMissingToken
		}
		// Some clients URL-encode the token.
		if decoded, err := url.QueryUnescape(token); err == nil {
			token = decoded
		}
		return token, nil
	}

	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", ErrMissingToken
}

// ParseUserID validates a Supabase HS256 access token and returns its
// subject.
func ParseUserID(secret, tokenString string) (uuid.UUID, error) {
	if secret == "" {
		return uuid.Nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		// Supabase JWT secret is used directly as the signing key
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return uuid.Nil, errors.New("token has expired")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return uuid.Nil, errors.New("token signature is invalid")
		case errors.Is(err, jwt.ErrTokenMalformed):
			return uuid.Nil, errors.New("token is malformed")
		}
		return uuid.Nil, err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, errors.New("missing user id in token")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errors.New("user id in token is not a uuid")
	}
	return userID, nil
}

// AuthMiddleware rejects API requests without a valid Supabase session.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := TokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Message: err.Error()})
			return
		}

		userID, err := ParseUserID(cfg.SupabaseJWTSecret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid token", Message: err.Error()})
			return
		}

		c.Set(UserIDKey, userID.String())
		c.Set(AccessTokenKey, tokenString)
		c.Next()
	}
}

// OptionalAuth records the session user when a valid token is present and
// lets anonymous requests through.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, err := TokenFromRequest(c); err == nil {
			if userID, err := ParseUserID(cfg.SupabaseJWTSecret, tokenString); err == nil {
				c.Set(UserIDKey, userID.String())
				c.Set(AccessTokenKey, tokenString)
			}
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user of the request.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	id := c.GetString(UserIDKey)
	if id == "" {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func CurrentRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}

// SetSession writes the cookies of a hosted session.
func SetSession(c *gin.Context, s *supabase.Session, secure bool) {
	maxAge := s.ExpiresIn
	if maxAge <= 0 {
		maxAge = 3600
	}
	SetSessionCookies(c, s.AccessToken, s.RefreshToken, maxAge, secure)
}

func SetSessionCookies(c *gin.Context, accessToken, refreshToken string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, accessToken, maxAge, "/", "", secure, true)
	if refreshToken != "" {
		c.SetCookie(RefreshTokenCookie, refreshToken, 60*60*24*30, "/", "", secure, true)
	}
}

func ClearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", false, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", false, true)
}
