package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"homease-backend/internal/middleware"
	"homease-backend/internal/models"
	"homease-backend/internal/supabase"
)

type fakeProfiles struct {
	profiles map[uuid.UUID]*models.Profile
	lookups  int
}

func (f *fakeProfiles) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.lookups++
	p, ok := f.profiles[id]
	if !ok {
		return nil, errors.New("profile not found")
	}
	return p, nil
}

type fakeSessions struct {
	tokens     []string
	refreshed  *supabase.Session
	refreshErr error
	refreshes  []string
}

func (f *fakeSessions) SignOut(token string) {
	f.tokens = append(f.tokens, token)
}

func (f *fakeSessions) Refresh(_ context.Context, refreshToken string) (*supabase.Session, error) {
	f.refreshes = append(f.refreshes, refreshToken)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshed, nil
}

func accessRouter(profiles *fakeProfiles, sessions *fakeSessions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.AccessMiddleware(testConfig(), profiles, sessions, zap.NewNop()))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "page:"+middleware.CurrentRole(c)) }
	for _, path := range []string{
		"/", "/login", "/signup", "/auth/callback", "/dashboard", "/logout",
		"/homeowner/dashboard", "/homeowner/projects/1", "/homeowners",
		"/contractor/dashboard", "/contractor/leads", "/admin/dashboard", "/api/v1/leads",
	} {
		router.GET(path, ok)
	}
	return router
}

func get(t *testing.T, router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: token})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAccess_Anonymous(t *testing.T) {
	router := accessRouter(&fakeProfiles{}, &fakeSessions{})

	for _, path := range []string{"/", "/login", "/signup", "/auth/callback"} {
		assert.Equal(t, http.StatusOK, get(t, router, path, "").Code, path)
	}
	for _, path := range []string{"/dashboard", "/homeowner/dashboard", "/admin/dashboard"} {
		w := get(t, router, path, "")
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}
}

func TestAccess_RoleTable(t *testing.T) {
	homeowner, contractor, admin := uuid.New(), uuid.New(), uuid.New()
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{
		homeowner:  {ID: homeowner, Role: models.RoleHomeowner},
		contractor: {ID: contractor, Role: models.RoleContractor},
		admin:      {ID: admin, Role: models.RoleAdmin},
	}}
	router := accessRouter(profiles, &fakeSessions{})

	tests := []struct {
		user     uuid.UUID
		path     string
		redirect string
	}{
		{homeowner, "/homeowner/dashboard", ""},
		{homeowner, "/homeowner/projects/1", ""},
		{homeowner, "/api/v1/leads", ""},
		{homeowner, "/logout", ""},
		{homeowner, "/contractor/leads", "/homeowner/dashboard"},
		{homeowner, "/admin/dashboard", "/homeowner/dashboard"},
		{homeowner, "/homeowners", "/homeowner/dashboard"},
		{homeowner, "/dashboard", "/homeowner/dashboard"},
		{homeowner, "/login", "/homeowner/dashboard"},
		{contractor, "/contractor/leads", ""},
		{contractor, "/homeowner/dashboard", "/contractor/dashboard"},
		{contractor, "/signup", "/contractor/dashboard"},
		{admin, "/homeowner/dashboard", ""},
		{admin, "/contractor/leads", ""},
		{admin, "/dashboard", "/admin/dashboard"},
	}
	for _, tt := range tests {
		w := get(t, router, tt.path, signToken(t, tt.user.String(), time.Now().Add(time.Hour)))
		if tt.redirect == "" {
			assert.Equal(t, http.StatusOK, w.Code, tt.path)
			continue
		}
		assert.Equal(t, http.StatusFound, w.Code, tt.path)
		assert.Equal(t, tt.redirect, w.Header().Get("Location"), tt.path)
	}
}

func TestAccess_RoleLookedUpPerRequest(t *testing.T) {
	user := uuid.New()
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{user: {ID: user, Role: models.RoleHomeowner}}}
	router := accessRouter(profiles, &fakeSessions{})
	token := signToken(t, user.String(), time.Now().Add(time.Hour))

	assert.Equal(t, "page:HOMEOWNER", get(t, router, "/homeowner/dashboard", token).Body.String())
	profiles.profiles[user].Role = models.RoleContractor
	w := get(t, router, "/homeowner/dashboard", token)

	assert.Equal(t, "/contractor/dashboard", w.Header().Get("Location"))
	assert.Equal(t, 2, profiles.lookups)
}

func TestAccess_MissingProfileSignsOut(t *testing.T) {
	sessions := &fakeSessions{}
	router := accessRouter(&fakeProfiles{profiles: map[uuid.UUID]*models.Profile{}}, sessions)
	token := signToken(t, uuid.NewString(), time.Now().Add(time.Hour))

	w := get(t, router, "/homeowner/dashboard", token)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?message=Profile+information+missing", w.Header().Get("Location"))
	assert.Equal(t, []string{token}, sessions.tokens)

	var cleared bool
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.AccessTokenCookie && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestAccess_UnknownRoleSignsOut(t *testing.T) {
	user := uuid.New()
	sessions := &fakeSessions{}
	router := accessRouter(&fakeProfiles{profiles: map[uuid.UUID]*models.Profile{user: {ID: user, Role: "GUEST"}}}, sessions)
	token := signToken(t, user.String(), time.Now().Add(time.Hour))

	w := get(t, router, "/homeowner/dashboard", token)

	assert.Equal(t, "/login?message=Profile+information+missing", w.Header().Get("Location"))
	assert.Equal(t, []string{token}, sessions.tokens)
}

func cookieValue(w *httptest.ResponseRecorder, name string) (string, bool) {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie.Value, true
		}
	}
	return "", false
}

func withRefreshCookie(path, accessToken, refreshToken string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accessToken != "" {
		req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: accessToken})
	}
	req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: refreshToken})
	return req
}

func TestAccess_RefreshesExpiredSession(t *testing.T) {
	user := uuid.New()
	fresh := signToken(t, user.String(), time.Now().Add(time.Hour))
	sessions := &fakeSessions{refreshed: &supabase.Session{AccessToken: fresh, RefreshToken: "rt-2", ExpiresIn: 3600}}
	router := accessRouter(&fakeProfiles{profiles: map[uuid.UUID]*models.Profile{user: {ID: user, Role: models.RoleHomeowner}}}, sessions)

	for _, expired := range []string{signToken(t, user.String(), time.Now().Add(-time.Minute)), ""} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withRefreshCookie("/homeowner/dashboard", expired, "rt-1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "page:HOMEOWNER", w.Body.String())
		access, _ := cookieValue(w, middleware.AccessTokenCookie)
		assert.Equal(t, fresh, access)
		refresh, _ := cookieValue(w, middleware.RefreshTokenCookie)
		assert.Equal(t, "rt-2", refresh)
	}
	assert.Equal(t, []string{"rt-1", "rt-1"}, sessions.refreshes)
}

func TestAccess_RejectedRefreshGoesToLogin(t *testing.T) {
	sessions := &fakeSessions{refreshErr: errors.New("refresh token revoked")}
	router := accessRouter(&fakeProfiles{}, sessions)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, withRefreshCookie("/homeowner/dashboard", "", "rt-old"))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	refresh, ok := cookieValue(w, middleware.RefreshTokenCookie)
	assert.True(t, ok)
	assert.Empty(t, refresh)
}

func TestRequireRole(t *testing.T) {
	contractor, homeowner, admin := uuid.New(), uuid.New(), uuid.New()
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{
		contractor: {ID: contractor, Role: models.RoleContractor},
		homeowner:  {ID: homeowner, Role: models.RoleHomeowner},
		admin:      {ID: admin, Role: models.RoleAdmin},
	}}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.AuthMiddleware(testConfig()))
	router.POST("/leads/checkout", middleware.RequireRole(profiles, models.RoleContractor), func(c *gin.Context) {
		c.String(http.StatusOK, middleware.CurrentRole(c))
	})

	call := func(user uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/leads/checkout", strings.NewReader(""))
		req.Header.Set("Authorization", "Bearer "+signToken(t, user.String(), time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call(contractor).Code)
	assert.Equal(t, http.StatusOK, call(admin).Code)
	assert.Equal(t, http.StatusForbidden, call(homeowner).Code)
	assert.Equal(t, http.StatusUnauthorized, call(uuid.New()).Code)
}

func TestDashboardFor(t *testing.T) {
	assert.Equal(t, "/homeowner/dashboard", middleware.DashboardFor(models.RoleHomeowner))
	assert.Equal(t, "/contractor/dashboard", middleware.DashboardFor(models.RoleContractor))
	assert.Equal(t, "/admin/dashboard", middleware.DashboardFor(models.RoleAdmin))
	assert.Equal(t, "/login", middleware.DashboardFor("GUEST"))
}
