package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"homease-backend/internal/middleware"
)

func TestFrameRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/frame", middleware.FrameRateLimit(middleware.NewFrameLimiter(2)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/frame", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestNewFrameLimiter_MinimumBurst(t *testing.T) {
	assert.Equal(t, 1, middleware.NewFrameLimiter(0.5).Burst())
	assert.Equal(t, 3, middleware.NewFrameLimiter(2.5).Burst())
}
