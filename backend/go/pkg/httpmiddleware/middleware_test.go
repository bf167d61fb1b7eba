package httpmiddleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docsearch/backend/go/pkg/logger"
	"docsearch/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(t *testing.T, limit int) *gin.Engine {
	t.Helper()
	keyed, err := ratelimiter.NewKeyed(func() ratelimiter.RateLimiter {
		return ratelimiter.NewSlidingWindowLog(limit, time.Minute)
	}, 100, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/limited", RateLimit(keyed), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	r := newLimitedRouter(t, 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/limited", "10.0.0.1:1234").Code)
	}

	w := get(r, "/limited", "10.0.0.1:1234")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, RateLimitMessage, body["error"])
	assert.EqualValues(t, 60, body["retry_after"])

	// A different client is unaffected.
	assert.Equal(t, http.StatusOK, get(r, "/limited", "10.0.0.2:1234").Code)
}

func TestRateLimit_NilLimiter(t *testing.T) {
	r := gin.New()
	r.GET("/open", RateLimit(nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/open", "10.0.0.1:1").Code)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 2, retryAfterSeconds(1500*time.Millisecond))
	assert.Equal(t, 60, retryAfterSeconds(time.Minute))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logrus.InfoLevel, &buf)
	defer logger.Init(logrus.InfoLevel, nil)

	r := gin.New()
	r.Use(RequestLogger(logger.New("test")))
	r.GET("/missing", func(c *gin.Context) { c.JSON(http.StatusBadRequest, gin.H{"error": "nope"}) })

	get(r, "/missing?q=x", "10.0.0.9:5555")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request rejected", entry["message"])
	assert.Equal(t, "warning", entry["level"])

	req, ok := entry["request_info"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/missing", req["path"])
	assert.Equal(t, "q=x", req["query"])
	assert.EqualValues(t, http.StatusBadRequest, req["status"])
	assert.Equal(t, "10.0.0.9", req["client_ip"])
}
