package httpmiddleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"docsearch/backend/go/internal/models"
	"docsearch/backend/go/pkg/logger"
	"docsearch/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RateLimitMessage is the error text returned with a 429 response.
const RateLimitMessage = "Rate limit exceeded. Please wait before retrying."

// RateLimit returns a gin middleware that limits requests per client IP.
// A nil limiter lets every request through.
func RateLimit(limiter *ratelimiter.Keyed) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		ok, wait := limiter.Allow(c.ClientIP())
		if ok {
			c.Next()
			return
		}

		retryAfter := retryAfterSeconds(wait)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       RateLimitMessage,
			"retry_after": retryAfter,
		})
	}
}

// retryAfterSeconds rounds wait up to whole seconds, at least one.
func retryAfterSeconds(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// RequestLogger returns a gin middleware that writes one structured log
// line per request once the handler chain has finished.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		req := models.RequestInfo{
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Query:     c.Request.URL.RawQuery,
			ClientIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Status:    c.Writer.Status(),
			LatencyMS: time.Since(start).Milliseconds(),
			BodyBytes: c.Writer.Size(),
		}
		entry := log.WithRequest(req)
		if len(c.Errors) > 0 {
			entry = entry.WithError(models.ErrorInfo{Message: c.Errors.String(), StatusCode: req.Status})
		}

		switch {
		case req.Status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case req.Status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}
