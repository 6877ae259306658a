package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// WithResponseMeta attaches a metadata map to the request context and stamps
// the processing time on the response. Handlers append to the map through
// ExtractMeta; the envelope carries whatever accumulated.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		c.Writer.Header().Set("X-Response-Time-Ms", strconv.FormatInt(elapsed.Milliseconds(), 10))
	}
}

// SetCacheHit marks whether the response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if meta := ExtractMeta(c); meta != nil {
		meta["cache_hit"] = hit
	}
}

// ExtractMeta returns the per-request metadata map, or nil when the
// middleware is not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, _ := c.Value(responseMetaKey).(map[string]interface{})
	return meta
}
