package server

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/pathway/internal/orgcontext"
	"github.com/smallbiznis/pathway/internal/ratelimit"
)

type writeLimiter interface {
	Allow(ctx context.Context, orgID string) (*ratelimit.Result, error)
}

// WriteRateLimit throttles mutating requests per organization. Reads pass
// through untouched.
func (s *Server) WriteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || isReadMethod(c.Request.Method) {
			c.Next()
			return
		}
		orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		res, err := s.limiter.Allow(c.Request.Context(), orgID.String())
		if err != nil || res == nil {
			c.Next()
			return
		}
		if res.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
		}
		if !res.Allowed {
			seconds := int(math.Ceil(res.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
