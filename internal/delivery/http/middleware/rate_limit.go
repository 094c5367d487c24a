package middleware

import (
	"strconv"
	"time"

	"contact-relay/pkg/apperror"
	"contact-relay/pkg/ratelimit"
	"contact-relay/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	MsgRateLimited        = "Too many requests, please try again later."
	MsgRateLimiterOffline = "Rate limiter unavailable."
)

// ContactRateLimit counts every request against the client identity before the
// body is read. Store failures reject the request (fail closed).
func ContactRateLimit(limiter *ratelimit.Limiter, secLog *security.SecurityLogger) gin.HandlerFunc {
	if secLog == nil {
		secLog = security.NopSecurityLogger()
	}
	limit := strconv.Itoa(limiter.Config().Limit)

	return func(c *gin.Context) {
		identity := ClientIdentity(c.Request)

		decision, err := limiter.Allow(c.Request.Context(), identity)
		if err != nil {
			secLog.Log(c.Request.Context(), security.SecurityEvent{
				Event:       security.EventRateLimiterUnavailable,
				SubjectType: "system",
				IP:          identity,
				RequestID:   c.GetString("RequestID"),
				Details:     map[string]interface{}{"error": err.Error()},
			})
			c.Error(apperror.ServiceUnavailable(MsgRateLimiterOffline, err))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", decision.ResetAt.UTC().Format(time.RFC3339))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			secLog.LogRateLimitTriggered(c.Request.Context(), identity, c.GetHeader("User-Agent"),
				c.GetString("RequestID"), c.FullPath(), decision.Count)

			c.Error(apperror.TooManyRequests(MsgRateLimited))
			c.Abort()
			return
		}

		c.Next()
	}
}
