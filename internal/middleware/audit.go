package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/kkn-placement-api/internal/models"
)

// mutatingMethods lists HTTP methods recorded by the audit trail middleware.
var mutatingMethods = map[string]bool{
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// AuditTrail records successful mutating requests with the acting identity.
// Domain-level audit entries live in the registration and report services;
// this layer only captures the HTTP surface for operational forensics.
func AuditTrail(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutatingMethods[c.Request.Method] {
			c.Next()
			return
		}

		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		actorID := ""
		role := ""
		if claims, ok := c.Get(ContextUserKey); ok {
			if actor, ok := claims.(*models.ActorClaims); ok {
				actorID = actor.ActorID
				role = string(actor.Role)
			}
		}

		logger.Info("mutation",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.String("actor_id", actorID),
			zap.String("role", role),
			zap.String("ip", c.ClientIP()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		)
	}
}
