package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxCallerID = "caller_id"

	// HeaderAuthUser carries the caller identity when AUTH_MODE=header.
	HeaderAuthUser = "X-Auth-User"
)

// CallerID extracts the caller identity from the Gin context.
// It is set by HeaderIdentity or by middleware.FirebaseAuthMiddleware.
func CallerID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxCallerID))
}

// HeaderIdentity takes the caller identity from the X-Auth-User header
// without verifying it. Signature checks happen in front of this service.
func HeaderIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(HeaderAuthUser)); uid != "" {
			c.Set(CtxCallerID, uid)
		}
		c.Next()
	}
}
