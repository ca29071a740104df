package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/auditctx"
)

// AuditContext records the client address and user agent on the request
// context so services can attach them to audit entries.
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auditctx.Merge(c.Request.Context(), auditctx.Actor{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
