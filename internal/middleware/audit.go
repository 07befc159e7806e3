package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

// AuditRecorder accepts audit entries for asynchronous persistence.
type AuditRecorder interface {
	Record(entry models.AuditLog)
}

// Audit records an entry after every successful mutation on the route.
func Audit(recorder AuditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			CreatedAt: start,
		}
		if user, ok := CurrentUser(c); ok {
			entry.UserID = &user.ID
		}
		if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		} else if id := c.GetString(ContextResourceIDKey); id != "" {
			entry.ResourceID = &id
		}

		entry.NewValues, _ = json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		recorder.Record(entry)
	}
}

// ContextResourceIDKey lets create handlers expose the id of the row they wrote.
const ContextResourceIDKey = "auditResourceID"
