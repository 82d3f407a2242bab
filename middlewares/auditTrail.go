package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/models"
	"gorm.io/gorm"
)

// AuditTrail records every successful mutating request. A nil db turns it off.
func AuditTrail(db func() *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions || c.Request.Method == http.MethodHead {
			return
		}
		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			return
		}
		conn := db()
		if conn == nil {
			return
		}
		refType, refId := auditReference(c.FullPath(), c.Param("id"))
		entry := &models.AuditLog{
			ActionType:    c.Request.Method,
			Path:          c.Request.URL.Path,
			ReferenceType: refType,
			ReferenceId:   refId,
			Status:        status,
		}
		if err := models.SaveAuditLog(c.Request.Context(), conn, entry); err != nil {
			config.LogError(config.GetLogger(), "AuditTrail", "SaveAuditLog", c.Request.URL.Path, entry, err)
		}
	}
}

// auditReference takes the first path segment after /api as the reference type.
func auditReference(route, id string) (string, string) {
	route = strings.TrimPrefix(route, "/api")
	route = strings.Trim(route, "/")
	if route == "" {
		return "", id
	}
	refType, _, _ := strings.Cut(route, "/")
	return refType, id
}
