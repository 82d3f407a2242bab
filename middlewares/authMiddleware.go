package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/utils"
)

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
}

func accessDenied(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "access denied"})
}

// RequireSession rejects anonymous requests.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c.Request.Context()) == nil {
			unauthorized(c)
			return
		}
		c.Next()
	}
}

// RequireCapability admits the request only when the session's flag for
// capability is exactly 1. The denial carries no detail about the module.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c.Request.Context())
		if s == nil {
			unauthorized(c)
			return
		}
		if !s.Has(capability) {
			accessDenied(c)
			return
		}
		c.Next()
	}
}

// RequireAdmin gates staff management on the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c.Request.Context()) == nil {
			unauthorized(c)
			return
		}
		if isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context()); !isAdmin {
			accessDenied(c)
			return
		}
		c.Next()
	}
}
