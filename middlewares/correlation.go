package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/shop_console/utils"
)

const CorrelationHeader = "x-correlation-id"

// CorrelationId generates one id per request, reusing the caller's header when set.
func CorrelationId() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(CorrelationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header(CorrelationHeader, cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}
