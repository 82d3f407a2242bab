package middlewares

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/session"
	"github.com/mmdatafocus/shop_console/utils"
)

type ctxKey string

const sessionKey = ctxKey("session")

// SessionMiddleware restores the session named by a bearer token. Requests
// without a token pass through unauthenticated; a bad token is rejected.
func SessionMiddleware(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := strings.TrimSpace(c.Request.Header.Get("Authorization"))
		if auth == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			unauthorized(c)
			return
		}

		s, err := m.FromToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			unauthorized(c)
			return
		}
		c.Request = c.Request.WithContext(WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// WithSession attaches s and its user fields to ctx.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey, s)
	ctx = utils.SetTokenInContext(ctx, s.Token)
	ctx = utils.SetSessionIdInContext(ctx, s.ID)
	ctx = utils.SetUserIdInContext(ctx, int(s.User.ID))
	ctx = utils.SetUserNameInContext(ctx, s.User.Name)
	ctx = utils.SetIsAdminInContext(ctx, s.IsAdmin())
	return ctx
}

// CurrentSession returns the session restored for this request, or nil.
func CurrentSession(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}
