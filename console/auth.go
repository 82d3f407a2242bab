package console

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/middlewares"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/session"
	"github.com/mmdatafocus/shop_console/utils"
)

type loginInput struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type profile struct {
	User        models.User        `json:"user"`
	Permissions models.Permissions `json:"permissions"`
	Nav         []models.NavItem   `json:"nav"`
	CanStaff    bool               `json:"can_manage_staff"`
}

func profileOf(s *session.Session) profile {
	return profile{
		User:        s.User,
		Permissions: s.Permissions,
		Nav:         models.NavItems(&s.User, &s.Permissions),
		CanStaff:    models.CanManageStaff(&s.User),
	}
}

func (h *Console) loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input loginInput
		if !bindJSON(c, &input) {
			return
		}
		s, signed, err := h.sessions.Login(c.Request.Context(), input.Phone, input.Password)
		if err != nil {
			config.LogError(h.logger, "Console", "login", input.Phone, nil, err)
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, gin.H{
			"token":   signed,
			"profile": profileOf(s),
		})
	}
}

func (h *Console) logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := utils.GetSessionIdFromContext(c.Request.Context())
		if err := h.sessions.Logout(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, http.StatusOK, "logged out")
	}
}

func (h *Console) meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		respond(c, http.StatusOK, profileOf(middlewares.CurrentSession(c.Request.Context())))
	}
}
