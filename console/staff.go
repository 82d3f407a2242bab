package console

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/shop_console/models"
)

func (h *Console) listStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		staff, err := h.api.Staff.List(c.Request.Context(), token(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, staff)
	}
}

func (h *Console) getStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		member, err := h.api.Staff.Get(c.Request.Context(), token(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, member)
	}
}

func (h *Console) createStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewStaff
		if !bindJSON(c, &input) {
			return
		}
		if err := h.api.Staff.Create(c.Request.Context(), token(c), &input); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, http.StatusCreated, "staff created")
	}
}

// updateStaffHandler forwards only granted permission flags; a flag sent as
// 0 is left as the backend has it.
func (h *Console) updateStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.UpdateStaff
		if !bindJSON(c, &input) {
			return
		}
		if err := h.api.Staff.Update(c.Request.Context(), token(c), id, &input); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, http.StatusOK, "staff updated")
	}
}

func (h *Console) deleteStaffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := h.api.Staff.Delete(c.Request.Context(), token(c), id); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, http.StatusOK, "staff deleted")
	}
}
