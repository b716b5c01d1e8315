package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboard
// @Summary GetDashboard
// @Description Customer and order totals, revenue and order counts per status
// @ID get-dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.Stats
// @Failure 500,503 {object} errorResponse
// @Router /api/dashboard [get]
func (h *Handler) GetDashboard(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
