package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAnalytics
//
//	@Description  This endpoint reports settled volume, total calls, and recent calls
//	@ID			getAnalytics
//	@Tags		analytics
//	@Produce	json
//	@Router		/analytics [get]
//	@Success	200	{object}	model.AnalyticsSummary
func (h *Handler) GetAnalytics(ctx *gin.Context) {
	summary, err := h.ctrl.AnalyticsSummary()
	if err != nil {
		handleBrokerError(ctx, err, "read analytics")
		return
	}

	ctx.JSON(http.StatusOK, summary)
}
