package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WeeklyReportHandler godoc
// @Summary Weekly progress report
// @Description This week (today and the six days before) compared with the previous seven days.
// @Tags Reports
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {object} report.Weekly
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /reports/weekly [get]
func (ctrl *Controller) WeeklyReportHandler(c *gin.Context) {
	w, err := ctrl.reports.Build(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, "Failed to build weekly report", err)
		return
	}
	c.JSON(http.StatusOK, w)
}
