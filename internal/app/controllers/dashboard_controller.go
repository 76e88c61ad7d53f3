package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/app/services"
	"github.com/yigit/schooladmin/internal/middleware"
)

// DashboardController serves the landing page summaries
type DashboardController struct {
	dashboardService services.DashboardService
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(dashboardService services.DashboardService) *DashboardController {
	return &DashboardController{dashboardService: dashboardService}
}

// Admin returns the school-wide counters
// @Summary Admin dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.AdminDashboard} "Dashboard"
// @Router /dashboard/admin [get]
func (c *DashboardController) Admin(ctx *gin.Context) {
	d, err := c.dashboardService.Admin(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(d))
}

// LinkedStudent returns the dashboard of the caller's linked student. It
// serves both /dashboard/student and /dashboard/parent.
// @Summary Student or parent dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.StudentDashboard} "Dashboard"
// @Failure 403 {object} dto.ErrorResponse "No student linked"
// @Router /dashboard/student [get]
// @Router /dashboard/parent [get]
func (c *DashboardController) LinkedStudent(ctx *gin.Context) {
	d, err := c.dashboardService.LinkedStudent(ctx.Request.Context(), middleware.PrincipalFrom(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(d))
}
