package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/app/services"
	"github.com/yigit/schooladmin/internal/middleware"
)

// AdminController handles admin profiles
type AdminController struct {
	adminService services.AdminService
}

// NewAdminController creates a new AdminController
func NewAdminController(adminService services.AdminService) *AdminController {
	return &AdminController{adminService: adminService}
}

// List returns every admin profile
// @Summary List admins
// @Tags admins
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Admin} "Admins"
// @Router /admins [get]
func (c *AdminController) List(ctx *gin.Context) {
	admins, err := c.adminService.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(admins))
}

// Get returns one admin profile
// @Summary Get admin
// @Tags admins
// @Produce json
// @Param id path int true "Admin ID"
// @Success 200 {object} dto.APIResponse{data=models.Admin} "Admin"
// @Failure 404 {object} dto.ErrorResponse "Admin not found"
// @Router /admins/{id} [get]
func (c *AdminController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "admin ID")
	if !ok {
		return
	}

	admin, err := c.adminService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(admin))
}

// Create adds an admin profile and its login account
// @Summary Create admin
// @Tags admins
// @Accept json
// @Produce json
// @Param request body dto.AdminRequest true "Admin"
// @Success 201 {object} dto.APIResponse{data=models.Admin} "Created"
// @Failure 400 {object} dto.ErrorResponse "Invalid data"
// @Failure 409 {object} dto.ErrorResponse "User ID in use"
// @Router /admins [post]
func (c *AdminController) Create(ctx *gin.Context) {
	var req dto.AdminRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	admin, err := c.adminService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(admin))
}

// Update changes an admin profile. The login name cannot change.
// @Summary Update admin
// @Tags admins
// @Accept json
// @Produce json
// @Param id path int true "Admin ID"
// @Param request body dto.AdminRequest true "Admin"
// @Success 200 {object} dto.APIResponse{data=models.Admin} "Updated"
// @Failure 404 {object} dto.ErrorResponse "Admin not found"
// @Router /admins/{id} [put]
func (c *AdminController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "admin ID")
	if !ok {
		return
	}
	var req dto.AdminRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	admin, err := c.adminService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(admin))
}

// Delete removes an admin and its login account
// @Summary Delete admin
// @Tags admins
// @Param id path int true "Admin ID"
// @Success 204 "Deleted"
// @Failure 403 {object} dto.ErrorResponse "Cannot delete yourself"
// @Failure 404 {object} dto.ErrorResponse "Admin not found"
// @Router /admins/{id} [delete]
func (c *AdminController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "admin ID")
	if !ok {
		return
	}

	if err := c.adminService.Delete(ctx.Request.Context(), middleware.PrincipalFrom(ctx).UserID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
