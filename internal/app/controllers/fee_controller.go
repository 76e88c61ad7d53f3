package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/app/services"
	"github.com/yigit/schooladmin/internal/middleware"
)

// FeeController handles fee structures
type FeeController struct {
	feeService services.FeeService
}

// NewFeeController creates a new FeeController
func NewFeeController(feeService services.FeeService) *FeeController {
	return &FeeController{feeService: feeService}
}

// List returns fee structures
// @Summary List fee structures
// @Tags fees
// @Produce json
// @Param sessionYear query string false "Session year"
// @Param class query string false "Class"
// @Success 200 {object} dto.APIResponse{data=[]models.FeeStructure} "Fee structures"
// @Router /fees [get]
func (c *FeeController) List(ctx *gin.Context) {
	structures, err := c.feeService.List(ctx.Request.Context(),
		strings.TrimSpace(ctx.Query("sessionYear")), strings.TrimSpace(ctx.Query("class")))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(structures))
}

// Get returns one fee structure
// @Summary Get fee structure
// @Tags fees
// @Produce json
// @Param id path int true "Fee structure ID"
// @Success 200 {object} dto.APIResponse{data=models.FeeStructure} "Fee structure"
// @Failure 404 {object} dto.ErrorResponse "Fee structure not found"
// @Router /fees/{id} [get]
func (c *FeeController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "fee structure ID")
	if !ok {
		return
	}

	fs, err := c.feeService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(fs))
}

// Create adds a fee structure for a session year and class
// @Summary Create fee structure
// @Tags fees
// @Accept json
// @Produce json
// @Param request body dto.FeeStructureRequest true "Fee structure"
// @Success 201 {object} dto.APIResponse{data=models.FeeStructure} "Created"
// @Failure 400 {object} dto.ErrorResponse "Invalid data"
// @Failure 409 {object} dto.ErrorResponse "Structure exists for this session year and class"
// @Router /fees [post]
func (c *FeeController) Create(ctx *gin.Context) {
	var req dto.FeeStructureRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	fs, err := c.feeService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(fs))
}

// Patch updates part of a fee structure
// @Summary Update fee structure
// @Tags fees
// @Accept json
// @Produce json
// @Param id path int true "Fee structure ID"
// @Param request body dto.FeeStructurePatch true "Changes"
// @Success 200 {object} dto.APIResponse{data=models.FeeStructure} "Updated"
// @Failure 404 {object} dto.ErrorResponse "Fee structure not found"
// @Failure 409 {object} dto.ErrorResponse "Structure exists for this session year and class"
// @Router /fees/{id} [patch]
func (c *FeeController) Patch(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "fee structure ID")
	if !ok {
		return
	}
	var req dto.FeeStructurePatch
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	fs, err := c.feeService.Patch(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(fs))
}

// Delete removes a fee structure
// @Summary Delete fee structure
// @Tags fees
// @Param id path int true "Fee structure ID"
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse "Fee structure not found"
// @Router /fees/{id} [delete]
func (c *FeeController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "fee structure ID")
	if !ok {
		return
	}

	if err := c.feeService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
