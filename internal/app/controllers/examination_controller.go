package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/app/services"
	"github.com/yigit/schooladmin/internal/middleware"
)

// ExaminationController handles examinations, marks and results
type ExaminationController struct {
	examService services.ExaminationService
	logger      zerolog.Logger
}

// NewExaminationController creates a new ExaminationController
func NewExaminationController(examService services.ExaminationService, logger zerolog.Logger) *ExaminationController {
	return &ExaminationController{
		examService: examService,
		logger:      logger,
	}
}

// List returns examinations
// @Summary List examinations
// @Description Students and parents only see published examinations
// @Tags examinations
// @Produce json
// @Param class query string false "Class"
// @Param sessionYear query string false "Session year"
// @Success 200 {object} dto.APIResponse{data=[]models.Examination} "Examinations"
// @Router /examinations [get]
func (c *ExaminationController) List(ctx *gin.Context) {
	filter := models.ExamFilter{
		Class:       strings.TrimSpace(ctx.Query("class")),
		SessionYear: strings.TrimSpace(ctx.Query("sessionYear")),
	}

	exams, err := c.examService.List(ctx.Request.Context(), middleware.PrincipalFrom(ctx), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(exams))
}

// Get returns one examination
// @Summary Get examination
// @Tags examinations
// @Produce json
// @Param id path int true "Examination ID"
// @Success 200 {object} dto.APIResponse{data=models.Examination} "Examination"
// @Failure 404 {object} dto.ErrorResponse "Examination not found"
// @Router /examinations/{id} [get]
func (c *ExaminationController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "examination ID")
	if !ok {
		return
	}

	exam, err := c.examService.Get(ctx.Request.Context(), middleware.PrincipalFrom(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(exam))
}

// Create adds a draft examination
// @Summary Create examination
// @Tags examinations
// @Accept json
// @Produce json
// @Param request body dto.ExaminationRequest true "Examination"
// @Success 201 {object} dto.APIResponse{data=models.Examination} "Created"
// @Failure 400 {object} dto.ErrorResponse "Invalid data"
// @Router /examinations [post]
func (c *ExaminationController) Create(ctx *gin.Context) {
	var req dto.ExaminationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	exam, err := c.examService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(exam))
}

// Update replaces an examination's definition
// @Summary Update examination
// @Tags examinations
// @Accept json
// @Produce json
// @Param id path int true "Examination ID"
// @Param request body dto.ExaminationRequest true "Examination"
// @Success 200 {object} dto.APIResponse{data=models.Examination} "Updated"
// @Failure 404 {object} dto.ErrorResponse "Examination not found"
// @Router /examinations/{id} [put]
func (c *ExaminationController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "examination ID")
	if !ok {
		return
	}
	var req dto.ExaminationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	exam, err := c.examService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(exam))
}

// Delete removes an examination and its marks
// @Summary Delete examination
// @Tags examinations
// @Param id path int true "Examination ID"
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse "Examination not found"
// @Router /examinations/{id} [delete]
func (c *ExaminationController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "examination ID")
	if !ok {
		return
	}

	if err := c.examService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SaveMarks upserts marks in bulk
// @Summary Enter marks
// @Description Absent entries are stored with zero marks. Nothing is written when any entry is invalid.
// @Tags examinations
// @Accept json
// @Produce json
// @Param id path int true "Examination ID"
// @Param request body dto.MarksRequest true "Marks"
// @Success 200 {object} dto.APIResponse{data=[]models.ExamMark} "Saved marks"
// @Failure 400 {object} dto.ErrorResponse "Unknown subject or marks out of range"
// @Failure 404 {object} dto.ErrorResponse "Examination or student not found"
// @Router /examinations/{id}/marks [put]
func (c *ExaminationController) SaveMarks(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "examination ID")
	if !ok {
		return
	}
	var req dto.MarksRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	marks, err := c.examService.SaveMarks(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("examId", id).Int("entries", len(marks)).
		Int64("by", middleware.PrincipalFrom(ctx).UserID).Msg("Marks saved")
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(marks))
}

// Publish makes results visible to students and parents
// @Summary Publish results
// @Tags examinations
// @Produce json
// @Param id path int true "Examination ID"
// @Success 200 {object} dto.APIResponse{data=models.Examination} "Published"
// @Failure 404 {object} dto.ErrorResponse "Examination not found"
// @Router /examinations/{id}/publish [post]
func (c *ExaminationController) Publish(ctx *gin.Context) {
	c.setPublished(ctx, true)
}

// Unpublish hides results again
// @Summary Unpublish results
// @Tags examinations
// @Produce json
// @Param id path int true "Examination ID"
// @Success 200 {object} dto.APIResponse{data=models.Examination} "Unpublished"
// @Failure 404 {object} dto.ErrorResponse "Examination not found"
// @Router /examinations/{id}/unpublish [post]
func (c *ExaminationController) Unpublish(ctx *gin.Context) {
	c.setPublished(ctx, false)
}

func (c *ExaminationController) setPublished(ctx *gin.Context, published bool) {
	id, ok := parseIDParam(ctx, "id", "examination ID")
	if !ok {
		return
	}

	exam, err := c.examService.SetPublished(ctx.Request.Context(), id, published)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("examId", id).Bool("published", published).Msg("Examination visibility changed")
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(exam))
}

// ExamResults ranks every student of an examination
// @Summary Examination results
// @Tags examinations
// @Produce json
// @Param id path int true "Examination ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.ExamResultRow} "Ranked results"
// @Failure 404 {object} dto.ErrorResponse "Examination not found"
// @Router /examinations/{id}/results [get]
func (c *ExaminationController) ExamResults(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "examination ID")
	if !ok {
		return
	}

	rows, err := c.examService.ExamResults(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(rows))
}

// StudentResults returns a student's results
// @Summary Student results
// @Description Students and parents see published examinations only
// @Tags results
// @Produce json
// @Param studentId path string true "Student ID"
// @Param examId query int false "Restrict to one examination"
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentExamResult} "Results"
// @Failure 403 {object} dto.ErrorResponse "Not your student or results not published"
// @Router /results/students/{studentId} [get]
func (c *ExaminationController) StudentResults(ctx *gin.Context) {
	examID, ok := optionalIntQuery(ctx, "examId")
	if !ok {
		return
	}

	results, err := c.examService.StudentResults(ctx.Request.Context(), middleware.PrincipalFrom(ctx),
		ctx.Param("studentId"), int64(examID))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(results))
}
