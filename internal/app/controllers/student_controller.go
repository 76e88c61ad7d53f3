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
	"github.com/yigit/schooladmin/internal/pkg/helpers"
)

// StudentController handles admissions and student records
type StudentController struct {
	studentService services.StudentService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService, logger zerolog.Logger) *StudentController {
	return &StudentController{
		studentService: studentService,
		logger:         logger,
	}
}

// Admit handles a new admission
// @Summary Admit a student
// @Description Creates the student record and its login account, plus a parent account when a parent ID and a guardian mobile are given
// @Tags students
// @Accept json
// @Produce json
// @Param request body dto.StudentRequest true "Admission form"
// @Success 201 {object} dto.APIResponse{data=dto.AdmissionResponse} "Student admitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid admission form"
// @Failure 409 {object} dto.ErrorResponse "Student ID exists (RES_002) or roll number taken (RES_004)"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students [post]
func (c *StudentController) Admit(ctx *gin.Context) {
	var req dto.StudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.studentService.Admit(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Str("studentId", resp.Student.StudentID).
		Str("class", resp.Student.CurrentStudyClass).
		Bool("parentAccount", resp.ParentUserID != nil).
		Msg("Student admitted")

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(resp))
}

// List returns students
// @Summary List students
// @Tags students
// @Produce json
// @Param class query string false "Class"
// @Param section query string false "Section"
// @Param admissionYear query int false "Admission year"
// @Param search query string false "Name or student ID"
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Student}} "Students"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /students [get]
func (c *StudentController) List(ctx *gin.Context) {
	year, ok := optionalIntQuery(ctx, "admissionYear")
	if !ok {
		return
	}
	filter := models.StudentFilter{
		Class:         strings.TrimSpace(ctx.Query("class")),
		Section:       strings.TrimSpace(ctx.Query("section")),
		AdmissionYear: year,
		Search:        strings.TrimSpace(ctx.Query("search")),
	}
	page, size := helpers.ParsePaginationParams(ctx)

	students, total, err := c.studentService.List(ctx.Request.Context(), filter, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, paginated(students, total, page, size))
}

// CheckRollNo reports whether a roll number is free
// @Summary Check roll number availability
// @Tags students
// @Produce json
// @Param class query string true "Class"
// @Param section query string true "Section"
// @Param year query int true "Admission year"
// @Param rollNo query string true "Roll number"
// @Param excludeStudentId query string false "Student being edited"
// @Success 200 {object} dto.APIResponse{data=dto.RollNoAvailability} "Availability"
// @Failure 400 {object} dto.ErrorResponse "Missing parameters"
// @Router /students/check-roll-no [get]
func (c *StudentController) CheckRollNo(ctx *gin.Context) {
	year, ok := optionalIntQuery(ctx, "year")
	if !ok {
		return
	}
	q := services.RollNoQuery{
		Class:            strings.TrimSpace(ctx.Query("class")),
		Section:          strings.TrimSpace(ctx.Query("section")),
		Year:             year,
		RollNo:           strings.TrimSpace(ctx.Query("rollNo")),
		ExcludeStudentID: strings.TrimSpace(ctx.Query("excludeStudentId")),
	}

	available, err := c.studentService.RollNoAvailable(ctx.Request.Context(), q)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.RollNoAvailability{Available: available}))
}

// Get returns one student
// @Summary Get student
// @Description Students and parents may only read their linked student
// @Tags students
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} dto.APIResponse{data=models.Student} "Student"
// @Failure 403 {object} dto.ErrorResponse "Not your student"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{studentId} [get]
func (c *StudentController) Get(ctx *gin.Context) {
	student, err := c.studentService.Get(ctx.Request.Context(), middleware.PrincipalFrom(ctx), ctx.Param("studentId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(student))
}

// Update replaces a student record
// @Summary Update student
// @Tags students
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param request body dto.StudentRequest true "Student record"
// @Success 200 {object} dto.APIResponse{data=models.Student} "Updated student"
// @Failure 400 {object} dto.ErrorResponse "Invalid data"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 409 {object} dto.ErrorResponse "Roll number taken"
// @Router /students/{studentId} [put]
func (c *StudentController) Update(ctx *gin.Context) {
	var req dto.StudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	student, err := c.studentService.Update(ctx.Request.Context(), ctx.Param("studentId"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(student))
}

// Delete removes a student and the accounts linked to it
// @Summary Delete student
// @Tags students
// @Param studentId path string true "Student ID"
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{studentId} [delete]
func (c *StudentController) Delete(ctx *gin.Context) {
	studentID := ctx.Param("studentId")
	if err := c.studentService.Delete(ctx.Request.Context(), studentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("studentId", studentID).Int64("by", middleware.PrincipalFrom(ctx).UserID).Msg("Student deleted")
	ctx.Status(http.StatusNoContent)
}

// FeeSummary returns the installment progress of a student
// @Summary Student fee summary
// @Description Uses the latest session year of the student's class when sessionYear is omitted
// @Tags students
// @Produce json
// @Param studentId path string true "Student ID"
// @Param sessionYear query string false "Session year, e.g. 2025-26"
// @Success 200 {object} dto.APIResponse{data=fees.Summary} "Fee summary"
// @Failure 403 {object} dto.ErrorResponse "Not your student"
// @Failure 404 {object} dto.ErrorResponse "Student or fee structure not found"
// @Router /students/{studentId}/fee-summary [get]
func (c *StudentController) FeeSummary(ctx *gin.Context) {
	summary, err := c.studentService.FeeSummary(ctx.Request.Context(), middleware.PrincipalFrom(ctx),
		ctx.Param("studentId"), strings.TrimSpace(ctx.Query("sessionYear")))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(summary))
}
