package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/app/services"
	"github.com/yigit/schooladmin/internal/middleware"
	"github.com/yigit/schooladmin/internal/pkg/helpers"
)

// TransactionController handles fee payments. Payments are append-only, so
// there are no update or delete handlers.
type TransactionController struct {
	transactionService services.TransactionService
	logger             zerolog.Logger
}

// NewTransactionController creates a new TransactionController
func NewTransactionController(transactionService services.TransactionService, logger zerolog.Logger) *TransactionController {
	return &TransactionController{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Record stores a payment
// @Summary Record payment
// @Description Generates a receipt ID when none is given and notifies the student and parents
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body dto.TransactionRequest true "Payment"
// @Success 201 {object} dto.APIResponse{data=models.Transaction} "Recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid data"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 409 {object} dto.ErrorResponse "Receipt ID exists"
// @Router /transactions [post]
func (c *TransactionController) Record(ctx *gin.Context) {
	var req dto.TransactionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	tx, err := c.transactionService.Record(ctx.Request.Context(), middleware.PrincipalFrom(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Str("studentId", tx.StudentID).
		Str("receiptId", tx.ReceiptID).
		Float64("amount", tx.Amount).
		Msg("Payment recorded")

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(tx))
}

// List returns payments, newest first
// @Summary List payments
// @Description Students and parents only see payments of their linked student
// @Tags transactions
// @Produce json
// @Param studentId query string false "Student ID"
// @Param from query string false "From date (inclusive)"
// @Param to query string false "To date (inclusive)"
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Transaction}} "Payments"
// @Failure 403 {object} dto.ErrorResponse "Not your student"
// @Router /transactions [get]
func (c *TransactionController) List(ctx *gin.Context) {
	from, ok := optionalDateQuery(ctx, "from")
	if !ok {
		return
	}
	to, ok := optionalDateQuery(ctx, "to")
	if !ok {
		return
	}
	// A bare date covers the whole day
	if to != nil && len(strings.TrimSpace(ctx.Query("to"))) == len(helpers.DateLayout) {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}

	filter := models.TransactionFilter{
		StudentID: strings.TrimSpace(ctx.Query("studentId")),
		From:      from,
		To:        to,
	}
	page, size := helpers.ParsePaginationParams(ctx)

	txs, total, err := c.transactionService.List(ctx.Request.Context(), middleware.PrincipalFrom(ctx), filter, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, paginated(txs, total, page, size))
}
