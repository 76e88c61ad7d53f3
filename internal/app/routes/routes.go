package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schooladmin/internal/app/controllers"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/middleware"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth        *controllers.AuthController
	Student     *controllers.StudentController
	User        *controllers.UserController
	Admin       *controllers.AdminController
	Fee         *controllers.FeeController
	Transaction *controllers.TransactionController
	Examination *controllers.ExaminationController
	Dashboard   *controllers.DashboardController
}

// Role allow-lists. Super-admin is listed explicitly wherever admin is.
var (
	adminOnly      = models.Roles(models.RoleAdmin, models.RoleSuperAdmin)
	superAdminOnly = models.Roles(models.RoleSuperAdmin)
	office         = models.Roles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleStaff)
	academic       = models.Roles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleTeacher)
	staffRoom      = models.Roles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleStaff, models.RoleTeacher)
)

// SetupRouter configures all application routes. wsHandler serves the
// notification socket and may be nil in tests.
func SetupRouter(
	router *gin.Engine,
	c Controllers,
	authMiddleware *middleware.AuthMiddleware,
	wsHandler gin.HandlerFunc,
) {
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := router.Group("/api")

	// --- Public Auth routes ---
	auth := api.Group("/auth")
	{
		auth.POST("/login", c.Auth.Login)
		auth.POST("/logout", c.Auth.Logout)
		auth.POST("/otp/request", c.Auth.RequestOTP)
		auth.POST("/otp/verify", c.Auth.VerifyOTP)
		auth.POST("/reset-password", c.Auth.ResetPassword)
	}

	// --- Authenticated Routes Group ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.SessionAuth())

	authenticated.GET("/auth/check", c.Auth.Check)
	if wsHandler != nil {
		authenticated.GET("/ws", wsHandler)
	}

	students := authenticated.Group("/students")
	{
		students.GET("", authMiddleware.RoleRequired(staffRoom...), c.Student.List)
		students.POST("", authMiddleware.RoleRequired(office...), c.Student.Admit)
		students.GET("/check-roll-no", authMiddleware.RoleRequired(office...), c.Student.CheckRollNo)
		// Ownership is checked in the service for students and parents
		students.GET("/:studentId", c.Student.Get)
		students.GET("/:studentId/fee-summary", c.Student.FeeSummary)
		students.PUT("/:studentId", authMiddleware.RoleRequired(office...), c.Student.Update)
		students.DELETE("/:studentId", authMiddleware.RoleRequired(adminOnly...), c.Student.Delete)
	}

	users := authenticated.Group("/users")
	users.Use(authMiddleware.RoleRequired(adminOnly...))
	{
		users.GET("", c.User.List)
		users.POST("", c.User.Create)
		users.GET("/:id", c.User.Get)
		users.PUT("/:id", c.User.Update)
		users.PUT("/:id/password", c.User.SetPassword)
		users.DELETE("/:id", c.User.Delete)
	}

	admins := authenticated.Group("/admins")
	admins.Use(authMiddleware.RoleRequired(superAdminOnly...))
	{
		admins.GET("", c.Admin.List)
		admins.POST("", c.Admin.Create)
		admins.GET("/:id", c.Admin.Get)
		admins.PUT("/:id", c.Admin.Update)
		admins.DELETE("/:id", c.Admin.Delete)
	}

	fees := authenticated.Group("/fees")
	{
		fees.GET("", c.Fee.List)
		fees.GET("/:id", c.Fee.Get)
		fees.POST("", authMiddleware.RoleRequired(adminOnly...), c.Fee.Create)
		fees.PATCH("/:id", authMiddleware.RoleRequired(adminOnly...), c.Fee.Patch)
		fees.DELETE("/:id", authMiddleware.RoleRequired(adminOnly...), c.Fee.Delete)
	}

	// Payments are append-only: no PUT or DELETE
	transactions := authenticated.Group("/transactions")
	{
		transactions.GET("", c.Transaction.List)
		transactions.POST("", authMiddleware.RoleRequired(office...), c.Transaction.Record)
	}

	exams := authenticated.Group("/examinations")
	{
		exams.GET("", c.Examination.List)
		exams.GET("/:id", c.Examination.Get)
		exams.POST("", authMiddleware.RoleRequired(academic...), c.Examination.Create)
		exams.PUT("/:id", authMiddleware.RoleRequired(academic...), c.Examination.Update)
		exams.DELETE("/:id", authMiddleware.RoleRequired(academic...), c.Examination.Delete)
		exams.PUT("/:id/marks", authMiddleware.RoleRequired(academic...), c.Examination.SaveMarks)
		exams.GET("/:id/results", authMiddleware.RoleRequired(academic...), c.Examination.ExamResults)
		exams.POST("/:id/publish", authMiddleware.RoleRequired(adminOnly...), c.Examination.Publish)
		exams.POST("/:id/unpublish", authMiddleware.RoleRequired(adminOnly...), c.Examination.Unpublish)
	}

	authenticated.GET("/results/students/:studentId", c.Examination.StudentResults)

	dashboard := authenticated.Group("/dashboard")
	{
		dashboard.GET("/admin", authMiddleware.RoleRequired(staffRoom...), c.Dashboard.Admin)
		dashboard.GET("/student", authMiddleware.RoleRequired(string(models.RoleStudent)), c.Dashboard.LinkedStudent)
		dashboard.GET("/parent", authMiddleware.RoleRequired(string(models.RoleParent)), c.Dashboard.LinkedStudent)
	}
}
