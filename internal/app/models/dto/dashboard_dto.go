package dto

import (
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/domain/fees"
)

// AdminDashboard aggregates school-wide counters.
type AdminDashboard struct {
	Students           int64                `json:"students"`
	UsersByRole        map[string]int64     `json:"usersByRole"`
	FeeStructures      int64                `json:"feeStructures"`
	CollectedTotal     float64              `json:"collectedTotal"`
	CollectedThisMonth float64              `json:"collectedThisMonth"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
	PublishedExams     int64                `json:"publishedExams"`
	DraftExams         int64                `json:"draftExams"`
}

// StudentDashboard is what a student, or a parent on their behalf, sees.
type StudentDashboard struct {
	Student      *models.Student    `json:"student"`
	FeeSummary   *fees.Summary      `json:"feeSummary,omitempty"`
	LatestResult *StudentExamResult `json:"latestResult,omitempty"`
}
