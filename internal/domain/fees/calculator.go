// Package fees derives per-student fee progress from a fee structure and the
// student's payment history. Everything here is pure; callers load the data.
package fees

import (
	"math"
	"strings"
	"time"

	"github.com/yigit/schooladmin/internal/app/models"
)

// InstallmentProgress is one installment of one fee line.
type InstallmentProgress struct {
	Label     string    `json:"label"`
	DueDate   time.Time `json:"dueDate"`
	Amount    float64   `json:"amount"`
	Paid      float64   `json:"paid"`
	Progress  float64   `json:"progress"`
	Completed bool      `json:"completed"`
	Overdue   bool      `json:"overdue"`
}

// LineSummary is the derived state of one fee line.
type LineSummary struct {
	FeeTypeKey        string                `json:"feeTypeKey"`
	Title             string                `json:"title"`
	OriginalAmount    float64               `json:"originalAmount"`
	TotalAmount       float64               `json:"totalAmount"`
	PaidAmount        float64               `json:"paidAmount"`
	RemainingAmount   float64               `json:"remainingAmount"`
	ConcessionApplied bool                  `json:"concessionApplied"`
	Installments      []InstallmentProgress `json:"installments"`
}

// Summary is the fee position of one student against one fee structure.
type Summary struct {
	SessionYear          string               `json:"sessionYear"`
	Class                string               `json:"class"`
	ConcessionPercentage float64              `json:"concessionPercentage"`
	Lines                []LineSummary        `json:"lines"`
	TotalAmount          float64              `json:"totalAmount"`
	PaidAmount           float64              `json:"paidAmount"`
	RemainingAmount      float64              `json:"remainingAmount"`
	PaidPercentage       float64              `json:"paidPercentage"`
	Unmatched            []models.Transaction `json:"unmatched"`
}

// ApplyConcession returns the payable amount of a fee line. Only tuition
// lines are reduced; pct is clamped to [0, 100].
func ApplyConcession(title string, amount, pct float64) float64 {
	if pct <= 0 || !IsTuition(title) {
		return amount
	}
	if pct > 100 {
		pct = 100
	}
	return amount - amount*pct/100
}

// Remaining is max(0, total-paid).
func Remaining(total, paid float64) float64 {
	return math.Max(0, total-paid)
}

// Progress is paid as a percentage of amount, capped at 100. A zero amount
// has nothing owed and counts as complete.
func Progress(paid, amount float64) float64 {
	if amount <= 0 {
		return 100
	}
	return math.Min(100, paid/amount*100)
}

// Calculate builds the fee summary for a student. Each transaction is applied
// to the first fee line it matches and to exactly one installment of that
// line; an overpayment on an installment is not carried to the next one.
func Calculate(structure *models.FeeStructure, concessionPct float64, transactions []models.Transaction, now time.Time) Summary {
	summary := Summary{
		ConcessionPercentage: concessionPct,
		Lines:                []LineSummary{},
		Unmatched:            []models.Transaction{},
	}
	if structure == nil {
		summary.Unmatched = append(summary.Unmatched, transactions...)
		return summary
	}
	summary.SessionYear = structure.SessionYear
	summary.Class = structure.Class

	installmentCount := len(structure.Installments)
	// assigned[line][installment] accumulates payments per installment.
	assigned := make([][]float64, len(structure.Fees))
	for i := range assigned {
		assigned[i] = make([]float64, installmentCount)
	}

	lines := make([]LineSummary, len(structure.Fees))
	for i, fee := range structure.Fees {
		total := ApplyConcession(fee.Title, fee.Amount, concessionPct)
		lines[i] = LineSummary{
			FeeTypeKey:        fee.FeeTypeKey,
			Title:             fee.Title,
			OriginalAmount:    fee.Amount,
			TotalAmount:       total,
			ConcessionApplied: total != fee.Amount,
			Installments:      []InstallmentProgress{},
		}
	}

	for _, tx := range transactions {
		idx := matchLine(structure.Fees, tx)
		if idx < 0 {
			summary.Unmatched = append(summary.Unmatched, tx)
			continue
		}
		lines[idx].PaidAmount += tx.Amount
		if installmentCount > 0 {
			assigned[idx][assignInstallment(structure.Installments, tx)] += tx.Amount
		}
	}

	for i := range lines {
		line := &lines[i]
		line.RemainingAmount = Remaining(line.TotalAmount, line.PaidAmount)

		if installmentCount > 0 {
			perInstallment := line.TotalAmount / float64(installmentCount)
			for j, inst := range structure.Installments {
				paid := assigned[i][j]
				progress := Progress(paid, perInstallment)
				completed := progress >= 100
				line.Installments = append(line.Installments, InstallmentProgress{
					Label:     inst.Label,
					DueDate:   inst.DueDate,
					Amount:    round2(perInstallment),
					Paid:      paid,
					Progress:  round2(progress),
					Completed: completed,
					Overdue:   !completed && dayOf(now).After(dayOf(inst.DueDate)),
				})
			}
		}

		summary.TotalAmount += line.TotalAmount
		summary.PaidAmount += line.PaidAmount
	}

	summary.Lines = lines
	summary.RemainingAmount = Remaining(summary.TotalAmount, summary.PaidAmount)
	if summary.TotalAmount > 0 {
		summary.PaidPercentage = round2(Progress(summary.PaidAmount, summary.TotalAmount))
	}
	return summary
}

func matchLine(lines []models.FeeLine, tx models.Transaction) int {
	for i, line := range lines {
		if Matches(line.FeeTypeKey, line.Title, tx.FeeTypeKey, tx.FeesType) {
			return i
		}
	}
	return -1
}

// assignInstallment picks the installment a payment counts towards: the one
// it is labelled with, else the first due on or after the payment day, else
// the last one.
func assignInstallment(installments []models.Installment, tx models.Transaction) int {
	if tx.Installment != nil {
		label := strings.TrimSpace(*tx.Installment)
		for i, inst := range installments {
			if label != "" && strings.EqualFold(inst.Label, label) {
				return i
			}
		}
	}
	paidDay := dayOf(tx.PaidAt)
	for i, inst := range installments {
		if !dayOf(inst.DueDate).Before(paidDay) {
			return i
		}
	}
	return len(installments) - 1
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
