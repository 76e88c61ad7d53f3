package fees

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schooladmin/internal/app/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func threeInstallmentStructure() *models.FeeStructure {
	return &models.FeeStructure{
		SessionYear: "2025-26",
		Class:       "5",
		Fees: []models.FeeLine{
			{Title: "Tuition Fee", Amount: 60000},
			{Title: "Library Fee", Amount: 3000},
		},
		Installments: []models.Installment{
			{Label: "Term 1", Amount: 25000, DueDate: date(2025, 6, 30)},
			{Label: "Term 2", Amount: 25000, DueDate: date(2025, 10, 31)},
			{Label: "Term 3", Amount: 13000, DueDate: date(2026, 1, 31)},
		},
	}
}

func TestApplyConcession(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		amount float64
		pct    float64
		want   float64
	}{
		{name: "tuition 10 percent", title: "Tuition Fee", amount: 60000, pct: 10, want: 54000},
		{name: "case insensitive", title: "ANNUAL TUITION", amount: 1000, pct: 50, want: 500},
		{name: "library untouched", title: "Library Fee", amount: 60000, pct: 10, want: 60000},
		{name: "zero concession", title: "Tuition Fee", amount: 60000, pct: 0, want: 60000},
		{name: "over 100 clamps", title: "Tuition Fee", amount: 60000, pct: 150, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ApplyConcession(tt.title, tt.amount, tt.pct), 1e-9)
		})
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	assert.Equal(t, 0.0, Remaining(1000, 1500))
	assert.Equal(t, 400.0, Remaining(1000, 600))
	assert.Equal(t, 0.0, Remaining(0, 0))
}

func TestCalculateConcessionOnlyAffectsTuition(t *testing.T) {
	s := Calculate(threeInstallmentStructure(), 10, nil, date(2025, 5, 1))

	require.Len(t, s.Lines, 2)
	assert.Equal(t, 54000.0, s.Lines[0].TotalAmount)
	assert.True(t, s.Lines[0].ConcessionApplied)
	assert.Equal(t, 60000.0, s.Lines[0].OriginalAmount)
	assert.Equal(t, 3000.0, s.Lines[1].TotalAmount)
	assert.False(t, s.Lines[1].ConcessionApplied)
	assert.Equal(t, 57000.0, s.TotalAmount)
	assert.Equal(t, 57000.0, s.RemainingAmount)
}

func TestCalculateInstallmentProgressDoesNotCarryOverflow(t *testing.T) {
	structure := threeInstallmentStructure()
	txs := []models.Transaction{
		{FeesType: "Tuition Fees", Amount: 25000, PaidAt: date(2025, 6, 1)},
	}

	s := Calculate(structure, 0, txs, date(2025, 7, 15))
	tuition := s.Lines[0]

	require.Len(t, tuition.Installments, 3)
	assert.Equal(t, 20000.0, tuition.Installments[0].Amount)
	assert.Equal(t, 100.0, tuition.Installments[0].Progress)
	assert.True(t, tuition.Installments[0].Completed)
	assert.Equal(t, 25000.0, tuition.Installments[0].Paid)
	assert.Equal(t, 0.0, tuition.Installments[1].Progress)
	assert.False(t, tuition.Installments[1].Completed)
	assert.Equal(t, 25000.0, tuition.PaidAmount)
	assert.Equal(t, 35000.0, tuition.RemainingAmount)
}

func TestCalculateInstallmentFlags(t *testing.T) {
	structure := threeInstallmentStructure()
	txs := []models.Transaction{
		{FeesType: "Tuition Fee", Amount: 10000, PaidAt: date(2025, 6, 30)},
	}

	s := Calculate(structure, 0, txs, date(2025, 11, 5))
	inst := s.Lines[0].Installments

	assert.Equal(t, 50.0, inst[0].Progress)
	assert.True(t, inst[0].Overdue, "half-paid term 1 is past due")
	assert.True(t, inst[1].Overdue)
	assert.False(t, inst[2].Overdue, "term 3 is not due yet")

	onDueDay := Calculate(structure, 0, txs, time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC))
	assert.False(t, onDueDay.Lines[0].Installments[0].Overdue, "not overdue on the due day itself")
}

func TestCalculateInstallmentAssignment(t *testing.T) {
	structure := threeInstallmentStructure()
	txs := []models.Transaction{
		{FeesType: "Tuition Fee", Amount: 20000, PaidAt: date(2025, 7, 2)},
		{FeesType: "Tuition Fee", Amount: 5000, PaidAt: date(2025, 3, 1), Installment: strPtr("term 3")},
		{FeesType: "Tuition Fee", Amount: 1000, PaidAt: date(2026, 5, 1)},
	}

	s := Calculate(structure, 0, txs, date(2025, 7, 2))
	inst := s.Lines[0].Installments

	assert.Equal(t, 0.0, inst[0].Paid)
	assert.Equal(t, 20000.0, inst[1].Paid, "unlabelled payment goes to the next due installment")
	assert.Equal(t, 6000.0, inst[2].Paid, "labelled and late payments land on term 3")
	assert.Equal(t, 30.0, inst[2].Progress)
}

func TestCalculateMatching(t *testing.T) {
	structure := &models.FeeStructure{
		Fees: []models.FeeLine{
			{FeeTypeKey: "smart-class-fee", Title: "Smart Class Fee", Amount: 1000},
			{Title: "Transport Fee", Amount: 2000},
		},
	}
	txs := []models.Transaction{
		{FeeTypeKey: "smart-class-fee", FeesType: "Smart Class Fees", Amount: 400},
		{FeesType: "transport fees", Amount: 500},
		{FeesType: "TRANSPORT FEE", Amount: 100},
		{FeeTypeKey: "canteen-fee", FeesType: "Canteen Fee", Amount: 999},
	}

	s := Calculate(structure, 0, txs, date(2025, 1, 1))

	assert.Equal(t, 400.0, s.Lines[0].PaidAmount, "same key matches without a synonym entry")
	assert.Equal(t, 600.0, s.Lines[1].PaidAmount, "legacy labels match case-insensitively and through synonyms")
	require.Len(t, s.Unmatched, 1)
	assert.Equal(t, "Canteen Fee", s.Unmatched[0].FeesType)
	assert.Equal(t, 1000.0, s.PaidAmount, "unmatched payments are excluded from totals")
	assert.Empty(t, s.Lines[0].Installments)
}

func TestCalculateOverpaymentAndTotals(t *testing.T) {
	structure := &models.FeeStructure{
		Fees: []models.FeeLine{{Title: "Exam Fee", Amount: 500}},
	}
	txs := []models.Transaction{{FeesType: "Exam Fees", Amount: 800}}

	s := Calculate(structure, 25, txs, date(2025, 1, 1))
	assert.Equal(t, 500.0, s.Lines[0].TotalAmount)
	assert.Equal(t, 0.0, s.Lines[0].RemainingAmount)
	assert.Equal(t, 0.0, s.RemainingAmount)
	assert.Equal(t, 100.0, s.PaidPercentage)
}

func TestCalculateNilStructure(t *testing.T) {
	txs := []models.Transaction{{FeesType: "Tuition Fee", Amount: 1}}
	s := Calculate(nil, 0, txs, time.Now())
	assert.Empty(t, s.Lines)
	assert.Len(t, s.Unmatched, 1)
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"Tuition Fees":       "tuition-fee",
		"tuition fee":        "tuition-fee",
		"  Term-1  Fees ":    "term-1-fee",
		"Lab & Computer Fee": "lab-computer-fee",
		"Books Fee":          "book-fee",
		"book fees":          "book-fee",
		"":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("", "Tuition Fee", "", "tuition fees"))
	assert.True(t, Matches("", "Books Fee", "", "book fee"))
	assert.False(t, Matches("", "Tuition Fee", "", "Transport Fee"))
	assert.False(t, Matches("tuition-fee", "Tuition Fee", "transport-fee", "Tuition Fee"), "keys take precedence")
	assert.True(t, Matches("tuition-fee", "Tuition Fee", "", "Tuition Fees"), "legacy transaction without a key")
	assert.False(t, Matches("", "", "", ""))
	assert.True(t, Matches(NormalizeKey("Book Fee"), "Book Fee", NormalizeKey("Books Fee"), "Books Fee"))
	assert.True(t, Matches("book-fee", "Book Fee", "books-fee", "Books Fee"), "keys stored before synonym folding")
}

func TestCalculateMatchingKeyedSynonyms(t *testing.T) {
	structure := &models.FeeStructure{
		Fees: []models.FeeLine{
			{FeeTypeKey: NormalizeKey("Book Fee"), Title: "Book Fee", Amount: 1500},
		},
	}
	txs := []models.Transaction{
		{FeeTypeKey: NormalizeKey("Books Fee"), FeesType: "Books Fee", Amount: 500},
	}

	s := Calculate(structure, 0, txs, date(2025, 1, 1))

	assert.Equal(t, 500.0, s.Lines[0].PaidAmount)
	assert.Empty(t, s.Unmatched)
}
