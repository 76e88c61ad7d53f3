package models

import (
	"time"
)

// FeeLine is a named fee item inside a fee structure.
type FeeLine struct {
	FeeTypeKey string  `json:"feeTypeKey"`
	Title      string  `json:"title"`
	Amount     float64 `json:"amount"`
}

// Installment is a due date in a fee structure. Amount is informational;
// progress always uses an equal split of each fee line.
type Installment struct {
	Label   string    `json:"label"`
	Amount  float64   `json:"amount"`
	DueDate time.Time `json:"dueDate"`
}

// FeeStructure is the fee template for one (session year, class).
type FeeStructure struct {
	ID           int64         `json:"id" db:"id"`
	SessionYear  string        `json:"sessionYear" db:"session_year"`
	Class        string        `json:"class" db:"class"`
	Fees         []FeeLine     `json:"fees" db:"fees"`
	Installments []Installment `json:"installments" db:"installments"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
}

// Transaction is a recorded fee payment. Rows are never updated or deleted.
type Transaction struct {
	ID            int64       `json:"id" db:"id"`
	StudentID     string      `json:"studentId" db:"student_id"`
	FeeTypeKey    string      `json:"feeTypeKey" db:"fee_type_key"`
	FeesType      string      `json:"feesType" db:"fees_type"`
	Amount        float64     `json:"amount" db:"amount"`
	Mode          PaymentMode `json:"mode" db:"mode"`
	PaidAt        time.Time   `json:"paidAt" db:"paid_at"`
	TransactionID *string     `json:"transactionId,omitempty" db:"transaction_id"`
	ReceiptID     string      `json:"receiptId" db:"receipt_id"`
	Installment   *string     `json:"installment,omitempty" db:"installment"`
	Remarks       *string     `json:"remarks,omitempty" db:"remarks"`
	RecordedBy    *int64      `json:"recordedBy,omitempty" db:"recorded_by"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	StudentID string
	From      *time.Time
	To        *time.Time
}
