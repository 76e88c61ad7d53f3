package dto

// FeeLineRequest is one fee item of a structure.
type FeeLineRequest struct {
	FeeTypeKey string  `json:"feeTypeKey" binding:"omitempty,max=64"`
	Title      string  `json:"title" binding:"required,max=80"`
	Amount     float64 `json:"amount" binding:"gt=0"`
}

// InstallmentRequest is one installment of a structure. DueDate is YYYY-MM-DD
// or RFC 3339.
type InstallmentRequest struct {
	Label   string  `json:"label" binding:"required,max=40"`
	Amount  float64 `json:"amount" binding:"gte=0"`
	DueDate string  `json:"dueDate" binding:"required"`
}

// FeeStructureRequest creates a fee structure.
type FeeStructureRequest struct {
	SessionYear  string               `json:"sessionYear" binding:"required,max=16"`
	Class        string               `json:"class" binding:"required,max=16"`
	Fees         []FeeLineRequest     `json:"fees" binding:"required,min=1,dive"`
	Installments []InstallmentRequest `json:"installments" binding:"omitempty,dive"`
}

// FeeStructurePatch updates part of a fee structure.
type FeeStructurePatch struct {
	SessionYear  *string              `json:"sessionYear" binding:"omitempty,max=16"`
	Class        *string              `json:"class" binding:"omitempty,max=16"`
	Fees         []FeeLineRequest     `json:"fees" binding:"omitempty,min=1,dive"`
	Installments []InstallmentRequest `json:"installments" binding:"omitempty,dive"`
}

// TransactionRequest records a payment.
type TransactionRequest struct {
	StudentID     string  `json:"studentId" binding:"required"`
	FeesType      string  `json:"feesType" binding:"required,max=80"`
	FeeTypeKey    string  `json:"feeTypeKey" binding:"omitempty,max=64"`
	Amount        float64 `json:"amount" binding:"gt=0"`
	Mode          string  `json:"mode" binding:"required,oneof=cash upi card bank cheque"`
	PaidAt        string  `json:"paidAt"`
	TransactionID *string `json:"transactionId" binding:"omitempty,max=64"`
	ReceiptID     *string `json:"receiptId" binding:"omitempty,max=64"`
	Installment   *string `json:"installment" binding:"omitempty,max=40"`
	Remarks       *string `json:"remarks" binding:"omitempty,max=300"`
}
