package websocket

import "time"

// PaymentRecorded is the payload of a payment.recorded notification.
type PaymentRecorded struct {
	StudentID string    `json:"studentId"`
	ReceiptID string    `json:"receiptId"`
	FeesType  string    `json:"feesType"`
	Amount    float64   `json:"amount"`
	PaidAt    time.Time `json:"paidAt"`
}

// ResultsPublished is the payload of a results.published notification.
type ResultsPublished struct {
	ExamID      int64  `json:"examId"`
	ExamName    string `json:"examName"`
	Class       string `json:"class"`
	SessionYear string `json:"sessionYear"`
}

// NotifyPaymentRecorded fans a payment event out to each recipient.
func NotifyPaymentRecorded(n Notifier, recipients []int64, p PaymentRecorded) {
	for _, id := range recipients {
		n.Notify(id, TypePaymentRecorded, "Payment recorded", p)
	}
}

// NotifyResultsPublished fans a results event out to each recipient.
func NotifyResultsPublished(n Notifier, recipients []int64, p ResultsPublished) {
	for _, id := range recipients {
		n.Notify(id, TypeResultsPublished, "Results published: "+p.ExamName, p)
	}
}
