package domain

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentRejected PaymentStatus = "REJECTED"
)

type Payment struct {
	ID              int64
	UserID          int64
	UserTelegramID  int64
	UserFirstName   string
	Amount          int64
	DurationDays    int
	ReceiptFileID   string
	Status          PaymentStatus
	ProcessedBy     *int64
	RejectionReason string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}

type PaymentStatistics struct {
	TotalPayments int
	ApprovedCount int
	RejectedCount int
	PendingCount  int
	TotalRevenue  int64
}

// RejectionOutcome is the result of rejecting a payment.
type RejectionOutcome struct {
	Payment  *Payment
	BanCount int
	Banned   bool
}
