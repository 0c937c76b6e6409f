package model

import (
	"fmt"
	"time"

	"cryptovest/biz/util"
)

// Withdrawal request statuses.
const (
	WithdrawalPending   = "pending"
	WithdrawalApproved  = "approved"
	WithdrawalRejected  = "rejected"
	WithdrawalCompleted = "completed"
)

// WithdrawalRequest tracks an admin-approved withdrawal. TransactionID is
// the ledger entry created together with the request; the linkage is an
// explicit foreign key so two same-amount requests never get confused.
type WithdrawalRequest struct {
	RequestID      string  `gorm:"primaryKey;column:request_id" json:"request_id"`
	UserID         string  `gorm:"index;column:user_id;not null" json:"user_id"`
	Amount         float64 `gorm:"column:amount;not null" json:"amount"`
	PaymentMethod  string  `gorm:"column:payment_method" json:"payment_method"`
	PaymentDetails string  `gorm:"column:payment_details" json:"payment_details"`
	Status         string  `gorm:"index;column:status;not null" json:"status"`
	TransactionID  string  `gorm:"column:transaction_id;not null" json:"transaction_id"`
	RequestedAt    int64   `gorm:"column:requested_at" json:"requested_at"`
	ProcessedAt    int64   `gorm:"column:processed_at" json:"processed_at,omitempty"`
	ProcessedBy    string  `gorm:"column:processed_by" json:"processed_by,omitempty"`
	AdminNotes     string  `gorm:"column:admin_notes" json:"admin_notes,omitempty"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// NewWithdrawalRequest builds a pending request linked to its ledger entry.
func NewWithdrawalRequest(userID string, amount float64, method, details, transactionID string) (*WithdrawalRequest, error) {
	if userID == "" {
		return nil, fmt.Errorf("withdrawal user required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be greater than 0")
	}
	if transactionID == "" {
		return nil, fmt.Errorf("withdrawal transaction link required")
	}
	id, err := util.NextID()
	if err != nil {
		return nil, err
	}
	return &WithdrawalRequest{
		RequestID:      id,
		UserID:         userID,
		Amount:         amount,
		PaymentMethod:  method,
		PaymentDetails: details,
		Status:         WithdrawalPending,
		TransactionID:  transactionID,
		RequestedAt:    time.Now().Unix(),
	}, nil
}

// Terminal reports whether the request can no longer transition.
func (r *WithdrawalRequest) Terminal() bool {
	return r.Status == WithdrawalRejected || r.Status == WithdrawalCompleted
}
