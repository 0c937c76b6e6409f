package model

import (
	"fmt"
	"time"

	"cryptovest/biz/util"
)

// Transaction types.
const (
	TxDeposit    = "deposit"
	TxWithdrawal = "withdrawal"
	TxInvestment = "investment"
	TxProfit     = "profit"
	TxLoss       = "loss"
	TxReferral   = "referral"
)

// Transaction statuses.
const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
	TxCancelled = "cancelled"
)

var txTypes = map[string]struct{}{
	TxDeposit: {}, TxWithdrawal: {}, TxInvestment: {},
	TxProfit: {}, TxLoss: {}, TxReferral: {},
}

var txStatuses = map[string]struct{}{
	TxPending: {}, TxCompleted: {}, TxFailed: {}, TxCancelled: {},
}

// Transaction is one append-only ledger entry. Amount, type and user are
// immutable after creation; only status and narrative fields may advance.
type Transaction struct {
	TxID          string  `gorm:"primaryKey;column:tx_id" json:"tx_id"`
	UserID        string  `gorm:"index:idx_tx_user_created;column:user_id;not null" json:"user_id"`
	Type          string  `gorm:"column:type;not null" json:"type"`
	Amount        float64 `gorm:"column:amount;not null" json:"amount"`
	Status        string  `gorm:"column:status;not null" json:"status"`
	Description   string  `gorm:"column:description" json:"description"`
	Reference     string  `gorm:"column:reference" json:"reference,omitempty"`
	FailureReason string  `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     int64   `gorm:"index:idx_tx_user_created;column:created_at" json:"created_at"`
	CompletedAt   int64   `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// NewTransaction is the single constructor for ledger entries. It assigns
// the ID and creation timestamp and rejects invalid type/amount/user.
func NewTransaction(userID, txType string, amount float64, status, description string) (*Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("transaction user required")
	}
	if _, ok := txTypes[txType]; !ok {
		return nil, fmt.Errorf("unknown transaction type %q", txType)
	}
	if _, ok := txStatuses[status]; !ok {
		return nil, fmt.Errorf("unknown transaction status %q", status)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("transaction amount must be greater than 0")
	}
	id, err := util.NextID()
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	t := &Transaction{
		TxID:        id,
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Status:      status,
		Description: description,
		CreatedAt:   now,
	}
	if status == TxCompleted {
		t.CompletedAt = now
	}
	return t, nil
}

// Terminal reports whether the transaction reached a final status.
func (t *Transaction) Terminal() bool {
	return t.Status == TxCompleted || t.Status == TxFailed || t.Status == TxCancelled
}
