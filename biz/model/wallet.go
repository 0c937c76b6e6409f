package model

// Wallet holds a user's cash balance plus bookkeeping counters.
// One wallet per user, created lazily on first access, never deleted.
type Wallet struct {
	WalletID           string  `gorm:"primaryKey;column:wallet_id" json:"wallet_id"`
	UserID             string  `gorm:"uniqueIndex;column:user_id;not null" json:"user_id"`
	Balance            float64 `gorm:"column:balance;default:0" json:"balance"`
	PendingWithdrawals float64 `gorm:"column:pending_withdrawals;default:0" json:"pending_withdrawals"`
	TotalDeposited     float64 `gorm:"column:total_deposited;default:0" json:"total_deposited"`
	TotalWithdrawn     float64 `gorm:"column:total_withdrawn;default:0" json:"total_withdrawn"`
	CreatedAt          int64   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          int64   `gorm:"column:updated_at" json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}
