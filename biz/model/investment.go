package model

import (
	"fmt"
	"time"

	"cryptovest/biz/util"
)

// Investment statuses.
const (
	InvestmentActive    = "active"
	InvestmentSold      = "sold"
	InvestmentCancelled = "cancelled"
)

// AdminAdjustment is the admin-controlled cosmetic offset applied to the
// displayed profit/loss of a single investment. It never touches settlement.
type AdminAdjustment struct {
	Enabled     bool    `gorm:"column:adj_enabled;default:false" json:"enabled"`
	Percentage  float64 `gorm:"column:adj_percentage;default:0" json:"percentage"`
	LastUpdated int64   `gorm:"column:adj_last_updated" json:"last_updated,omitempty"`
}

// Investment is a buy position in a single asset. Sold positions are kept
// for history and never deleted.
type Investment struct {
	InvestmentID         string  `gorm:"primaryKey;column:investment_id" json:"investment_id"`
	UserID               string  `gorm:"index;column:user_id;not null" json:"user_id"`
	Symbol               string  `gorm:"index;column:symbol;not null" json:"symbol"`
	Amount               float64 `gorm:"column:amount;not null" json:"amount"`
	Quantity             float64 `gorm:"column:quantity;not null" json:"quantity"`
	BuyPrice             float64 `gorm:"column:buy_price;not null" json:"buy_price"`
	CurrentValue         float64 `gorm:"column:current_value" json:"current_value"`
	ProfitLoss           float64 `gorm:"column:profit_loss" json:"profit_loss"`
	ProfitLossPercentage float64 `gorm:"column:profit_loss_percentage" json:"profit_loss_percentage"`
	Status               string  `gorm:"index;column:status;not null" json:"status"`

	Adjustment AdminAdjustment `gorm:"embedded" json:"admin_adjustment"`

	CreatedAt int64 `gorm:"column:created_at" json:"created_at"`
	SoldAt    int64 `gorm:"column:sold_at" json:"sold_at,omitempty"`
}

func (Investment) TableName() string {
	return "investments"
}

// NewInvestment opens an active position: quantity = amount / buyPrice,
// current value starts at the invested amount with zero profit/loss.
func NewInvestment(userID, symbol string, amount, buyPrice float64) (*Investment, error) {
	if userID == "" {
		return nil, fmt.Errorf("investment user required")
	}
	if symbol == "" {
		return nil, fmt.Errorf("investment symbol required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("investment amount must be greater than 0")
	}
	if buyPrice <= 0 {
		return nil, fmt.Errorf("investment buy price must be greater than 0")
	}
	id, err := util.NextID()
	if err != nil {
		return nil, err
	}
	return &Investment{
		InvestmentID: id,
		UserID:       userID,
		Symbol:       symbol,
		Amount:       amount,
		Quantity:     amount / buyPrice,
		BuyPrice:     buyPrice,
		CurrentValue: amount,
		Status:       InvestmentActive,
		CreatedAt:    time.Now().Unix(),
	}, nil
}
