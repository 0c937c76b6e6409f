package service

import (
	"context"
	"time"

	"cryptovest/biz/model"
	"cryptovest/biz/store"
)

// AdminService carries the admin-only surface: the profit/loss display
// adjustment, crypto simulator knobs and the dashboard aggregates.
type AdminService struct {
	store  store.Store
	prices PriceSource
}

func NewAdminService(st store.Store, prices PriceSource) *AdminService {
	return &AdminService{store: st, prices: prices}
}

// Dashboard is the admin landing payload.
type Dashboard struct {
	Stats              *store.DashboardStats `json:"financials"`
	RecentTransactions []model.Transaction   `json:"recent_transactions"`
}

// SetAdjustment stores the cosmetic profit/loss offset on an investment.
// The offset shifts displayed figures only; settlement stays untouched. The
// returned investment is revalued with the new overlay so the caller sees
// the effect immediately.
func (s *AdminService) SetAdjustment(ctx context.Context, investmentID string, enabled bool, percentage float64) (*model.Investment, error) {
	inv, err := s.store.GetInvestment(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	inv.Adjustment = model.AdminAdjustment{
		Enabled:     enabled,
		Percentage:  percentage,
		LastUpdated: time.Now().Unix(),
	}
	if err := s.store.UpdateInvestment(ctx, inv); err != nil {
		return nil, err
	}

	out := *inv
	revalueInvestment(ctx, s.prices, &out)
	return &out, nil
}

// UpdateCryptoSettings stores the volatility/trend knobs read by the
// external price simulator. Nil fields keep their current value.
func (s *AdminService) UpdateCryptoSettings(ctx context.Context, idOrSymbol string, volatility, trend *float64) (*model.Crypto, error) {
	c, err := s.store.GetCrypto(ctx, idOrSymbol)
	if err != nil {
		return nil, err
	}
	if volatility != nil {
		c.Settings.Volatility = *volatility
	}
	if trend != nil {
		c.Settings.Trend = *trend
	}
	c.Settings.LastUpdated = time.Now().Unix()
	if err := s.store.SaveCrypto(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetDashboard returns the aggregate financials plus the ten most recent
// ledger entries.
func (s *AdminService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.ListRecentTransactions(ctx, 10)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Stats: stats, RecentTransactions: recent}, nil
}

// ListWallets returns every user wallet for the admin user overview.
func (s *AdminService) ListWallets(ctx context.Context) ([]model.Wallet, error) {
	return s.store.ListWallets(ctx)
}
