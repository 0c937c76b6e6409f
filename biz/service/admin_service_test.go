package service

import (
	"context"
	"errors"
	"testing"

	"cryptovest/biz/model"
	"cryptovest/biz/store"
)

func TestSetAdjustmentPersists(t *testing.T) {
	st, svc, prices := fundedInvestmentFixture(t, 1000)
	ctx := context.Background()
	inv, _, _ := svc.Buy(ctx, "user1", "TST", 100)

	admin := NewAdminService(st, prices)
	if _, err := admin.SetAdjustment(ctx, inv.InvestmentID, true, 25); err != nil {
		t.Fatalf("SetAdjustment failed: %v", err)
	}
	stored, _ := st.GetInvestment(ctx, inv.InvestmentID)
	if !stored.Adjustment.Enabled || stored.Adjustment.Percentage != 25 || stored.Adjustment.LastUpdated == 0 {
		t.Errorf("adjustment not persisted: %+v", stored.Adjustment)
	}

	if _, err := admin.SetAdjustment(ctx, inv.InvestmentID, false, 0); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	stored, _ = st.GetInvestment(ctx, inv.InvestmentID)
	if stored.Adjustment.Enabled {
		t.Error("adjustment still enabled")
	}

	if _, err := admin.SetAdjustment(ctx, "missing", true, 10); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown investment err=%v", err)
	}
}

func TestSetAdjustmentUsesLastKnownPrice(t *testing.T) {
	st, svc, prices := fundedInvestmentFixture(t, 1000)
	ctx := context.Background()
	inv, _, _ := svc.Buy(ctx, "user1", "TST", 100)

	if err := prices.ApplyTick(ctx, "TST", 12, 0); err != nil {
		t.Fatalf("ApplyTick failed: %v", err)
	}
	// live price gone after the tick, history still holds it
	setPrice(t, st, "TST", 0)

	admin := NewAdminService(st, prices)
	adjusted, err := admin.SetAdjustment(ctx, inv.InvestmentID, true, 50)
	if err != nil {
		t.Fatalf("SetAdjustment failed: %v", err)
	}
	// base +20% from the last known price plus the 50 point offset
	if !almostEqual(adjusted.ProfitLossPercentage, 70) {
		t.Errorf("displayed pct = %v", adjusted.ProfitLossPercentage)
	}
	if !almostEqual(adjusted.CurrentValue, 120) {
		t.Errorf("current value = %v", adjusted.CurrentValue)
	}

	// the position list must agree with what the admin just saw
	listed, err := svc.List(ctx, "user1")
	if err != nil || len(listed) != 1 {
		t.Fatalf("List failed: %v (%d)", err, len(listed))
	}
	if !almostEqual(listed[0].ProfitLossPercentage, adjusted.ProfitLossPercentage) {
		t.Errorf("read paths disagree: list=%v admin=%v", listed[0].ProfitLossPercentage, adjusted.ProfitLossPercentage)
	}
}

func TestUpdateCryptoSettingsPartial(t *testing.T) {
	st, prices, _ := newLedgerFixture()
	admin := NewAdminService(st, prices)
	ctx := context.Background()

	vol := 0.12
	c, err := admin.UpdateCryptoSettings(ctx, "BTC", &vol, nil)
	if err != nil {
		t.Fatalf("UpdateCryptoSettings failed: %v", err)
	}
	if c.Settings.Volatility != 0.12 {
		t.Errorf("volatility = %v", c.Settings.Volatility)
	}

	trend := -0.3
	c, err = admin.UpdateCryptoSettings(ctx, "BTC", nil, &trend)
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if c.Settings.Volatility != 0.12 {
		t.Errorf("nil volatility overwrote the stored value: %v", c.Settings.Volatility)
	}
	if c.Settings.Trend != -0.3 {
		t.Errorf("trend = %v", c.Settings.Trend)
	}
	if c.Settings.LastUpdated == 0 {
		t.Error("LastUpdated not stamped")
	}
}

func TestDashboardAggregates(t *testing.T) {
	st, prices, events := newLedgerFixture()
	ctx := context.Background()
	wallets := NewWalletService(st, events)
	investments := NewInvestmentService(st, prices, events)
	withdrawals := NewWithdrawalService(st, events)
	setPrice(t, st, "TST", 10)

	if _, _, err := wallets.Deposit(ctx, "a", 500, "card"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, _, err := wallets.Deposit(ctx, "b", 300, "card"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, _, err := investments.Buy(ctx, "a", "TST", 200); err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if _, _, err := withdrawals.Request(ctx, "b", 100, "bank_transfer", ""); err != nil {
		t.Fatalf("withdrawal request failed: %v", err)
	}

	admin := NewAdminService(st, prices)
	dash, err := admin.GetDashboard(ctx)
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}
	if dash.Stats.UserCount != 2 {
		t.Errorf("UserCount = %d", dash.Stats.UserCount)
	}
	if !almostEqual(dash.Stats.TotalDeposits, 800) {
		t.Errorf("TotalDeposits = %v", dash.Stats.TotalDeposits)
	}
	if dash.Stats.PendingWithdrawals != 1 {
		t.Errorf("PendingWithdrawals = %d", dash.Stats.PendingWithdrawals)
	}
	if dash.Stats.ActiveInvestments != 1 || !almostEqual(dash.Stats.TotalInvestmentAmount, 200) {
		t.Errorf("investment stats wrong: %+v", dash.Stats)
	}
	if len(dash.RecentTransactions) != 4 {
		t.Errorf("expected 4 recent entries, got %d", len(dash.RecentTransactions))
	}
	// newest first: the withdrawal request entry leads
	if dash.RecentTransactions[0].Type != model.TxWithdrawal {
		t.Errorf("recent entries not newest first: %+v", dash.RecentTransactions[0])
	}

	ws, err := admin.ListWallets(ctx)
	if err != nil || len(ws) != 2 {
		t.Errorf("ListWallets = %d err=%v", len(ws), err)
	}
}
