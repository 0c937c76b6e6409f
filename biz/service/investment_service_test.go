package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"cryptovest/biz/model"
	"cryptovest/biz/store"
)

func fundedInvestmentFixture(t *testing.T, balance float64) (store.Store, *InvestmentService, *PriceService) {
	t.Helper()
	st, prices, events := newLedgerFixture()
	ctx := context.Background()
	if _, _, err := NewWalletService(st, events).Deposit(ctx, "user1", balance, "card"); err != nil {
		t.Fatalf("funding deposit failed: %v", err)
	}
	setPrice(t, st, "TST", 10)
	return st, NewInvestmentService(st, prices, events), prices
}

func setPrice(t *testing.T, st store.Store, symbol string, price float64) {
	t.Helper()
	ctx := context.Background()
	c, err := st.GetCrypto(ctx, symbol)
	if err != nil {
		c = &model.Crypto{Symbol: symbol, Name: "Testcoin", IsActive: true}
	}
	c.CurrentPrice = price
	if err := st.SaveCrypto(ctx, c); err != nil {
		t.Fatalf("SaveCrypto failed: %v", err)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuyOpensPosition(t *testing.T) {
	st, svc, _ := fundedInvestmentFixture(t, 1000)
	ctx := context.Background()

	inv, txn, err := svc.Buy(ctx, "user1", "TST", 100)
	if err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if !almostEqual(inv.Quantity, 10) || inv.BuyPrice != 10 {
		t.Errorf("position sized wrong: quantity=%v buyPrice=%v", inv.Quantity, inv.BuyPrice)
	}
	if inv.CurrentValue != 100 || inv.ProfitLoss != 0 || inv.Status != model.InvestmentActive {
		t.Errorf("unexpected new position: %+v", inv)
	}
	if txn.Type != model.TxInvestment || txn.Status != model.TxCompleted || txn.Amount != 100 {
		t.Errorf("unexpected ledger entry: %+v", txn)
	}
	if txn.Reference != inv.InvestmentID {
		t.Errorf("entry not referencing its position: %q", txn.Reference)
	}
	w, _ := st.GetWallet(ctx, "user1")
	if w.Balance != 900 {
		t.Errorf("wallet not debited: %v", w.Balance)
	}
}

func TestBuyFailuresWriteNothing(t *testing.T) {
	st, svc, _ := fundedInvestmentFixture(t, 100)
	ctx := context.Background()

	if _, _, err := svc.Buy(ctx, "user1", "TST", 0); !store.IsValidation(err) {
		t.Errorf("zero amount accepted, err=%v", err)
	}
	if _, _, err := svc.Buy(ctx, "user1", "NOPE", 50); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown asset err=%v", err)
	}
	if _, _, err := svc.Buy(ctx, "user1", "TST", 100.01); !errors.Is(err, store.ErrInsufficientFunds) {
		t.Errorf("overspend err=%v", err)
	}

	// a listed asset without a usable price cannot be traded
	setPrice(t, st, "DEAD", 0)
	if _, _, err := svc.Buy(ctx, "user1", "DEAD", 50); !errors.Is(err, store.ErrPriceUnavailable) {
		t.Errorf("priceless asset err=%v", err)
	}

	w, _ := st.GetWallet(ctx, "user1")
	if w.Balance != 100 {
		t.Errorf("failed buys moved money: %v", w.Balance)
	}
	invs, _ := svc.List(ctx, "user1")
	if len(invs) != 0 {
		t.Errorf("failed buys left %d positions", len(invs))
	}
}

func TestSellAtProfit(t *testing.T) {
	st, svc, _ := fundedInvestmentFixture(t, 1000)
	ctx := context.Background()
	inv, _, _ := svc.Buy(ctx, "user1", "TST", 100)

	setPrice(t, st, "TST", 12)
	sold, txn, err := svc.Sell(ctx, "user1", inv.InvestmentID, nil)
	if err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	if sold.Status != model.InvestmentSold || sold.SoldAt == 0 {
		t.Errorf("position not closed: %+v", sold)
	}
	if !almostEqual(sold.CurrentValue, 120) || !almostEqual(sold.ProfitLoss, 20) || !almostEqual(sold.ProfitLossPercentage, 20) {
		t.Errorf("settlement math wrong: value=%v pl=%v pct=%v", sold.CurrentValue, sold.ProfitLoss, sold.ProfitLossPercentage)
	}
	if txn.Type != model.TxProfit || !almostEqual(txn.Amount, 20) || txn.Reference != inv.InvestmentID {
		t.Errorf("unexpected profit entry: %+v", txn)
	}
	w, _ := st.GetWallet(ctx, "user1")
	if !almostEqual(w.Balance, 1020) {
		t.Errorf("wallet not credited with settlement: %v", w.Balance)
	}
}

func TestSellAtLoss(t *testing.T) {
	st, svc, _ := fundedInvestmentFixture(t, 1000)
	ctx := context.Background()
	inv, _, _ := svc.Buy(ctx, "user1", "TST", 100)

	setPrice(t, st, "TST", 8)
	sold, txn, err := svc.Sell(ctx, "user1", inv.InvestmentID, nil)
	if err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	if !almostEqual(sold.ProfitLoss, -20) {
		t.Errorf("loss = %v", sold.ProfitLoss)
	}
	if txn.Type != model.TxLoss || !almostEqual(txn.Amount, 20) {
		t.Errorf("loss entry wrong: %+v", txn)
	}
	w, _ := st.GetWallet(ctx, "user1")
	if !almostEqual(w.Balance, 980) {
		t.Errorf("wallet balance = %v", w.Balance)
	}
}

func TestSellBreakEvenAppendsNoEntry(t *testing.T) {
	st, svc, _ := fundedInvestmentFixture(t, 1000)
	ctx := context.Background()
	inv, _, _ := svc.Buy(ctx, "user1", "TST", 100)

	sold, txn, err := svc.Sell(ctx, "user1", inv.InvestmentID, nil)
	if err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	if txn != nil {
		t.Errorf("break-even sale produced a ledger entry: %+v", txn)
	}
	if !almostEqual(sold.ProfitLoss, 0) {
		t.Errorf("profit/loss = %v", sold.ProfitLoss)
	}
	w, _ := st.GetWallet(ctx, "user1")
	if !almostEqual(w.Balance, 1000) {
		t.Errorf("wallet balance = %v", w.Balance)
	}
	for _, entry := range mustList(t, st, "user1") {
		if entry.Type == model.TxProfit || entry.Type == model.TxLoss {
			t.Errorf("unexpected %s entry: %+v", entry.Type, entry)
		}
	}
}

func mustList(t *testing.T, st store.Store, userID string) []model.Transaction {
	t.Helper()
	txs, err := st.ListTransactions(context.Background(), userID, store.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	return txs
}

func TestSellGuards(t *testing.T) {
	st, svc, _ := fundedInvestmentFixture(t, 1000)
	ctx := context.Background()
	inv, _, _ := svc.Buy(ctx, "user1", "TST", 100)

	if _, _, err := svc.Sell(ctx, "intruder", inv.InvestmentID, nil); !errors.Is(err, store.ErrUnauthorized) {
		t.Errorf("foreign sell err=%v", err)
	}
	if _, _, err := svc.Sell(ctx, "user1", "missing", nil); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing position err=%v", err)
	}
	bad := -1.0
	if _, _, err := svc.Sell(ctx, "user1", inv.InvestmentID, &bad); !store.IsValidation(err) {
		t.Errorf("non-positive override err=%v", err)
	}

	if _, _, err := svc.Sell(ctx, "user1", inv.InvestmentID, nil); err != nil {
		t.Fatalf("first sell failed: %v", err)
	}
	if _, _, err := svc.Sell(ctx, "user1", inv.InvestmentID, nil); !errors.Is(err, store.ErrInvalidState) {
		t.Errorf("double sell err=%v", err)
	}
	w, _ := st.GetWallet(ctx, "user1")
	if !almostEqual(w.Balance, 1000) {
		t.Errorf("guarded sells moved money: %v", w.Balance)
	}
}

func TestSellPriceOverrideWinsOverLivePrice(t *testing.T) {
	st, svc, _ := fundedInvestmentFixture(t, 1000)
	ctx := context.Background()
	inv, _, _ := svc.Buy(ctx, "user1", "TST", 100)

	override := 15.0
	sold, _, err := svc.Sell(ctx, "user1", inv.InvestmentID, &override)
	if err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	if !almostEqual(sold.CurrentValue, 150) {
		t.Errorf("override ignored: value=%v", sold.CurrentValue)
	}
	w, _ := st.GetWallet(ctx, "user1")
	if !almostEqual(w.Balance, 1050) {
		t.Errorf("wallet balance = %v", w.Balance)
	}
}

func TestAdjustmentShiftsDisplayNotSettlement(t *testing.T) {
	st, svc, prices := fundedInvestmentFixture(t, 1000)
	ctx := context.Background()
	inv, _, _ := svc.Buy(ctx, "user1", "TST", 100)
	setPrice(t, st, "TST", 12)

	admin := NewAdminService(st, prices)
	adjusted, err := admin.SetAdjustment(ctx, inv.InvestmentID, true, 50)
	if err != nil {
		t.Fatalf("SetAdjustment failed: %v", err)
	}
	// base +20% plus the 50 point offset
	if !almostEqual(adjusted.ProfitLossPercentage, 70) {
		t.Errorf("displayed pct = %v", adjusted.ProfitLossPercentage)
	}
	if !almostEqual(adjusted.ProfitLoss, 70) {
		t.Errorf("displayed profit/loss = %v", adjusted.ProfitLoss)
	}

	listed, err := svc.List(ctx, "user1")
	if err != nil || len(listed) != 1 {
		t.Fatalf("List failed: %v (%d)", err, len(listed))
	}
	if !almostEqual(listed[0].ProfitLossPercentage, 70) {
		t.Errorf("listing ignores overlay: pct=%v", listed[0].ProfitLossPercentage)
	}

	// settlement keeps the true price
	sold, txn, err := svc.Sell(ctx, "user1", inv.InvestmentID, nil)
	if err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	if !almostEqual(sold.CurrentValue, 120) || !almostEqual(sold.ProfitLoss, 20) {
		t.Errorf("overlay leaked into settlement: value=%v pl=%v", sold.CurrentValue, sold.ProfitLoss)
	}
	if txn.Type != model.TxProfit || !almostEqual(txn.Amount, 20) {
		t.Errorf("overlay leaked into the ledger: %+v", txn)
	}
	w, _ := st.GetWallet(ctx, "user1")
	if !almostEqual(w.Balance, 1020) {
		t.Errorf("overlay leaked into the wallet: %v", w.Balance)
	}
}

func TestPortfolioAggregates(t *testing.T) {
	st, svc, _ := fundedInvestmentFixture(t, 1000)
	ctx := context.Background()
	setPrice(t, st, "AAA", 10)
	setPrice(t, st, "BBB", 100)
	if _, _, err := svc.Buy(ctx, "user1", "AAA", 100); err != nil {
		t.Fatalf("Buy AAA failed: %v", err)
	}
	if _, _, err := svc.Buy(ctx, "user1", "BBB", 200); err != nil {
		t.Fatalf("Buy BBB failed: %v", err)
	}
	setPrice(t, st, "AAA", 12) // +20 on the first position

	summary, invs, err := svc.Portfolio(ctx, "user1")
	if err != nil {
		t.Fatalf("Portfolio failed: %v", err)
	}
	if len(invs) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(invs))
	}
	if !almostEqual(summary.TotalInvested, 300) {
		t.Errorf("TotalInvested = %v", summary.TotalInvested)
	}
	if !almostEqual(summary.TotalCurrentValue, 320) {
		t.Errorf("TotalCurrentValue = %v", summary.TotalCurrentValue)
	}
	if !almostEqual(summary.TotalProfitLoss, 20) {
		t.Errorf("TotalProfitLoss = %v", summary.TotalProfitLoss)
	}
	if !almostEqual(summary.TotalProfitLossPercentage, 20.0/300*100) {
		t.Errorf("TotalProfitLossPercentage = %v", summary.TotalProfitLossPercentage)
	}
}

// The wallet must reconcile against the ledger across a full lifecycle:
// deposits in, withdrawals out, investments round-tripped through buy/sell.
func TestWalletReconciliation(t *testing.T) {
	st, prices, events := newLedgerFixture()
	ctx := context.Background()
	wallets := NewWalletService(st, events)
	withdrawals := NewWithdrawalService(st, events)
	investments := NewInvestmentService(st, prices, events)
	setPrice(t, st, "TST", 10)

	if _, _, err := wallets.Deposit(ctx, "user1", 1000, "card"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	inv, _, err := investments.Buy(ctx, "user1", "TST", 400)
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	setPrice(t, st, "TST", 11)
	if _, _, err := investments.Sell(ctx, "user1", inv.InvestmentID, nil); err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	reqDone, _, err := withdrawals.Request(ctx, "user1", 200, "bank_transfer", "")
	if err != nil {
		t.Fatalf("withdrawal request failed: %v", err)
	}
	if _, err := withdrawals.Process(ctx, "admin", reqDone.RequestID, model.WithdrawalApproved, ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := withdrawals.Process(ctx, "admin", reqDone.RequestID, model.WithdrawalCompleted, ""); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	reqRej, _, err := withdrawals.Request(ctx, "user1", 100, "bank_transfer", "")
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	if _, err := withdrawals.Process(ctx, "admin", reqRej.RequestID, model.WithdrawalRejected, "no"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	// 1000 in, 400 -> 440 round trip, 200 out, 100 refunded
	w, _ := st.GetWallet(ctx, "user1")
	if !almostEqual(w.Balance, 840) {
		t.Errorf("balance = %v", w.Balance)
	}
	if w.PendingWithdrawals != 0 {
		t.Errorf("pending = %v", w.PendingWithdrawals)
	}
	if !almostEqual(w.TotalDeposited, 1000) || !almostEqual(w.TotalWithdrawn, 200) {
		t.Errorf("running totals wrong: %+v", w)
	}

	// Replaying the ledger must land on the same balance. Sold positions
	// round-trip their principal, so only still-active ones hold cash back.
	var replayed float64
	for _, entry := range mustList(t, st, "user1") {
		if entry.Status != model.TxCompleted {
			continue
		}
		switch entry.Type {
		case model.TxDeposit, model.TxProfit:
			replayed += entry.Amount
		case model.TxWithdrawal, model.TxLoss:
			replayed -= entry.Amount
		}
	}
	active, _ := st.ListInvestments(ctx, "user1", model.InvestmentActive)
	for _, pos := range active {
		replayed -= pos.Amount
	}
	if !almostEqual(replayed, w.Balance) {
		t.Errorf("ledger replay = %v, wallet balance = %v", replayed, w.Balance)
	}
}
