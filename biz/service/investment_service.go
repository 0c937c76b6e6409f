package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"cryptovest/biz/model"
	"cryptovest/biz/store"
)

// InvestmentService runs the buy/sell lifecycle and the pull-based
// revaluation of open positions.
type InvestmentService struct {
	store  store.Store
	prices PriceSource
	events *LedgerEvents
}

func NewInvestmentService(st store.Store, prices PriceSource, events *LedgerEvents) *InvestmentService {
	return &InvestmentService{store: st, prices: prices, events: events}
}

// PortfolioSummary aggregates the caller's active positions after
// revaluation. Profit/loss totals include any admin display adjustment,
// matching what the position list shows.
type PortfolioSummary struct {
	TotalInvested             float64 `json:"total_invested"`
	TotalCurrentValue         float64 `json:"total_current_value"`
	TotalProfitLoss           float64 `json:"total_profit_loss"`
	TotalProfitLossPercentage float64 `json:"total_profit_loss_percentage"`
}

// Buy opens a position: quantity = amount / current price, wallet debited,
// completed ledger entry appended. A missing price is fatal: a trade
// cannot be priced off a stale reading. Nothing is written on any failure.
func (s *InvestmentService) Buy(ctx context.Context, userID, assetID string, amount float64) (*model.Investment, *model.Transaction, error) {
	if amount <= 0 {
		return nil, nil, store.Invalidf("amount must be greater than 0")
	}
	crypto, err := s.store.GetCrypto(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}
	price, err := s.prices.CurrentPrice(ctx, crypto.Symbol)
	if err != nil {
		return nil, nil, err
	}

	var (
		investment *model.Investment
		txn        *model.Transaction
	)
	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		if _, err := tx.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		w, err := tx.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if w.Balance < amount {
			return store.ErrInsufficientFunds
		}

		inv, err := model.NewInvestment(userID, crypto.Symbol, amount, price)
		if err != nil {
			return err
		}
		if err := tx.CreateInvestment(ctx, inv); err != nil {
			return err
		}

		t, err := model.NewTransaction(userID, model.TxInvestment, amount, model.TxCompleted,
			fmt.Sprintf("Investment in %s (%s)", crypto.Name, crypto.Symbol))
		if err != nil {
			return err
		}
		t.Reference = inv.InvestmentID
		if err := tx.AppendTransaction(ctx, t); err != nil {
			return err
		}

		w.Balance -= amount
		if err := tx.SaveWallet(ctx, w); err != nil {
			return err
		}
		investment, txn = inv, t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.events.Publish(txn)
	return investment, txn, nil
}

// Sell settles an active position at the true price; the admin display
// adjustment never enters this math. priceOverride, when non-nil, replaces
// the live price (admin settlement tooling); otherwise a missing live price
// is fatal. The wallet is credited with the full settlement value and a
// profit or loss entry of |profitLoss| is appended.
func (s *InvestmentService) Sell(ctx context.Context, userID, investmentID string, priceOverride *float64) (*model.Investment, *model.Transaction, error) {
	var (
		investment *model.Investment
		txn        *model.Transaction
	)
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		inv, err := tx.GetInvestmentForUpdate(ctx, investmentID)
		if err != nil {
			return err
		}
		if inv.UserID != userID {
			return store.ErrUnauthorized
		}
		if inv.Status != model.InvestmentActive {
			return store.ErrInvalidState
		}

		var price float64
		if priceOverride != nil {
			if *priceOverride <= 0 {
				return store.Invalidf("sell price must be greater than 0")
			}
			price = *priceOverride
		} else {
			price, err = s.prices.CurrentPrice(ctx, inv.Symbol)
			if err != nil {
				return err
			}
		}

		inv.CurrentValue = inv.Quantity * price
		inv.ProfitLoss = inv.CurrentValue - inv.Amount
		inv.ProfitLossPercentage = inv.ProfitLoss / inv.Amount * 100
		inv.Status = model.InvestmentSold
		inv.SoldAt = time.Now().Unix()
		if err := tx.UpdateInvestment(ctx, inv); err != nil {
			return err
		}

		// A break-even sale has nothing to record on the profit/loss side;
		// ledger amounts are strictly positive.
		if inv.ProfitLoss != 0 {
			txType := model.TxProfit
			if inv.ProfitLoss < 0 {
				txType = model.TxLoss
			}
			t, err := model.NewTransaction(userID, txType, math.Abs(inv.ProfitLoss), model.TxCompleted,
				fmt.Sprintf("Sold investment in %s", inv.Symbol))
			if err != nil {
				return err
			}
			t.Reference = inv.InvestmentID
			if err := tx.AppendTransaction(ctx, t); err != nil {
				return err
			}
			txn = t
		}

		w, err := tx.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		w.Balance += inv.CurrentValue
		if err := tx.SaveWallet(ctx, w); err != nil {
			return err
		}
		investment = inv
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.events.Publish(txn)
	return investment, txn, nil
}

// List returns the caller's active positions, revalued at the latest price
// with the display adjustment applied.
func (s *InvestmentService) List(ctx context.Context, userID string) ([]model.Investment, error) {
	if userID == "" {
		return nil, store.Invalidf("user required")
	}
	invs, err := s.store.ListInvestments(ctx, userID, model.InvestmentActive)
	if err != nil {
		return nil, err
	}
	for i := range invs {
		revalueInvestment(ctx, s.prices, &invs[i])
	}
	return invs, nil
}

// Portfolio aggregates the revalued active positions.
func (s *InvestmentService) Portfolio(ctx context.Context, userID string) (*PortfolioSummary, []model.Investment, error) {
	invs, err := s.List(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	summary := &PortfolioSummary{}
	for _, inv := range invs {
		summary.TotalInvested += inv.Amount
		summary.TotalCurrentValue += inv.CurrentValue
		summary.TotalProfitLoss += inv.ProfitLoss
	}
	if summary.TotalInvested > 0 {
		summary.TotalProfitLossPercentage = summary.TotalProfitLoss / summary.TotalInvested * 100
	}
	return summary, invs, nil
}

// revalueInvestment recomputes current value and profit/loss from quantity
// and the latest price. Read paths tolerate a missing live price by falling
// back to the last known one; with neither available the stored values
// stand. The admin adjustment shifts only these displayed figures.
func revalueInvestment(ctx context.Context, prices PriceSource, inv *model.Investment) {
	price, err := prices.CurrentPrice(ctx, inv.Symbol)
	if err != nil {
		if p, ok := prices.LastKnownPrice(ctx, inv.Symbol); ok {
			price = p
		} else {
			applyAdjustment(inv)
			return
		}
	}
	inv.CurrentValue = inv.Quantity * price
	inv.ProfitLoss = inv.CurrentValue - inv.Amount
	inv.ProfitLossPercentage = inv.ProfitLoss / inv.Amount * 100
	applyAdjustment(inv)
}

// applyAdjustment overlays the admin offset onto the displayed profit/loss:
// displayedPct = basePct + offset, displayedPL = displayedPct/100 * amount.
func applyAdjustment(inv *model.Investment) {
	if !inv.Adjustment.Enabled {
		return
	}
	inv.ProfitLossPercentage += inv.Adjustment.Percentage
	inv.ProfitLoss = inv.ProfitLossPercentage / 100 * inv.Amount
}
