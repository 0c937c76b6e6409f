package service

import (
	"context"
	"fmt"

	"cryptovest/biz/model"
	"cryptovest/biz/store"
)

// WalletService owns the cash side of the ledger: wallet access, deposits
// and transaction history.
type WalletService struct {
	store  store.Store
	events *LedgerEvents
}

func NewWalletService(st store.Store, events *LedgerEvents) *WalletService {
	return &WalletService{store: st, events: events}
}

// GetWallet returns the user's wallet, creating a zero-balance one on first
// access.
func (s *WalletService) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	return s.store.EnsureWallet(ctx, userID)
}

// Deposit settles instantly: balance and totalDeposited move together with
// a completed ledger entry, all inside one transaction.
func (s *WalletService) Deposit(ctx context.Context, userID string, amount float64, method string) (*model.Wallet, *model.Transaction, error) {
	if amount <= 0 {
		return nil, nil, store.Invalidf("amount must be greater than 0")
	}
	if method == "" {
		return nil, nil, store.Invalidf("payment method required")
	}

	var (
		wallet *model.Wallet
		txn    *model.Transaction
	)
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		if _, err := tx.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		w, err := tx.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		t, err := model.NewTransaction(userID, model.TxDeposit, amount, model.TxCompleted,
			fmt.Sprintf("Deposit via %s", method))
		if err != nil {
			return err
		}
		if err := tx.AppendTransaction(ctx, t); err != nil {
			return err
		}
		w.Balance += amount
		w.TotalDeposited += amount
		if err := tx.SaveWallet(ctx, w); err != nil {
			return err
		}
		wallet, txn = w, t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.events.Publish(txn)
	return wallet, txn, nil
}

// Transactions returns the user's ledger history, newest first.
func (s *WalletService) Transactions(ctx context.Context, userID string, f store.TransactionFilter) ([]model.Transaction, error) {
	if userID == "" {
		return nil, store.Invalidf("user required")
	}
	return s.store.ListTransactions(ctx, userID, f)
}
