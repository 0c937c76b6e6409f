package service

import (
	"context"
	"fmt"
	"time"

	"cryptovest/biz/model"
	"cryptovest/biz/store"
)

// legalTransitions is the whole withdrawal state machine:
// pending -> approved | rejected, approved -> completed.
// rejected and completed are terminal.
var legalTransitions = map[string]map[string]bool{
	model.WithdrawalPending: {
		model.WithdrawalApproved: true,
		model.WithdrawalRejected: true,
	},
	model.WithdrawalApproved: {
		model.WithdrawalCompleted: true,
	},
}

// WithdrawalService coordinates wallet holds and the admin approval state
// machine for withdrawal requests.
type WithdrawalService struct {
	store  store.Store
	events *LedgerEvents
}

func NewWithdrawalService(st store.Store, events *LedgerEvents) *WithdrawalService {
	return &WithdrawalService{store: st, events: events}
}

// Request places a hold on the wallet (balance down, pendingWithdrawals up)
// and creates the pending request plus its linked ledger entry in one
// transaction. The request stores the transaction ID so later processing
// never has to guess which entry belongs to it.
func (s *WithdrawalService) Request(ctx context.Context, userID string, amount float64, method, details string) (*model.WithdrawalRequest, *model.Transaction, error) {
	if amount <= 0 {
		return nil, nil, store.Invalidf("amount must be greater than 0")
	}
	if method == "" {
		return nil, nil, store.Invalidf("payment method required")
	}

	var (
		req *model.WithdrawalRequest
		txn *model.Transaction
	)
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
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

		t, err := model.NewTransaction(userID, model.TxWithdrawal, amount, model.TxPending,
			fmt.Sprintf("Withdrawal request via %s", method))
		if err != nil {
			return err
		}
		if err := tx.AppendTransaction(ctx, t); err != nil {
			return err
		}

		r, err := model.NewWithdrawalRequest(userID, amount, method, details, t.TxID)
		if err != nil {
			return err
		}
		if err := tx.CreateWithdrawal(ctx, r); err != nil {
			return err
		}

		w.Balance -= amount
		w.PendingWithdrawals += amount
		if err := tx.SaveWallet(ctx, w); err != nil {
			return err
		}
		req, txn = r, t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.events.Publish(txn)
	return req, txn, nil
}

// Process applies one admin transition to a request.
//
// rejected:  the hold is refunded, the ledger entry fails with the reason.
// approved:  narrative only, funds stay held. Settlement deliberately waits
//            for the separate completed step.
// completed: the hold settles into totalWithdrawn, the entry completes.
//
// Anything outside the transition table, including reprocessing a terminal
// request, returns ErrInvalidTransition and changes nothing.
func (s *WithdrawalService) Process(ctx context.Context, adminID, requestID, target, notes string) (*model.WithdrawalRequest, error) {
	var (
		req *model.WithdrawalRequest
		txn *model.Transaction
	)
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		// The lookup comes first so an unknown request reports not-found
		// regardless of what the caller asked for.
		r, err := tx.GetWithdrawalForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		switch target {
		case model.WithdrawalApproved, model.WithdrawalRejected, model.WithdrawalCompleted:
		default:
			return store.Invalidf("invalid target status %q", target)
		}
		if !legalTransitions[r.Status][target] {
			return store.ErrInvalidTransition
		}

		t, err := tx.GetTransaction(ctx, r.TransactionID)
		if err != nil {
			return err
		}

		switch target {
		case model.WithdrawalRejected:
			w, err := tx.GetWalletForUpdate(ctx, r.UserID)
			if err != nil {
				return err
			}
			w.Balance += r.Amount
			w.PendingWithdrawals -= r.Amount
			if err := tx.SaveWallet(ctx, w); err != nil {
				return err
			}
			t.Status = model.TxFailed
			t.FailureReason = rejectionReason(notes)
			t.Description += " (Rejected by admin)"

		case model.WithdrawalApproved:
			t.Description += " (Approved by admin)"

		case model.WithdrawalCompleted:
			w, err := tx.GetWalletForUpdate(ctx, r.UserID)
			if err != nil {
				return err
			}
			w.PendingWithdrawals -= r.Amount
			w.TotalWithdrawn += r.Amount
			if err := tx.SaveWallet(ctx, w); err != nil {
				return err
			}
			t.Status = model.TxCompleted
			t.CompletedAt = time.Now().Unix()
		}

		if err := tx.UpdateTransaction(ctx, t); err != nil {
			return err
		}

		r.Status = target
		r.ProcessedAt = time.Now().Unix()
		r.ProcessedBy = adminID
		if notes != "" {
			r.AdminNotes = notes
		}
		if err := tx.UpdateWithdrawal(ctx, r); err != nil {
			return err
		}
		req, txn = r, t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if txn.Terminal() {
		s.events.Publish(txn)
	}
	return req, nil
}

// ListRequests returns withdrawal requests newest first, optionally
// filtered by status.
func (s *WithdrawalService) ListRequests(ctx context.Context, status string) ([]model.WithdrawalRequest, error) {
	return s.store.ListWithdrawals(ctx, status)
}

func rejectionReason(notes string) string {
	if notes != "" {
		return notes
	}
	return "rejected by admin"
}
