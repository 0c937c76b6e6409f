package store

import (
	"context"

	"cryptovest/biz/model"
)

// TransactionFilter narrows ledger history queries. Zero values mean "any".
type TransactionFilter struct {
	Type   string
	Status string
	Limit  int
}

// DashboardStats are the aggregate sums backing the admin dashboard.
type DashboardStats struct {
	UserCount             int64   `json:"user_count"`
	TotalDeposits         float64 `json:"total_deposits"`
	TotalWithdrawals      float64 `json:"total_withdrawals"`
	PendingWithdrawals    int64   `json:"pending_withdrawals"`
	ActiveInvestments     int64   `json:"active_investments"`
	TotalInvestmentAmount float64 `json:"total_investment_amount"`
}

// Store is the persistence capability injected into the ledger services.
// Two implementations exist: Durable (Postgres) and Memory (the fallback
// dataset used when Postgres is unreachable or empty at startup).
//
// RunInTx runs fn against a transactional view of the store; if fn returns
// an error no write inside it becomes observable. Wallet mutations must go
// through GetWalletForUpdate inside a transaction so concurrent operations
// on the same wallet serialize instead of racing a stale balance check.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	EnsureWallet(ctx context.Context, userID string) (*model.Wallet, error)
	GetWallet(ctx context.Context, userID string) (*model.Wallet, error)
	GetWalletForUpdate(ctx context.Context, userID string) (*model.Wallet, error)
	SaveWallet(ctx context.Context, w *model.Wallet) error
	ListWallets(ctx context.Context) ([]model.Wallet, error)

	AppendTransaction(ctx context.Context, t *model.Transaction) error
	GetTransaction(ctx context.Context, txID string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, t *model.Transaction) error
	ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]model.Transaction, error)
	ListRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error)

	CreateWithdrawal(ctx context.Context, r *model.WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, requestID string) (*model.WithdrawalRequest, error)
	GetWithdrawalForUpdate(ctx context.Context, requestID string) (*model.WithdrawalRequest, error)
	UpdateWithdrawal(ctx context.Context, r *model.WithdrawalRequest) error
	ListWithdrawals(ctx context.Context, status string) ([]model.WithdrawalRequest, error)

	CreateInvestment(ctx context.Context, inv *model.Investment) error
	GetInvestment(ctx context.Context, investmentID string) (*model.Investment, error)
	GetInvestmentForUpdate(ctx context.Context, investmentID string) (*model.Investment, error)
	UpdateInvestment(ctx context.Context, inv *model.Investment) error
	ListInvestments(ctx context.Context, userID, status string) ([]model.Investment, error)

	GetCrypto(ctx context.Context, idOrSymbol string) (*model.Crypto, error)
	ListCryptos(ctx context.Context, activeOnly bool) ([]model.Crypto, error)
	SaveCrypto(ctx context.Context, c *model.Crypto) error
	CountCryptos(ctx context.Context) (int64, error)

	Stats(ctx context.Context) (*DashboardStats, error)
}
