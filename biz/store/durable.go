package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cryptovest/biz/model"
	"cryptovest/biz/util"
)

// Durable is the Postgres-backed Store. GORM carries the row-level CRUD,
// the pgx pool serves the raw aggregate queries for the dashboard.
type Durable struct {
	db   *gorm.DB
	pool *pgxpool.Pool
}

func NewDurable(db *gorm.DB, pool *pgxpool.Pool) *Durable {
	return &Durable{db: db, pool: pool}
}

func (s *Durable) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Durable{db: tx, pool: s.pool})
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Durable) EnsureWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	if userID == "" {
		return nil, Invalidf("user required")
	}
	var w model.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	id, err := util.NextID()
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	w = model.Wallet{WalletID: id, UserID: userID, CreatedAt: now, UpdatedAt: now}
	// Two racing first-access calls may both miss the read. ON CONFLICT DO
	// NOTHING lets the loser skip the insert without aborting an enclosing
	// transaction, then re-read the winner's row.
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&w)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var existing model.Wallet
		if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; err != nil {
			return nil, translate(err)
		}
		return &existing, nil
	}
	return &w, nil
}

func (s *Durable) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	var w model.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *Durable) GetWalletForUpdate(ctx context.Context, userID string) (*model.Wallet, error) {
	var w model.Wallet
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *Durable) SaveWallet(ctx context.Context, w *model.Wallet) error {
	if w.Balance < 0 || w.PendingWithdrawals < 0 {
		return Invalidf("wallet balances must stay non-negative")
	}
	w.UpdatedAt = time.Now().Unix()
	return s.db.WithContext(ctx).Save(w).Error
}

func (s *Durable) ListWallets(ctx context.Context) ([]model.Wallet, error) {
	var wallets []model.Wallet
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&wallets).Error
	return wallets, err
}

func (s *Durable) AppendTransaction(ctx context.Context, t *model.Transaction) error {
	if t.TxID == "" || t.UserID == "" || t.Amount <= 0 {
		return Invalidf("transaction id, user and positive amount required")
	}
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Durable) GetTransaction(ctx context.Context, txID string) (*model.Transaction, error) {
	var t model.Transaction
	err := s.db.WithContext(ctx).Where("tx_id = ?", txID).First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// UpdateTransaction only ever writes status and narrative columns; amount,
// type and user are append-only and stay untouched at the SQL level. A
// terminal entry keeps its status and completion time; only narrative
// fields remain writable.
func (s *Durable) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	cur, err := s.GetTransaction(ctx, t.TxID)
	if err != nil {
		return err
	}
	if cur.Terminal() && t.Status != cur.Status {
		return ErrImmutableField
	}
	updates := map[string]interface{}{
		"description":    t.Description,
		"reference":      t.Reference,
		"failure_reason": t.FailureReason,
	}
	if !cur.Terminal() {
		updates["status"] = t.Status
		updates["completed_at"] = t.CompletedAt
	}
	return s.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("tx_id = ?", t.TxID).
		Updates(updates).Error
}

func (s *Durable) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]model.Transaction, error) {
	var txs []model.Transaction
	db := s.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", userID)
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		db = db.Limit(f.Limit)
	}
	err := db.Order("created_at desc, tx_id desc").Find(&txs).Error
	return txs, err
}

func (s *Durable) ListRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := s.db.WithContext(ctx).Order("created_at desc, tx_id desc").Limit(limit).Find(&txs).Error
	return txs, err
}

func (s *Durable) CreateWithdrawal(ctx context.Context, r *model.WithdrawalRequest) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *Durable) GetWithdrawal(ctx context.Context, requestID string) (*model.WithdrawalRequest, error) {
	var r model.WithdrawalRequest
	err := s.db.WithContext(ctx).Where("request_id = ?", requestID).First(&r).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Durable) GetWithdrawalForUpdate(ctx context.Context, requestID string) (*model.WithdrawalRequest, error) {
	var r model.WithdrawalRequest
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", requestID).First(&r).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Durable) UpdateWithdrawal(ctx context.Context, r *model.WithdrawalRequest) error {
	return s.db.WithContext(ctx).Save(r).Error
}

func (s *Durable) ListWithdrawals(ctx context.Context, status string) ([]model.WithdrawalRequest, error) {
	var reqs []model.WithdrawalRequest
	db := s.db.WithContext(ctx).Model(&model.WithdrawalRequest{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("requested_at desc, request_id desc").Find(&reqs).Error
	return reqs, err
}

func (s *Durable) CreateInvestment(ctx context.Context, inv *model.Investment) error {
	return s.db.WithContext(ctx).Create(inv).Error
}

func (s *Durable) GetInvestment(ctx context.Context, investmentID string) (*model.Investment, error) {
	var inv model.Investment
	err := s.db.WithContext(ctx).Where("investment_id = ?", investmentID).First(&inv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (s *Durable) GetInvestmentForUpdate(ctx context.Context, investmentID string) (*model.Investment, error) {
	var inv model.Investment
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("investment_id = ?", investmentID).First(&inv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (s *Durable) UpdateInvestment(ctx context.Context, inv *model.Investment) error {
	return s.db.WithContext(ctx).Save(inv).Error
}

func (s *Durable) ListInvestments(ctx context.Context, userID, status string) ([]model.Investment, error) {
	var invs []model.Investment
	db := s.db.WithContext(ctx).Model(&model.Investment{})
	if userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at desc, investment_id desc").Find(&invs).Error
	return invs, err
}

func (s *Durable) GetCrypto(ctx context.Context, idOrSymbol string) (*model.Crypto, error) {
	var c model.Crypto
	err := s.db.WithContext(ctx).
		Where("symbol = ? OR lower(name) = lower(?)", strings.ToUpper(idOrSymbol), idOrSymbol).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Durable) ListCryptos(ctx context.Context, activeOnly bool) ([]model.Crypto, error) {
	var cs []model.Crypto
	db := s.db.WithContext(ctx).Model(&model.Crypto{})
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("market_cap desc").Find(&cs).Error
	return cs, err
}

func (s *Durable) SaveCrypto(ctx context.Context, c *model.Crypto) error {
	c.UpdatedAt = time.Now().Unix()
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *Durable) CountCryptos(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Crypto{}).Count(&n).Error
	return n, err
}

// Stats runs the dashboard aggregates over pgx directly; these are plain
// sums and do not need to ride a GORM session.
func (s *Durable) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM wallets),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = 'deposit' AND status = 'completed'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = 'withdrawal' AND status = 'completed'),
			(SELECT COUNT(*) FROM withdrawal_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM investments WHERE status = 'active'),
			(SELECT COALESCE(SUM(amount), 0) FROM investments WHERE status = 'active')
	`)
	err := row.Scan(
		&stats.UserCount,
		&stats.TotalDeposits,
		&stats.TotalWithdrawals,
		&stats.PendingWithdrawals,
		&stats.ActiveInvestments,
		&stats.TotalInvestmentAmount,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
