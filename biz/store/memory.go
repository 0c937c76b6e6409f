package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"cryptovest/biz/model"
	"cryptovest/biz/util"
)

type memData struct {
	wallets     map[string]model.Wallet // keyed by user id
	txs         map[string]model.Transaction
	txOrder     []string
	withdrawals map[string]model.WithdrawalRequest
	wdOrder     []string
	investments map[string]model.Investment
	invOrder    []string
	cryptos     map[string]model.Crypto // keyed by symbol
}

func newMemData() *memData {
	return &memData{
		wallets:     make(map[string]model.Wallet),
		txs:         make(map[string]model.Transaction),
		withdrawals: make(map[string]model.WithdrawalRequest),
		investments: make(map[string]model.Investment),
		cryptos:     make(map[string]model.Crypto),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.wallets {
		c.wallets[k] = v
	}
	for k, v := range d.txs {
		c.txs[k] = v
	}
	for k, v := range d.withdrawals {
		c.withdrawals[k] = v
	}
	for k, v := range d.investments {
		c.investments[k] = v
	}
	for k, v := range d.cryptos {
		c.cryptos[k] = v
	}
	c.txOrder = append([]string(nil), d.txOrder...)
	c.wdOrder = append([]string(nil), d.wdOrder...)
	c.invOrder = append([]string(nil), d.invOrder...)
	return c
}

// Memory is the in-memory fallback Store, selected at startup when Postgres
// is unreachable or holds no crypto records. It starts from the canonical
// seed dataset; anything written during the session stays in memory only and
// is never migrated into Postgres later.
type Memory struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
}

func NewMemory() *Memory {
	return &Memory{mu: &sync.Mutex{}, data: newMemData()}
}

// NewMemoryWithSeed returns a fallback store preloaded with the shared
// crypto dataset so every user sees the same non-empty baseline.
func NewMemoryWithSeed() *Memory {
	s := NewMemory()
	for _, c := range SeedCryptos() {
		s.data.cryptos[c.Symbol] = c
	}
	return s
}

func (s *Memory) enter() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// RunInTx serializes on the store mutex and rolls the dataset back to a
// snapshot when fn fails, so partial writes never become observable.
func (s *Memory) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.data.clone()
	if err := fn(&Memory{mu: s.mu, data: s.data, inTx: true}); err != nil {
		*s.data = *snap
		return err
	}
	return nil
}

func (s *Memory) EnsureWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	if userID == "" {
		return nil, Invalidf("user required")
	}
	defer s.enter()()
	if w, ok := s.data.wallets[userID]; ok {
		return &w, nil
	}
	id, err := util.NextID()
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	w := model.Wallet{WalletID: id, UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.data.wallets[userID] = w
	return &w, nil
}

func (s *Memory) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	defer s.enter()()
	w, ok := s.data.wallets[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

// GetWalletForUpdate has no row lock to take here; atomicity comes from the
// store mutex held for the whole RunInTx scope.
func (s *Memory) GetWalletForUpdate(ctx context.Context, userID string) (*model.Wallet, error) {
	return s.GetWallet(ctx, userID)
}

func (s *Memory) SaveWallet(ctx context.Context, w *model.Wallet) error {
	if w.Balance < 0 || w.PendingWithdrawals < 0 {
		return Invalidf("wallet balances must stay non-negative")
	}
	defer s.enter()()
	if _, ok := s.data.wallets[w.UserID]; !ok {
		return ErrNotFound
	}
	w.UpdatedAt = time.Now().Unix()
	s.data.wallets[w.UserID] = *w
	return nil
}

func (s *Memory) ListWallets(ctx context.Context) ([]model.Wallet, error) {
	defer s.enter()()
	out := make([]model.Wallet, 0, len(s.data.wallets))
	for _, w := range s.data.wallets {
		out = append(out, w)
	}
	return out, nil
}

func (s *Memory) AppendTransaction(ctx context.Context, t *model.Transaction) error {
	if t.TxID == "" || t.UserID == "" || t.Amount <= 0 {
		return Invalidf("transaction id, user and positive amount required")
	}
	defer s.enter()()
	if _, ok := s.data.txs[t.TxID]; ok {
		return Invalidf("duplicate transaction id %s", t.TxID)
	}
	s.data.txs[t.TxID] = *t
	s.data.txOrder = append(s.data.txOrder, t.TxID)
	return nil
}

func (s *Memory) GetTransaction(ctx context.Context, txID string) (*model.Transaction, error) {
	defer s.enter()()
	t, ok := s.data.txs[txID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

// UpdateTransaction lets a live entry advance status; once the entry is
// terminal only narrative fields may still change.
func (s *Memory) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	defer s.enter()()
	cur, ok := s.data.txs[t.TxID]
	if !ok {
		return ErrNotFound
	}
	if cur.Amount != t.Amount || cur.Type != t.Type || cur.UserID != t.UserID {
		return ErrImmutableField
	}
	if cur.Terminal() && t.Status != cur.Status {
		return ErrImmutableField
	}
	if !cur.Terminal() {
		cur.Status = t.Status
		cur.CompletedAt = t.CompletedAt
	}
	cur.Description = t.Description
	cur.Reference = t.Reference
	cur.FailureReason = t.FailureReason
	s.data.txs[t.TxID] = cur
	return nil
}

func (s *Memory) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]model.Transaction, error) {
	defer s.enter()()
	var out []model.Transaction
	for i := len(s.data.txOrder) - 1; i >= 0; i-- {
		t := s.data.txs[s.data.txOrder[i]]
		if t.UserID != userID {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (s *Memory) ListRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	defer s.enter()()
	var out []model.Transaction
	for i := len(s.data.txOrder) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, s.data.txs[s.data.txOrder[i]])
	}
	return out, nil
}

func (s *Memory) CreateWithdrawal(ctx context.Context, r *model.WithdrawalRequest) error {
	defer s.enter()()
	if _, ok := s.data.withdrawals[r.RequestID]; ok {
		return Invalidf("duplicate withdrawal request id %s", r.RequestID)
	}
	s.data.withdrawals[r.RequestID] = *r
	s.data.wdOrder = append(s.data.wdOrder, r.RequestID)
	return nil
}

func (s *Memory) GetWithdrawal(ctx context.Context, requestID string) (*model.WithdrawalRequest, error) {
	defer s.enter()()
	r, ok := s.data.withdrawals[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *Memory) GetWithdrawalForUpdate(ctx context.Context, requestID string) (*model.WithdrawalRequest, error) {
	return s.GetWithdrawal(ctx, requestID)
}

func (s *Memory) UpdateWithdrawal(ctx context.Context, r *model.WithdrawalRequest) error {
	defer s.enter()()
	if _, ok := s.data.withdrawals[r.RequestID]; !ok {
		return ErrNotFound
	}
	s.data.withdrawals[r.RequestID] = *r
	return nil
}

func (s *Memory) ListWithdrawals(ctx context.Context, status string) ([]model.WithdrawalRequest, error) {
	defer s.enter()()
	var out []model.WithdrawalRequest
	for i := len(s.data.wdOrder) - 1; i >= 0; i-- {
		r := s.data.withdrawals[s.data.wdOrder[i]]
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Memory) CreateInvestment(ctx context.Context, inv *model.Investment) error {
	defer s.enter()()
	if _, ok := s.data.investments[inv.InvestmentID]; ok {
		return Invalidf("duplicate investment id %s", inv.InvestmentID)
	}
	s.data.investments[inv.InvestmentID] = *inv
	s.data.invOrder = append(s.data.invOrder, inv.InvestmentID)
	return nil
}

func (s *Memory) GetInvestment(ctx context.Context, investmentID string) (*model.Investment, error) {
	defer s.enter()()
	inv, ok := s.data.investments[investmentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &inv, nil
}

func (s *Memory) GetInvestmentForUpdate(ctx context.Context, investmentID string) (*model.Investment, error) {
	return s.GetInvestment(ctx, investmentID)
}

func (s *Memory) UpdateInvestment(ctx context.Context, inv *model.Investment) error {
	defer s.enter()()
	if _, ok := s.data.investments[inv.InvestmentID]; !ok {
		return ErrNotFound
	}
	s.data.investments[inv.InvestmentID] = *inv
	return nil
}

func (s *Memory) ListInvestments(ctx context.Context, userID, status string) ([]model.Investment, error) {
	defer s.enter()()
	var out []model.Investment
	for i := len(s.data.invOrder) - 1; i >= 0; i-- {
		inv := s.data.investments[s.data.invOrder[i]]
		if userID != "" && inv.UserID != userID {
			continue
		}
		if status != "" && inv.Status != status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (s *Memory) GetCrypto(ctx context.Context, idOrSymbol string) (*model.Crypto, error) {
	defer s.enter()()
	if c, ok := s.data.cryptos[strings.ToUpper(idOrSymbol)]; ok {
		return &c, nil
	}
	for _, c := range s.data.cryptos {
		if strings.EqualFold(c.Name, idOrSymbol) {
			cc := c
			return &cc, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) ListCryptos(ctx context.Context, activeOnly bool) ([]model.Crypto, error) {
	defer s.enter()()
	var out []model.Crypto
	for _, c := range s.data.cryptos {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sortCryptosByMarketCap(out)
	return out, nil
}

func (s *Memory) SaveCrypto(ctx context.Context, c *model.Crypto) error {
	if c.Symbol == "" {
		return Invalidf("crypto symbol required")
	}
	defer s.enter()()
	c.UpdatedAt = time.Now().Unix()
	s.data.cryptos[c.Symbol] = *c
	return nil
}

func (s *Memory) CountCryptos(ctx context.Context) (int64, error) {
	defer s.enter()()
	return int64(len(s.data.cryptos)), nil
}

func (s *Memory) Stats(ctx context.Context) (*DashboardStats, error) {
	defer s.enter()()
	stats := &DashboardStats{UserCount: int64(len(s.data.wallets))}
	for _, t := range s.data.txs {
		if t.Status != model.TxCompleted {
			continue
		}
		switch t.Type {
		case model.TxDeposit:
			stats.TotalDeposits += t.Amount
		case model.TxWithdrawal:
			stats.TotalWithdrawals += t.Amount
		}
	}
	for _, r := range s.data.withdrawals {
		if r.Status == model.WithdrawalPending {
			stats.PendingWithdrawals++
		}
	}
	for _, inv := range s.data.investments {
		if inv.Status == model.InvestmentActive {
			stats.ActiveInvestments++
			stats.TotalInvestmentAmount += inv.Amount
		}
	}
	return stats, nil
}
