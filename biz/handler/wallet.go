package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"cryptovest/biz/service"
	"cryptovest/biz/store"
	"cryptovest/middleware"
)

type WalletHandler struct {
	wallets     *service.WalletService
	withdrawals *service.WithdrawalService
}

func NewWalletHandler(wallets *service.WalletService, withdrawals *service.WithdrawalService) *WalletHandler {
	return &WalletHandler{wallets: wallets, withdrawals: withdrawals}
}

// GetWallet GET /api/wallet
func (h *WalletHandler) GetWallet(ctx context.Context, c *app.RequestContext) {
	w, err := h.wallets.GetWallet(ctx, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, w)
}

type depositRequest struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

// Deposit POST /api/wallet/deposit
func (h *WalletHandler) Deposit(ctx context.Context, c *app.RequestContext) {
	var req depositRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	wallet, txn, err := h.wallets.Deposit(ctx, middleware.UserID(c), req.Amount, req.PaymentMethod)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"success":     true,
		"wallet":      wallet,
		"transaction": txn,
	})
}

type withdrawRequest struct {
	Amount         float64 `json:"amount"`
	PaymentMethod  string  `json:"payment_method"`
	PaymentDetails string  `json:"payment_details"`
}

// RequestWithdrawal POST /api/wallet/withdraw
func (h *WalletHandler) RequestWithdrawal(ctx context.Context, c *app.RequestContext) {
	var req withdrawRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	wr, txn, err := h.withdrawals.Request(ctx, middleware.UserID(c), req.Amount, req.PaymentMethod, req.PaymentDetails)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"success":            true,
		"withdrawal_request": wr,
		"transaction":        txn,
	})
}

// Transactions GET /api/wallet/transactions
func (h *WalletHandler) Transactions(ctx context.Context, c *app.RequestContext) {
	filter := store.TransactionFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}
	txs, err := h.wallets.Transactions(ctx, middleware.UserID(c), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, txs)
}
