package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"cryptovest/biz/service"
	"cryptovest/middleware"
)

type AdminHandler struct {
	admin       *service.AdminService
	withdrawals *service.WithdrawalService
}

func NewAdminHandler(admin *service.AdminService, withdrawals *service.WithdrawalService) *AdminHandler {
	return &AdminHandler{admin: admin, withdrawals: withdrawals}
}

// ListWallets GET /api/admin/wallets
func (h *AdminHandler) ListWallets(ctx context.Context, c *app.RequestContext) {
	wallets, err := h.admin.ListWallets(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, wallets)
}

// ListWithdrawalRequests GET /api/admin/withdrawal-requests
func (h *AdminHandler) ListWithdrawalRequests(ctx context.Context, c *app.RequestContext) {
	reqs, err := h.withdrawals.ListRequests(ctx, c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, reqs)
}

type processWithdrawalRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

// ProcessWithdrawal PUT /api/admin/withdrawal-requests/:id
func (h *AdminHandler) ProcessWithdrawal(ctx context.Context, c *app.RequestContext) {
	var req processWithdrawalRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	wr, err := h.withdrawals.Process(ctx, middleware.UserID(c), c.Param("id"), req.Status, req.AdminNotes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"success":            true,
		"withdrawal_request": wr,
	})
}

type adjustInvestmentRequest struct {
	Enabled    bool    `json:"enabled"`
	Percentage float64 `json:"percentage"`
}

// AdjustInvestment PUT /api/admin/investments/:id/adjust
func (h *AdminHandler) AdjustInvestment(ctx context.Context, c *app.RequestContext) {
	var req adjustInvestmentRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	inv, err := h.admin.SetAdjustment(ctx, c.Param("id"), req.Enabled, req.Percentage)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"success":    true,
		"investment": inv,
	})
}

type updateCryptoRequest struct {
	Volatility *float64 `json:"volatility"`
	Trend      *float64 `json:"trend"`
}

// UpdateCrypto PUT /api/admin/crypto/:id
func (h *AdminHandler) UpdateCrypto(ctx context.Context, c *app.RequestContext) {
	var req updateCryptoRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	crypto, err := h.admin.UpdateCryptoSettings(ctx, c.Param("id"), req.Volatility, req.Trend)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"success": true,
		"crypto":  crypto,
	})
}

// Dashboard GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(ctx context.Context, c *app.RequestContext) {
	dash, err := h.admin.GetDashboard(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, dash)
}
