package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"cryptovest/biz/service"
	"cryptovest/middleware"
)

type InvestmentHandler struct {
	investments *service.InvestmentService
}

func NewInvestmentHandler(investments *service.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{investments: investments}
}

// List GET /api/investments
func (h *InvestmentHandler) List(ctx context.Context, c *app.RequestContext) {
	invs, err := h.investments.List(ctx, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, invs)
}

type createInvestmentRequest struct {
	CryptoID string  `json:"crypto_id"`
	Amount   float64 `json:"amount"`
}

// Create POST /api/investments
func (h *InvestmentHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req createInvestmentRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if req.CryptoID == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "crypto_id required"})
		return
	}
	inv, txn, err := h.investments.Buy(ctx, middleware.UserID(c), req.CryptoID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"success":     true,
		"investment":  inv,
		"transaction": txn,
	})
}

type sellInvestmentRequest struct {
	SellPrice *float64 `json:"sell_price"`
}

// Sell PUT /api/investments/:id/sell
func (h *InvestmentHandler) Sell(ctx context.Context, c *app.RequestContext) {
	var req sellInvestmentRequest
	if len(c.Request.Body()) > 0 {
		if err := c.BindAndValidate(&req); err != nil {
			c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
			return
		}
	}
	inv, txn, err := h.investments.Sell(ctx, middleware.UserID(c), c.Param("id"), req.SellPrice)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"success":     true,
		"investment":  inv,
		"transaction": txn,
	})
}

// Portfolio GET /api/investments/portfolio
func (h *InvestmentHandler) Portfolio(ctx context.Context, c *app.RequestContext) {
	summary, invs, err := h.investments.Portfolio(ctx, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"summary":     summary,
		"investments": invs,
	})
}
