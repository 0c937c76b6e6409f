package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"cryptovest/biz/model"
	"cryptovest/biz/service"
	"cryptovest/biz/store"
)

type CryptoHandler struct {
	store  store.Store
	prices *service.PriceService
}

func NewCryptoHandler(st store.Store, prices *service.PriceService) *CryptoHandler {
	return &CryptoHandler{store: st, prices: prices}
}

// List GET /api/crypto
func (h *CryptoHandler) List(ctx context.Context, c *app.RequestContext) {
	cryptos, err := h.store.ListCryptos(ctx, true)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, cryptos)
}

type marketDominance struct {
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	Dominance float64 `json:"dominance"`
}

type marketOverview struct {
	TotalMarketCap  float64           `json:"total_market_cap"`
	Total24hVolume  float64           `json:"total_24h_volume"`
	MarketDominance []marketDominance `json:"market_dominance"`
}

// buildMarketData trims the list to the ten largest assets and computes the
// aggregate caps plus each asset's share of them.
func buildMarketData(cryptos []model.Crypto) ([]model.Crypto, marketOverview) {
	if len(cryptos) > 10 {
		cryptos = cryptos[:10]
	}
	overview := marketOverview{MarketDominance: make([]marketDominance, 0, len(cryptos))}
	for _, c := range cryptos {
		overview.TotalMarketCap += c.MarketCap
		overview.Total24hVolume += c.Volume24h
	}
	for _, c := range cryptos {
		d := marketDominance{Name: c.Name, Symbol: c.Symbol}
		if overview.TotalMarketCap > 0 {
			d.Dominance = c.MarketCap / overview.TotalMarketCap * 100
		}
		overview.MarketDominance = append(overview.MarketDominance, d)
	}
	return cryptos, overview
}

// MarketData GET /api/crypto/market-data
func (h *CryptoHandler) MarketData(ctx context.Context, c *app.RequestContext) {
	cryptos, err := h.store.ListCryptos(ctx, true)
	if err != nil {
		fail(c, err)
		return
	}
	top, overview := buildMarketData(cryptos)
	c.JSON(consts.StatusOK, map[string]interface{}{
		"top_cryptos":     top,
		"market_overview": overview,
	})
}

// Get GET /api/crypto/:id
func (h *CryptoHandler) Get(ctx context.Context, c *app.RequestContext) {
	crypto, err := h.store.GetCrypto(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(consts.StatusOK, crypto)
}

// History GET /api/crypto/:id/history?timeframe=1d|7d|30d|1y
func (h *CryptoHandler) History(ctx context.Context, c *app.RequestContext) {
	crypto, err := h.store.GetCrypto(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	points := h.prices.History(crypto.Symbol, c.Query("timeframe"))
	if points == nil {
		points = []service.PricePoint{}
	}
	c.JSON(consts.StatusOK, points)
}
