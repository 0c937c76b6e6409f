package store

import (
	"sort"
	"time"

	"cryptovest/biz/model"
)

// SeedCryptos is the canonical shared dataset loaded into the fallback
// store so the platform is never empty: same symbols, names and baseline
// prices for every user.
func SeedCryptos() []model.Crypto {
	now := time.Now().Unix()
	seed := []model.Crypto{
		{Symbol: "BTC", Name: "Bitcoin", CurrentPrice: 43250.00, MarketCap: 846_000_000_000, Volume24h: 28_000_000_000, CirculatingSupply: 19_600_000},
		{Symbol: "ETH", Name: "Ethereum", CurrentPrice: 2280.50, MarketCap: 274_000_000_000, Volume24h: 12_000_000_000, CirculatingSupply: 120_200_000},
		{Symbol: "BNB", Name: "BNB", CurrentPrice: 312.40, MarketCap: 48_000_000_000, Volume24h: 1_200_000_000, CirculatingSupply: 153_800_000},
		{Symbol: "SOL", Name: "Solana", CurrentPrice: 98.75, MarketCap: 43_000_000_000, Volume24h: 2_500_000_000, CirculatingSupply: 432_000_000},
		{Symbol: "XRP", Name: "XRP", CurrentPrice: 0.62, MarketCap: 33_500_000_000, Volume24h: 1_400_000_000, CirculatingSupply: 54_000_000_000},
		{Symbol: "ADA", Name: "Cardano", CurrentPrice: 0.59, MarketCap: 20_800_000_000, Volume24h: 540_000_000, CirculatingSupply: 35_200_000_000},
		{Symbol: "DOGE", Name: "Dogecoin", CurrentPrice: 0.092, MarketCap: 13_100_000_000, Volume24h: 620_000_000, CirculatingSupply: 142_000_000_000},
		{Symbol: "DOT", Name: "Polkadot", CurrentPrice: 7.35, MarketCap: 9_400_000_000, Volume24h: 210_000_000, CirculatingSupply: 1_280_000_000},
	}
	for i := range seed {
		seed[i].IsActive = true
		seed[i].Settings = model.CryptoSettings{Volatility: 0.05}
		seed[i].UpdatedAt = now
	}
	return seed
}

func sortCryptosByMarketCap(cs []model.Crypto) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].MarketCap != cs[j].MarketCap {
			return cs[i].MarketCap > cs[j].MarketCap
		}
		return cs[i].Symbol < cs[j].Symbol
	})
}
