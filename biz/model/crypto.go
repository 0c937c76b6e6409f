package model

// CryptoSettings are admin knobs consumed by the external price simulator.
// This service only stores them; it never generates prices itself.
type CryptoSettings struct {
	Volatility  float64 `gorm:"column:volatility;default:0.05" json:"volatility"`
	Trend       float64 `gorm:"column:trend;default:0" json:"trend"`
	LastUpdated int64   `gorm:"column:settings_updated" json:"last_updated,omitempty"`
}

// Crypto is a tradable asset. CurrentPrice is owned by the price-feed
// collaborator; everything here reads it point-in-time.
type Crypto struct {
	Symbol            string  `gorm:"primaryKey;column:symbol" json:"symbol"`
	Name              string  `gorm:"column:name;not null" json:"name"`
	CurrentPrice      float64 `gorm:"column:current_price;not null" json:"current_price"`
	MarketCap         float64 `gorm:"column:market_cap;default:0" json:"market_cap"`
	Volume24h         float64 `gorm:"column:volume_24h;default:0" json:"volume_24h"`
	CirculatingSupply float64 `gorm:"column:circulating_supply;default:0" json:"circulating_supply"`
	PriceChange24h    float64 `gorm:"column:price_change_24h;default:0" json:"price_change_24h"`
	PriceChangePct24h float64 `gorm:"column:price_change_pct_24h;default:0" json:"price_change_percentage_24h"`
	Image             string  `gorm:"column:image" json:"image"`
	IsActive          bool    `gorm:"column:is_active;default:true" json:"is_active"`

	Settings CryptoSettings `gorm:"embedded" json:"-"`

	UpdatedAt int64 `gorm:"column:updated_at" json:"updated_at"`
}

func (Crypto) TableName() string {
	return "cryptos"
}
