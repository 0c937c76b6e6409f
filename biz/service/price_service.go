package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/huandu/skiplist"
	"github.com/redis/go-redis/v9"

	"cryptovest/biz/store"
)

// maxHistoryPoints bounds the in-memory tick history per symbol.
const maxHistoryPoints = 10000

// PriceSource is the point-in-time price lookup the ledger consumes. The
// simulation that invents prices lives outside this service; only its
// output arrives here.
type PriceSource interface {
	// CurrentPrice returns the live price or ErrPriceUnavailable. Trades
	// (buy/sell) treat a miss as fatal.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	// LastKnownPrice is the lenient read used by listings and revaluation.
	LastKnownPrice(ctx context.Context, symbol string) (float64, bool)
}

// Broadcaster pushes applied ticks to market-data subscribers.
type Broadcaster interface {
	BroadcastPrice(symbol string, price float64, ts int64)
}

type PricePoint struct {
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// PriceService stores consumed price ticks: current price on the crypto
// record, last-known price in redis, and a skiplist history per symbol for
// timeframe queries.
type PriceService struct {
	store store.Store
	cache *redis.Client // nil when redis is unavailable
	hub   Broadcaster   // nil when market-data push is disabled

	mu      sync.RWMutex
	history map[string]*skiplist.SkipList // ts -> price
}

func NewPriceService(st store.Store, cache *redis.Client) *PriceService {
	return &PriceService{
		store:   st,
		cache:   cache,
		history: make(map[string]*skiplist.SkipList),
	}
}

func (s *PriceService) SetBroadcaster(b Broadcaster) {
	s.hub = b
}

func (s *PriceService) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	c, err := s.store.GetCrypto(ctx, symbol)
	if err != nil || c.CurrentPrice <= 0 {
		return 0, store.ErrPriceUnavailable
	}
	return c.CurrentPrice, nil
}

func (s *PriceService) LastKnownPrice(ctx context.Context, symbol string) (float64, bool) {
	if s.cache != nil {
		if v, err := s.cache.Get(ctx, priceKey(symbol)).Result(); err == nil {
			if p, perr := strconv.ParseFloat(v, 64); perr == nil && p > 0 {
				return p, true
			}
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if list, ok := s.history[symbol]; ok && list.Len() > 0 {
		return list.Back().Value.(float64), true
	}
	return 0, false
}

// ApplyTick consumes one price reading from the feed: updates the crypto
// record, the redis cache, the in-memory history, and notifies subscribers.
func (s *PriceService) ApplyTick(ctx context.Context, symbol string, price float64, ts int64) error {
	if price <= 0 {
		return store.Invalidf("tick price must be greater than 0")
	}
	if ts == 0 {
		ts = time.Now().Unix()
	}

	c, err := s.store.GetCrypto(ctx, symbol)
	if err != nil {
		return err
	}
	if prev := c.CurrentPrice; prev > 0 {
		c.PriceChange24h = price - prev
		c.PriceChangePct24h = (price - prev) / prev * 100
	}
	c.CurrentPrice = price
	if err := s.store.SaveCrypto(ctx, c); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, priceKey(c.Symbol), strconv.FormatFloat(price, 'f', -1, 64), 0).Err(); err != nil {
			hlog.Warnf("price cache write failed for %s: %v", c.Symbol, err)
		}
	}

	s.mu.Lock()
	list, ok := s.history[c.Symbol]
	if !ok {
		list = skiplist.New(skiplist.Int64)
		s.history[c.Symbol] = list
	}
	list.Set(ts, price)
	for list.Len() > maxHistoryPoints {
		front := list.Front()
		list.Remove(front.Key())
	}
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.BroadcastPrice(c.Symbol, price, ts)
	}
	return nil
}

// History returns the recorded points inside the timeframe window,
// oldest first. Supported timeframes: 1d, 7d, 30d, 1y (default 1d).
func (s *PriceService) History(symbol, timeframe string) []PricePoint {
	var window time.Duration
	switch timeframe {
	case "7d":
		window = 7 * 24 * time.Hour
	case "30d":
		window = 30 * 24 * time.Hour
	case "1y":
		window = 365 * 24 * time.Hour
	default:
		window = 24 * time.Hour
	}
	cutoff := time.Now().Add(-window).Unix()

	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.history[symbol]
	if !ok {
		return nil
	}
	var out []PricePoint
	for elem := list.Find(cutoff); elem != nil; elem = elem.Next() {
		out = append(out, PricePoint{
			Price:     elem.Value.(float64),
			Timestamp: elem.Key().(int64),
		})
	}
	return out
}

func priceKey(symbol string) string {
	return "price:" + symbol
}
