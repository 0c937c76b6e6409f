package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/websocket"
	"github.com/panjf2000/ants/v2"
)

var upgrader = websocket.HertzUpgrader{
	CheckOrigin: func(ctx *app.RequestContext) bool {
		return true
	},
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
	subs map[string]struct{}
}

func (c *client) send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// MarketHub pushes applied price ticks to websocket subscribers. Broadcast
// fan-out rides a bounded goroutine pool so one slow client cannot stall
// the feed.
type MarketHub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	pool    *ants.Pool
}

func NewMarketHub() (*MarketHub, error) {
	pool, err := ants.NewPool(256)
	if err != nil {
		return nil, err
	}
	return &MarketHub{
		clients: make(map[*client]struct{}),
		pool:    pool,
	}, nil
}

type subscribeMsg struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}

// Serve upgrades the connection and runs the subscribe/unsubscribe loop
// until the peer goes away.
func (h *MarketHub) Serve(ctx context.Context, c *app.RequestContext) {
	err := upgrader.Upgrade(c, func(conn *websocket.Conn) {
		cl := &client{conn: conn, subs: make(map[string]struct{})}
		h.mu.Lock()
		h.clients[cl] = struct{}{}
		h.mu.Unlock()
		defer h.drop(cl)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg subscribeMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Action {
			case "subscribe":
				if msg.Symbol != "" {
					cl.mu.Lock()
					cl.subs[msg.Symbol] = struct{}{}
					cl.mu.Unlock()
					ack, _ := json.Marshal(map[string]interface{}{
						"type":   "subscription_ack",
						"symbol": msg.Symbol,
					})
					_ = cl.send(ack)
				}
			case "unsubscribe":
				cl.mu.Lock()
				delete(cl.subs, msg.Symbol)
				cl.mu.Unlock()
			}
		}
	})
	if err != nil {
		hlog.Errorf("websocket upgrade failed: %v", err)
	}
}

// BroadcastPrice fans one tick out to every client subscribed to the
// symbol.
func (h *MarketHub) BroadcastPrice(symbol string, price float64, ts int64) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":      "price",
		"symbol":    symbol,
		"price":     price,
		"timestamp": ts,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		cl.mu.Lock()
		_, subscribed := cl.subs[symbol]
		cl.mu.Unlock()
		if subscribed {
			targets = append(targets, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		cl := cl
		if err := h.pool.Submit(func() {
			if err := cl.send(payload); err != nil {
				h.drop(cl)
			}
		}); err != nil {
			hlog.Warnf("broadcast pool submit failed: %v", err)
		}
	}
}

func (h *MarketHub) drop(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		_ = cl.conn.Close()
	}
	h.mu.Unlock()
}

// Close releases the broadcast pool and every open connection.
func (h *MarketHub) Close() {
	h.mu.Lock()
	for cl := range h.clients {
		_ = cl.conn.Close()
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	h.pool.Release()
}
