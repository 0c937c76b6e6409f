package service

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"cryptovest/biz/dal/kafka"
)

// PriceTick is the message shape published by the price-feed collaborator.
type PriceTick struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// StartPriceFeed consumes price ticks from Kafka and applies them through
// the price service until ctx is cancelled. Malformed or unknown-symbol
// ticks are logged and skipped; the feed never takes the service down.
func StartPriceFeed(ctx context.Context, prices *PriceService, topic string) {
	reader := kafka.NewReader(topic, "cryptovest-price-feed")
	go func() {
		defer func() { _ = reader.Close() }()
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				hlog.Warnf("price feed read failed: %v", err)
				continue
			}
			var tick PriceTick
			if err := json.Unmarshal(msg.Value, &tick); err != nil {
				hlog.Warnf("price feed message malformed: %v", err)
				continue
			}
			if err := prices.ApplyTick(ctx, tick.Symbol, tick.Price, tick.Timestamp); err != nil {
				hlog.Warnf("price tick %s rejected: %v", tick.Symbol, err)
			}
		}
	}()
}
