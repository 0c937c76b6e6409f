package service

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"cryptovest/biz/model"
)

// LedgerEvents mirrors every appended ledger transaction onto a Kafka topic
// for downstream consumers. Publishing is best-effort: the ledger write has
// already committed, a broker hiccup must not fail the request.
type LedgerEvents struct {
	writer *kafka.Writer // nil disables publishing
	log    *zap.Logger
}

func NewLedgerEvents(writer *kafka.Writer, log *zap.Logger) *LedgerEvents {
	if log == nil {
		log = zap.NewNop()
	}
	return &LedgerEvents{writer: writer, log: log}
}

type ledgerEvent struct {
	TxID      string  `json:"tx_id"`
	UserID    string  `json:"user_id"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	CreatedAt int64   `json:"created_at"`
}

func (e *LedgerEvents) Publish(t *model.Transaction) {
	if e == nil || e.writer == nil || t == nil {
		return
	}
	b, err := json.Marshal(ledgerEvent{
		TxID:      t.TxID,
		UserID:    t.UserID,
		Type:      t.Type,
		Amount:    t.Amount,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	})
	if err != nil {
		return
	}
	err = e.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(t.UserID),
		Value: b,
	})
	if err != nil {
		e.log.Warn("ledger event publish failed",
			zap.String("tx_id", t.TxID),
			zap.Error(err))
	}
}
