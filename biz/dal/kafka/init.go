package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"cryptovest/conf"
)

var writers sync.Map // map[string]*kafka.Writer

// GetWriter returns the shared writer for a topic, creating it on first use.
func GetWriter(topic string) *kafka.Writer {
	val, ok := writers.Load(topic)
	if ok {
		return val.(*kafka.Writer)
	}
	kafkaConf := conf.GetConf().Kafka
	brokers := kafkaConf.Brokers
	if len(brokers) == 0 {
		panic("Kafka brokers not configured")
	}
	writer := &kafka.Writer{
		Addr:  kafka.TCP(brokers...),
		Topic: topic,
		Async: true,
	}
	writers.Store(topic, writer)
	return writer
}

// NewReader builds a consumer-group reader for a topic.
func NewReader(topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: conf.GetConf().Kafka.Brokers,
		GroupID: groupID,
		Topic:   topic,
	})
}

// TestConnection dials the first broker to verify Kafka is reachable.
func TestConnection() error {
	kafkaConf := conf.GetConf().Kafka
	brokers := kafkaConf.Brokers
	if len(brokers) == 0 {
		return fmt.Errorf("kafka brokers not configured")
	}
	conn, err := kafka.DialContext(context.Background(), "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	return conn.Close()
}

// CloseAllWriters closes every writer created through GetWriter.
func CloseAllWriters() {
	writers.Range(func(key, value interface{}) bool {
		if w, ok := value.(*kafka.Writer); ok {
			_ = w.Close()
		}
		return true
	})
}

// Init verifies the broker connection and pre-creates the ledger and price
// topic writers.
func Init() error {
	if err := TestConnection(); err != nil {
		return err
	}
	kafkaConf := conf.GetConf().Kafka
	if kafkaConf.LedgerTopic != "" {
		GetWriter(kafkaConf.LedgerTopic)
	}
	return nil
}
