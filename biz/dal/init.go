package dal

import (
	"cryptovest/biz/dal/kafka"
	"cryptovest/biz/dal/pg"
	"cryptovest/biz/dal/redis"
)

// InitResult records which backing services came up; the ledger runs in
// degraded (fallback) mode when Postgres is missing.
type InitResult struct {
	PostgresErr error
	RedisErr    error
	KafkaErr    error
}

func Init() InitResult {
	return InitResult{
		PostgresErr: pg.Init(),
		RedisErr:    redis.Init(),
		KafkaErr:    kafka.Init(),
	}
}
