package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cryptovest/biz/model"
	"cryptovest/conf"
)

var (
	PostgresClient *pgxpool.Pool
	GormDB         *gorm.DB
)

// Init connects the pgx pool and GORM and migrates the ledger tables.
// Failure is returned, not fatal: the caller decides whether to fall back
// to the in-memory store.
func Init() error {
	pgConf := conf.GetConf().Postgres
	pool, err := pgxpool.New(context.Background(), pgConf.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	PostgresClient = pool

	if err := InitGorm(); err != nil {
		return fmt.Errorf("init gorm: %w", err)
	}
	if err := AutoMigrate(); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func InitGorm() error {
	pgConf := conf.GetConf().Postgres
	db, err := gorm.Open(postgres.Open(pgConf.DSN), &gorm.Config{})
	if err != nil {
		return err
	}
	GormDB = db
	return nil
}

func AutoMigrate() error {
	if GormDB == nil {
		return gorm.ErrInvalidDB
	}
	return GormDB.AutoMigrate(
		&model.Wallet{},
		&model.Transaction{},
		&model.WithdrawalRequest{},
		&model.Investment{},
		&model.Crypto{},
	)
}

func GetPool() *pgxpool.Pool {
	if PostgresClient == nil {
		panic("PostgresClient not initialized, call pg.Init() first")
	}
	return PostgresClient
}
