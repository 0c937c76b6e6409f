package main

import (
	"context"
	"net"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/cors"
	"github.com/hertz-contrib/gzip"
	"github.com/hertz-contrib/logger/accesslog"
	"github.com/hertz-contrib/pprof"
	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"cryptovest/biz/dal"
	kafkadal "cryptovest/biz/dal/kafka"
	"cryptovest/biz/dal/pg"
	redisdal "cryptovest/biz/dal/redis"
	"cryptovest/biz/handler"
	"cryptovest/biz/service"
	"cryptovest/biz/store"
	"cryptovest/biz/util"
	"cryptovest/conf"
	"cryptovest/middleware"
	ws "cryptovest/server"
)

func main() {
	_ = godotenv.Load()
	cfg := conf.GetConf()

	hlog.SetLevel(conf.LogLevel())
	if cfg.Hertz.LogFileName != "" {
		hlog.SetOutput(&lumberjack.Logger{
			Filename:   cfg.Hertz.LogFileName,
			MaxSize:    cfg.Hertz.LogMaxSize,
			MaxBackups: cfg.Hertz.LogMaxBackups,
			MaxAge:     cfg.Hertz.LogMaxAge,
		})
	}

	res := dal.Init()
	st := selectStore(res)

	auditLog, _ := zap.NewProduction()
	defer func() { _ = auditLog.Sync() }()

	var ledgerWriter *kafkago.Writer
	if res.KafkaErr != nil {
		hlog.Warnf("kafka unavailable, ledger events disabled: %v", res.KafkaErr)
	} else if cfg.Kafka.LedgerTopic != "" {
		ledgerWriter = kafkadal.GetWriter(cfg.Kafka.LedgerTopic)
	}
	events := service.NewLedgerEvents(ledgerWriter, auditLog)

	if res.RedisErr != nil {
		hlog.Warnf("redis unavailable, price cache disabled: %v", res.RedisErr)
	}
	prices := service.NewPriceService(st, redisdal.Client)

	hub, err := ws.NewMarketHub()
	if err != nil {
		hlog.Fatalf("market hub init failed: %v", err)
	}
	prices.SetBroadcaster(hub)

	if res.KafkaErr == nil && cfg.Kafka.PriceTopic != "" {
		service.StartPriceFeed(context.Background(), prices, cfg.Kafka.PriceTopic)
	}

	wallets := service.NewWalletService(st, events)
	withdrawals := service.NewWithdrawalService(st, events)
	investments := service.NewInvestmentService(st, prices, events)
	admin := service.NewAdminService(st, prices)

	walletHandler := handler.NewWalletHandler(wallets, withdrawals)
	investmentHandler := handler.NewInvestmentHandler(investments)
	cryptoHandler := handler.NewCryptoHandler(st, prices)
	adminHandler := handler.NewAdminHandler(admin, withdrawals)

	h := server.New(server.WithHostPorts(cfg.Hertz.Address))

	h.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))
	if cfg.Hertz.EnableGzip {
		h.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	if cfg.Hertz.EnableAccessLog {
		h.Use(accesslog.New())
	}
	if cfg.Hertz.EnablePprof {
		pprof.Register(h)
	}

	api := h.Group("/api", middleware.Identity(cfg.Auth.JWTSecret))
	{
		api.GET("/wallet", walletHandler.GetWallet)
		api.POST("/wallet/deposit", walletHandler.Deposit)
		api.POST("/wallet/withdraw", walletHandler.RequestWithdrawal)
		api.GET("/wallet/transactions", walletHandler.Transactions)

		api.GET("/investments", investmentHandler.List)
		api.POST("/investments", investmentHandler.Create)
		api.PUT("/investments/:id/sell", investmentHandler.Sell)
		api.GET("/investments/portfolio", investmentHandler.Portfolio)

		api.GET("/crypto", cryptoHandler.List)
		api.GET("/crypto/market-data", cryptoHandler.MarketData)
		api.GET("/crypto/:id", cryptoHandler.Get)
		api.GET("/crypto/:id/history", cryptoHandler.History)

		adm := api.Group("/admin", middleware.AdminOnly())
		{
			adm.GET("/wallets", adminHandler.ListWallets)
			adm.GET("/withdrawal-requests", adminHandler.ListWithdrawalRequests)
			adm.PUT("/withdrawal-requests/:id", adminHandler.ProcessWithdrawal)
			adm.PUT("/investments/:id/adjust", adminHandler.AdjustInvestment)
			adm.PUT("/crypto/:id", adminHandler.UpdateCrypto)
			adm.GET("/dashboard", adminHandler.Dashboard)
		}
	}

	h.GET("/ws/market", hub.Serve)

	registerConsul(h, cfg)

	h.OnShutdown = append(h.OnShutdown, func(ctx context.Context) {
		hub.Close()
		kafkadal.CloseAllWriters()
	})

	h.Spin()
}

// selectStore picks Durable when Postgres is up and already holds the
// crypto catalogue, otherwise the seeded in-memory fallback. Fallback
// session data is never migrated back once Postgres returns; that is a
// known limitation, so it gets announced loudly instead of papered over.
func selectStore(res dal.InitResult) store.Store {
	if res.PostgresErr != nil {
		hlog.Warnf("postgres unavailable: %v", res.PostgresErr)
		hlog.Warnf("running on the in-memory fallback dataset; session data will be lost on restart and will NOT be migrated to postgres")
		return store.NewMemoryWithSeed()
	}
	durable := store.NewDurable(pg.GormDB, pg.GetPool())
	n, err := durable.CountCryptos(context.Background())
	if err != nil || n == 0 {
		hlog.Warnf("postgres reachable but holds no crypto records (err=%v), using the in-memory fallback dataset", err)
		return store.NewMemoryWithSeed()
	}
	return durable
}

func registerConsul(h *server.Hertz, cfg *conf.Config) {
	if len(cfg.Registry.RegistryAddress) == 0 {
		return
	}
	helper, err := service.NewConsulHelperWithAddrs(cfg.Registry.RegistryAddress)
	if err != nil {
		hlog.Warnf("consul unavailable, skipping registration: %v", err)
		return
	}
	host := util.GetLocalIP()
	port := parsePort(cfg.Hertz.Address)
	nodeID := cfg.Hertz.Service + "-" + host + "-" + strconv.Itoa(port)
	if err := helper.RegisterAPI(cfg.Hertz.Service, nodeID, host, port); err != nil {
		hlog.Warnf("consul registration failed: %v", err)
		return
	}
	h.OnShutdown = append(h.OnShutdown, func(ctx context.Context) {
		_ = helper.Deregister(nodeID)
	})
}

func parsePort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 8888
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 8888
	}
	return port
}
