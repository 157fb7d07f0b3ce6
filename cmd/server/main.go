package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nftmarket/internal/cache"
	"nftmarket/internal/config"
	"nftmarket/internal/db"
	"nftmarket/internal/handlers"
	"nftmarket/internal/services"
	"nftmarket/internal/store"
	"nftmarket/internal/websocket"

	"github.com/sirupsen/logrus"
)

func main() {
	initLogger()
	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		logrus.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	users := store.NewUserStore(database)
	nfts := store.NewNFTStore(database)
	collections := store.NewCollectionStore(database)
	auctions := store.NewAuctionStore(database)
	transactions := store.NewTransactionStore(database)
	deposits := store.NewDepositStore(database)
	withdrawals := store.NewWithdrawalStore(database)
	whitelist := store.NewWhitelistStore(database)
	wallets := store.NewPlatformWalletStore(database)
	sessions := store.NewPurchaseSessionStore(database)
	exhibitions := store.NewExhibitionStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	email := services.NewEmailService(cfg.Email, redisClient)
	market := services.NewMarketService(txRunner, users, nfts, collections, auctions, transactions, sessions, audit, hub)
	wallet := services.NewWalletService(txRunner, users, deposits, withdrawals, whitelist, wallets, transactions, audit, email, hub, cfg.MasterKey, cfg.WalletNetwork)

	if cfg.MasterKey != "" {
		if err := wallet.EnsureDepositWallets(context.Background()); err != nil {
			logrus.Fatalf("failed to provision deposit wallets: %v", err)
		}
	} else {
		logrus.Warn("WALLET_MASTER_KEY not set, deposit requests will fail")
	}

	handler := handlers.New(cfg, txRunner, users, nfts, collections, auctions, transactions, deposits, withdrawals, whitelist, exhibitions, audit, market, wallet, email, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("marketplace API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("shutdown error: %v", err)
	}
}

func initLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}
