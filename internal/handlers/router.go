package handlers

import (
	"net/http"

	"nftmarket/internal/config"
	"nftmarket/internal/db"
	"nftmarket/internal/middleware"
	"nftmarket/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	cfg          config.Config
	txRunner     db.TxRunner
	users        UserStore
	nfts         NFTStore
	collections  CollectionStore
	auctions     AuctionStore
	transactions TransactionStore
	deposits     DepositStore
	withdrawals  WithdrawalStore
	whitelist    WhitelistStore
	exhibitions  ExhibitionStore
	audit        AuditStore
	market       MarketService
	wallet       WalletService
	email        EmailService
	hub          *websocket.Hub
}

func New(cfg config.Config, txRunner db.TxRunner, users UserStore, nfts NFTStore, collections CollectionStore, auctions AuctionStore, transactions TransactionStore, deposits DepositStore, withdrawals WithdrawalStore, whitelist WhitelistStore, exhibitions ExhibitionStore, audit AuditStore, market MarketService, wallet WalletService, email EmailService, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:          cfg,
		txRunner:     txRunner,
		users:        users,
		nfts:         nfts,
		collections:  collections,
		auctions:     auctions,
		transactions: transactions,
		deposits:     deposits,
		withdrawals:  withdrawals,
		whitelist:    whitelist,
		exhibitions:  exhibitions,
		audit:        audit,
		market:       market,
		wallet:       wallet,
		email:        email,
		hub:          hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(middleware.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authn := middleware.Auth(h.cfg.JWTSecret)
	admin := middleware.RequireAdmin(h.users)
	superadmin := middleware.RequireSuperAdmin(h.users)

	router.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/verify/send", h.SendVerification)
			r.Post("/verify/confirm", h.ConfirmVerification)
			r.Post("/password-reset/send", h.SendPasswordReset)
			r.Post("/password-reset/confirm", h.ConfirmPasswordReset)
			r.With(authn).Get("/me", h.Me)
		})

		api.Route("/collections", func(r chi.Router) {
			r.Get("/", h.ListCollections)
			r.Get("/{id}", h.GetCollection)
			r.Get("/{id}/nfts", h.ListCollectionNFTs)
			r.With(authn).Post("/", h.CreateCollection)
			r.With(authn).Put("/{id}", h.UpdateCollection)
		})

		api.Route("/nfts", func(r chi.Router) {
			r.Get("/", h.ListNFTs)
			r.Get("/{id}", h.GetNFT)
			r.With(authn).Post("/", h.MintNFT)
			r.With(authn).Post("/{id}/list", h.ListNFTForSale)
			r.With(authn).Post("/{id}/unlist", h.UnlistNFT)
		})

		api.Route("/marketplace", func(r chi.Router) {
			r.Use(authn)
			r.Post("/buy", h.BuyNFT)
			r.Post("/sessions", h.CreatePurchaseSession)
			r.Get("/sessions/{id}", h.GetPurchaseSession)
			r.Post("/sessions/{id}/confirm", h.ConfirmPurchaseSession)
		})

		api.Route("/auctions", func(r chi.Router) {
			r.Get("/", h.ListAuctions)
			r.Get("/{id}", h.GetAuction)
			r.Get("/{id}/bids", h.ListAuctionBids)
			r.With(authn).Post("/", h.CreateAuction)
			r.With(authn).Put("/{id}", h.UpdateAuction)
			r.With(authn).Delete("/{id}", h.DeleteAuction)
			r.With(authn).Post("/{id}/bids", h.PlaceBid)
			r.With(authn).Post("/{id}/complete", h.CompleteAuction)
		})

		api.Route("/wallet", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", h.GetWallet)
			r.Get("/deposits", h.ListDeposits)
			r.Post("/deposit", h.RequestDeposit)
			r.Get("/withdrawals", h.ListWithdrawals)
			r.Get("/whitelist", h.ListWhitelist)
			r.Post("/whitelist", h.AddWhitelistAddress)
			r.Delete("/whitelist/{id}", h.RemoveWhitelistAddress)
		})

		api.With(authn).Post("/withdraw", h.RequestWithdrawal)
		api.With(authn).Get("/transactions", h.ListTransactions)
		api.Get("/search", h.Search)

		api.Route("/exhibitions", func(r chi.Router) {
			r.Get("/", h.ListExhibitions)
			r.Get("/{id}", h.GetExhibition)
			r.With(authn, admin).Post("/", h.CreateExhibition)
			r.With(authn, admin).Put("/{id}", h.UpdateExhibition)
			r.With(authn, admin).Delete("/{id}", h.DeleteExhibition)
			r.With(authn, admin).Post("/{id}/items", h.AddExhibitionItem)
			r.With(authn, admin).Delete("/{id}/items/{nftID}", h.RemoveExhibitionItem)
		})

		api.Route("/admin", func(r chi.Router) {
			r.Use(authn)
			r.With(admin).Get("/users", h.AdminListUsers)
			r.With(admin).Get("/transactions", h.AdminListTransactions)
			r.With(admin).Get("/deposits", h.AdminListDeposits)
			r.With(admin).Post("/deposits/{id}/review", h.AdminReviewDeposit)
			r.With(admin).Get("/withdrawals", h.AdminListWithdrawals)
			r.With(admin).Post("/withdrawals/{id}/review", h.AdminReviewWithdrawal)
			r.With(admin).Post("/auctions/{id}/complete", h.AdminCompleteAuction)
			r.With(admin).Get("/audit", h.ListAuditLogs)
			r.With(superadmin).Put("/users/{id}/role", h.UpdateUserRole)
		})
	})

	router.Get("/ws", h.WS)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
