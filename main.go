package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/auctionerrors"
	"auction-house/internal/auth"
	"auction-house/internal/config"
	"auction-house/internal/metrics"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	users "auction-house/internal/userService"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load config", map[string]any{"error": err.Error()})
	}
	utils.SetLevel(cfg.LogLevel)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		utils.Fatal("failed to create token issuer", map[string]any{"error": err.Error()})
	}

	m := metrics.New()
	auctionSvc := auction.NewAuctionService(store, auction.WithRecorder(m))
	userSvc := users.NewUserService(store, tokens)

	if cfg.SeedDemoData {
		seedDemoData(ctx, userSvc, auctionSvc)
	}

	router := server.SetupRouter(server.Services{
		Auctions: auctionSvc,
		Users:    userSvc,
		Tokens:   tokens,
		Metrics:  m,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           server.WithCORS(router, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"port": cfg.ServerPort, "postgres": cfg.UsesPostgres()})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("server failed", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	utils.Info("shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("server forced to shutdown", map[string]any{"error": err.Error()})
		return
	}
	utils.Info("server exited", nil)
}

// openStore returns the PostgreSQL store when DATABASE_URL is set, the in-memory store otherwise
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func()) {
	if !cfg.UsesPostgres() {
		utils.Warn("DATABASE_URL not set, using in-memory store", nil)
		return repository.NewMemoryRepo(), func() {}
	}

	pool, err := repository.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		utils.Fatal("failed to connect to database", map[string]any{"error": err.Error()})
	}
	if err := repository.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		utils.Fatal("failed to run migrations", map[string]any{"error": err.Error()})
	}
	return repository.NewPostgresRepo(pool), pool.Close
}

// seedDemoData creates one account per role and a few open auctions
func seedDemoData(ctx context.Context, userSvc *users.UserService, auctionSvc *auction.AuctionService) {
	accounts := []users.RegisterInput{
		{Username: "admin", Email: "admin@auction.local", Password: "password123", Role: models.RoleAdministrator, Name: "Administrator"},
		{Username: "staff", Email: "staff@auction.local", Password: "password123", Role: models.RoleStaff, Name: "Staff"},
		{Username: "bidder", Email: "bidder@auction.local", Password: "password123", Role: models.RoleBidder, Name: "Bidder"},
	}

	var staff models.Actor
	for _, in := range accounts {
		user, err := userSvc.Register(ctx, in)
		if errors.Is(err, auctionerrors.ErrDuplicateUser) {
			utils.Info("demo account already present", map[string]any{"username": in.Username})
			continue
		}
		if err != nil {
			utils.Error("failed to seed demo account", map[string]any{"username": in.Username, "error": err.Error()})
			return
		}
		if user.Role == models.RoleStaff {
			staff = user.Actor()
		}
	}
	if staff.UserID == "" {
		return
	}

	end := time.Now().UTC().Add(72 * time.Hour)
	items := []auction.CreateItemInput{
		{Name: "Antique pocket watch", Description: "Silver case, hand wound, working", StartingPrice: decimal.NewFromInt(100), EndTime: end},
		{Name: "Oil painting", Description: "Harbour at dusk, framed", StartingPrice: decimal.NewFromInt(200), EndTime: end},
		{Name: "Vinyl collection", Description: "Forty jazz records from the sixties", StartingPrice: decimal.NewFromInt(150), EndTime: end},
	}
	for _, in := range items {
		item, err := auctionSvc.CreateItem(ctx, staff, in)
		if err != nil {
			utils.Error("failed to seed demo item", map[string]any{"name": in.Name, "error": err.Error()})
			return
		}
		utils.Info("seeded demo item", map[string]any{"item_id": item.ItemID, "name": item.Name})
	}
}
