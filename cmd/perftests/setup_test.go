package perftests

import (
	"context"
	"fmt"
	"time"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/models"
	"auction-house/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	benchStaff = models.Actor{UserID: "bench_staff", Role: models.RoleStaff}
	benchCtx   = context.Background()
)

func bidder(id string) models.Actor {
	return models.Actor{UserID: id, Role: models.RoleBidder}
}

func benchItem(id string, price int64) models.Item {
	return models.Item{
		ItemID:        id,
		Name:          fmt.Sprintf("Benchmark %s", id),
		Description:   "Load test item",
		StartingPrice: decimal.NewFromInt(price),
		CurrentPrice:  decimal.NewFromInt(price),
		EndTime:       time.Now().Add(24 * time.Hour),
		Status:        models.StatusOpen,
		CreatedAt:     time.Now(),
	}
}

// setupRepo creates repository and auction service with numItems open items
func setupRepo(numItems int, price int64) (*repository.MemoryRepo, *auction.AuctionService) {
	repo := repository.NewMemoryRepo()
	svc := auction.NewAuctionService(repo)
	for i := 0; i < numItems; i++ {
		repo.AddItem(benchItem(fmt.Sprintf("item_%d", i), price))
	}
	return repo, svc
}
