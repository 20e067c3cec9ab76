package repository

import (
	"context"
	"time"

	model "auction-house/internal/models"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mock_repository.go -package=repository auction-house/internal/repository AuctionDB,UserDB

// AuctionDB defines the item and bid storage interface for the auction ledger.
//
// Methods called inside RunAtomic observe and join the surrounding transaction.
// GetItemForUpdate additionally locks the item until that transaction ends.
type AuctionDB interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error

	CreateItem(ctx context.Context, item model.Item) error
	GetItem(ctx context.Context, itemID string) (model.Item, error)
	GetItemForUpdate(ctx context.Context, itemID string) (model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	UpdateItemPrice(ctx context.Context, itemID string, price decimal.Decimal) error
	UpdateItemStatus(ctx context.Context, itemID string, status model.ItemStatus) error
	CloseExpiredItems(ctx context.Context, now time.Time) (int64, error)

	RecordBidForItem(ctx context.Context, bid model.Bid) error
	GetBidsByItem(ctx context.Context, itemID string) ([]model.Bid, error)
	GetBidsByUser(ctx context.Context, userID string) ([]model.Bid, error)
}

// UserDB defines the user storage interface
type UserDB interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	UpdateProfile(ctx context.Context, userID string, profile model.Profile, updatedAt time.Time) (model.User, error)
}

// Store is a backend serving both the ledger and the user accounts
type Store interface {
	AuctionDB
	UserDB
}

var (
	_ Store = (*MemoryRepo)(nil)
	_ Store = (*PostgresRepo)(nil)
)
