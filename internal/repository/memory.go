package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryRepo is a concurrency-safe in-memory implementation of Store.
//
// Atomic units are serialized by txMu and their writes are staged in a memTx
// until the unit returns without error, so a failed unit leaves no trace.
type MemoryRepo struct {
	txMu sync.Mutex

	mu       sync.RWMutex
	items    map[string]model.Item  // key: itemID -> value: item
	bids     map[string][]model.Bid // key: itemID -> value: list of bids
	userBids map[string][]model.Bid // key: userID -> value: bids placed by the user
	users    map[string]model.User  // key: userID -> value: user
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		items:    make(map[string]model.Item),
		bids:     make(map[string][]model.Bid),
		userBids: make(map[string][]model.Bid),
		users:    make(map[string]model.User),
	}
}

type memTxKey struct{}

// memTx holds the writes of one atomic unit
type memTx struct {
	items   map[string]model.Item
	deleted map[string]bool
	bids    []model.Bid
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

// RunAtomic executes fn as one serialized unit; nested calls join the outer unit
func (r *MemoryRepo) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &memTx{
		items:   make(map[string]model.Item),
		deleted: make(map[string]bool),
	}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		return err
	}

	r.commit(tx)
	return nil
}

func (r *MemoryRepo) commit(tx *memTx) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range tx.deleted {
		delete(r.items, id)
		delete(r.bids, id)
	}
	for id, item := range tx.items {
		r.items[id] = item
	}
	for _, bid := range tx.bids {
		r.bids[bid.ItemID] = append(r.bids[bid.ItemID], bid)
		r.userBids[bid.UserID] = append(r.userBids[bid.UserID], bid)
	}
}

// stage runs a write inside the caller's unit, or inside a fresh one
func (r *MemoryRepo) stage(ctx context.Context, fn func(ctx context.Context, tx *memTx) error) error {
	return r.RunAtomic(ctx, func(ctx context.Context) error {
		return fn(ctx, txFrom(ctx))
	})
}

// lookupItem returns the item as seen by the current unit
func (r *MemoryRepo) lookupItem(ctx context.Context, itemID string) (model.Item, bool) {
	if tx := txFrom(ctx); tx != nil {
		if tx.deleted[itemID] {
			return model.Item{}, false
		}
		if item, ok := tx.items[itemID]; ok {
			return item, true
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[itemID]
	return item, ok
}

func (r *MemoryRepo) snapshotItems(ctx context.Context) []model.Item {
	r.mu.RLock()
	merged := make(map[string]model.Item, len(r.items))
	for id, item := range r.items {
		merged[id] = item
	}
	r.mu.RUnlock()

	if tx := txFrom(ctx); tx != nil {
		for id := range tx.deleted {
			delete(merged, id)
		}
		for id, item := range tx.items {
			merged[id] = item
		}
	}

	items := make([]model.Item, 0, len(merged))
	for _, item := range merged {
		items = append(items, item)
	}
	return items
}

// CreateItem stores a new item
func (r *MemoryRepo) CreateItem(ctx context.Context, item model.Item) error {
	if item.ItemID == "" {
		return fmt.Errorf("repository: create item: %w", auctionerrors.ErrInvalidItem)
	}
	return r.stage(ctx, func(ctx context.Context, tx *memTx) error {
		if _, exists := r.lookupItem(ctx, item.ItemID); exists {
			return fmt.Errorf("repository: create item %s: %w - duplicate id", item.ItemID, auctionerrors.ErrInvalidItem)
		}
		delete(tx.deleted, item.ItemID)
		tx.items[item.ItemID] = item
		return nil
	})
}

// GetItem returns a single item
func (r *MemoryRepo) GetItem(ctx context.Context, itemID string) (model.Item, error) {
	item, ok := r.lookupItem(ctx, itemID)
	if !ok {
		return model.Item{}, fmt.Errorf("repository: get item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return item, nil
}

// GetItemForUpdate returns a single item; the lock is the unit-wide txMu
func (r *MemoryRepo) GetItemForUpdate(ctx context.Context, itemID string) (model.Item, error) {
	return r.GetItem(ctx, itemID)
}

// ListItems returns all items, newest first
func (r *MemoryRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	items := r.snapshotItems(ctx)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ItemID < items[j].ItemID
	})
	return items, nil
}

// DeleteItem removes an item that has no bids
func (r *MemoryRepo) DeleteItem(ctx context.Context, itemID string) error {
	return r.stage(ctx, func(ctx context.Context, tx *memTx) error {
		if _, ok := r.lookupItem(ctx, itemID); !ok {
			return fmt.Errorf("repository: delete item %s: %w", itemID, auctionerrors.ErrItemNotFound)
		}
		bids, err := r.GetBidsByItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("repository: delete item %s: %w", itemID, err)
		}
		if len(bids) > 0 {
			return fmt.Errorf("repository: delete item %s: %w", itemID, auctionerrors.ErrItemHasBids)
		}
		delete(tx.items, itemID)
		tx.deleted[itemID] = true
		return nil
	})
}

// UpdateItemPrice sets the current price of an item
func (r *MemoryRepo) UpdateItemPrice(ctx context.Context, itemID string, price decimal.Decimal) error {
	return r.stage(ctx, func(ctx context.Context, tx *memTx) error {
		item, ok := r.lookupItem(ctx, itemID)
		if !ok {
			return fmt.Errorf("repository: update price of item %s: %w", itemID, auctionerrors.ErrItemNotFound)
		}
		item.CurrentPrice = price
		item.UpdatedAt = time.Now().UTC()
		tx.items[itemID] = item
		return nil
	})
}

// UpdateItemStatus overwrites the status of an item
func (r *MemoryRepo) UpdateItemStatus(ctx context.Context, itemID string, status model.ItemStatus) error {
	return r.stage(ctx, func(ctx context.Context, tx *memTx) error {
		item, ok := r.lookupItem(ctx, itemID)
		if !ok {
			return fmt.Errorf("repository: update status of item %s: %w", itemID, auctionerrors.ErrItemNotFound)
		}
		item.Status = status
		item.UpdatedAt = time.Now().UTC()
		tx.items[itemID] = item
		return nil
	})
}

// CloseExpiredItems closes every open item whose end time is not after now
func (r *MemoryRepo) CloseExpiredItems(ctx context.Context, now time.Time) (int64, error) {
	var closed int64
	err := r.stage(ctx, func(ctx context.Context, tx *memTx) error {
		for _, item := range r.snapshotItems(ctx) {
			if model.EvaluateExpiry(&item, now) {
				tx.items[item.ItemID] = item
				closed++
			}
		}
		return nil
	})
	return closed, err
}

// RecordBidForItem records a user's bid on an item
func (r *MemoryRepo) RecordBidForItem(ctx context.Context, bid model.Bid) error {
	return r.stage(ctx, func(ctx context.Context, tx *memTx) error {
		if _, ok := r.lookupItem(ctx, bid.ItemID); !ok {
			return fmt.Errorf("repository: record bid for item %s: %w", bid.ItemID, auctionerrors.ErrItemNotFound)
		}
		tx.bids = append(tx.bids, bid)
		return nil
	})
}

// GetBidsByItem returns all bids for an item, highest first
func (r *MemoryRepo) GetBidsByItem(ctx context.Context, itemID string) ([]model.Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("repository: get bids for item %s: %w", itemID, err)
	}

	r.mu.RLock()
	bids := append([]model.Bid(nil), r.bids[itemID]...)
	r.mu.RUnlock()

	if tx := txFrom(ctx); tx != nil {
		for _, b := range tx.bids {
			if b.ItemID == itemID {
				bids = append(bids, b)
			}
		}
	}

	if bids == nil {
		bids = []model.Bid{}
	}
	model.SortBids(bids)
	return bids, nil
}

// GetBidsByUser returns all bids placed by a user, newest first
func (r *MemoryRepo) GetBidsByUser(ctx context.Context, userID string) ([]model.Bid, error) {
	r.mu.RLock()
	bids := append([]model.Bid(nil), r.userBids[userID]...)
	r.mu.RUnlock()

	if tx := txFrom(ctx); tx != nil {
		for _, b := range tx.bids {
			if b.UserID == userID {
				bids = append(bids, b)
			}
		}
	}

	if bids == nil {
		bids = []model.Bid{}
	}
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].CreatedAt.After(bids[j].CreatedAt)
	})
	return bids, nil
}

// CreateUser stores a new user; username and email are unique case-insensitively
func (r *MemoryRepo) CreateUser(ctx context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("repository: create user %s: %w", user.Username, auctionerrors.ErrDuplicateUser)
		}
	}
	r.users[user.UserID] = user
	return nil
}

// GetUserByID returns a user by identifier
func (r *MemoryRepo) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("repository: get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

// GetUserByUsername returns a user by login name
func (r *MemoryRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("repository: get user %s: %w", username, auctionerrors.ErrUserNotFound)
}

// UpdateProfile overwrites the profile fields of a user
func (r *MemoryRepo) UpdateProfile(ctx context.Context, userID string, profile model.Profile, updatedAt time.Time) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("repository: update profile %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	user.Name = profile.Name
	user.Address = profile.Address
	user.IdentityNumber = profile.IdentityNumber
	user.Bio = profile.Bio
	user.PhotoURL = profile.PhotoURL
	user.UpdatedAt = updatedAt
	r.users[userID] = user
	return user, nil
}

// AddItem adds an item to the repository outside of any unit. This method is intended for seeding and tests.
func (r *MemoryRepo) AddItem(item model.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ItemID] = item
}
