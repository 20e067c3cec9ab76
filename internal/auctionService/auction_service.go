package auction

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	maxNameLength = 255

	// bid lists fetched in parallel by ListItems
	listConcurrency = 8

	// upper bound for one expiry sweep, independent of the caller that started it
	sweepTimeout = 10 * time.Second
)

// maxAmount is the first value that no longer fits a NUMERIC(15,2) column
var maxAmount = decimal.New(1, 13)

// AuctionService is the auction ledger: it validates and applies bids,
// manages item status and derives winners
type AuctionService struct {
	repo    repository.AuctionDB
	now     func() time.Time
	sweeps  singleflight.Group
	metrics Recorder
}

// Option configures an AuctionService
type Option func(*AuctionService)

// WithClock replaces the wall clock used for deadlines and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *AuctionService) {
		s.now = now
	}
}

// WithRecorder reports ledger outcomes to r
func WithRecorder(r Recorder) Option {
	return func(s *AuctionService) {
		s.metrics = r
	}
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, opts ...Option) *AuctionService {
	s := &AuctionService{
		repo:    repo,
		now:     func() time.Time { return time.Now().UTC() },
		metrics: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateItemInput carries the fields staff provide for a new auction
type CreateItemInput struct {
	Name          string
	Description   string
	StartingPrice decimal.Decimal
	EndTime       time.Time
	ImageURL      string
}

// CreateItem opens a new auction at its starting price
func (s *AuctionService) CreateItem(ctx context.Context, actor models.Actor, in CreateItemInput) (models.Item, error) {
	if !actor.Role.CanManageItems() {
		return models.Item{}, fmt.Errorf("service: %w - role %q may not create items", auctionerrors.ErrForbidden, actor.Role)
	}

	now := s.now()
	if err := validateItem(in, now); err != nil {
		return models.Item{}, err
	}

	item := models.Item{
		ItemID:        utils.GenerateID(),
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		StartingPrice: in.StartingPrice,
		CurrentPrice:  in.StartingPrice,
		ImageURL:      strings.TrimSpace(in.ImageURL),
		EndTime:       in.EndTime.UTC(),
		Status:        models.StatusOpen,
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return models.Item{}, fmt.Errorf("service: failed to create item: %w", err)
	}
	return item, nil
}

func validateItem(in CreateItemInput, now time.Time) error {
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("service: %w - name must be 1 to %d characters", auctionerrors.ErrInvalidItem, maxNameLength)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("service: %w - description is required", auctionerrors.ErrInvalidItem)
	}
	if in.StartingPrice.IsNegative() {
		return fmt.Errorf("service: %w - negative starting price", auctionerrors.ErrInvalidItem)
	}
	if err := validatePrecision(in.StartingPrice); err != nil {
		return fmt.Errorf("service: %w - starting price %v", auctionerrors.ErrInvalidItem, err)
	}
	if !in.EndTime.After(now) {
		return fmt.Errorf("service: %w - end time must be in the future", auctionerrors.ErrInvalidItem)
	}
	return nil
}

func validatePrecision(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(models.MonetaryPrecision)) {
		return fmt.Errorf("has more than %d decimal places", models.MonetaryPrecision)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("exceeds %s", maxAmount)
	}
	return nil
}

// PlaceBid validates and records a bidder's offer, raising the item's current price.
// The read of the current price, the comparison and both writes happen under the item lock.
func (s *AuctionService) PlaceBid(ctx context.Context, actor models.Actor, itemID string, amount decimal.Decimal) (models.Bid, error) {
	if actor.Role != models.RoleBidder {
		return models.Bid{}, fmt.Errorf("service: %w - role %q may not bid", auctionerrors.ErrForbidden, actor.Role)
	}
	if err := validateBid(itemID, actor.UserID, amount); err != nil {
		return models.Bid{}, err
	}

	var bid models.Bid
	err := s.repo.RunAtomic(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		now := s.now()
		if !item.AcceptsBids(now) {
			return fmt.Errorf("%w - item status %s, ended %s", auctionerrors.ErrAuctionClosed, item.Status, item.EndTime.Format(time.RFC3339))
		}
		if amount.LessThanOrEqual(item.CurrentPrice) {
			return fmt.Errorf("%w - current price is %s", auctionerrors.ErrBidTooLow, item.CurrentPrice.StringFixed(models.MonetaryPrecision))
		}

		bid = models.Bid{
			BidID:     utils.GenerateID(),
			ItemID:    itemID,
			UserID:    actor.UserID,
			Amount:    amount,
			CreatedAt: now,
		}
		if err := s.repo.RecordBidForItem(ctx, bid); err != nil {
			return err
		}
		return s.repo.UpdateItemPrice(ctx, itemID, amount)
	})
	if err != nil {
		s.metrics.BidRejected(err)
		return models.Bid{}, fmt.Errorf("service: failed to place bid on item %s by user %s: %w", itemID, actor.UserID, err)
	}

	s.metrics.BidAccepted()
	return bid, nil
}

// validateBid checks input validity for bidding
func validateBid(itemID, userID string, amount decimal.Decimal) error {
	if itemID == "" || userID == "" {
		return fmt.Errorf("service: %w - missing itemID or userID", auctionerrors.ErrInvalidBid)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}
	if err := validatePrecision(amount); err != nil {
		return fmt.Errorf("service: %w - amount %v", auctionerrors.ErrInvalidBid, err)
	}
	return nil
}

// expire lazily closes auctions whose deadline has passed.
// Concurrent readers share a single sweep; it runs detached from the
// caller that started it so one cancelled request cannot fail the others.
func (s *AuctionService) expire(ctx context.Context) error {
	ch := s.sweeps.DoChan("expire", func() (interface{}, error) {
		sweepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sweepTimeout)
		defer cancel()

		closed, err := s.repo.CloseExpiredItems(sweepCtx, s.now())
		if err != nil {
			return nil, err
		}
		if closed > 0 {
			s.metrics.AuctionsClosed(int(closed))
			utils.Info("closed expired auctions", map[string]any{"count": closed})
		}
		return closed, nil
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("service: failed to close expired items: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return fmt.Errorf("service: failed to close expired items: %w", res.Err)
		}
		return nil
	}
}

func (s *AuctionService) withBids(ctx context.Context, item models.Item) (models.ItemWithBids, error) {
	bids, err := s.repo.GetBidsByItem(ctx, item.ItemID)
	if err != nil {
		return models.ItemWithBids{}, fmt.Errorf("service: failed to get bids for item %s: %w", item.ItemID, err)
	}

	view := models.ItemWithBids{Item: item, Bids: bids}
	if item.Status != models.StatusOpen {
		if winner, ok := models.WinningBid(bids); ok {
			view.Winner = &winner
		}
	}
	return view, nil
}

// ListItems returns every item with its bids, newest item first
func (s *AuctionService) ListItems(ctx context.Context) ([]models.ItemWithBids, error) {
	if err := s.expire(ctx); err != nil {
		return nil, err
	}

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list items: %w", err)
	}

	result := make([]models.ItemWithBids, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, item := range items {
		g.Go(func() error {
			view, err := s.withBids(gctx, item)
			if err != nil {
				return err
			}
			result[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetItem returns a single item with its bids
func (s *AuctionService) GetItem(ctx context.Context, itemID string) (models.ItemWithBids, error) {
	if itemID == "" {
		return models.ItemWithBids{}, fmt.Errorf("service: %w - empty item ID", auctionerrors.ErrInvalidItem)
	}
	if err := s.expire(ctx); err != nil {
		return models.ItemWithBids{}, err
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return models.ItemWithBids{}, fmt.Errorf("service: failed to get item %s: %w", itemID, err)
	}
	return s.withBids(ctx, item)
}

// DeleteItem removes an item nobody has bid on
func (s *AuctionService) DeleteItem(ctx context.Context, actor models.Actor, itemID string) error {
	if !actor.Role.CanManageItems() {
		return fmt.Errorf("service: %w - role %q may not delete items", auctionerrors.ErrForbidden, actor.Role)
	}

	err := s.repo.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetItemForUpdate(ctx, itemID); err != nil {
			return err
		}
		bids, err := s.repo.GetBidsByItem(ctx, itemID)
		if err != nil {
			return err
		}
		if len(bids) > 0 {
			return fmt.Errorf("%w - %d bids placed", auctionerrors.ErrItemHasBids, len(bids))
		}
		return s.repo.DeleteItem(ctx, itemID)
	})
	if err != nil {
		return fmt.Errorf("service: failed to delete item %s: %w", itemID, err)
	}
	return nil
}

// SetStatus is the administrative override of an item's status.
// It bypasses the deadline check; only sold items are final.
func (s *AuctionService) SetStatus(ctx context.Context, actor models.Actor, itemID string, status models.ItemStatus) (models.Item, error) {
	if !actor.Role.CanManageItems() {
		return models.Item{}, fmt.Errorf("service: %w - role %q may not change item status", auctionerrors.ErrForbidden, actor.Role)
	}
	if status != models.StatusOpen && status != models.StatusClosed {
		return models.Item{}, fmt.Errorf("service: %w - %q is not one of open, closed", auctionerrors.ErrInvalidStatus, status)
	}

	var updated models.Item
	err := s.repo.RunAtomic(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Status == models.StatusSold {
			return fmt.Errorf("%w - item is already sold", auctionerrors.ErrInvalidStatus)
		}
		if err := s.repo.UpdateItemStatus(ctx, itemID, status); err != nil {
			return err
		}
		item.Status = status
		item.UpdatedAt = s.now()
		updated = item
		return nil
	})
	if err != nil {
		return models.Item{}, fmt.Errorf("service: failed to set status of item %s: %w", itemID, err)
	}
	return updated, nil
}

// GetBidsForItem returns all bids for a specific item, highest first
func (s *AuctionService) GetBidsForItem(ctx context.Context, itemID string) ([]models.Bid, error) {
	if itemID == "" {
		return nil, fmt.Errorf("service: %w - empty item ID", auctionerrors.ErrInvalidItem)
	}
	if err := s.expire(ctx); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("service: failed to get bids for item %s: %w", itemID, err)
	}

	bids, err := s.repo.GetBidsByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for item %s: %w", itemID, err)
	}
	return bids, nil
}

// GetWinningBid returns the winner of a finished auction: the highest bid,
// the earliest one among equal amounts
func (s *AuctionService) GetWinningBid(ctx context.Context, itemID string) (models.Bid, error) {
	if itemID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty item ID", auctionerrors.ErrInvalidItem)
	}
	if err := s.expire(ctx); err != nil {
		return models.Bid{}, err
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for item %s: %w", itemID, err)
	}
	if item.Status == models.StatusOpen {
		return models.Bid{}, fmt.Errorf("service: %w - item %s ends %s", auctionerrors.ErrAuctionOpen, itemID, item.EndTime.Format(time.RFC3339))
	}

	bids, err := s.repo.GetBidsByItem(ctx, itemID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for item %s: %w", itemID, err)
	}
	winner, ok := models.WinningBid(bids)
	if !ok {
		return models.Bid{}, fmt.Errorf("service: get winning bid for item %s: %w", itemID, auctionerrors.ErrNoBids)
	}
	return winner, nil
}

// ListUserBidStatus classifies every bid of a user as leading, won or lost.
// It is recomputed from storage on every call.
func (s *AuctionService) ListUserBidStatus(ctx context.Context, userID string) ([]models.UserBidStatus, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidUser)
	}
	if err := s.expire(ctx); err != nil {
		return nil, err
	}

	bids, err := s.repo.GetBidsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for user %s: %w", userID, err)
	}

	now := s.now()
	items := make(map[string]models.Item)
	itemBids := make(map[string][]models.Bid)
	result := make([]models.UserBidStatus, 0, len(bids))

	for _, bid := range bids {
		item, seen := items[bid.ItemID]
		if !seen {
			item, err = s.repo.GetItem(ctx, bid.ItemID)
			if err != nil {
				return nil, fmt.Errorf("service: failed to get item %s: %w", bid.ItemID, err)
			}
			all, err := s.repo.GetBidsByItem(ctx, bid.ItemID)
			if err != nil {
				return nil, fmt.Errorf("service: failed to get bids for item %s: %w", bid.ItemID, err)
			}
			items[bid.ItemID] = item
			itemBids[bid.ItemID] = all
		}

		result = append(result, models.UserBidStatus{
			Bid:    bid,
			Item:   item,
			Status: models.ClassifyBid(bid, item, itemBids[bid.ItemID], now),
		})
	}
	return result, nil
}
