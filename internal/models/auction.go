package models

import (
	"sort"
	"time"
)

// EvaluateExpiry closes an open item whose end time has been reached.
// It reports whether the status changed; calling it again is a no-op.
func EvaluateExpiry(item *Item, now time.Time) bool {
	if item.Status != StatusOpen || now.Before(item.EndTime) {
		return false
	}
	item.Status = StatusClosed
	item.UpdatedAt = now
	return true
}

// AcceptsBids reports whether the item is open and its deadline has not passed
func (i Item) AcceptsBids(now time.Time) bool {
	return i.Status == StatusOpen && now.Before(i.EndTime)
}

// WinningBid returns the highest bid; equal amounts go to the earliest bid
func WinningBid(bids []Bid) (Bid, bool) {
	if len(bids) == 0 {
		return Bid{}, false
	}

	winning := bids[0]
	for _, b := range bids[1:] {
		cmp := b.Amount.Cmp(winning.Amount)
		if cmp > 0 || (cmp == 0 && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning, true
}

// SortBids orders bids by amount descending, then by creation time ascending
func SortBids(bids []Bid) {
	sort.SliceStable(bids, func(i, j int) bool {
		if cmp := bids[i].Amount.Cmp(bids[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return bids[i].CreatedAt.Before(bids[j].CreatedAt)
	})
}

// ClassifyBid derives the status of bid among all bids placed on item
func ClassifyBid(bid Bid, item Item, itemBids []Bid, now time.Time) BidStatus {
	winning, ok := WinningBid(itemBids)
	if !ok || winning.BidID != bid.BidID {
		return BidLost
	}
	if now.Before(item.EndTime) {
		return BidLeading
	}
	return BidWon
}
