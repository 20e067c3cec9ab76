package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newBid(bidID string, amount string, createdAt time.Time) Bid {
	return Bid{
		BidID:     bidID,
		ItemID:    "item1",
		UserID:    "user-" + bidID,
		Amount:    decimal.RequireFromString(amount),
		CreatedAt: createdAt,
	}
}

func TestEvaluateExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		status     ItemStatus
		endTime    time.Time
		wantChange bool
		wantStatus ItemStatus
	}{
		{name: "open_before_deadline", status: StatusOpen, endTime: now.Add(time.Minute), wantChange: false, wantStatus: StatusOpen},
		{name: "open_at_deadline", status: StatusOpen, endTime: now, wantChange: true, wantStatus: StatusClosed},
		{name: "open_after_deadline", status: StatusOpen, endTime: now.Add(-time.Hour), wantChange: true, wantStatus: StatusClosed},
		{name: "already_closed", status: StatusClosed, endTime: now.Add(-time.Hour), wantChange: false, wantStatus: StatusClosed},
		{name: "sold_is_untouched", status: StatusSold, endTime: now.Add(-time.Hour), wantChange: false, wantStatus: StatusSold},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			item := Item{ItemID: "item1", Status: tc.status, EndTime: tc.endTime}
			require.Equal(t, tc.wantChange, EvaluateExpiry(&item, now))
			require.Equal(t, tc.wantStatus, item.Status)
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		item := Item{ItemID: "item1", Status: StatusOpen, EndTime: now.Add(-time.Second)}
		require.True(t, EvaluateExpiry(&item, now))
		require.False(t, EvaluateExpiry(&item, now))
		require.Equal(t, StatusClosed, item.Status)
	})
}

func TestItem_AcceptsBids(t *testing.T) {
	now := time.Now().UTC()

	require.True(t, Item{Status: StatusOpen, EndTime: now.Add(time.Second)}.AcceptsBids(now))
	require.False(t, Item{Status: StatusOpen, EndTime: now}.AcceptsBids(now))
	require.False(t, Item{Status: StatusClosed, EndTime: now.Add(time.Hour)}.AcceptsBids(now))
	require.False(t, Item{Status: StatusSold, EndTime: now.Add(time.Hour)}.AcceptsBids(now))
}

func TestWinningBid(t *testing.T) {
	now := time.Now().UTC()

	t.Run("no_bids", func(t *testing.T) {
		_, ok := WinningBid(nil)
		require.False(t, ok)
	})

	t.Run("highest_amount_wins", func(t *testing.T) {
		bids := []Bid{
			newBid("b1", "100", now),
			newBid("b2", "150.50", now.Add(time.Second)),
			newBid("b3", "150.49", now.Add(2*time.Second)),
		}
		winner, ok := WinningBid(bids)
		require.True(t, ok)
		require.Equal(t, "b2", winner.BidID)
	})

	t.Run("tie_goes_to_earliest", func(t *testing.T) {
		bids := []Bid{
			newBid("late", "200", now.Add(time.Minute)),
			newBid("early", "200.00", now),
		}
		winner, ok := WinningBid(bids)
		require.True(t, ok)
		require.Equal(t, "early", winner.BidID)
	})
}

func TestSortBids(t *testing.T) {
	now := time.Now().UTC()
	bids := []Bid{
		newBid("b1", "100", now),
		newBid("b2", "300", now.Add(2*time.Second)),
		newBid("b3", "300", now.Add(time.Second)),
		newBid("b4", "200", now.Add(3*time.Second)),
	}

	SortBids(bids)

	ids := make([]string, 0, len(bids))
	for _, b := range bids {
		ids = append(ids, b.BidID)
	}
	require.Equal(t, []string{"b3", "b2", "b4", "b1"}, ids)
}

func TestClassifyBid(t *testing.T) {
	now := time.Now().UTC()
	low := newBid("low", "1100", now.Add(-2*time.Minute))
	high := newBid("high", "1200", now.Add(-time.Minute))
	bids := []Bid{low, high}

	running := Item{ItemID: "item1", Status: StatusOpen, EndTime: now.Add(time.Hour)}
	ended := Item{ItemID: "item1", Status: StatusClosed, EndTime: now.Add(-time.Second)}

	require.Equal(t, BidLeading, ClassifyBid(high, running, bids, now))
	require.Equal(t, BidLost, ClassifyBid(low, running, bids, now))
	require.Equal(t, BidWon, ClassifyBid(high, ended, bids, now))
	require.Equal(t, BidLost, ClassifyBid(low, ended, bids, now))
}

func TestRole(t *testing.T) {
	require.True(t, RoleAdministrator.Valid())
	require.True(t, RoleStaff.Valid())
	require.True(t, RoleBidder.Valid())
	require.False(t, Role("petugas").Valid())

	require.True(t, RoleAdministrator.CanManageItems())
	require.True(t, RoleStaff.CanManageItems())
	require.False(t, RoleBidder.CanManageItems())
}
