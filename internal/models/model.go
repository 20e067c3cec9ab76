package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonetaryPrecision is the number of fractional digits stored for prices and bid amounts
const MonetaryPrecision = 2

// Role is the fixed role a user registers with
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleStaff         Role = "staff"
	RoleBidder        Role = "bidder"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleStaff, RoleBidder:
		return true
	}
	return false
}

// CanManageItems reports whether the role may create, delete and re-status items
func (r Role) CanManageItems() bool {
	return r == RoleAdministrator || r == RoleStaff
}

// ItemStatus is the lifecycle state of an auctioned item
type ItemStatus string

const (
	StatusOpen   ItemStatus = "open"
	StatusClosed ItemStatus = "closed"
	StatusSold   ItemStatus = "sold"
)

// BidStatus classifies a user's bid relative to the item it was placed on
type BidStatus string

const (
	BidLeading BidStatus = "leading"
	BidWon     BidStatus = "won"
	BidLost    BidStatus = "lost"
)

// User represents a participant in the auction
type User struct {
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	IdentityNumber string    `json:"identity_number"`
	Bio            string    `json:"bio"`
	PhotoURL       string    `json:"photo_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Actor returns the user as the caller of an operation
func (u User) Actor() Actor {
	return Actor{UserID: u.UserID, Role: u.Role}
}

// Profile holds the user fields the owner may change
type Profile struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	IdentityNumber string `json:"identity_number"`
	Bio            string `json:"bio"`
	PhotoURL       string `json:"photo_url"`
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Session identifies the bearer token a request was authenticated with
type Session struct {
	TokenID   string
	ExpiresAt time.Time
}

// Item represents an auction item
type Item struct {
	ItemID        string          `json:"item_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	ImageURL      string          `json:"image_url"`
	EndTime       time.Time       `json:"end_time"`
	Status        ItemStatus      `json:"status"`
	CreatedBy     string          `json:"created_by"`
	WinnerBidID   *string         `json:"winner_bid_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Bid represents a user's bid on an item
type Bid struct {
	BidID     string          `json:"bid_id"`
	ItemID    string          `json:"item_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// ItemWithBids is an item together with its bids, highest first.
// Winner is set only once the item is no longer open.
type ItemWithBids struct {
	Item
	Bids   []Bid `json:"bids"`
	Winner *Bid  `json:"winner,omitempty"`
}

// UserBidStatus is one entry of a user's offer overview
type UserBidStatus struct {
	Bid    Bid       `json:"bid"`
	Item   Item      `json:"item"`
	Status BidStatus `json:"status"`
}
