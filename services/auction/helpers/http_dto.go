package helpers

import (
	"time"

	"auction-house/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs

// Amounts are accepted as JSON numbers or strings and always returned as strings.

type RegisterRequest struct {
	Username string      `json:"username" binding:"required,max=255"`
	Email    string      `json:"email" binding:"required,email,max=255"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     models.Role `json:"role" binding:"required,oneof=administrator staff bidder"`
	Name     string      `json:"name" binding:"max=255"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateItemRequest struct {
	Name          string           `json:"name" binding:"required,max=255"`
	Description   string           `json:"description" binding:"required"`
	StartingPrice *decimal.Decimal `json:"starting_price" binding:"required"`
	EndTime       time.Time        `json:"end_time" binding:"required"`
	ImageURL      string           `json:"image_url"`
}

type SetStatusRequest struct {
	Status models.ItemStatus `json:"status" binding:"required"`
}

type PlaceBidRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

type UpdateProfileRequest struct {
	Name           string `json:"name" binding:"required,max=255"`
	Address        string `json:"address" binding:"max=255"`
	IdentityNumber string `json:"identity_number" binding:"max=20"`
	Bio            string `json:"bio" binding:"max=1000"`
	PhotoURL       string `json:"photo_url"`
}

func (r UpdateProfileRequest) Profile() models.Profile {
	return models.Profile{
		Name:           r.Name,
		Address:        r.Address,
		IdentityNumber: r.IdentityNumber,
		Bio:            r.Bio,
		PhotoURL:       r.PhotoURL,
	}
}

type BidResponse struct {
	BidID        string           `json:"bid_id"`
	ItemID       string           `json:"item_id"`
	UserID       string           `json:"user_id"`
	Amount       decimal.Decimal  `json:"amount"`
	CreatedAt    string           `json:"created_at"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
}

// NewBidResponse renders a bid with an RFC3339 timestamp
func NewBidResponse(bid models.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		ItemID:    bid.ItemID,
		UserID:    bid.UserID,
		Amount:    bid.Amount,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}
