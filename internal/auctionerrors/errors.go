package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrItemNotFound  = errors.New("item not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrNoBids        = errors.New("no bids found for item")
	ErrDuplicateUser = errors.New("username or email already taken")
	ErrItemHasBids   = errors.New("item still has bids")
)

// business logic errors
var (
	ErrInvalidBid    = errors.New("invalid bid")
	ErrInvalidItem   = errors.New("invalid item")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidUser   = errors.New("invalid user")
	ErrBidTooLow     = errors.New("bid amount too low")
	ErrAuctionClosed = errors.New("auction is closed")
	ErrAuctionOpen   = errors.New("auction is still open")
)

// access errors
var (
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
)
