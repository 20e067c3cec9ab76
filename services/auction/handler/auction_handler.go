package handler

import (
	"context"
	"net/http"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mock_service.go -package=handler auction-house/services/auction/handler AuctionServiceInterface,UserServiceInterface

type AuctionServiceInterface interface {
	CreateItem(ctx context.Context, actor models.Actor, in auction.CreateItemInput) (models.Item, error)
	ListItems(ctx context.Context) ([]models.ItemWithBids, error)
	GetItem(ctx context.Context, itemID string) (models.ItemWithBids, error)
	DeleteItem(ctx context.Context, actor models.Actor, itemID string) error
	SetStatus(ctx context.Context, actor models.Actor, itemID string, status models.ItemStatus) (models.Item, error)
	PlaceBid(ctx context.Context, actor models.Actor, itemID string, amount decimal.Decimal) (models.Bid, error)
	GetBidsForItem(ctx context.Context, itemID string) ([]models.Bid, error)
	GetWinningBid(ctx context.Context, itemID string) (models.Bid, error)
	ListUserBidStatus(ctx context.Context, userID string) ([]models.UserBidStatus, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// actorOrAbort returns the authenticated caller or answers 401
func actorOrAbort(c *gin.Context, handlerName string) (models.Actor, bool) {
	actor, ok := helpers.ActorFromContext(c)
	if !ok {
		helpers.RespondError(c, handlerName, auctionerrors.ErrUnauthorized, nil)
		return models.Actor{}, false
	}
	return actor, true
}

// ListItemsHandler handles GET /items
func (h *AuctionHandler) ListItemsHandler(c *gin.Context) {
	items, err := h.service.ListItems(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListItemsHandler", err, nil)
		return
	}

	if items == nil {
		items = []models.ItemWithBids{}
	}

	utils.JSONResponse(c, http.StatusOK, items, "items retrieved successfully")
	helpers.LogSuccess("ListItemsHandler", "items retrieved successfully", map[string]any{"count": len(items)})
}

// GetItemHandler handles GET /items/:item_id
func (h *AuctionHandler) GetItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	item, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		helpers.RespondError(c, "GetItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, item, "item retrieved successfully")
}

// CreateItemHandler handles POST /items
func (h *AuctionHandler) CreateItemHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c, "CreateItemHandler")
	if !ok {
		return
	}

	var req helpers.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateItemHandler", err)
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), actor, auction.CreateItemInput{
		Name:          req.Name,
		Description:   req.Description,
		StartingPrice: *req.StartingPrice,
		EndTime:       req.EndTime,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		helpers.RespondError(c, "CreateItemHandler", err, map[string]any{"user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, item, "item created successfully")
	helpers.LogSuccess("CreateItemHandler", "item created successfully", map[string]any{
		"item_id":        item.ItemID,
		"created_by":     actor.UserID,
		"starting_price": item.StartingPrice.String(),
		"end_time":       item.EndTime,
	})
}

// DeleteItemHandler handles DELETE /items/:item_id
func (h *AuctionHandler) DeleteItemHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c, "DeleteItemHandler")
	if !ok {
		return
	}

	itemID := c.Param("item_id")
	if err := h.service.DeleteItem(c.Request.Context(), actor, itemID); err != nil {
		helpers.RespondError(c, "DeleteItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"item_id": itemID}, "item deleted successfully")
	helpers.LogSuccess("DeleteItemHandler", "item deleted successfully", map[string]any{
		"item_id": itemID,
		"user_id": actor.UserID,
	})
}

// SetStatusHandler handles PATCH /items/:item_id/status
func (h *AuctionHandler) SetStatusHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c, "SetStatusHandler")
	if !ok {
		return
	}

	var req helpers.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SetStatusHandler", err)
		return
	}

	itemID := c.Param("item_id")
	item, err := h.service.SetStatus(c.Request.Context(), actor, itemID, req.Status)
	if err != nil {
		helpers.RespondError(c, "SetStatusHandler", err, map[string]any{"item_id": itemID, "status": req.Status})
		return
	}

	utils.JSONResponse(c, http.StatusOK, item, "item status updated successfully")
	helpers.LogSuccess("SetStatusHandler", "item status updated successfully", map[string]any{
		"item_id": itemID,
		"status":  item.Status,
		"user_id": actor.UserID,
	})
}

// PlaceBidHandler handles POST /items/:item_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c, "PlaceBidHandler")
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	itemID := c.Param("item_id")
	bid, err := h.service.PlaceBid(c.Request.Context(), actor, itemID, *req.Amount)
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"item_id": itemID,
			"user_id": actor.UserID,
			"amount":  req.Amount.String(),
		})
		return
	}

	resp := helpers.NewBidResponse(bid)
	resp.CurrentPrice = &bid.Amount

	utils.JSONResponse(c, http.StatusCreated, resp, "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":  bid.BidID,
		"item_id": bid.ItemID,
		"user_id": bid.UserID,
		"amount":  bid.Amount.String(),
	})
}

// GetBidsByItemHandler handles GET /items/:item_id/bids
func (h *AuctionHandler) GetBidsByItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	bids, err := h.service.GetBidsForItem(c.Request.Context(), itemID)
	if err != nil {
		helpers.RespondError(c, "GetBidsByItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, bid := range bids {
		resp = append(resp, helpers.NewBidResponse(bid))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByItemHandler", "bids retrieved successfully", map[string]any{
		"item_id": itemID,
		"count":   len(bids),
	})
}

// GetWinningBidHandler handles GET /items/:item_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	bid, err := h.service.GetWinningBid(c.Request.Context(), itemID)
	if err != nil {
		helpers.RespondError(c, "GetWinningBidHandler", err, map[string]any{"item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":  bid.BidID,
		"item_id": bid.ItemID,
		"user_id": bid.UserID,
		"amount":  bid.Amount.String(),
	})
}

// UserOffersHandler handles GET /offers/user
func (h *AuctionHandler) UserOffersHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c, "UserOffersHandler")
	if !ok {
		return
	}

	offers, err := h.service.ListUserBidStatus(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondError(c, "UserOffersHandler", err, map[string]any{"user_id": actor.UserID})
		return
	}

	if offers == nil {
		offers = []models.UserBidStatus{}
	}

	utils.JSONResponse(c, http.StatusOK, offers, "offers retrieved successfully")
	helpers.LogSuccess("UserOffersHandler", "offers retrieved successfully", map[string]any{
		"user_id": actor.UserID,
		"count":   len(offers),
	})
}
