package server

import (
	"auction-house/internal/metrics"
	"auction-house/internal/models"
	handler "auction-house/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// Services are the dependencies the HTTP layer is built from
type Services struct {
	Auctions handler.AuctionServiceInterface
	Users    handler.UserServiceInterface
	Tokens   TokenParser
	Metrics  *metrics.Metrics // optional
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svc Services) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	if svc.Metrics != nil {
		router.Use(svc.Metrics.Middleware())
		router.GET("/metrics", svc.Metrics.Handler())
	}

	auctionHandler := handler.NewAuctionHandler(svc.Auctions)
	userHandler := handler.NewUserHandler(svc.Users)

	authenticated := AuthMiddleware(svc.Tokens)
	managers := RequireRole(models.RoleAdministrator, models.RoleStaff)
	bidders := RequireRole(models.RoleBidder)

	api := router.Group("/", CompressionMiddleware)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", userHandler.RegisterHandler)
		authGroup.POST("/login", userHandler.LoginHandler)
		authGroup.POST("/logout", authenticated, userHandler.LogoutHandler)
		authGroup.GET("/user", authenticated, userHandler.ProfileHandler)
	}

	items := api.Group("/items")
	{
		items.GET("", auctionHandler.ListItemsHandler)
		items.GET("/:item_id", auctionHandler.GetItemHandler)
		items.GET("/:item_id/bids", auctionHandler.GetBidsByItemHandler)
		items.GET("/:item_id/winning", auctionHandler.GetWinningBidHandler)

		items.POST("", authenticated, managers, auctionHandler.CreateItemHandler)
		items.DELETE("/:item_id", authenticated, managers, auctionHandler.DeleteItemHandler)
		items.PATCH("/:item_id/status", authenticated, managers, auctionHandler.SetStatusHandler)
		items.POST("/:item_id/bids", authenticated, bidders, auctionHandler.PlaceBidHandler)
	}

	api.GET("/offers/user", authenticated, auctionHandler.UserOffersHandler)

	profile := api.Group("/profile", authenticated)
	{
		profile.GET("", userHandler.ProfileHandler)
		profile.PUT("", userHandler.UpdateProfileHandler)
	}

	return router
}
