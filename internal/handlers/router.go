package handlers

import (
	"net/http"
	"time"

	"promotion-campaigns/internal/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every route of the service
func NewRouter(promotions *PromotionHandler, directory *DirectoryHandler, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		promo := api.Group("/promotions")
		{
			promo.GET("/campaigns", promotions.SearchCampaigns)
			promo.GET("/campaigns/:id", promotions.GetCampaign)
			promo.POST("/campaigns/:id/comments", promotions.AddComment)
			promo.POST("/campaigns/:id/approve", promotions.Approve)
			promo.POST("/campaigns/:id/oppose", promotions.Oppose)
			promo.POST("/campaigns/:id/abstain", promotions.Abstain)
			promo.POST("/campaigns/:id/accept", promotions.AcceptCampaign)
			promo.POST("/campaigns/:id/reject", promotions.RejectCampaign)

			promo.POST("/nominations", promotions.Nominate)
			promo.GET("/messages/:id", promotions.GetStatusMessage)
			promo.POST("/messages/:id/reactions", promotions.React)
		}

		dir := api.Group("/directory")
		{
			dir.PUT("/users/:id", directory.PutUser)
			dir.GET("/users/:id/roles", directory.GetUserRoles)
			dir.PUT("/roles/:id", directory.PutRole)
		}
	}

	return router
}
