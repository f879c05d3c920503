package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, svc ServiceInterface) {
	handlers := NewHandlers(svc)

	v1 := r.Group("/api")
	{
		// Health check (handle both GET and HEAD)
		v1.GET("/health", handlers.HealthCheck)
		v1.HEAD("/health", handlers.HealthCheck)

		// Products
		v1.GET("/products", handlers.GetProducts)
		v1.POST("/products", handlers.TrackProduct)
		v1.GET("/products/:id", handlers.GetProduct)
		v1.DELETE("/products/:id", handlers.UntrackProduct)
		v1.GET("/products/:id/history", handlers.GetProductHistory)
		v1.GET("/products/:id/compare", handlers.CompareProduct)
		v1.GET("/products/:id/alerts", handlers.GetProductAlerts)

		// Alerts
		v1.GET("/alerts", handlers.GetAlerts)
		v1.POST("/alerts", handlers.CreateAlert)
		v1.PATCH("/alerts/:id", handlers.UpdateAlert)
		v1.DELETE("/alerts/:id", handlers.DeleteAlert)

		// Oracle-backed discovery
		v1.GET("/search", handlers.SearchProducts)
		v1.GET("/scan/:code", handlers.ScanIdentifier)

		// Manual refresh trigger
		v1.POST("/refresh", handlers.RefreshPrices)
	}
}
