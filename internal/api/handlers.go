package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pricetrack/internal/model"
	"pricetrack/internal/tracker"

	"github.com/gin-gonic/gin"
)

// ServiceInterface is the slice of the tracking service the handlers need
type ServiceInterface interface {
	TrackProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	UntrackProduct(ctx context.Context, id string) (bool, error)
	Products() ([]*model.Product, error)
	Product(id string) (*model.Product, error)
	CreatePriceAlert(ctx context.Context, productID string, targetPrice float64, opts model.AlertOptions) (*model.PriceAlert, error)
	UpdatePriceAlert(ctx context.Context, alertID string, upd model.AlertUpdate) (*model.PriceAlert, error)
	DeletePriceAlert(ctx context.Context, alertID string) (bool, error)
	Alerts(productID string) ([]*model.PriceAlert, error)
	AllAlerts() ([]*model.PriceAlert, error)
	UpdatePrices(ctx context.Context, prices map[string]float64) (*tracker.UpdateResult, error)
	RefreshPrices(ctx context.Context) (*tracker.UpdateResult, error)
	History(ctx context.Context, productID string, windowDays int) (*model.HistorySummary, error)
	Compare(ctx context.Context, productID string) (*model.PriceComparison, error)
	Search(ctx context.Context, query string, limit int) ([]*model.Product, error)
	ScanIdentifier(ctx context.Context, code string) (*model.Product, error)
}

// Handlers contains all API handlers
type Handlers struct {
	svc ServiceInterface
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc ServiceInterface) *Handlers {
	return &Handlers{svc: svc}
}

// errStatus maps engine errors to HTTP status codes
func errStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrOracle):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(errStatus(err), gin.H{"error": err.Error()})
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// GetProducts returns all tracked products
func (h *Handlers) GetProducts(c *gin.Context) {
	products, err := h.svc.Products()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(products),
		"products": products,
	})
}

// GetProduct returns a single product by ID
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.svc.Product(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// TrackProduct adds a product to the catalog
func (h *Handlers) TrackProduct(c *gin.Context) {
	var req model.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	product, err := h.svc.TrackProduct(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UntrackProduct removes a product and its alerts
func (h *Handlers) UntrackProduct(c *gin.Context) {
	removed, err := h.svc.UntrackProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// GetProductHistory returns the price history summary for a product
func (h *Handlers) GetProductHistory(c *gin.Context) {
	days := 30
	if d := c.Query("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
			return
		}
		days = parsed
	}

	summary, err := h.svc.History(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CompareProduct returns the cross-retailer comparison for a product
func (h *Handlers) CompareProduct(c *gin.Context) {
	comparison, err := h.svc.Compare(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// GetProductAlerts returns the alerts for a product
func (h *Handlers) GetProductAlerts(c *gin.Context) {
	alerts, err := h.svc.Alerts(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// GetAlerts returns all alerts
func (h *Handlers) GetAlerts(c *gin.Context) {
	alerts, err := h.svc.AllAlerts()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// CreateAlertRequest is the body for alert creation
type CreateAlertRequest struct {
	ProductID   string  `json:"product_id" binding:"required"`
	TargetPrice float64 `json:"target_price"`
	model.AlertOptions
}

// CreateAlert creates a price alert for a tracked product
func (h *Handlers) CreateAlert(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	a, err := h.svc.CreatePriceAlert(c.Request.Context(), req.ProductID, req.TargetPrice, req.AlertOptions)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// UpdateAlert applies a partial update to an alert
func (h *Handlers) UpdateAlert(c *gin.Context) {
	var upd model.AlertUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	a, err := h.svc.UpdatePriceAlert(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteAlert deletes an alert
func (h *Handlers) DeleteAlert(c *gin.Context) {
	removed, err := h.svc.DeletePriceAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// RefreshPrices triggers an immediate price refresh cycle
func (h *Handlers) RefreshPrices(c *gin.Context) {
	res, err := h.svc.RefreshPrices(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	failed := make(map[string]string, len(res.Failed))
	for id, ferr := range res.Failed {
		failed[id] = ferr.Error()
	}
	c.JSON(http.StatusOK, gin.H{
		"updated":   res.Updated,
		"triggered": res.Triggered,
		"failed":    failed,
	})
}

// SearchProducts searches the oracle for products to track
func (h *Handlers) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit := 20
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = parsed
	}

	products, err := h.svc.Search(c.Request.Context(), query, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(products),
		"products": products,
	})
}

// ScanIdentifier resolves a scanned barcode or QR payload to a product
func (h *Handlers) ScanIdentifier(c *gin.Context) {
	product, err := h.svc.ScanIdentifier(c.Request.Context(), c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no product matches this code"})
		return
	}
	c.JSON(http.StatusOK, product)
}
