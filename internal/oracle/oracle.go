// Package oracle defines the price oracle collaborator: the external source
// of current prices, price history, and retailer quotes.
package oracle

import (
	"context"

	"pricetrack/internal/model"
)

// Oracle supplies price data for tracked products. The engine never generates
// price data itself; everything comes through this interface so the engine
// stays deterministic given its inputs.
//
// ScanIdentifier returns (nil, nil) when the code matches no product.
type Oracle interface {
	Search(ctx context.Context, query string, limit int) ([]*model.Product, error)
	ScanIdentifier(ctx context.Context, code string) (*model.Product, error)
	FetchPrices(ctx context.Context, ids []string) (map[string]float64, error)
	FetchHistory(ctx context.Context, id string, days int) ([]model.PriceObservation, error)
	FetchRetailerQuotes(ctx context.Context, id string) ([]model.RetailerQuote, error)
}
