// Package stats derives aggregate price statistics from oracle-supplied
// observations and quotes. Pure functions, no mutation.
package stats

import (
	"fmt"
	"sort"

	"pricetrack/internal/model"
)

// History summarizes a chronologically ordered series of price observations
// over the trailing window. windowDays <= 0 means the whole series. The
// window is anchored at the latest observation, not the wall clock, so the
// result is deterministic for a given input.
func History(observations []model.PriceObservation, windowDays int) (*model.HistorySummary, error) {
	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: empty observation series", model.ErrValidation)
	}

	points := observations
	if windowDays > 0 {
		cutoff := observations[len(observations)-1].Date.AddDate(0, 0, -windowDays)
		start := 0
		for start < len(observations) && observations[start].Date.Before(cutoff) {
			start++
		}
		points = observations[start:]
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no observations inside window", model.ErrValidation)
	}

	summary := &model.HistorySummary{
		Points:       make([]model.PriceObservation, len(points)),
		LowestPrice:  points[0].Price,
		HighestPrice: points[0].Price,
	}
	copy(summary.Points, points)

	var sum float64
	for _, obs := range points {
		if obs.Price < summary.LowestPrice {
			summary.LowestPrice = obs.Price
		}
		if obs.Price > summary.HighestPrice {
			summary.HighestPrice = obs.Price
		}
		sum += obs.Price
	}
	summary.AveragePrice = sum / float64(len(points))

	return summary, nil
}

// Compare ranks retailer quotes for a product by landed cost (price plus
// shipping), cheapest first. Ties keep input order. The price range is
// computed over unit prices, not landed cost.
func Compare(product *model.Product, quotes []model.RetailerQuote) (*model.PriceComparison, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: product is required", model.ErrValidation)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: no retailer quotes", model.ErrValidation)
	}

	entries := make([]model.ComparisonEntry, len(quotes))
	for i, q := range quotes {
		entries[i] = model.ComparisonEntry{
			Retailer:     q.Retailer,
			Price:        q.Price,
			ShippingCost: q.ShippingCost,
			TotalPrice:   q.Price + q.ShippingCost,
			InStock:      q.InStock,
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPrice < entries[j].TotalPrice
	})

	rng := model.PriceRange{Min: quotes[0].Price, Max: quotes[0].Price}
	for _, q := range quotes {
		if q.Price < rng.Min {
			rng.Min = q.Price
		}
		if q.Price > rng.Max {
			rng.Max = q.Price
		}
	}
	rng.Difference = rng.Max - rng.Min
	if rng.Min > 0 {
		rng.PercentageDifference = rng.Difference / rng.Min * 100
	}

	return &model.PriceComparison{
		ProductID:   product.ID,
		ProductName: product.Name,
		Entries:     entries,
		LowestPrice: entries[0],
		PriceRange:  rng,
	}, nil
}
