package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a tracked item with an observed price over time
type Product struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Currency     string    `json:"currency" db:"currency"` // ISO code, e.g. USD, CNY
	Retailer     string    `json:"retailer" db:"retailer"`
	CurrentPrice float64   `json:"current_price" db:"current_price"`
	DateAdded    time.Time `json:"date_added" db:"date_added"`
	LastUpdated  time.Time `json:"last_updated" db:"last_updated"`
}

// Clone returns a copy of the product
func (p *Product) Clone() *Product {
	cp := *p
	return &cp
}

// AlertStatus is the lifecycle state of a price alert
type AlertStatus string

const (
	AlertActive    AlertStatus = "active"
	AlertTriggered AlertStatus = "triggered"
	AlertPaused    AlertStatus = "paused"
	AlertDeleted   AlertStatus = "deleted"
)

// statusTransitions lists the legal status edges. Deleted is terminal.
var statusTransitions = map[AlertStatus][]AlertStatus{
	AlertActive:    {AlertTriggered, AlertPaused, AlertDeleted},
	AlertTriggered: {AlertActive, AlertDeleted},
	AlertPaused:    {AlertActive, AlertDeleted},
	AlertDeleted:   {},
}

// Valid reports whether s is a known status value
func (s AlertStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the edge s -> next is legal
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// PriceAlert is a rule that fires when a product's price crosses a threshold
// or moves by a given fraction from its reference price
type PriceAlert struct {
	ID               string      `json:"id"`
	ProductID        string      `json:"product_id"`
	TargetPrice      float64     `json:"target_price"`
	NotifyOnIncrease bool        `json:"notify_on_increase"`
	NotifyOnDecrease bool        `json:"notify_on_decrease"`
	PercentageChange float64     `json:"percentage_change,omitempty"` // fraction, 0 = disabled
	Email            string      `json:"email,omitempty"`
	Phone            string      `json:"phone,omitempty"`
	PushKey          string      `json:"push_key,omitempty"`
	Status           AlertStatus `json:"status"`
	ReferencePrice   float64     `json:"reference_price"`
	CreatedAt        time.Time   `json:"created_at"`
	LastTriggeredAt  *time.Time  `json:"last_triggered_at,omitempty"`
}

// Clone returns a copy of the alert
func (a *PriceAlert) Clone() *PriceAlert {
	cp := *a
	if a.LastTriggeredAt != nil {
		t := *a.LastTriggeredAt
		cp.LastTriggeredAt = &t
	}
	return &cp
}

// AlertOptions carries the optional fields for alert creation
type AlertOptions struct {
	NotifyOnIncrease bool    `json:"notify_on_increase"`
	NotifyOnDecrease bool    `json:"notify_on_decrease"`
	PercentageChange float64 `json:"percentage_change,omitempty"`
	Email            string  `json:"email,omitempty"`
	Phone            string  `json:"phone,omitempty"`
	PushKey          string  `json:"push_key,omitempty"`
}

// AlertUpdate is a partial update; nil fields are left unchanged
type AlertUpdate struct {
	TargetPrice      *float64     `json:"target_price,omitempty"`
	NotifyOnIncrease *bool        `json:"notify_on_increase,omitempty"`
	NotifyOnDecrease *bool        `json:"notify_on_decrease,omitempty"`
	PercentageChange *float64     `json:"percentage_change,omitempty"`
	Email            *string      `json:"email,omitempty"`
	Phone            *string      `json:"phone,omitempty"`
	PushKey          *string      `json:"push_key,omitempty"`
	Status           *AlertStatus `json:"status,omitempty"`
}

// SnapshotSchemaVersion is bumped on incompatible snapshot layout changes
const SnapshotSchemaVersion = 1

// Snapshot is the full serializable state of the catalog and alert registry,
// persisted as one unit
type Snapshot struct {
	SchemaVersion int                      `json:"schema_version"`
	Products      map[string]*Product      `json:"products"`
	Order         []string                 `json:"order"` // catalog insertion order
	Alerts        map[string][]*PriceAlert `json:"alerts"`
}

// PriceObservation is one historical price point supplied by the oracle
type PriceObservation struct {
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	Retailer string    `json:"retailer"`
	InStock  bool      `json:"in_stock"`
}

// RetailerQuote is one retailer's current offer for a product
type RetailerQuote struct {
	Retailer     string  `json:"retailer"`
	Price        float64 `json:"price"`
	ShippingCost float64 `json:"shipping_cost"`
	InStock      bool    `json:"in_stock"`
}

// HistorySummary aggregates a window of price observations
type HistorySummary struct {
	Points       []PriceObservation `json:"points"`
	LowestPrice  float64            `json:"lowest_price"`
	HighestPrice float64            `json:"highest_price"`
	AveragePrice float64            `json:"average_price"`
}

// ComparisonEntry is one retailer quote with its landed cost
type ComparisonEntry struct {
	Retailer     string  `json:"retailer"`
	Price        float64 `json:"price"`
	ShippingCost float64 `json:"shipping_cost"`
	TotalPrice   float64 `json:"total_price"`
	InStock      bool    `json:"in_stock"`
}

// PriceRange summarizes the spread of unit prices across retailers
type PriceRange struct {
	Min                  float64 `json:"min"`
	Max                  float64 `json:"max"`
	Difference           float64 `json:"difference"`
	PercentageDifference float64 `json:"percentage_difference"`
}

// PriceComparison is the result of a cross-retailer comparison
type PriceComparison struct {
	ProductID   string            `json:"product_id"`
	ProductName string            `json:"product_name"`
	Entries     []ComparisonEntry `json:"entries"`
	LowestPrice ComparisonEntry   `json:"lowest_price"`
	PriceRange  PriceRange        `json:"price_range"`
}

// NewAlertID generates a unique alert ID
func NewAlertID() string {
	return uuid.NewString()
}

// GenerateProductID creates a product ID from retailer and name when the
// caller did not assign one
func GenerateProductID(retailer, name string) string {
	return retailer + ":" + hashString(name)
}

func hashString(s string) string {
	// FNV-1a over the first 100 chars, base36-encoded
	const prime32 = 16777619
	hash32 := uint32(2166136261)

	for i, c := range s {
		if i > 100 {
			break
		}
		hash32 ^= uint32(c)
		hash32 *= prime32
	}

	const charset = "0123456789abcdefghijklmnopqrstuvwxyz"
	var result [8]byte
	for i := 0; i < 8; i++ {
		result[i] = charset[hash32%36]
		hash32 /= 36
	}
	return string(result[:])
}
