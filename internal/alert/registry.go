package alert

import (
	"fmt"
	"math"
	"time"

	"pricetrack/internal/model"
)

// Registry owns the price alerts, keyed by alert id with a per-product index.
// Like the catalog it is not safe for concurrent use: the tracking service
// serializes access.
//
// Deleted alerts are kept as tombstones so a later status update can be
// rejected as an illegal transition instead of reported as unknown. They are
// excluded from listings and evaluation. Untracking a product removes its
// alerts entirely, tombstones included.
type Registry struct {
	alerts    map[string]*model.PriceAlert
	byProduct map[string][]string // productID -> alert ids, creation order
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		alerts:    make(map[string]*model.PriceAlert),
		byProduct: make(map[string][]string),
	}
}

// Create adds an active alert for a tracked product. The product's current
// price becomes the reference price for the percentage-change condition.
func (r *Registry) Create(product *model.Product, targetPrice float64, opts model.AlertOptions, now time.Time) (*model.PriceAlert, error) {
	if targetPrice < 0 {
		return nil, fmt.Errorf("%w: target price must be non-negative", model.ErrValidation)
	}
	if !opts.NotifyOnIncrease && !opts.NotifyOnDecrease && opts.PercentageChange == 0 {
		return nil, fmt.Errorf("%w: at least one notify condition is required", model.ErrValidation)
	}
	if opts.PercentageChange < 0 {
		return nil, fmt.Errorf("%w: percentage change must be non-negative", model.ErrValidation)
	}
	if opts.Email == "" && opts.Phone == "" && opts.PushKey == "" {
		return nil, fmt.Errorf("%w: at least one notification channel is required", model.ErrValidation)
	}

	a := &model.PriceAlert{
		ID:               model.NewAlertID(),
		ProductID:        product.ID,
		TargetPrice:      targetPrice,
		NotifyOnIncrease: opts.NotifyOnIncrease,
		NotifyOnDecrease: opts.NotifyOnDecrease,
		PercentageChange: opts.PercentageChange,
		Email:            opts.Email,
		Phone:            opts.Phone,
		PushKey:          opts.PushKey,
		Status:           model.AlertActive,
		ReferencePrice:   product.CurrentPrice,
		CreatedAt:        now,
	}

	r.alerts[a.ID] = a
	r.byProduct[a.ProductID] = append(r.byProduct[a.ProductID], a.ID)

	return a.Clone(), nil
}

// Update merges the provided fields into an existing alert. An explicit
// status change must follow the transition table; setting the same status
// is a no-op. A deleted alert rejects every update, status or not.
// LastTriggeredAt is never cleared implicitly.
func (r *Registry) Update(alertID string, upd model.AlertUpdate) (*model.PriceAlert, error) {
	a, ok := r.alerts[alertID]
	if !ok {
		return nil, fmt.Errorf("%w: alert %s", model.ErrNotFound, alertID)
	}
	if a.Status == model.AlertDeleted {
		return nil, fmt.Errorf("%w: alert %s is deleted", model.ErrInvalidTransition, alertID)
	}

	if upd.Status != nil {
		next := *upd.Status
		if !next.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", model.ErrValidation, next)
		}
		if next != a.Status && !a.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, a.Status, next)
		}
	}
	if upd.TargetPrice != nil && *upd.TargetPrice < 0 {
		return nil, fmt.Errorf("%w: target price must be non-negative", model.ErrValidation)
	}
	if upd.PercentageChange != nil && *upd.PercentageChange < 0 {
		return nil, fmt.Errorf("%w: percentage change must be non-negative", model.ErrValidation)
	}

	if upd.TargetPrice != nil {
		a.TargetPrice = *upd.TargetPrice
	}
	if upd.NotifyOnIncrease != nil {
		a.NotifyOnIncrease = *upd.NotifyOnIncrease
	}
	if upd.NotifyOnDecrease != nil {
		a.NotifyOnDecrease = *upd.NotifyOnDecrease
	}
	if upd.PercentageChange != nil {
		a.PercentageChange = *upd.PercentageChange
	}
	if upd.Email != nil {
		a.Email = *upd.Email
	}
	if upd.Phone != nil {
		a.Phone = *upd.Phone
	}
	if upd.PushKey != nil {
		a.PushKey = *upd.PushKey
	}
	if upd.Status != nil {
		a.Status = *upd.Status
	}

	return a.Clone(), nil
}

// Delete marks an alert as deleted and reports whether it existed as a live
// alert. The tombstone stays addressable for transition checks.
func (r *Registry) Delete(alertID string) bool {
	a, ok := r.alerts[alertID]
	if !ok || a.Status == model.AlertDeleted {
		return false
	}
	a.Status = model.AlertDeleted
	return true
}

// DeleteAllForProduct removes every alert record for a product, tombstones
// included, and returns how many were removed. Used by the untrack cascade.
func (r *Registry) DeleteAllForProduct(productID string) int {
	ids := r.byProduct[productID]
	for _, id := range ids {
		delete(r.alerts, id)
	}
	delete(r.byProduct, productID)
	return len(ids)
}

// Get returns an alert by id, deleted tombstones included
func (r *Registry) Get(alertID string) (*model.PriceAlert, error) {
	a, ok := r.alerts[alertID]
	if !ok {
		return nil, fmt.Errorf("%w: alert %s", model.ErrNotFound, alertID)
	}
	return a.Clone(), nil
}

// ListForProduct returns the live alerts for a product in creation order
func (r *Registry) ListForProduct(productID string) []*model.PriceAlert {
	ids := r.byProduct[productID]
	alerts := make([]*model.PriceAlert, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.alerts[id]; ok && a.Status != model.AlertDeleted {
			alerts = append(alerts, a.Clone())
		}
	}
	return alerts
}

// ListAll returns all live alerts
func (r *Registry) ListAll() []*model.PriceAlert {
	alerts := make([]*model.PriceAlert, 0, len(r.alerts))
	for _, a := range r.alerts {
		if a.Status != model.AlertDeleted {
			alerts = append(alerts, a.Clone())
		}
	}
	return alerts
}

// Evaluate checks every active alert for the product against its current
// price and returns the alerts that fired during this call. A fired alert
// moves to triggered and will not fire again until explicitly re-armed via
// Update with status active.
func (r *Registry) Evaluate(product *model.Product, now time.Time) []*model.PriceAlert {
	var triggered []*model.PriceAlert

	for _, id := range r.byProduct[product.ID] {
		a, ok := r.alerts[id]
		if !ok || a.Status != model.AlertActive {
			continue
		}

		price := product.CurrentPrice
		fire := a.NotifyOnDecrease && price <= a.TargetPrice
		fire = fire || a.NotifyOnIncrease && price >= a.TargetPrice
		if !fire && a.PercentageChange > 0 && a.ReferencePrice > 0 {
			change := (price - a.ReferencePrice) / a.ReferencePrice
			fire = math.Abs(change) >= a.PercentageChange
		}
		if !fire {
			continue
		}

		ts := now
		a.Status = model.AlertTriggered
		a.LastTriggeredAt = &ts
		// Advance the reference so re-armed alerts measure drift from the
		// price that fired, not the price at creation.
		a.ReferencePrice = price

		triggered = append(triggered, a.Clone())
	}

	return triggered
}

// Export copies the registry state for a snapshot, keyed by product id
func (r *Registry) Export() map[string][]*model.PriceAlert {
	out := make(map[string][]*model.PriceAlert, len(r.byProduct))
	for productID, ids := range r.byProduct {
		list := make([]*model.PriceAlert, 0, len(ids))
		for _, id := range ids {
			if a, ok := r.alerts[id]; ok {
				list = append(list, a.Clone())
			}
		}
		out[productID] = list
	}
	return out
}

// Restore replaces the registry state from a snapshot
func (r *Registry) Restore(alerts map[string][]*model.PriceAlert) {
	r.alerts = make(map[string]*model.PriceAlert)
	r.byProduct = make(map[string][]string)

	for productID, list := range alerts {
		for _, a := range list {
			if a == nil || a.ID == "" {
				continue
			}
			cp := a.Clone()
			cp.ProductID = productID
			r.alerts[cp.ID] = cp
			r.byProduct[productID] = append(r.byProduct[productID], cp.ID)
		}
	}
}
