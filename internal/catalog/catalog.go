package catalog

import (
	"fmt"
	"sort"
	"time"

	"pricetrack/internal/model"
)

// Catalog owns the set of tracked products. It keeps insertion order and is
// not safe for concurrent use: the tracking service serializes access.
type Catalog struct {
	products map[string]*model.Product
	order    []string
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{
		products: make(map[string]*model.Product),
	}
}

// Track inserts a product. Re-tracking an already-tracked id is a no-op that
// returns the stored record unchanged. A missing id is generated from the
// retailer and name.
func (c *Catalog) Track(p *model.Product, now time.Time) (*model.Product, bool, error) {
	if p == nil || p.Name == "" {
		return nil, false, fmt.Errorf("%w: product name is required", model.ErrValidation)
	}
	if p.CurrentPrice < 0 {
		return nil, false, fmt.Errorf("%w: price must be non-negative", model.ErrValidation)
	}

	id := p.ID
	if id == "" {
		id = model.GenerateProductID(p.Retailer, p.Name)
	}

	if existing, ok := c.products[id]; ok {
		return existing.Clone(), false, nil
	}

	stored := p.Clone()
	stored.ID = id
	stored.DateAdded = now
	stored.LastUpdated = now

	c.products[id] = stored
	c.order = append(c.order, id)

	return stored.Clone(), true, nil
}

// Untrack removes a product and reports whether it existed. Cascade removal
// of the product's alerts is the caller's job.
func (c *Catalog) Untrack(id string) bool {
	if _, ok := c.products[id]; !ok {
		return false
	}
	delete(c.products, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a product by id
func (c *Catalog) Get(id string) (*model.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", model.ErrNotFound, id)
	}
	return p.Clone(), nil
}

// List returns all products in insertion order
func (c *Catalog) List() []*model.Product {
	products := make([]*model.Product, 0, len(c.order))
	for _, id := range c.order {
		if p, ok := c.products[id]; ok {
			products = append(products, p.Clone())
		}
	}
	return products
}

// IDs returns the tracked product ids in insertion order
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Len returns the number of tracked products
func (c *Catalog) Len() int {
	return len(c.products)
}

// ApplyPriceUpdate sets the product's current price. LastUpdated never moves
// backwards even if the caller supplies a stale clock.
func (c *Catalog) ApplyPriceUpdate(id string, newPrice float64, now time.Time) (*model.Product, error) {
	if newPrice < 0 {
		return nil, fmt.Errorf("%w: price must be non-negative", model.ErrValidation)
	}
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", model.ErrNotFound, id)
	}

	p.CurrentPrice = newPrice
	if now.After(p.LastUpdated) {
		p.LastUpdated = now
	}
	return p.Clone(), nil
}

// Export copies the catalog state for a snapshot
func (c *Catalog) Export() (map[string]*model.Product, []string) {
	products := make(map[string]*model.Product, len(c.products))
	for id, p := range c.products {
		products[id] = p.Clone()
	}
	order := make([]string, len(c.order))
	copy(order, c.order)
	return products, order
}

// Restore replaces the catalog state from a snapshot. Products missing from
// the order list (older snapshots) are appended sorted by DateAdded.
func (c *Catalog) Restore(products map[string]*model.Product, order []string) {
	c.products = make(map[string]*model.Product, len(products))
	c.order = c.order[:0]

	seen := make(map[string]bool, len(products))
	for _, id := range order {
		p, ok := products[id]
		if !ok || seen[id] {
			continue
		}
		c.products[id] = p.Clone()
		c.order = append(c.order, id)
		seen[id] = true
	}

	var missing []*model.Product
	for id, p := range products {
		if !seen[id] {
			missing = append(missing, p)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].DateAdded.Equal(missing[j].DateAdded) {
			return missing[i].ID < missing[j].ID
		}
		return missing[i].DateAdded.Before(missing[j].DateAdded)
	})
	for _, p := range missing {
		c.products[p.ID] = p.Clone()
		c.order = append(c.order, p.ID)
	}
}
