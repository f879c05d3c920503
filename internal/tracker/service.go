// Package tracker is the tracking-and-alerting engine facade. It owns the
// product catalog and alert registry, serializes every mutation behind one
// lock, and persists the full snapshot before a mutating call returns.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"pricetrack/internal/alert"
	"pricetrack/internal/catalog"
	"pricetrack/internal/model"
	"pricetrack/internal/notify"
	"pricetrack/internal/oracle"
	"pricetrack/internal/stats"
	"pricetrack/internal/store"
)

const defaultSnapshotKey = "tracker"

type state int

const (
	stateUninitialized state = iota
	stateReady
	stateReleased
)

// Service is the tracking engine facade. Construct with New, call Initialize
// before use, Release when done. Released is terminal.
type Service struct {
	mu          sync.Mutex
	state       state
	catalog     *catalog.Catalog
	registry    *alert.Registry
	store       store.Store
	oracle      oracle.Oracle
	notifier    notify.Notifier
	snapshotKey string
}

// Option configures a Service
type Option func(*Service)

// WithSnapshotKey overrides the snapshot key used for persistence
func WithSnapshotKey(key string) Option {
	return func(s *Service) {
		s.snapshotKey = key
	}
}

// New creates a service over its injected collaborators. notifier may be nil
// (no notifications are sent).
func New(st store.Store, orc oracle.Oracle, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog.New(),
		registry:    alert.New(),
		store:       st,
		oracle:      orc,
		notifier:    notifier,
		snapshotKey: defaultSnapshotKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateResult reports the outcome of a price update batch. Failed holds the
// per-entry errors for products whose update did not apply; the rest of the
// batch still succeeds.
type UpdateResult struct {
	Updated   []*model.Product   `json:"updated"`
	Triggered []*model.PriceAlert `json:"triggered"`
	Failed    map[string]error   `json:"-"`
}

// notification pairs a triggered alert with the product that fired it
type notification struct {
	alert   *model.PriceAlert
	product *model.Product
}

// Initialize loads the persisted snapshot and moves the service to Ready.
// Idempotent while Ready. A load failure is non-fatal: it is logged and the
// engine starts from an empty catalog and registry.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateReleased:
		return fmt.Errorf("%w: service released", model.ErrNotInitialized)
	case stateReady:
		return nil
	}

	snap, err := s.store.Load(ctx, s.snapshotKey)
	if err != nil {
		log.Printf("Warning: failed to load snapshot, starting empty: %v", err)
	} else if snap != nil {
		s.catalog.Restore(snap.Products, snap.Order)
		s.registry.Restore(snap.Alerts)
	}

	s.state = stateReady
	log.Printf("Tracking service ready: %d products, %d alerts", s.catalog.Len(), len(s.registry.ListAll()))
	return nil
}

// Release flushes the final snapshot and terminates the service. Every
// operation afterwards fails with ErrNotInitialized.
func (s *Service) Release(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateReleased {
		return nil
	}
	wasReady := s.state == stateReady
	s.state = stateReleased

	if wasReady {
		if err := s.persistLocked(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) readyLocked() error {
	switch s.state {
	case stateReady:
		return nil
	case stateReleased:
		return fmt.Errorf("%w: service released", model.ErrNotInitialized)
	default:
		return model.ErrNotInitialized
	}
}

// persistLocked saves the full snapshot. Callers hold s.mu.
func (s *Service) persistLocked(ctx context.Context) error {
	products, order := s.catalog.Export()
	snap := &model.Snapshot{
		SchemaVersion: model.SnapshotSchemaVersion,
		Products:      products,
		Order:         order,
		Alerts:        s.registry.Export(),
	}
	return s.store.Save(ctx, s.snapshotKey, snap)
}

// TrackProduct adds a product to the catalog. Re-tracking an existing id
// returns the stored record unchanged without touching the snapshot.
func (s *Service) TrackProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return nil, err
	}

	stored, created, err := s.catalog.Track(p, time.Now())
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.persistLocked(ctx); err != nil {
			// The in-memory mutation stands; the caller must treat the
			// state as not yet durable.
			return stored, err
		}
	}
	return stored, nil
}

// UntrackProduct removes a product and cascades over its alerts
func (s *Service) UntrackProduct(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return false, err
	}

	if !s.catalog.Untrack(id) {
		return false, nil
	}
	if n := s.registry.DeleteAllForProduct(id); n > 0 {
		log.Printf("Untracked product %s, removed %d alerts", id, n)
	}
	if err := s.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// CreatePriceAlert attaches a new alert to a tracked product
func (s *Service) CreatePriceAlert(ctx context.Context, productID string, targetPrice float64, opts model.AlertOptions) (*model.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return nil, err
	}

	product, err := s.catalog.Get(productID)
	if err != nil {
		return nil, err
	}
	a, err := s.registry.Create(product, targetPrice, opts, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.persistLocked(ctx); err != nil {
		return a, err
	}
	return a, nil
}

// UpdatePriceAlert merges a partial update into an alert
func (s *Service) UpdatePriceAlert(ctx context.Context, alertID string, upd model.AlertUpdate) (*model.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return nil, err
	}

	a, err := s.registry.Update(alertID, upd)
	if err != nil {
		return nil, err
	}
	if err := s.persistLocked(ctx); err != nil {
		return a, err
	}
	return a, nil
}

// DeletePriceAlert deletes an alert and reports whether it existed
func (s *Service) DeletePriceAlert(ctx context.Context, alertID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return false, err
	}

	if !s.registry.Delete(alertID) {
		return false, nil
	}
	if err := s.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// UpdatePrices applies a batch of price updates, evaluates alerts for every
// updated product, persists once, and notifies for the alerts that fired.
// Entries that fail (unknown product, negative price) are reported in
// Failed and do not abort the batch.
func (s *Service) UpdatePrices(ctx context.Context, prices map[string]float64) (*UpdateResult, error) {
	res, notifs, err := s.applyPriceUpdates(ctx, prices)
	if err != nil && res == nil {
		return nil, err
	}
	// Alerts that fired are delivered even when the save failed: the
	// transition already happened in memory.
	s.deliver(ctx, notifs)
	return res, err
}

func (s *Service) applyPriceUpdates(ctx context.Context, prices map[string]float64) (*UpdateResult, []notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return nil, nil, err
	}

	res := &UpdateResult{Failed: make(map[string]error)}
	var notifs []notification
	now := time.Now()

	ids := make([]string, 0, len(prices))
	for id := range prices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		product, err := s.catalog.ApplyPriceUpdate(id, prices[id], now)
		if err != nil {
			res.Failed[id] = err
			continue
		}
		res.Updated = append(res.Updated, product)

		for _, a := range s.registry.Evaluate(product, now) {
			res.Triggered = append(res.Triggered, a)
			notifs = append(notifs, notification{alert: a, product: product})
		}
	}

	if len(res.Updated) > 0 {
		if err := s.persistLocked(ctx); err != nil {
			return res, notifs, err
		}
	}
	return res, notifs, nil
}

// deliver fans triggered alerts out to the notifier, outside the write lock
func (s *Service) deliver(ctx context.Context, notifs []notification) {
	if s.notifier == nil {
		return
	}
	for _, n := range notifs {
		if err := s.notifier.Send(ctx, n.alert, n.product); err != nil {
			log.Printf("Notification for alert %s delivered with errors: %v", n.alert.ID, err)
		}
	}
}

// RefreshPrices pulls current prices for every tracked product from the
// oracle and feeds them through UpdatePrices. Products the oracle returned
// no price for are reported in Failed; the rest of the batch proceeds.
func (s *Service) RefreshPrices(ctx context.Context) (*UpdateResult, error) {
	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	ids := s.catalog.IDs()
	s.mu.Unlock()

	if len(ids) == 0 {
		return &UpdateResult{Failed: make(map[string]error)}, nil
	}

	prices, err := s.oracle.FetchPrices(ctx, ids)
	if err != nil {
		return nil, wrapOracle(err, "fetch prices")
	}

	res, err := s.UpdatePrices(ctx, prices)
	if res != nil {
		for _, id := range ids {
			if _, ok := prices[id]; !ok {
				res.Failed[id] = fmt.Errorf("%w: no price returned for %s", model.ErrOracle, id)
			}
		}
	}
	return res, err
}

// History fetches observations from the oracle and summarizes them over the
// trailing window
func (s *Service) History(ctx context.Context, productID string, windowDays int) (*model.HistorySummary, error) {
	if _, err := s.Product(productID); err != nil {
		return nil, err
	}
	obs, err := s.oracle.FetchHistory(ctx, productID, windowDays)
	if err != nil {
		return nil, wrapOracle(err, "fetch history")
	}
	return stats.History(obs, windowDays)
}

// Compare fetches retailer quotes from the oracle and ranks them by landed
// cost
func (s *Service) Compare(ctx context.Context, productID string) (*model.PriceComparison, error) {
	product, err := s.Product(productID)
	if err != nil {
		return nil, err
	}
	quotes, err := s.oracle.FetchRetailerQuotes(ctx, productID)
	if err != nil {
		return nil, wrapOracle(err, "fetch quotes")
	}
	return stats.Compare(product, quotes)
}

// Search asks the oracle for products matching a query
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*model.Product, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	products, err := s.oracle.Search(ctx, query, limit)
	if err != nil {
		return nil, wrapOracle(err, "search")
	}
	return products, nil
}

// ScanIdentifier resolves a scanned code to a product, or (nil, nil) when
// the oracle does not know it
func (s *Service) ScanIdentifier(ctx context.Context, code string) (*model.Product, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	product, err := s.oracle.ScanIdentifier(ctx, code)
	if err != nil {
		return nil, wrapOracle(err, "scan identifier")
	}
	return product, nil
}

// Products returns all tracked products in insertion order
func (s *Service) Products() ([]*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}
	return s.catalog.List(), nil
}

// Product returns one tracked product
func (s *Service) Product(id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}
	return s.catalog.Get(id)
}

// Alerts returns the live alerts for a product
func (s *Service) Alerts(productID string) ([]*model.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}
	return s.registry.ListForProduct(productID), nil
}

// AllAlerts returns every live alert
func (s *Service) AllAlerts() ([]*model.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}
	return s.registry.ListAll(), nil
}

func (s *Service) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyLocked()
}

func wrapOracle(err error, op string) error {
	if errors.Is(err, model.ErrOracle) || errors.Is(err, model.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", model.ErrOracle, op, err)
}
