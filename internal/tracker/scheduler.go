package tracker

import (
	"context"
	"log"
	"sync"
	"time"
)

// Refresher is the slice of the service the scheduler needs
type Refresher interface {
	RefreshPrices(ctx context.Context) (*UpdateResult, error)
}

// Scheduler drives the periodic refresh-and-alert cycle. Start and Stop may
// be called from different goroutines; a stopped scheduler can be started
// again.
type Scheduler struct {
	svc      Refresher
	interval time.Duration

	mu        sync.Mutex
	stopCh    chan struct{}
	isRunning bool
}

// NewScheduler creates a scheduler refreshing at the given interval
func NewScheduler(svc Refresher, interval time.Duration) *Scheduler {
	return &Scheduler{
		svc:      svc,
		interval: interval,
	}
}

// Start starts the refresh loop. The first refresh runs immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		log.Println("Scheduler already running")
		return
	}
	s.isRunning = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	log.Printf("Scheduler started with interval: %v", s.interval)

	s.runRefresh()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runRefresh()
			case <-stopCh:
				log.Println("Scheduler stopped")
				s.mu.Lock()
				s.isRunning = false
				s.mu.Unlock()
				return
			}
		}
	}()
}

// Stop stops the refresh loop. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RefreshNow triggers an immediate refresh cycle
func (s *Scheduler) RefreshNow() error {
	s.runRefresh()
	return nil
}

func (s *Scheduler) runRefresh() {
	start := time.Now()
	log.Println("Starting refresh cycle...")

	res, err := s.svc.RefreshPrices(context.Background())
	if err != nil {
		log.Printf("Refresh error: %v", err)
		return
	}

	for id, ferr := range res.Failed {
		log.Printf("Refresh skipped %s: %v", id, ferr)
	}
	for _, a := range res.Triggered {
		log.Printf("Alert %s triggered for product %s", a.ID, a.ProductID)
	}

	log.Printf("Refresh cycle completed in %v. Updated: %d, Triggered: %d, Failed: %d",
		time.Since(start), len(res.Updated), len(res.Triggered), len(res.Failed))
}
