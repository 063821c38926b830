package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Sweeper periodically removes expired entries from a Store.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   store.logger,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop to end it.
func (s *Sweeper) Start() {
	s.wg.Add(1)

	go s.loop()
}

// Stop ends the loop and waits for an in-flight sweep to finish. It is safe
// to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if n := s.store.SweepExpired(); n > 0 {
				s.logger.Info("swept expired cached documents", "count", n)
			}
		}
	}
}
