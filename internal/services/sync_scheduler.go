package services

import (
	"context"
	"sync"
	"time"

	"github.com/thib420/AI-Table-sub000/internal/logger"
	"github.com/thib420/AI-Table-sub000/internal/repository"
)

// Scheduling defaults
const (
	DefaultSyncInterval = 5 * time.Minute

	// fullSyncEvery promotes a scheduled run to a full sync when the last
	// full sync is older than this
	fullSyncEvery = 6 * time.Hour

	stateCheckTimeout = 10 * time.Second
)

// SyncSchedulerConfig holds configuration for the background sync scheduler
type SyncSchedulerConfig struct {
	// OwnerID is the account whose sync state gates scheduled runs
	OwnerID string
	// Interval is how often the scheduler wakes up
	Interval time.Duration
}

// SyncScheduler runs periodic background syncs through the engine. Runs are
// gated by the owner's SyncState: a disabled owner is skipped, and the
// next-due timestamp written by the engine prevents premature re-runs.
type SyncScheduler struct {
	engine *SyncEngine
	store  *repository.Store
	config SyncSchedulerConfig
	log    *logger.SyncLogger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewSyncScheduler creates a new background sync scheduler
func NewSyncScheduler(
	engine *SyncEngine,
	store *repository.Store,
	config SyncSchedulerConfig,
	log *logger.SyncLogger,
) *SyncScheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSyncInterval
	}

	return &SyncScheduler{
		engine: engine,
		store:  store,
		config: config,
		log:    log,
		stopCh: make(chan struct{}),
	}
}

// Start begins the background sync loop
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.syncLoop()

	s.log.Info("sync scheduler started",
		"owner", s.config.OwnerID,
		"interval", s.config.Interval.String())
}

// Stop gracefully stops the background sync loop
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("sync scheduler stopped", "owner", s.config.OwnerID)
}

// IsRunning returns whether the scheduler loop is active
func (s *SyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// syncLoop runs an immediate first sync, then one per tick until stopped
func (s *SyncScheduler) syncLoop() {
	defer s.wg.Done()

	s.runOnce()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce executes one scheduled sync attempt, honoring the owner's enabled
// flag and next-due gate. The engine handles run logging and bookkeeping.
func (s *SyncScheduler) runOnce() {
	owner := s.config.OwnerID

	ctx, cancel := context.WithTimeout(context.Background(), stateCheckTimeout)
	state, _, err := s.store.SyncState.GetOrCreate(ctx, owner)
	cancel()
	if err != nil {
		s.log.Error("failed to load sync state for scheduling", "owner", owner, "error", err)
		state = nil
	}

	now := time.Now()
	if state != nil {
		if !state.Enabled {
			s.log.RunSkipped(owner, "sync disabled")
			return
		}
		if !state.Due(now) {
			s.log.RunSkipped(owner, "not due yet")
			return
		}
	}

	mode := SyncModeIncremental
	if state == nil || state.LastFullSyncAt == nil || now.Sub(*state.LastFullSyncAt) >= fullSyncEvery {
		mode = SyncModeFull
	}

	if _, err := s.engine.Sync(context.Background(), mode, false); err != nil {
		s.log.Error("scheduled sync failed", "owner", owner, "mode", mode, "error", err)
	}
}
