package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

// saver writes workspace configs one at a time. A config submitted while a
// save is in flight waits in a single pending slot; a newer submission
// replaces it. Saves therefore complete in submission order and the latest
// config is always the last one written.
type saver struct {
	store   Store
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	idle    *sync.Cond
	pending *types.WorkspaceConfig
	running bool
}

func newSaver(store Store, logger *zap.Logger, metrics *monitoring.Metrics) *saver {
	s := &saver{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Submit queues cfg without waiting for it to be written
func (s *saver) Submit(cfg types.WorkspaceConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.metrics.RecordSaveCoalesced()
	}
	s.pending = &cfg

	if !s.running {
		s.running = true
		go s.loop()
	}
}

// Flush blocks until every submitted config has been handled
func (s *saver) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.running {
		s.idle.Wait()
	}
}

func (s *saver) loop() {
	for {
		s.mu.Lock()
		cfg := s.pending
		s.pending = nil
		if cfg == nil {
			s.running = false
			s.idle.Broadcast()
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.save(*cfg)
	}
}

func (s *saver) save(cfg types.WorkspaceConfig) {
	start := time.Now()
	err := s.write(cfg)
	s.metrics.RecordSave(time.Since(start), err)

	if err != nil {
		s.logger.Error("failed to save workspace", zap.Error(err))
		return
	}
	s.logger.Debug("workspace saved",
		zap.Int("files", len(cfg.Files)),
		zap.Int("active_file", cfg.ActiveFile),
	)
}

// write calls the store, keeping the loop alive if it panics
func (s *saver) write(cfg types.WorkspaceConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workspace store panicked: %v", r)
		}
	}()
	return s.store.Save(context.Background(), cfg)
}
