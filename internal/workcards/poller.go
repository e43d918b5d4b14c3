package workcards

import (
	"context"
	"time"

	"github.com/weststar/helimx/internal/events"
	"github.com/weststar/helimx/pkg/logger"
)

// Start begins the partition poller. Another session (a second browser tab,
// or anything else writing to the repository directly) can mutate a partition
// without going through this store; the poller re-reads both partitions on a
// fixed interval and publishes a change event when a payload differs from the
// last one seen, so subscribers converge within one interval.
func (s *Store) Start(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	// Snapshot current payloads so startup state does not count as a change
	s.mu.Lock()
	for _, role := range []string{RolePlanner, RoleTechnician} {
		s.snapshotLocked(pollCtx, role)
	}
	s.mu.Unlock()

	s.logger.Info("Starting work card partition poller",
		logger.Duration("interval", s.pollInterval))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				s.logger.Info("Work card partition poller stopped")
				return
			case <-ticker.C:
				s.pollOnce(pollCtx)
			}
		}
	}()
}

// Stop stops the poller and waits for it to exit
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// pollOnce checks both partitions for external changes
func (s *Store) pollOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, role := range []string{RolePlanner, RoleTechnician} {
		key := partitionKey(role)
		payload, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			s.logger.Error("Partition poll failed",
				logger.String("role", role), logger.Error(err))
			continue
		}

		current := ""
		if ok {
			current = string(payload)
		}

		if last, seen := s.fingerprints[key]; seen && last == current {
			continue
		}
		s.fingerprints[key] = current

		s.logger.Debug("External partition change detected", logger.String("role", role))
		s.bus.Publish(events.Event{
			Type: events.TypeWorkCardsChanged,
			Data: map[string]interface{}{"role": role},
		})
	}
}

// snapshotLocked records the current payload fingerprint for the role's
// partition. Callers must hold the lock.
func (s *Store) snapshotLocked(ctx context.Context, role string) {
	key := partitionKey(role)
	payload, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Error("Failed to snapshot partition",
			logger.String("role", role), logger.Error(err))
		return
	}
	if ok {
		s.fingerprints[key] = string(payload)
	} else {
		s.fingerprints[key] = ""
	}
}
