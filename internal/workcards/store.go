package workcards

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weststar/helimx/internal/directives"
	"github.com/weststar/helimx/internal/events"
	"github.com/weststar/helimx/internal/storage"
	"github.com/weststar/helimx/pkg/logger"
)

// partitionKey returns the storage key for a role's work card partition
func partitionKey(role string) string {
	return "workCards_" + role
}

// Store manages the role-partitioned work card collections.
//
// The planner and technician roles each own an independently keyed partition.
// Scheduling by the planner writes through to the technician partition and
// completion by the technician writes back to the planner partition, so both
// roles observe the same record. There is no single source of truth: an
// external writer mutating a partition directly diverges until the poller
// notices.
type Store struct {
	mu         sync.Mutex
	kv         storage.KV
	directives *directives.Store
	bus        *events.Bus
	logger     *logger.Logger
	now        func() time.Time

	pollInterval time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup

	// fingerprints of the last payload seen per partition key, used by the
	// poller to detect external writers
	fingerprints map[string]string
}

// NewStore creates a work card store over the given repository. The directive
// store is consulted when a completed card carries a linked directive
// reference.
func NewStore(kv storage.KV, directiveStore *directives.Store, bus *events.Bus, pollInterval time.Duration, log *logger.Logger) *Store {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Store{
		kv:           kv,
		directives:   directiveStore,
		bus:          bus,
		logger:       log.Named("workcards"),
		now:          time.Now,
		pollInterval: pollInterval,
		fingerprints: make(map[string]string),
	}
}

// Add inserts the card into the acting role's partition, replacing any
// existing card with the same ID. New cards are prepended. A technician add
// of a completed card also reconciles the planner partition so the planner's
// copy matches.
func (s *Store) Add(ctx context.Context, role string, card Card) (*Card, error) {
	if !KnownRole(role) {
		return nil, fmt.Errorf("unknown role: %s", role)
	}
	if card.ID == "" {
		card.ID = "WC-" + uuid.NewString()
	}
	if card.Status == "" {
		card.Status = StatusDraft
	}
	if card.Date == "" {
		card.Date = s.now().UTC().Format("2006-01-02")
	}
	card.Role = role

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.upsert(ctx, role, card, true); err != nil {
		return nil, err
	}

	if role == RoleTechnician && card.Status == StatusCompleted {
		if err := s.upsert(ctx, RolePlanner, card, false); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Work card stored",
		logger.String("id", card.ID),
		logger.String("role", role),
		logger.String("status", card.Status))

	s.bus.Publish(events.Event{
		Type: events.TypeWorkCardAdded,
		Data: map[string]interface{}{"id": card.ID, "role": role},
	})

	return &card, nil
}

// Delete removes the card from the acting role's partition. Unknown IDs are a
// no-op. Technician deletions cascade to the planner partition; planner
// deletions do not cascade.
func (s *Store) Delete(ctx context.Context, role, id string) error {
	if !KnownRole(role) {
		return fmt.Errorf("unknown role: %s", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.remove(ctx, role, id)
	if err != nil {
		return err
	}

	if role == RoleTechnician {
		cascaded, err := s.remove(ctx, RolePlanner, id)
		if err != nil {
			return err
		}
		removed = removed || cascaded
	}

	if !removed {
		return nil
	}

	s.logger.Info("Work card deleted", logger.String("id", id), logger.String("role", role))
	s.bus.Publish(events.Event{
		Type: events.TypeWorkCardDeleted,
		Data: map[string]interface{}{"id": id, "role": role},
	})
	return nil
}

// Schedule transitions the card to scheduled and overwrites all four
// scheduling fields. Re-scheduling an already scheduled card replaces the
// previous values. Planner scheduling writes the updated record into the
// technician partition so technicians observe newly scheduled work.
//
// The returned boolean reports whether the card was already scheduled, so
// callers can distinguish "updated" from "newly scheduled".
func (s *Store) Schedule(ctx context.Context, role, id string, params ScheduleParams) (bool, error) {
	if !KnownRole(role) {
		return false, fmt.Errorf("unknown role: %s", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.loadPartition(ctx, role)
	if err != nil {
		return false, err
	}

	idx := indexByID(cards, id)
	if idx < 0 {
		return false, fmt.Errorf("work card not found: %s", id)
	}

	wasScheduled := cards[idx].Status == StatusScheduled

	cards[idx].Status = StatusScheduled
	cards[idx].ScheduledDate = params.Date
	cards[idx].ScheduledLocation = params.Location
	cards[idx].AssignedTechnician = params.Technician
	cards[idx].RequiredParts = params.Parts

	if err := s.savePartition(ctx, role, cards); err != nil {
		return false, err
	}

	if role == RolePlanner {
		if err := s.upsert(ctx, RoleTechnician, cards[idx], false); err != nil {
			return false, err
		}
	}

	s.logger.Info("Work card scheduled",
		logger.String("id", id),
		logger.String("role", role),
		logger.String("scheduled_date", params.Date),
		logger.Bool("rescheduled", wasScheduled))

	s.bus.Publish(events.Event{
		Type: events.TypeWorkCardScheduled,
		Data: map[string]interface{}{
			"id":          id,
			"role":        role,
			"rescheduled": wasScheduled,
		},
	})

	return wasScheduled, nil
}

// Complete transitions the card to completed and records the completion
// fields. Technician completions reconcile the planner partition. When the
// card carries a linked directive reference, the matching directive is closed
// with the signer recorded as the complying technician; a reference that
// matches no directive is a silent no-op.
//
// Completion does not require the card to have been scheduled first; the
// prior status is returned so callers can surface a warning.
func (s *Store) Complete(ctx context.Context, role, id string, params CompletionParams) (string, error) {
	if !KnownRole(role) {
		return "", fmt.Errorf("unknown role: %s", role)
	}

	s.mu.Lock()

	searchRole := role
	cards, err := s.loadPartition(ctx, role)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}

	idx := indexByID(cards, id)
	if idx < 0 && role == RoleTechnician {
		// Technicians work from the merged view; the card may only exist
		// in the planner partition
		searchRole = RolePlanner
		cards, err = s.loadPartition(ctx, RolePlanner)
		if err != nil {
			s.mu.Unlock()
			return "", err
		}
		idx = indexByID(cards, id)
	}
	if idx < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("work card not found: %s", id)
	}

	prior := cards[idx].Status
	completionDate := s.now().UTC().Format("2006-01-02")

	cards[idx].Status = StatusCompleted
	cards[idx].TaskResults = params.TaskResults
	cards[idx].CompletionRemarks = params.Remarks
	cards[idx].SignedBy = params.SignedBy
	cards[idx].CompletionDate = completionDate

	completed := cards[idx]

	if err := s.savePartition(ctx, searchRole, cards); err != nil {
		s.mu.Unlock()
		return "", err
	}

	// Reconcile the sibling partition so both roles observe the completion
	if role == RoleTechnician {
		if searchRole != RolePlanner {
			if err := s.upsert(ctx, RolePlanner, completed, false); err != nil {
				s.mu.Unlock()
				return "", err
			}
		}
		if err := s.upsert(ctx, RoleTechnician, completed, false); err != nil {
			s.mu.Unlock()
			return "", err
		}
	}
	s.mu.Unlock()

	s.logger.Info("Work card completed",
		logger.String("id", id),
		logger.String("role", role),
		logger.String("prior_status", prior),
		logger.String("signed_by", params.SignedBy))

	if completed.LinkedDirectiveRef != "" {
		details := &directives.CompletionDetails{
			Technician: params.SignedBy,
			Date:       completionDate,
			Remarks:    params.Remarks,
		}
		if err := s.directives.UpdateStatus(ctx, completed.LinkedDirectiveRef, directives.StatusClosed, details); err != nil {
			s.logger.Error("Failed to close linked directive",
				logger.String("reference", completed.LinkedDirectiveRef),
				logger.Error(err))
		}
	}

	s.bus.Publish(events.Event{
		Type: events.TypeWorkCardCompleted,
		Data: map[string]interface{}{
			"id":           id,
			"role":         role,
			"prior_status": prior,
		},
	})

	return prior, nil
}

// List returns the work cards visible to the role. Technician reads merge the
// planner and technician partitions, de-duplicating by ID and preferring the
// copy with the more advanced status. Other roles read their own partition.
func (s *Store) List(ctx context.Context, role string) ([]Card, error) {
	if !KnownRole(role) {
		return nil, fmt.Errorf("unknown role: %s", role)
	}

	if role != RoleTechnician {
		return s.loadPartition(ctx, role)
	}

	plannerCards, err := s.loadPartition(ctx, RolePlanner)
	if err != nil {
		return nil, err
	}
	technicianCards, err := s.loadPartition(ctx, RoleTechnician)
	if err != nil {
		return nil, err
	}

	merged := make([]Card, 0, len(plannerCards)+len(technicianCards))
	byID := make(map[string]int)
	for _, card := range append(plannerCards, technicianCards...) {
		if at, seen := byID[card.ID]; seen {
			if statusRank[card.Status] > statusRank[merged[at].Status] {
				merged[at] = card
			}
			continue
		}
		byID[card.ID] = len(merged)
		merged = append(merged, card)
	}
	return merged, nil
}

// Get returns the card with the given ID from the role's view
func (s *Store) Get(ctx context.Context, role, id string) (*Card, error) {
	cards, err := s.List(ctx, role)
	if err != nil {
		return nil, err
	}
	if idx := indexByID(cards, id); idx >= 0 {
		return &cards[idx], nil
	}
	return nil, fmt.Errorf("work card not found: %s", id)
}

// upsert replaces the card with the same ID in the role's partition, or
// inserts it when absent (prepending when prepend is set). Callers must hold
// the lock.
func (s *Store) upsert(ctx context.Context, role string, card Card, prepend bool) error {
	cards, err := s.loadPartition(ctx, role)
	if err != nil {
		return err
	}
	if idx := indexByID(cards, card.ID); idx >= 0 {
		cards[idx] = card
	} else if prepend {
		cards = append([]Card{card}, cards...)
	} else {
		cards = append(cards, card)
	}
	return s.savePartition(ctx, role, cards)
}

// remove deletes the card by ID from the role's partition, reporting whether
// anything was removed. Callers must hold the lock.
func (s *Store) remove(ctx context.Context, role, id string) (bool, error) {
	cards, err := s.loadPartition(ctx, role)
	if err != nil {
		return false, err
	}
	idx := indexByID(cards, id)
	if idx < 0 {
		return false, nil
	}
	cards = append(cards[:idx], cards[idx+1:]...)
	return true, s.savePartition(ctx, role, cards)
}

func (s *Store) loadPartition(ctx context.Context, role string) ([]Card, error) {
	payload, ok, err := s.kv.Get(ctx, partitionKey(role))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s work cards: %w", role, err)
	}
	if !ok {
		return nil, nil
	}
	var cards []Card
	if err := json.Unmarshal(payload, &cards); err != nil {
		return nil, fmt.Errorf("failed to parse persisted %s work cards: %w", role, err)
	}
	return cards, nil
}

func (s *Store) savePartition(ctx context.Context, role string, cards []Card) error {
	if cards == nil {
		cards = []Card{}
	}
	payload, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("failed to marshal %s work cards: %w", role, err)
	}
	if err := s.kv.Put(ctx, partitionKey(role), payload); err != nil {
		return fmt.Errorf("failed to persist %s work cards: %w", role, err)
	}
	s.fingerprints[partitionKey(role)] = string(payload)
	return nil
}

func indexByID(cards []Card, id string) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}
