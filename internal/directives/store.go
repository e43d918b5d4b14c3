package directives

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weststar/helimx/internal/events"
	"github.com/weststar/helimx/internal/storage"
	"github.com/weststar/helimx/pkg/logger"
)

// storageKey is the collection key holding all directives. Directives are
// global, not role-scoped.
const storageKey = "complianceDirectives"

// Store holds the compliance directive collection, most-recent-first, mirrored
// to persistent storage on every mutation.
type Store struct {
	mu         sync.RWMutex
	directives []Directive
	kv         storage.KV
	bus        *events.Bus
	logger     *logger.Logger
	now        func() time.Time
}

// NewStore loads the directive collection from storage, seeding it with the
// sample set when no persisted collection exists.
func NewStore(ctx context.Context, kv storage.KV, bus *events.Bus, log *logger.Logger) (*Store, error) {
	s := &Store{
		kv:     kv,
		bus:    bus,
		logger: log.Named("directives"),
		now:    time.Now,
	}

	payload, ok, err := kv.Get(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load directives: %w", err)
	}

	if !ok {
		s.directives = seedDirectives()
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
		s.logger.Info("Seeded directive collection", logger.Int("count", len(s.directives)))
		return s, nil
	}

	if err := json.Unmarshal(payload, &s.directives); err != nil {
		// Malformed persisted JSON is fatal to the session, recoverable
		// only by resetting the collection
		return nil, fmt.Errorf("failed to parse persisted directives: %w", err)
	}

	s.logger.Info("Loaded directive collection", logger.Int("count", len(s.directives)))
	return s, nil
}

// All returns the directive collection, most-recent-first
func (s *Store) All() []Directive {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Directive, len(s.directives))
	copy(out, s.directives)
	return out
}

// ByReference returns all directives with the given reference code
func (s *Store) ByReference(reference string) []Directive {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Directive
	for _, d := range s.directives {
		if d.Reference == reference {
			out = append(out, d)
		}
	}
	return out
}

// Add creates a directive from the user-entered fields, prepends it to the
// collection, persists, and returns the created record.
//
// Validation is non-empty checks only. Duplicate references and malformed
// deadline strings are accepted silently.
func (s *Store) Add(ctx context.Context, input Input) (*Directive, error) {
	if input.Reference == "" || input.Title == "" || input.IssuingBody == "" {
		return nil, fmt.Errorf("reference, title and issuing body are required")
	}
	if input.Type != TypeAD && input.Type != TypeSB {
		return nil, fmt.Errorf("directive type must be %q or %q", TypeAD, TypeSB)
	}

	models := input.ApplicableModels
	if len(models) == 0 {
		models = []string{"AW139"}
	}

	directive := Directive{
		ID:               "DIR-" + uuid.NewString(),
		Type:             input.Type,
		Reference:        input.Reference,
		IssuingBody:      input.IssuingBody,
		ApplicableModels: models,
		Title:            input.Title,
		Description:      input.Description,
		EffectiveDate:    s.now().UTC().Format("2006-01-02"),
		Status:           StatusOpen,
		Priority:         input.Priority,
		Deadline:         input.Deadline,
	}

	s.mu.Lock()
	s.directives = append([]Directive{directive}, s.directives...)
	err := s.persist(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Directive added",
		logger.String("id", directive.ID),
		logger.String("reference", directive.Reference),
		logger.String("type", directive.Type))

	s.bus.Publish(events.Event{
		Type: events.TypeDirectiveAdded,
		Data: map[string]interface{}{
			"id":        directive.ID,
			"reference": directive.Reference,
			"title":     directive.Title,
			"priority":  directive.Priority,
		},
	})

	return &directive, nil
}

// UpdateStatus replaces the status and completion details of every directive
// whose reference equals the given key. Unknown references are a silent no-op.
func (s *Store) UpdateStatus(ctx context.Context, reference, status string, details *CompletionDetails) error {
	s.mu.Lock()
	matched := 0
	for i := range s.directives {
		if s.directives[i].Reference == reference {
			s.directives[i].Status = status
			s.directives[i].CompletionDetails = details
			matched++
		}
	}
	var err error
	if matched > 0 {
		err = s.persist(ctx)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if matched == 0 {
		s.logger.Debug("Status update matched no directives", logger.String("reference", reference))
		return nil
	}

	s.logger.Info("Directive status updated",
		logger.String("reference", reference),
		logger.String("status", status),
		logger.Int("matched", matched))

	s.bus.Publish(events.Event{
		Type: events.TypeDirectiveStatus,
		Data: map[string]interface{}{
			"reference": reference,
			"status":    status,
		},
	})

	return nil
}

// persist writes the full collection. Callers must hold the lock.
func (s *Store) persist(ctx context.Context) error {
	payload, err := json.Marshal(s.directives)
	if err != nil {
		return fmt.Errorf("failed to marshal directives: %w", err)
	}
	if err := s.kv.Put(ctx, storageKey, payload); err != nil {
		return fmt.Errorf("failed to persist directives: %w", err)
	}
	return nil
}

// seedDirectives returns the sample directive set used on first load
func seedDirectives() []Directive {
	return []Directive{
		{
			ID:               "CAAM-2025-01",
			Type:             TypeAD,
			Reference:        "CAAM/AD/TRG-2025-01",
			IssuingBody:      "CAAM",
			ApplicableModels: []string{"AW139"},
			Title:            "Tail Rotor Gearbox Inspection",
			Description: "Mandatory inspection of tail rotor gearbox for AW139 helicopters with flight hours between 3,500-3,600. " +
				"Inspection must be performed within 100 flight hours from current status.\n\n" +
				"**OEM Requirements:**\n" +
				"- Visual inspection for corrosion\n" +
				"- Torque checks on all mounting bolts\n" +
				"- Magnetic particle inspection of critical areas\n" +
				"- Lubrication system integrity check",
			EffectiveDate: "2025-04-15",
			Status:        StatusOpen,
			Priority:      PriorityHigh,
			Deadline:      "2025-05-15",
		},
		{
			ID:               "SB-407-24-01",
			Type:             TypeSB,
			Reference:        "SB 407-24-01",
			IssuingBody:      "Leonardo",
			ApplicableModels: []string{"AW139", "AW169"},
			Title:            "Engine Control Unit Update",
			Description:      "Software update for enhanced engine control system",
			EffectiveDate:    "2024-02-01",
			Status:           StatusClosed,
			Priority:         PriorityMedium,
			Deadline:         "2024-06-15",
		},
		{
			ID:               "CAAM-2024-02",
			Type:             TypeAD,
			Reference:        "CAAM/AD/TRG-2024-02",
			IssuingBody:      "CAAM",
			ApplicableModels: []string{"AW139"},
			Title:            "Tail Rotor Drive Shaft Inspection",
			Description:      "Inspection of tail rotor drive shaft for wear patterns",
			EffectiveDate:    "2024-03-01",
			Status:           StatusOpen,
			Priority:         PriorityHigh,
			Deadline:         "2024-04-30",
		},
	}
}
