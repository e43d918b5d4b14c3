package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/weststar/helimx/internal/fleet"
	"github.com/weststar/helimx/pkg/logger"
)

// TextBackend is the narrow capability the service needs from the text
// client. Implemented by *Client; faked in tests.
type TextBackend interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Advise(ctx context.Context, question string) (string, error)
}

// Result is a generated work card document
type Result struct {
	Content string
	// LinkedDirectiveRef names the compliance directive triggered by the
	// input flight hours, empty when none applies
	LinkedDirectiveRef string
}

// Service builds work card prompts, delegates to the text backend, and wraps
// the returned text in the work card envelope. The envelope construction is
// deterministic and lives in the composer; only the model's prose and the
// manual chapter reference vary between runs.
type Service struct {
	backend TextBackend
	fleet   *fleet.Service
	logger  *logger.Logger
	now     func() time.Time
	chapter func() ManualChapter
}

// NewService creates a generation service
func NewService(backend TextBackend, fleetService *fleet.Service, log *logger.Logger) *Service {
	return &Service{
		backend: backend,
		fleet:   fleetService,
		logger:  log.Named("generation"),
		now:     time.Now,
		chapter: RandomManualChapter,
	}
}

// GenerateWorkCard generates a work card document for the given aircraft and
// usage inputs. Inputs are validated for presence only; the three parameters
// remain free text.
func (s *Service) GenerateWorkCard(ctx context.Context, tailNumber, flightHours, cycles, environment string) (*Result, error) {
	if flightHours == "" || cycles == "" || environment == "" {
		return nil, fmt.Errorf("flight hours, cycles and environment are required")
	}

	aircraft, ok := s.fleet.ByTail(tailNumber)
	if !ok {
		return nil, fmt.Errorf("unknown aircraft: %s", tailNumber)
	}

	prompt := BuildPrompt(aircraft.Model, aircraft.TailNumber, flightHours, cycles, environment)

	s.logger.Info("Generating work card",
		logger.String("tail_number", tailNumber),
		logger.String("flight_hours", flightHours),
		logger.Bool("inspection_window", InTriggerWindow(flightHours)))

	raw, err := s.backend.GenerateText(ctx, prompt)
	if err != nil {
		s.logger.Error("Work card generation failed",
			logger.String("tail_number", tailNumber),
			logger.Error(err))
		return nil, fmt.Errorf("work card generation failed: %w", err)
	}

	result := &Result{
		Content: Compose(aircraft.TailNumber, flightHours, raw, s.now(), s.chapter()),
	}
	if InTriggerWindow(flightHours) {
		result.LinkedDirectiveRef = TriggerDirectiveRef
	}
	return result, nil
}

// Advise forwards a free-text question to the advisor backend
func (s *Service) Advise(ctx context.Context, question string) (string, error) {
	if question == "" {
		return "", fmt.Errorf("question is required")
	}

	answer, err := s.backend.Advise(ctx, question)
	if err != nil {
		s.logger.Error("Advisor request failed", logger.Error(err))
		return "", fmt.Errorf("advisor request failed: %w", err)
	}
	return answer, nil
}
