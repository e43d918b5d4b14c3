// Package alerts implements the one-shot compliance alert trigger. Shortly
// after the service starts it surfaces a fixed urgent-inspection warning for
// the tail rotor gearbox directive, once, and never again for the lifetime of
// the process.
package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/weststar/helimx/internal/events"
	"github.com/weststar/helimx/pkg/logger"
)

// Alert is the canned compliance warning payload
type Alert struct {
	Title        string   `json:"title"`
	DirectiveRef string   `json:"directiveRef"`
	Lines        []string `json:"lines"`
	FiredAt      string   `json:"firedAt"`
}

// Trigger fires the compliance alert once after a fixed delay
type Trigger struct {
	delay  time.Duration
	bus    *events.Bus
	logger *logger.Logger

	mu     sync.Mutex
	fired  bool
	alert  *Alert
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTrigger creates a trigger that fires after the given delay
func NewTrigger(delay time.Duration, bus *events.Bus, log *logger.Logger) *Trigger {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Trigger{
		delay:  delay,
		bus:    bus,
		logger: log.Named("alerts"),
	}
}

// Start arms the trigger. Fires once after the delay unless stopped first.
func (t *Trigger) Start(ctx context.Context) {
	trigCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		timer := time.NewTimer(t.delay)
		defer timer.Stop()

		select {
		case <-trigCtx.Done():
			return
		case <-timer.C:
			t.fire()
		}
	}()
}

// Stop disarms the trigger if it has not fired yet
func (t *Trigger) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}

// Fired reports whether the alert has been raised
func (t *Trigger) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Current returns the alert once fired, nil before
func (t *Trigger) Current() *Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.alert
}

func (t *Trigger) fire() {
	t.mu.Lock()
	if t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.alert = &Alert{
		Title:        "Urgent Inspection Required",
		DirectiveRef: "CAAM/AD/TRG-2025-01",
		Lines: []string{
			"New AD CAAM/AD/TRG-2025-01 requires immediate attention:",
			"Tail Rotor Gearbox Inspection required",
			"Current flight hours: 3,500",
			"Inspection due within: 100 flight hours",
			"Aircraft affected: AW139 (9M-WST)",
		},
		FiredAt: time.Now().UTC().Format(time.RFC3339),
	}
	alert := t.alert
	t.mu.Unlock()

	t.logger.Warn("Compliance alert raised",
		logger.String("directive", alert.DirectiveRef))

	t.bus.Publish(events.Event{
		Type: events.TypeComplianceAlert,
		Data: map[string]interface{}{
			"title":        alert.Title,
			"directiveRef": alert.DirectiveRef,
			"lines":        alert.Lines,
		},
	})
}
