package generation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weststar/helimx/internal/fleet"
	"github.com/weststar/helimx/pkg/logger"
)

// fakeBackend returns canned text or a canned error
type fakeBackend struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeBackend) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func (f *fakeBackend) Advise(_ context.Context, question string) (string, error) {
	f.prompts = append(f.prompts, question)
	return f.text, f.err
}

func newTestService(backend *fakeBackend) *Service {
	// Empty config falls back to the sample fleet (9M-WST et al.)
	return NewService(backend, fleet.NewService(nil, logger.Nop()), logger.Nop())
}

func TestGenerateWorkCardInsideWindow(t *testing.T) {
	backend := &fakeBackend{text: "Model generated procedures."}
	service := newTestService(backend)

	result, err := service.GenerateWorkCard(context.Background(), "9M-WST", "3550", "1200", "Offshore")
	require.NoError(t, err)

	assert.Equal(t, TriggerDirectiveRef, result.LinkedDirectiveRef)
	assert.Contains(t, result.Content, "# Work Card - 9M-WST")
	assert.Contains(t, result.Content, "HIGH PRIORITY - COMPLIANCE DIRECTIVE")
	assert.Contains(t, result.Content, "Model generated procedures.")

	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "AW139 helicopter (9M-WST)")
	assert.Contains(t, backend.prompts[0], TriggerDirectiveRef)
}

func TestGenerateWorkCardOutsideWindow(t *testing.T) {
	backend := &fakeBackend{text: "Routine maintenance only."}
	service := newTestService(backend)

	result, err := service.GenerateWorkCard(context.Background(), "9M-WST", "1000", "400", "Coastal")
	require.NoError(t, err)

	assert.Empty(t, result.LinkedDirectiveRef)
	assert.NotContains(t, result.Content, "HIGH PRIORITY - COMPLIANCE DIRECTIVE")
}

func TestGenerateWorkCardValidation(t *testing.T) {
	backend := &fakeBackend{text: "unused"}
	service := newTestService(backend)

	_, err := service.GenerateWorkCard(context.Background(), "9M-WST", "", "400", "Coastal")
	require.Error(t, err)
	_, err = service.GenerateWorkCard(context.Background(), "9M-WST", "1000", "", "Coastal")
	require.Error(t, err)
	_, err = service.GenerateWorkCard(context.Background(), "9M-WST", "1000", "400", "")
	require.Error(t, err)

	// No backend call before validation passes
	assert.Empty(t, backend.prompts)
}

func TestGenerateWorkCardUnknownAircraft(t *testing.T) {
	service := newTestService(&fakeBackend{text: "unused"})
	_, err := service.GenerateWorkCard(context.Background(), "N-NOPE", "1000", "400", "Coastal")
	require.Error(t, err)
}

func TestGenerateWorkCardBackendFailure(t *testing.T) {
	service := newTestService(&fakeBackend{err: fmt.Errorf("connection refused")})
	_, err := service.GenerateWorkCard(context.Background(), "9M-WST", "1000", "400", "Coastal")
	require.Error(t, err)
}

func TestAdvise(t *testing.T) {
	backend := &fakeBackend{text: "ADs are mandatory."}
	service := newTestService(backend)

	answer, err := service.Advise(context.Background(), "What is an AD?")
	require.NoError(t, err)
	assert.Equal(t, "ADs are mandatory.", answer)

	_, err = service.Advise(context.Background(), "")
	require.Error(t, err)
}
