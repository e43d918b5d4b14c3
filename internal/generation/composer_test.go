package generation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTriggerWindowBoundaries(t *testing.T) {
	tests := []struct {
		flightHours string
		want        bool
	}{
		{"3499", false},
		{"3500", true},
		{"3550", true},
		{"3600", true},
		{"3601", false},
		{"1000", false},
		{"0", false},
		{"", false},
		{"abc", false},
		{"3550 hrs", true}, // best-effort leading-digit parse
		{"  3550", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InTriggerWindow(tt.flightHours), "flightHours=%q", tt.flightHours)
	}
}

func TestBuildPromptEmbedsParameters(t *testing.T) {
	prompt := BuildPrompt("AW139", "9M-WST", "1000", "400", "Offshore")
	assert.Contains(t, prompt, "AW139 helicopter (9M-WST)")
	assert.Contains(t, prompt, "1000 flight hours")
	assert.Contains(t, prompt, "400 cycles")
	assert.Contains(t, prompt, "Offshore environment")
	assert.NotContains(t, prompt, TriggerDirectiveRef)
}

func TestBuildPromptInsideWindowRequiresInspection(t *testing.T) {
	prompt := BuildPrompt("AW139", "9M-WST", "3550", "1200", "Offshore")
	assert.Contains(t, prompt, "Tail Rotor Gearbox Inspection as per "+TriggerDirectiveRef)
	assert.Contains(t, prompt, "Task Overview")
}

func TestComposeEnvelopeInsideWindow(t *testing.T) {
	now := time.Date(2025, 8, 28, 10, 0, 0, 0, time.UTC)
	chapter := ManualChapter{Chapter: 3, Section: 17}

	doc := Compose("9M-WST", "3550", "Generated maintenance text.", now, chapter)

	assert.True(t, strings.HasPrefix(doc, "# Work Card - 9M-WST\n"))
	assert.Contains(t, doc, "Generated on: 28 Aug 2025")
	assert.Contains(t, doc, "HIGH PRIORITY - COMPLIANCE DIRECTIVE")
	assert.Contains(t, doc, "Generated maintenance text.")
	assert.Contains(t, doc, "## Quality Assurance")
	assert.Contains(t, doc, "Aircraft Maintenance Manual: Chapter 3-17")
	assert.Contains(t, doc, "- "+TriggerDirectiveRef)
	assert.Contains(t, doc, "## Sign-off Requirements")
}

func TestComposeEnvelopeOutsideWindow(t *testing.T) {
	now := time.Date(2025, 8, 28, 10, 0, 0, 0, time.UTC)
	doc := Compose("9M-WST", "1000", "Generated maintenance text.", now, ManualChapter{Chapter: 1, Section: 1})

	assert.NotContains(t, doc, "HIGH PRIORITY - COMPLIANCE DIRECTIVE")
	assert.NotContains(t, doc, TriggerDirectiveRef)
	assert.Contains(t, doc, "## Quality Assurance")
	assert.Contains(t, doc, "## References")
	assert.Contains(t, doc, "## Sign-off Requirements")
}

func TestRandomManualChapterInRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		chapter := RandomManualChapter()
		assert.GreaterOrEqual(t, chapter.Chapter, 1)
		assert.LessOrEqual(t, chapter.Chapter, 20)
		assert.GreaterOrEqual(t, chapter.Section, 1)
		assert.LessOrEqual(t, chapter.Section, 50)
	}
}
