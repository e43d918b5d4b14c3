package generation

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Flight hour window that triggers the tail rotor gearbox inspection
// directive on generated work cards
const (
	triggerWindowStart = 3500
	triggerWindowEnd   = 3600
)

// TriggerDirectiveRef is the directive attached to work cards generated
// inside the inspection window
const TriggerDirectiveRef = "CAAM/AD/TRG-2025-01"

// complianceBlock is prepended to generated content when the flight hours
// fall inside the inspection window
const complianceBlock = `⚠️ **HIGH PRIORITY - COMPLIANCE DIRECTIVE**
- CAAM/AD/TRG-2025-01
- Tail Rotor Gearbox Inspection Required
- Must be completed before 3,600 flight hours
`

// ManualChapter is a maintenance manual chapter reference
type ManualChapter struct {
	Chapter int
	Section int
}

func (m ManualChapter) String() string {
	return fmt.Sprintf("%d-%d", m.Chapter, m.Section)
}

// RandomManualChapter picks a placeholder manual chapter reference
func RandomManualChapter() ManualChapter {
	return ManualChapter{
		Chapter: rand.Intn(20) + 1,
		Section: rand.Intn(50) + 1,
	}
}

// InTriggerWindow reports whether the flight hours string parses into the
// inspection window. Parsing is best-effort: leading digits are taken and
// the rest ignored, matching the loose numeric filtering of the input
// widgets.
func InTriggerWindow(flightHours string) bool {
	hours, ok := parseFlightHours(flightHours)
	return ok && hours >= triggerWindowStart && hours <= triggerWindowEnd
}

// parseFlightHours extracts the leading integer from a free-text flight
// hours value
func parseFlightHours(value string) (int, bool) {
	value = strings.TrimSpace(value)
	n := 0
	digits := 0
	for _, r := range value {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
	}
	return n, digits > 0
}

// BuildPrompt constructs the natural-language instruction sent to the text
// backend. Inside the inspection window the prompt carries the directive's
// required content and a stricter section layout.
func BuildPrompt(model, tailNumber, flightHours, cycles, environment string) string {
	base := fmt.Sprintf(
		"Generate a comprehensive work card for an %s helicopter (%s) with %s flight hours and %s cycles, operating in %s environment.",
		model, tailNumber, flightHours, cycles, environment)

	if InTriggerWindow(flightHours) {
		return base + `

Key requirements:
1. Include Tail Rotor Gearbox Inspection as per CAAM/AD/TRG-2025-01
2. Reference OEM manual sections and CAAM directives
3. List all required parts, tools, and their part numbers
4. Specify safety precautions and required PPE
5. Include estimated labor hours
6. Detail step-by-step maintenance procedures
7. Specify any special tooling requirements
8. Include quality assurance checkpoints

Please format the response with clear sections for:
- Task Overview
- Safety Precautions
- Required Parts and Tools
- Step-by-Step Procedures
- Quality Checks
- Sign-off Requirements`
	}

	return base + `

Please include:
1. Required maintenance tasks based on flight hours and cycles
2. Safety precautions and required PPE
3. Required parts and tools
4. Step-by-step procedures
5. Quality assurance checkpoints`
}

// Compose wraps the raw model text in the work card envelope: title block,
// conditional compliance directive block, quality assurance boilerplate,
// references, and sign-off requirements. Everything except the raw text and
// the manual chapter is deterministic.
func Compose(tailNumber, flightHours, raw string, now time.Time, chapter ManualChapter) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Work Card - %s\n", tailNumber)
	fmt.Fprintf(&b, "Generated on: %s\n\n", now.Format("02 Jan 2006"))

	inWindow := InTriggerWindow(flightHours)
	if inWindow {
		b.WriteString(complianceBlock)
		b.WriteString("\n")
	}

	b.WriteString(strings.TrimSpace(raw))
	b.WriteString("\n\n## Quality Assurance\n")
	b.WriteString("- All work must be documented in the aircraft technical log\n")
	b.WriteString("- Any discrepancies must be reported to the maintenance supervisor\n")
	b.WriteString("- Final inspection required before return to service\n")

	b.WriteString("\n## References\n")
	fmt.Fprintf(&b, "- Aircraft Maintenance Manual: Chapter %s\n", chapter)
	b.WriteString("- CAAM Regulations: Part 145\n")
	if inWindow {
		b.WriteString("- " + TriggerDirectiveRef + "\n")
	}

	b.WriteString("\n## Sign-off Requirements\n")
	b.WriteString("- Licensed Aircraft Maintenance Engineer\n")
	b.WriteString("- Quality Assurance Inspector\n")
	b.WriteString("- Maintenance Manager approval required for return to service\n")

	return b.String()
}
