package workcards

// User roles owning work card partitions
const (
	RolePlanner    = "maintenance-planner"
	RoleTechnician = "engineer-technician"
	RoleCompliance = "compliance-manager"
)

// Work card statuses
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
)

// statusRank orders statuses for merge preference. Higher wins when the
// planner and technician partitions disagree about the same card.
var statusRank = map[string]int{
	StatusDraft:     0,
	StatusScheduled: 1,
	StatusCompleted: 2,
}

// RequiredPart is one part line on a scheduled work card
type RequiredPart struct {
	PartNumber string `json:"partNumber"`
	Quantity   int    `json:"quantity"`
}

// Card represents a stored work card.
//
// Status gates which optional fields are meaningful: scheduling fields are
// set once the card is scheduled, completion fields once it is completed.
// Records persisted by older revisions may lack any optional field.
//
// JSON field names follow the persisted record layout used by the dashboard.
type Card struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	FlightHours string `json:"flightHours"`
	Cycles      string `json:"cycles"`
	Environment string `json:"environment"`
	Date        string `json:"date"`
	Role        string `json:"role"`
	Status      string `json:"status"`

	// Scheduling fields
	ScheduledDate      string         `json:"scheduledDate,omitempty"`
	ScheduledLocation  string         `json:"scheduledLocation,omitempty"`
	AssignedTechnician string         `json:"assignedTechnician,omitempty"`
	RequiredParts      []RequiredPart `json:"requiredParts,omitempty"`

	// Completion fields
	TaskResults       string `json:"taskResults,omitempty"`
	CompletionRemarks string `json:"completionRemarks,omitempty"`
	SignedBy          string `json:"signedBy,omitempty"`
	CompletionDate    string `json:"completionDate,omitempty"`

	// LinkedDirectiveRef is the reference code of the directive this card
	// was generated for. Completing the card closes that directive.
	LinkedDirectiveRef string `json:"linkedDirectiveRef,omitempty"`
}

// ScheduleParams carries the scheduling fields
type ScheduleParams struct {
	Date       string         `json:"scheduledDate"`
	Location   string         `json:"scheduledLocation"`
	Technician string         `json:"assignedTechnician"`
	Parts      []RequiredPart `json:"requiredParts"`
}

// CompletionParams carries the completion fields
type CompletionParams struct {
	TaskResults string `json:"taskResults"`
	Remarks     string `json:"remarks"`
	SignedBy    string `json:"signedBy"`
}

// KnownRole reports whether the role owns a work card partition or a merged
// view of one
func KnownRole(role string) bool {
	switch role {
	case RolePlanner, RoleTechnician, RoleCompliance:
		return true
	}
	return false
}
