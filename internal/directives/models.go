package directives

// Directive types
const (
	TypeAD = "AD" // Airworthiness Directive
	TypeSB = "SB" // Service Bulletin
)

// Directive statuses
const (
	StatusOpen          = "open"
	StatusClosed        = "closed"
	StatusNotApplicable = "not-applicable"
)

// Directive priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// CompletionDetails records how a closed directive was complied with
type CompletionDetails struct {
	Technician string `json:"technician"`
	Date       string `json:"date"`
	Remarks    string `json:"remarks,omitempty"`
}

// Directive represents a compliance directive (AD or SB).
//
// The reference code is the natural key used to correlate work card
// completions with directive closures. Correlation is string equality only;
// nothing enforces that references are unique or that they resolve.
type Directive struct {
	ID                string             `json:"id"`
	Type              string             `json:"type"`
	Reference         string             `json:"reference"`
	IssuingBody       string             `json:"issuingBody"`
	ApplicableModels  []string           `json:"applicableModels"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	EffectiveDate     string             `json:"effectiveDate"`
	Status            string             `json:"status"`
	Priority          string             `json:"priority"`
	Deadline          string             `json:"deadline,omitempty"`
	CompletionDetails *CompletionDetails `json:"completionDetails,omitempty"`
}

// Input carries the user-entered fields for a new directive
type Input struct {
	Reference        string   `json:"reference"`
	Type             string   `json:"type"`
	IssuingBody      string   `json:"issuingBody"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Priority         string   `json:"priority"`
	Deadline         string   `json:"deadline"`
	ApplicableModels []string `json:"applicableModels"`
}
