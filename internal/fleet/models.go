package fleet

// Aircraft represents one fleet helicopter. Reference data only: records are
// supplied at startup and never mutated.
//
// JSON field names follow the persisted record layout used by the dashboard.
type Aircraft struct {
	TailNumber         string `json:"tailNumber"`
	Model              string `json:"model"`
	FlightHours        int    `json:"flightHours"`
	Cycles             int    `json:"cycles"`
	Environment        string `json:"environment"`
	LastInspectionDate string `json:"lastInspectionDate,omitempty"`
	NextInspectionDue  string `json:"nextInspectionDue,omitempty"`
}
