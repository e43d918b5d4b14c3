package fleet

import (
	"github.com/weststar/helimx/internal/config"
	"github.com/weststar/helimx/pkg/logger"
)

// Service provides read-only access to the fleet reference data
type Service struct {
	aircraft []Aircraft
	byTail   map[string]*Aircraft
	logger   *logger.Logger
}

// NewService creates a fleet service from the configured aircraft. When the
// config lists none, the sample fleet is used.
func NewService(cfg []config.AircraftConfig, log *logger.Logger) *Service {
	aircraft := make([]Aircraft, 0, len(cfg))
	for _, ac := range cfg {
		aircraft = append(aircraft, Aircraft{
			TailNumber:         ac.TailNumber,
			Model:              ac.Model,
			FlightHours:        ac.FlightHours,
			Cycles:             ac.Cycles,
			Environment:        ac.Environment,
			LastInspectionDate: ac.LastInspectionDate,
			NextInspectionDue:  ac.NextInspectionDue,
		})
	}
	if len(aircraft) == 0 {
		aircraft = sampleFleet()
	}

	byTail := make(map[string]*Aircraft, len(aircraft))
	for i := range aircraft {
		byTail[aircraft[i].TailNumber] = &aircraft[i]
	}

	svc := &Service{
		aircraft: aircraft,
		byTail:   byTail,
		logger:   log.Named("fleet"),
	}

	svc.logger.Info("Fleet loaded", logger.Int("aircraft_count", len(aircraft)))
	return svc
}

// All returns every fleet aircraft
func (s *Service) All() []Aircraft {
	out := make([]Aircraft, len(s.aircraft))
	copy(out, s.aircraft)
	return out
}

// ByTail returns the aircraft with the given tail number
func (s *Service) ByTail(tail string) (*Aircraft, bool) {
	ac, ok := s.byTail[tail]
	return ac, ok
}

// sampleFleet returns the built-in demo fleet
func sampleFleet() []Aircraft {
	return []Aircraft{
		{
			TailNumber:         "9M-WST",
			Model:              "AW139",
			FlightHours:        3500,
			Cycles:             1200,
			Environment:        "Offshore",
			LastInspectionDate: "2025-01-12",
			NextInspectionDue:  "2025-02-15",
		},
		{
			TailNumber:         "9M-ABC",
			Model:              "AW169",
			FlightHours:        2100,
			Cycles:             800,
			Environment:        "Offshore",
			LastInspectionDate: "2025-01-01",
			NextInspectionDue:  "2025-03-01",
		},
		{
			TailNumber:         "9M-XYZ",
			Model:              "AW189",
			FlightHours:        4100,
			Cycles:             1500,
			Environment:        "VIP",
			LastInspectionDate: "2025-01-20",
			NextInspectionDue:  "2025-03-20",
		},
	}
}
