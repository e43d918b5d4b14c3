package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/weststar/helimx/internal/alerts"
	"github.com/weststar/helimx/internal/config"
	"github.com/weststar/helimx/internal/directives"
	"github.com/weststar/helimx/internal/fleet"
	"github.com/weststar/helimx/internal/generation"
	"github.com/weststar/helimx/internal/websocket"
	"github.com/weststar/helimx/internal/workcards"
	"github.com/weststar/helimx/pkg/logger"
)

// genericGenerationError is the single user-facing message for all
// generation failure modes
const genericGenerationError = "Failed to generate work card. Please try again."

// Handler handles API requests
type Handler struct {
	fleet       *fleet.Service
	directives  *directives.Store
	workCards   *workcards.Store
	generation  *generation.Service
	alertTrig   *alerts.Trigger
	wsServer    *websocket.Server
	config      *config.Config
	logger      *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	fleetService *fleet.Service,
	directiveStore *directives.Store,
	workCardStore *workcards.Store,
	generationService *generation.Service,
	alertTrigger *alerts.Trigger,
	wsServer *websocket.Server,
	cfg *config.Config,
	log *logger.Logger,
) *Handler {
	return &Handler{
		fleet:      fleetService,
		directives: directiveStore,
		workCards:  workCardStore,
		generation: generationService,
		alertTrig:  alertTrigger,
		wsServer:   wsServer,
		config:     cfg,
		logger:     log.Named("api-handler"),
	}
}

// GetHealth handles GET /health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// GetConfig handles GET /config, returning a sanitized view
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]interface{}{
		"generation_source":     h.config.Generation.SourceType,
		"model":                 h.config.Generation.Model,
		"fleet_size":            len(h.fleet.All()),
		"poll_interval_seconds": h.config.WorkCards.PollIntervalSeconds,
		"alerts_enabled":        h.config.Alerts.Enabled,
	})
}

// GetAllAircraft handles GET /aircraft
func (h *Handler) GetAllAircraft(w http.ResponseWriter, r *http.Request) {
	aircraft := h.fleet.All()
	h.respond(w, http.StatusOK, map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"count":     len(aircraft),
		"aircraft":  aircraft,
	})
}

// GetAircraftByTail handles GET /aircraft/{tail}
func (h *Handler) GetAircraftByTail(w http.ResponseWriter, r *http.Request) {
	tail := chi.URLParam(r, "tail")
	aircraft, ok := h.fleet.ByTail(tail)
	if !ok {
		h.respondError(w, http.StatusNotFound, "aircraft not found")
		return
	}
	h.respond(w, http.StatusOK, aircraft)
}

// GetAllDirectives handles GET /directives
func (h *Handler) GetAllDirectives(w http.ResponseWriter, r *http.Request) {
	all := h.directives.All()
	h.respond(w, http.StatusOK, map[string]interface{}{
		"timestamp":  time.Now().UTC(),
		"count":      len(all),
		"directives": all,
	})
}

// CreateDirective handles POST /directives
func (h *Handler) CreateDirective(w http.ResponseWriter, r *http.Request) {
	var input directives.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	directive, err := h.directives.Add(r.Context(), input)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(w, http.StatusCreated, directive)
}

// updateDirectiveStatusRequest is the body of PUT /directives/{reference}/status
type updateDirectiveStatusRequest struct {
	Status            string                        `json:"status"`
	CompletionDetails *directives.CompletionDetails `json:"completionDetails,omitempty"`
}

// UpdateDirectiveStatus handles PUT /directives/{reference}/status.
// References contain slashes (CAAM/AD/2026-14) so clients percent-encode
// them and the parameter arrives escaped.
func (h *Handler) UpdateDirectiveStatus(w http.ResponseWriter, r *http.Request) {
	reference, err := url.PathUnescape(chi.URLParam(r, "reference"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid directive reference")
		return
	}

	var req updateDirectiveStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Status {
	case directives.StatusOpen, directives.StatusClosed, directives.StatusNotApplicable:
	default:
		h.respondError(w, http.StatusBadRequest, "invalid directive status")
		return
	}

	if err := h.directives.UpdateStatus(r.Context(), reference, req.Status, req.CompletionDetails); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWorkCards handles GET /workcards?role=
func (h *Handler) GetWorkCards(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if !workcards.KnownRole(role) {
		h.respondError(w, http.StatusBadRequest, "unknown or missing role")
		return
	}

	cards, err := h.workCards.List(r.Context(), role)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cards == nil {
		cards = []workcards.Card{}
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"count":     len(cards),
		"workCards": cards,
	})
}

// generateWorkCardRequest is the body of POST /workcards
type generateWorkCardRequest struct {
	Role        string `json:"role"`
	TailNumber  string `json:"tailNumber"`
	FlightHours string `json:"flightHours"`
	Cycles      string `json:"cycles"`
	Environment string `json:"environment"`
}

// GenerateWorkCard handles POST /workcards: generates the document and
// stores the resulting card in the acting role's partition
func (h *Handler) GenerateWorkCard(w http.ResponseWriter, r *http.Request) {
	var req generateWorkCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !workcards.KnownRole(req.Role) {
		h.respondError(w, http.StatusBadRequest, "unknown or missing role")
		return
	}
	if req.FlightHours == "" || req.Cycles == "" || req.Environment == "" {
		h.respondError(w, http.StatusBadRequest, "flight hours, cycles and environment are required")
		return
	}

	result, err := h.generation.GenerateWorkCard(r.Context(), req.TailNumber, req.FlightHours, req.Cycles, req.Environment)
	if err != nil {
		h.respondError(w, http.StatusBadGateway, genericGenerationError)
		return
	}

	card, err := h.workCards.Add(r.Context(), req.Role, workcards.Card{
		Content:            result.Content,
		FlightHours:        req.FlightHours,
		Cycles:             req.Cycles,
		Environment:        req.Environment,
		Status:             workcards.StatusDraft,
		LinkedDirectiveRef: result.LinkedDirectiveRef,
	})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respond(w, http.StatusCreated, card)
}

// DeleteWorkCard handles DELETE /workcards/{id}?role=. Deleting an unknown
// ID is a no-op.
func (h *Handler) DeleteWorkCard(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if !workcards.KnownRole(role) {
		h.respondError(w, http.StatusBadRequest, "unknown or missing role")
		return
	}

	if err := h.workCards.Delete(r.Context(), role, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// scheduleWorkCardRequest is the body of POST /workcards/{id}/schedule
type scheduleWorkCardRequest struct {
	Role               string                   `json:"role"`
	ScheduledDate      string                   `json:"scheduledDate"`
	ScheduledLocation  string                   `json:"scheduledLocation"`
	AssignedTechnician string                   `json:"assignedTechnician"`
	RequiredParts      []workcards.RequiredPart `json:"requiredParts"`
}

// ScheduleWorkCard handles POST /workcards/{id}/schedule
func (h *Handler) ScheduleWorkCard(w http.ResponseWriter, r *http.Request) {
	var req scheduleWorkCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !workcards.KnownRole(req.Role) {
		h.respondError(w, http.StatusBadRequest, "unknown or missing role")
		return
	}
	if req.ScheduledDate == "" {
		h.respondError(w, http.StatusBadRequest, "scheduled date is required")
		return
	}

	rescheduled, err := h.workCards.Schedule(r.Context(), req.Role, chi.URLParam(r, "id"), workcards.ScheduleParams{
		Date:       req.ScheduledDate,
		Location:   req.ScheduledLocation,
		Technician: req.AssignedTechnician,
		Parts:      req.RequiredParts,
	})
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	message := "Work card scheduled"
	if rescheduled {
		message = "Work card schedule updated"
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"message":     message,
		"rescheduled": rescheduled,
	})
}

// completeWorkCardRequest is the body of POST /workcards/{id}/complete
type completeWorkCardRequest struct {
	Role        string `json:"role"`
	TaskResults string `json:"taskResults"`
	Remarks     string `json:"remarks"`
	SignedBy    string `json:"signedBy"`
}

// CompleteWorkCard handles POST /workcards/{id}/complete
func (h *Handler) CompleteWorkCard(w http.ResponseWriter, r *http.Request) {
	var req completeWorkCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !workcards.KnownRole(req.Role) {
		h.respondError(w, http.StatusBadRequest, "unknown or missing role")
		return
	}
	if req.SignedBy == "" {
		h.respondError(w, http.StatusBadRequest, "signer is required")
		return
	}

	prior, err := h.workCards.Complete(r.Context(), req.Role, chi.URLParam(r, "id"), workcards.CompletionParams{
		TaskResults: req.TaskResults,
		Remarks:     req.Remarks,
		SignedBy:    req.SignedBy,
	})
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"message":     "Work card completed",
		"priorStatus": prior,
	})
}

// advisorRequest is the body of POST /advisor
type advisorRequest struct {
	Question string `json:"question"`
}

// Advise handles POST /advisor
func (h *Handler) Advise(w http.ResponseWriter, r *http.Request) {
	var req advisorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		h.respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.generation.Advise(r.Context(), req.Question)
	if err != nil {
		h.respondError(w, http.StatusBadGateway, "Failed to send message. Please try again.")
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"text": answer})
}

// GetAlert handles GET /alerts
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]interface{}{
		"fired": h.alertTrig.Fired(),
		"alert": h.alertTrig.Current(),
	})
}

// HandleWebSocket handles GET /ws
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

func (h *Handler) respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respond(w, status, map[string]string{"error": message})
}
