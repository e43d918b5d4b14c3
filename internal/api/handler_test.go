package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weststar/helimx/internal/alerts"
	"github.com/weststar/helimx/internal/config"
	"github.com/weststar/helimx/internal/directives"
	"github.com/weststar/helimx/internal/events"
	"github.com/weststar/helimx/internal/fleet"
	"github.com/weststar/helimx/internal/generation"
	"github.com/weststar/helimx/internal/storage/memory"
	"github.com/weststar/helimx/internal/websocket"
	"github.com/weststar/helimx/internal/workcards"
	"github.com/weststar/helimx/pkg/logger"
)

// fakeBackend is a canned generation.TextBackend
type fakeBackend struct {
	text string
	err  error
}

func (f *fakeBackend) GenerateText(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func (f *fakeBackend) Advise(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func newTestServer(t *testing.T, backend generation.TextBackend) *httptest.Server {
	t.Helper()

	log := logger.Nop()
	cfg := config.Default()
	kv := memory.New()
	bus := events.NewBus(16)

	fleetService := fleet.NewService(nil, log)
	directiveStore, err := directives.NewStore(context.Background(), kv, bus, log)
	require.NoError(t, err)
	workCardStore := workcards.NewStore(kv, directiveStore, bus, time.Hour, log)
	generationService := generation.NewService(backend, fleetService, log)
	alertTrigger := alerts.NewTrigger(time.Hour, bus, log)
	wsServer := websocket.NewServer(bus, log)

	router := NewRouter(fleetService, directiveStore, workCardStore, generationService, alertTrigger, wsServer, cfg, log)
	server := httptest.NewServer(router.Routes())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "ok"})

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestAircraftEndpoints(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "ok"})

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/aircraft", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["count"])

	status, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/aircraft/9M-WST", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "AW139", body["model"])

	status, _ = doJSON(t, http.MethodGet, server.URL+"/api/v1/aircraft/N-NOPE", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDirectiveLifecycle(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "ok"})

	// Seed data is present on first load
	status, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/directives", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["count"])

	status, created := doJSON(t, http.MethodPost, server.URL+"/api/v1/directives", map[string]interface{}{
		"reference":   "CAAM/AD/2026-14",
		"title":       "Main Rotor Hub Inspection",
		"type":        "AD",
		"issuingBody": "CAAM",
		"priority":    "high",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, created["id"], "DIR-")
	assert.Equal(t, "open", created["status"])

	// New directive is prepended
	status, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/directives", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(4), body["count"])
	first := body["directives"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "CAAM/AD/2026-14", first["reference"])

	// Missing title is rejected
	status, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/directives", map[string]interface{}{
		"reference":   "CAAM/AD/2026-15",
		"type":        "AD",
		"issuingBody": "CAAM",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	// Status update
	status, _ = doJSON(t, http.MethodPut, server.URL+"/api/v1/directives/CAAM%2FAD%2F2026-14/status", map[string]interface{}{
		"status": "closed",
		"completionDetails": map[string]string{
			"technician": "J. Tan",
			"date":       "2026-08-28",
			"remarks":    "Inspection carried out, no findings",
		},
	})
	assert.Equal(t, http.StatusNoContent, status)

	status, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/directives", nil)
	require.Equal(t, http.StatusOK, status)
	updated := body["directives"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "CAAM/AD/2026-14", updated["reference"])
	assert.Equal(t, "closed", updated["status"])
	details := updated["completionDetails"].(map[string]interface{})
	assert.Equal(t, "J. Tan", details["technician"])

	status, _ = doJSON(t, http.MethodPut, server.URL+"/api/v1/directives/CAAM%2FAD%2F2026-14/status", map[string]interface{}{
		"status": "archived",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGenerateAndListWorkCards(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "Model generated procedures."})

	status, card := doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards", map[string]string{
		"role":        "maintenance-planner",
		"tailNumber":  "9M-WST",
		"flightHours": "3550",
		"cycles":      "1200",
		"environment": "Offshore",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, card["id"], "WC-")
	assert.Equal(t, "draft", card["status"])
	assert.Equal(t, "CAAM/AD/TRG-2025-01", card["linkedDirectiveRef"])
	assert.Contains(t, card["content"], "# Work Card - 9M-WST")

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/workcards?role=maintenance-planner", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	// The technician partition is untouched until the card is scheduled
	status, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/workcards?role=engineer-technician", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["count"])
}

func TestGenerateWorkCardValidation(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "unused"})

	status, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards", map[string]string{
		"role":        "chief-pilot",
		"tailNumber":  "9M-WST",
		"flightHours": "1000",
		"cycles":      "400",
		"environment": "Coastal",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards", map[string]string{
		"role":       "maintenance-planner",
		"tailNumber": "9M-WST",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, http.MethodGet, server.URL+"/api/v1/workcards?role=dispatcher", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGenerateWorkCardBackendFailure(t *testing.T) {
	server := newTestServer(t, &fakeBackend{err: fmt.Errorf("upstream unavailable")})

	status, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards", map[string]string{
		"role":        "maintenance-planner",
		"tailNumber":  "9M-WST",
		"flightHours": "1000",
		"cycles":      "400",
		"environment": "Coastal",
	})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, genericGenerationError, body["error"])
}

func TestScheduleAndCompleteWorkCard(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "Model generated procedures."})

	_, card := doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards", map[string]string{
		"role":        "maintenance-planner",
		"tailNumber":  "9M-WST",
		"flightHours": "1000",
		"cycles":      "400",
		"environment": "Coastal",
	})
	id := card["id"].(string)

	status, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards/"+id+"/schedule", map[string]interface{}{
		"role":               "maintenance-planner",
		"scheduledDate":      "2026-09-15",
		"scheduledLocation":  "Subang Base",
		"assignedTechnician": "A. Rahman",
		"requiredParts":      []map[string]interface{}{{"partNumber": "3G6320V00151", "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Work card scheduled", body["message"])
	assert.Equal(t, false, body["rescheduled"])

	// Scheduling writes the card through to the technician partition
	status, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/workcards?role=engineer-technician", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards/"+id+"/schedule", map[string]interface{}{
		"role":          "maintenance-planner",
		"scheduledDate": "2026-09-20",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Work card schedule updated", body["message"])
	assert.Equal(t, true, body["rescheduled"])

	// Missing signer is rejected
	status, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards/"+id+"/complete", map[string]string{
		"role":        "engineer-technician",
		"taskResults": "All checks passed",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards/"+id+"/complete", map[string]string{
		"role":        "engineer-technician",
		"taskResults": "All checks passed",
		"remarks":     "No defects found",
		"signedBy":    "A. Rahman",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "scheduled", body["priorStatus"])

	// Completion reconciles the planner's copy
	status, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/workcards?role=maintenance-planner", nil)
	require.Equal(t, http.StatusOK, status)
	planner := body["workCards"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "completed", planner["status"])
	assert.Equal(t, "A. Rahman", planner["signedBy"])
}

func TestScheduleUnknownWorkCard(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "unused"})

	status, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards/WC-missing/schedule", map[string]string{
		"role":          "maintenance-planner",
		"scheduledDate": "2026-09-15",
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteWorkCard(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "Model generated procedures."})

	_, card := doJSON(t, http.MethodPost, server.URL+"/api/v1/workcards", map[string]string{
		"role":        "maintenance-planner",
		"tailNumber":  "9M-WST",
		"flightHours": "1000",
		"cycles":      "400",
		"environment": "Coastal",
	})
	id := card["id"].(string)

	status, _ := doJSON(t, http.MethodDelete, server.URL+"/api/v1/workcards/"+id+"?role=maintenance-planner", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/workcards?role=maintenance-planner", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["count"])

	// Deleting an unknown ID is a no-op
	status, _ = doJSON(t, http.MethodDelete, server.URL+"/api/v1/workcards/WC-missing?role=maintenance-planner", nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestAdvisorEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "ADs are mandatory; SBs are recommended."})

	status, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/advisor", map[string]string{
		"question": "What is the difference between an AD and an SB?",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ADs are mandatory; SBs are recommended.", body["text"])

	status, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/advisor", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdvisorBackendFailure(t *testing.T) {
	server := newTestServer(t, &fakeBackend{err: fmt.Errorf("upstream unavailable")})

	status, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/advisor", map[string]string{
		"question": "What is an AD?",
	})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Failed to send message. Please try again.", body["error"])
}

func TestAlertEndpointBeforeFiring(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "ok"})

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/alerts", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["fired"])
	assert.Nil(t, body["alert"])
}

func TestConfigEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeBackend{text: "ok"})

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/config", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "prediction", body["generation_source"])
	assert.Equal(t, float64(3), body["fleet_size"])
}
