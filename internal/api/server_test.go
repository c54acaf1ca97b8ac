package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/nexus/internal/codes"
	"github.com/danmuck/nexus/internal/labels"
	"github.com/danmuck/nexus/internal/scan"
	"github.com/danmuck/nexus/internal/testutil/testlog"
	"github.com/danmuck/nexus/internal/travelers"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type harness struct {
	srv   *Server
	clock *time.Time
}

func newHarness(t *testing.T) harness {
	t.Helper()
	testlog.Start(t)
	ctx := context.Background()
	store := travelers.NewMemoryStore()
	require.NoError(t, store.PutTraveler(ctx, &travelers.Traveler{
		ID: 7, JobNumber: "ABC", WorkOrderNumber: "WO1", PartNumber: "PCB-100", Quantity: 3,
	}))
	require.NoError(t, store.PutProcessStep(ctx, &travelers.ProcessStep{
		ID: 20, TravelerID: 7, StepNumber: 1, Operation: "SMT", WorkCenterCode: "SMT",
	}))
	require.NoError(t, store.PutManualStep(ctx, &travelers.ManualStep{
		ID: 30, TravelerID: 7, Description: "inspect",
	}))

	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	h := harness{clock: &clock}
	now := func() time.Time { return *h.clock }
	h.srv = Appear(Options{
		ID:     "nexusd-test",
		Addr:   ":0",
		Store:  store,
		Scans:  scan.NewService(store).WithClock(now),
		Labels: labels.NewService(store, labels.WithClock(now)),
	})
	h.srv.RegisterRoutes()
	return h
}

func (h harness) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(UserHeader, "operator-1")
	rr := httptest.NewRecorder()
	h.srv.HTTPRouter().ServeHTTP(rr, req)

	var decoded map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded), rr.Body.String())
	}
	return rr, decoded
}

func jsonBody(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t)
	rr, body := h.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "nexusd-test", body["service"])

	rr, body = h.do(t, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, body["ready"])

	rr, _ = h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "nexus_http_requests_total")
}

func TestScanErrorMapping(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"ok", "/barcodes/scan/barcode", `{"barcode":"NEX-7-ABC-WO1"}`, http.StatusOK, ""},
		{"malformed", "/barcodes/scan/barcode", `{"barcode":"ABC"}`, http.StatusBadRequest, codes.CodeMalformed},
		{"mismatch", "/barcodes/scan/barcode", `{"barcode":"NEX-7-XYZ"}`, http.StatusConflict, codes.CodeMismatch},
		{"not found", "/barcodes/scan/barcode", `{"barcode":"NEX-99-ABC"}`, http.StatusNotFound, codes.CodeNotFound},
		{"missing body", "/barcodes/scan/barcode", `{}`, http.StatusBadRequest, codeInvalidRequest},
		{"qr ok", "/barcodes/scan/qr", `{"qr_code":"NEXUS|7|ABC|PCB-100|AC"}`, http.StatusOK, ""},
		{"qr mismatch", "/barcodes/scan/qr", `{"qr_code":"NEXUS|7|XYZ|PCB-100|AC"}`, http.StatusConflict, codes.CodeMismatch},
		{"step qr rejects traveler", "/barcodes/scan/step-qr", `{"qr_code":"NEXUS|7|ABC|PCB-100|AC"}`, http.StatusBadRequest, codes.CodeMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, body := h.do(t, http.MethodPost, tc.path, tc.body)
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
			if tc.code == "" {
				require.Equal(t, true, body["scan_successful"])
				return
			}
			require.Equal(t, tc.code, body["code"])
			require.NotEmpty(t, body["error"])
		})
	}
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	rr, body := h.do(t, http.MethodGet, "/barcodes/search?code=NEX-7-ABC", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "barcode", body["type"])

	rr, body = h.do(t, http.MethodGet, "/barcodes/search", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, codeInvalidRequest, body["code"])
}

func TestTravelerCodesAndLabel(t *testing.T) {
	h := newHarness(t)
	rr, body := h.do(t, http.MethodGet, "/barcodes/traveler/7", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ABC", body["barcode_data"])
	require.Equal(t, "NEXUS|7|ABC|PCB-100|AC", body["qr_data"])
	require.NotEmpty(t, body["qr_image"])

	rr, _ = h.do(t, http.MethodGet, "/barcodes/traveler/7/label", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "traveler_label_ABC_")

	rr, body = h.do(t, http.MethodGet, "/barcodes/traveler/nope", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, codeInvalidRequest, body["code"])

	rr, body = h.do(t, http.MethodGet, "/barcodes/traveler/8", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, codes.CodeNotFound, body["code"])
}

func TestStepQRs(t *testing.T) {
	h := newHarness(t)
	rr, body := h.do(t, http.MethodGet, "/barcodes/traveler/7/steps-qr", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, body["steps"], 2)

	rr, body = h.do(t, http.MethodGet, "/barcodes/traveler/7/steps-qr?include_manual=false", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, body["steps"], 1)

	rr, body = h.do(t, http.MethodGet, "/barcodes/step/20/qr", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "NEXUS-STEP|7|ABC|WO1|SMT|1|SMT|PROCESS|20|AC", body["qr_data"])
}

func TestStepScanLifecycle(t *testing.T) {
	h := newHarness(t)
	code := "NEXUS-STEP|7|ABC|WO1|SMT|1|SMT|PROCESS|20|AC"

	rr, body := h.do(t, http.MethodPost, "/barcodes/scan/step",
		jsonBody(t, map[string]string{"qr_code": code, "scan_action": "SCAN_IN"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "operator-1", body["scanned_by"])
	require.Nil(t, body["duration_minutes"])

	*h.clock = h.clock.Add(30 * time.Minute)
	rr, body = h.do(t, http.MethodPost, "/barcodes/scan/step",
		jsonBody(t, map[string]string{"qr_code": code, "scan_action": "SCAN_OUT", "notes": "ok"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.InDelta(t, 30.0, body["duration_minutes"], 0.001)

	rr, body = h.do(t, http.MethodPost, "/barcodes/scan/step",
		jsonBody(t, map[string]string{"qr_code": code, "scan_action": "PAUSE"}))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, codeInvalidRequest, body["code"])

	rr, body = h.do(t, http.MethodGet, "/barcodes/step/20/scan-history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, 2, body["total_scans"])
	require.EqualValues(t, 30, body["total_time_minutes"])

	rr, body = h.do(t, http.MethodGet, "/barcodes/step/20/scan-history?step_type=REWORK", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, codes.CodeMalformed, body["code"])

	rr, body = h.do(t, http.MethodGet, "/barcodes/traveler/7/time-summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	steps := body["steps"].([]any)
	require.Len(t, steps, 1)
	require.Equal(t, "completed", steps[0].(map[string]any)["status"])
}

func TestServerIsNode(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, "nexusd-test", h.srv.NodeID())
	require.Equal(t, "nexusd", h.srv.Kind())
	require.NotNil(t, h.srv.HTTPRouter())
}

func TestTemplateRoutes(t *testing.T) {
	h := newHarness(t)

	rr, body := h.do(t, http.MethodGet, "/templates", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, []any{"ASSY", "CABLE", "PCB"}, body["traveler_types"])

	rr, body = h.do(t, http.MethodGet, "/templates/pcb", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "PCB", body["traveler_type"])
	steps := body["steps"].([]any)
	require.Len(t, steps, 2)
	first := steps[0].(map[string]any)
	require.Equal(t, "INCOMING INSPECTION", first["operation"])
	require.EqualValues(t, 30, first["estimated_time"])
	require.Equal(t, true, first["is_required"])
	require.Len(t, first["sub_steps"], 5)

	rr, body = h.do(t, http.MethodGet, "/templates/WIDGET", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, codes.CodeNotFound, body["code"])
	require.Contains(t, body["error"], "WIDGET")
}

func TestRequestLogNamesOperatorAndErrorCode(t *testing.T) {
	testlog.Start(t)
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	h := newHarness(t)
	rr, _ := h.do(t, http.MethodPost, "/barcodes/scan/barcode", `{"barcode":"NEX-7-XYZ"}`)
	require.Equal(t, http.StatusConflict, rr.Code)

	var request map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var entry map[string]any
		if json.Unmarshal(sc.Bytes(), &entry) == nil && entry["message"] == "http_request" {
			request = entry
		}
	}
	require.NotNil(t, request, "no request log line in %q", buf.String())
	require.Equal(t, "operator-1", request["operator"])
	require.Equal(t, "barcode", request["scan_family"])
	require.Equal(t, codes.CodeMismatch, request["error_code"])
	require.Equal(t, "warn", request["level"])
}
