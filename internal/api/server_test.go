package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"svc_gis/internal/postgis"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{postgis.ErrAircraftNoAircraft, http.StatusBadRequest},
		{postgis.ErrAircraftLabel, http.StatusBadRequest},
		{postgis.ErrAircraftLocation, http.StatusBadRequest},
		{postgis.ErrAircraftTime, http.StatusBadRequest},
		{postgis.ErrAircraftClient, http.StatusServiceUnavailable},
		{postgis.ErrAircraftDB, http.StatusInternalServerError},
		{postgis.ErrFlightLabel, http.StatusBadRequest},
		{postgis.ErrFlightSegments, http.StatusBadRequest},
		{postgis.ErrFlightClient, http.StatusServiceUnavailable},
		{postgis.ErrFlightDB, http.StatusInternalServerError},
		{postgis.ErrPathInvalidStartNode, http.StatusBadRequest},
		{postgis.ErrPathInvalidTimeWindow, http.StatusBadRequest},
		{postgis.ErrPathNoPath, http.StatusNotFound},
		{postgis.ErrPathClient, http.StatusServiceUnavailable},
		{postgis.ErrPathUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	s := New(nil, 0)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)

	s.Router().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("health = %d, want 200", w.Code)
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	s := New(nil, 0)
	router := s.Router()

	paths := []string{
		"/api/v1/aircraft/id",
		"/api/v1/aircraft/position",
		"/api/v1/aircraft/velocity",
		"/api/v1/flights/path",
		"/api/v1/paths/best",
	}
	for _, path := range paths {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{not json"))
		router.ServeHTTP(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("POST %s with bad body = %d, want 400", path, w.Code)
		}
	}
}

func TestBestPathUnknownKind(t *testing.T) {
	s := New(nil, 0)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/paths/best",
		strings.NewReader(`{"kind":"teleport","node_uuid_start":"a","node_uuid_end":"b"}`))

	s.Router().ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind = %d, want 400", w.Code)
	}
}

func TestGetFlightsRequestFromQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/api/v1/flights?window_min_x=4.90&window_min_y=52.30&window_max_x=4.95&window_max_y=52.40"+
			"&time_start=2026-03-01T12:00:00Z&time_end=2026-03-01T13:00:00Z", nil)

	request, err := getFlightsRequestFromQuery(r)
	if err != nil {
		t.Fatalf("getFlightsRequestFromQuery() error: %v", err)
	}
	if request.WindowMinX != 4.90 || request.WindowMaxY != 52.40 {
		t.Errorf("window = %+v", request)
	}
	if request.TimeStart == nil || request.TimeEnd == nil {
		t.Fatal("time window not parsed")
	}
	if !request.TimeEnd.After(*request.TimeStart) {
		t.Errorf("parsed window [%v, %v]", request.TimeStart, request.TimeEnd)
	}

	// Missing parameters are rejected.
	r = httptest.NewRequest(http.MethodGet, "/api/v1/flights?window_min_x=1", nil)
	if _, err := getFlightsRequestFromQuery(r); err == nil {
		t.Error("incomplete query = nil error, want error")
	}
}
