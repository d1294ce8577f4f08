// Package api exposes the service operations over HTTP. It is a thin
// transport: requests are decoded into wire records, handed to the
// postgis layer, and taxonomy errors are mapped to status codes.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"svc_gis/internal/logging"
	"svc_gis/internal/postgis"
	"svc_gis/internal/rpc"
)

// Server serves the REST surface.
type Server struct {
	db   *postgis.DB
	port int
	log  zerolog.Logger
}

// New creates an API server on the given port.
func New(db *postgis.DB, port int) *Server {
	return &Server{
		db:   db,
		port: port,
		log:  logging.Component("api"),
	}
}

// Router builds the chi router with the full route table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/aircraft/id", s.handleUpdateAircraftID)
		r.Post("/aircraft/position", s.handleUpdateAircraftPosition)
		r.Post("/aircraft/velocity", s.handleUpdateAircraftVelocity)

		r.Post("/flights/path", s.handleUpdateFlightPath)
		r.Get("/flights", s.handleGetFlights)

		r.Post("/paths/best", s.handleBestPath)
	})

	return r
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info().Str("addr", addr).Msg("api listening")
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpdateAircraftID(w http.ResponseWriter, r *http.Request) {
	var aircraft []rpc.AircraftID
	if err := json.NewDecoder(r.Body).Decode(&aircraft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("malformed request body"))
		return
	}
	if err := s.db.UpdateAircraftID(r.Context(), aircraft); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody())
}

func (s *Server) handleUpdateAircraftPosition(w http.ResponseWriter, r *http.Request) {
	var aircraft []rpc.AircraftPosition
	if err := json.NewDecoder(r.Body).Decode(&aircraft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("malformed request body"))
		return
	}
	if err := s.db.UpdateAircraftPosition(r.Context(), aircraft); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody())
}

func (s *Server) handleUpdateAircraftVelocity(w http.ResponseWriter, r *http.Request) {
	var aircraft []rpc.AircraftVelocity
	if err := json.NewDecoder(r.Body).Decode(&aircraft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("malformed request body"))
		return
	}
	if err := s.db.UpdateAircraftVelocity(r.Context(), aircraft); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody())
}

func (s *Server) handleUpdateFlightPath(w http.ResponseWriter, r *http.Request) {
	var flight rpc.UpdateFlightPathRequest
	if err := json.NewDecoder(r.Body).Decode(&flight); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("malformed request body"))
		return
	}
	if err := s.db.UpdateFlightPath(r.Context(), flight); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody())
}

func (s *Server) handleGetFlights(w http.ResponseWriter, r *http.Request) {
	request, err := getFlightsRequestFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	flights, err := s.db.GetFlights(r.Context(), request)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if flights == nil {
		flights = []rpc.Flight{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"flights": flights})
}

// bestPathBody wraps the path request with the procedure selector.
type bestPathBody struct {
	rpc.BestPathRequest
	Kind string `json:"kind"` // "port_to_port" or "aircraft_to_port"
}

func (s *Server) handleBestPath(w http.ResponseWriter, r *http.Request) {
	var body bestPathBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("malformed request body"))
		return
	}

	var pathType postgis.PathType
	switch body.Kind {
	case "", "port_to_port":
		pathType = postgis.PathPortToPort
	case "aircraft_to_port":
		pathType = postgis.PathAircraftToPort
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown path kind"))
		return
	}

	segments, err := s.db.BestPath(r.Context(), pathType, body.BestPathRequest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if segments == nil {
		segments = []rpc.PathSegment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": segments})
}

func getFlightsRequestFromQuery(r *http.Request) (rpc.GetFlightsRequest, error) {
	var request rpc.GetFlightsRequest
	q := r.URL.Query()

	floats := []struct {
		key  string
		dest *float64
	}{
		{"window_min_x", &request.WindowMinX},
		{"window_min_y", &request.WindowMinY},
		{"window_max_x", &request.WindowMaxX},
		{"window_max_y", &request.WindowMaxY},
	}
	for _, f := range floats {
		if _, err := fmt.Sscanf(q.Get(f.key), "%g", f.dest); err != nil {
			return request, fmt.Errorf("missing or invalid %s", f.key)
		}
	}

	times := []struct {
		key  string
		dest **time.Time
	}{
		{"time_start", &request.TimeStart},
		{"time_end", &request.TimeEnd},
	}
	for _, f := range times {
		parsed, err := time.Parse(time.RFC3339, q.Get(f.key))
		if err != nil {
			return request, fmt.Errorf("missing or invalid %s", f.key)
		}
		*f.dest = &parsed
	}

	return request, nil
}

// statusFor maps the error taxonomy to HTTP status codes: validation
// failures are the caller's fault, Client means the backend is
// unavailable, everything else is internal.
func statusFor(err error) int {
	var aircraftErr postgis.AircraftError
	if errors.As(err, &aircraftErr) {
		switch aircraftErr {
		case postgis.ErrAircraftClient:
			return http.StatusServiceUnavailable
		case postgis.ErrAircraftDB:
			return http.StatusInternalServerError
		default:
			return http.StatusBadRequest
		}
	}

	var flightErr postgis.FlightError
	if errors.As(err, &flightErr) {
		switch flightErr {
		case postgis.ErrFlightClient:
			return http.StatusServiceUnavailable
		case postgis.ErrFlightDB:
			return http.StatusInternalServerError
		default:
			return http.StatusBadRequest
		}
	}

	var pathErr postgis.PathError
	if errors.As(err, &pathErr) {
		switch pathErr {
		case postgis.ErrPathNoPath:
			return http.StatusNotFound
		case postgis.ErrPathClient:
			return http.StatusServiceUnavailable
		case postgis.ErrPathUnknown:
			return http.StatusInternalServerError
		default:
			return http.StatusBadRequest
		}
	}

	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func okBody() map[string]string {
	return map[string]string{"status": "ok"}
}
