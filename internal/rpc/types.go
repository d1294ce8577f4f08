// Package rpc defines the wire-level records exchanged with callers and
// with the scheduler queue. These are transport DTOs only; the postgis
// adapters are the single place they are converted to internal records.
package rpc

import "time"

// PointZ is a wire-level 3D position.
type PointZ struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AltitudeMeters float32 `json:"altitude_meters"`
}

// AircraftID is one identity-stream record.
type AircraftID struct {
	Identifier       string     `json:"identifier"`
	AircraftType     int32      `json:"aircraft_type"`
	TimestampNetwork *time.Time `json:"timestamp_network"`
}

// AircraftPosition is one position-stream record.
type AircraftPosition struct {
	Identifier        string     `json:"identifier"`
	Geom              *PointZ    `json:"geom"`
	TimestampNetwork  *time.Time `json:"timestamp_network"`
	TimestampAircraft *time.Time `json:"timestamp_aircraft,omitempty"`
}

// AircraftVelocity is one velocity-stream record.
type AircraftVelocity struct {
	Identifier                  string     `json:"identifier"`
	VelocityHorizontalGroundMps float32    `json:"velocity_horizontal_ground_mps"`
	VelocityVerticalMps         float32    `json:"velocity_vertical_mps"`
	TrackAngleDegrees           float32    `json:"track_angle_degrees"`
	TimestampNetwork            *time.Time `json:"timestamp_network"`
}

// UpdateFlightPathRequest submits or replaces a scheduled flight path.
type UpdateFlightPathRequest struct {
	FlightIdentifier   *string    `json:"flight_identifier"`
	AircraftIdentifier *string    `json:"aircraft_identifier"`
	AircraftType       int32      `json:"aircraft_type"`
	Simulated          bool       `json:"simulated"`
	TimestampStart     *time.Time `json:"timestamp_start"`
	TimestampEnd       *time.Time `json:"timestamp_end"`
	Path               []PointZ   `json:"path"`
}

// GetFlightsRequest asks for all flights and aircraft relevant to a 2D
// window and time interval.
type GetFlightsRequest struct {
	WindowMinX float64    `json:"window_min_x"`
	WindowMinY float64    `json:"window_min_y"`
	WindowMaxX float64    `json:"window_max_x"`
	WindowMaxY float64    `json:"window_max_y"`
	TimeStart  *time.Time `json:"time_start"`
	TimeEnd    *time.Time `json:"time_end"`
}

// TimePosition is a position observed at an instant.
type TimePosition struct {
	Position  *PointZ    `json:"position"`
	Timestamp *time.Time `json:"timestamp"`
}

// AircraftState is the most recent telemetry snapshot for an aircraft.
type AircraftState struct {
	Timestamp         *time.Time `json:"timestamp"`
	GroundSpeedMps    float32    `json:"ground_speed_mps"`
	VerticalSpeedMps  float32    `json:"vertical_speed_mps"`
	TrackAngleDegrees float32    `json:"track_angle_degrees"`
	Position          *PointZ    `json:"position"`
	Status            int32      `json:"status"`
}

// Flight is one row of a GetFlights response.
type Flight struct {
	SessionID    *string        `json:"session_id,omitempty"`
	AircraftID   *string        `json:"aircraft_id,omitempty"`
	Simulated    bool           `json:"simulated"`
	Positions    []TimePosition `json:"positions"`
	State        *AircraftState `json:"state,omitempty"`
	AircraftType int32          `json:"aircraft_type"`
}

// BestPathRequest asks for a feasible route between two nodes.
type BestPathRequest struct {
	NodeUUIDStart string     `json:"node_uuid_start"`
	NodeUUIDEnd   string     `json:"node_uuid_end"`
	TimeStart     *time.Time `json:"time_start,omitempty"`
	TimeEnd       *time.Time `json:"time_end,omitempty"`
}

// PathSegment is one leg of a best-path response.
type PathSegment struct {
	Index          int32   `json:"index"`
	StartType      int32   `json:"start_type"`
	StartLatitude  float32 `json:"start_latitude"`
	StartLongitude float32 `json:"start_longitude"`
	EndType        int32   `json:"end_type"`
	EndLatitude    float32 `json:"end_latitude"`
	EndLongitude   float32 `json:"end_longitude"`
	DistanceMeters float32 `json:"distance_meters"`
	AltitudeMeters float32 `json:"altitude_meters"`
}
