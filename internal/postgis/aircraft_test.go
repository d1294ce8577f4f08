package postgis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"svc_gis/internal/rpc"
)

func TestAircraftPositionFromRequestValid(t *testing.T) {
	now := time.Now().UTC()
	nodes := []struct {
		label    string
		lat, lon float64
		alt      float32
	}{
		{"Marauder", 52.3745905, 4.9160036, 100.0},
		{"Phantom", 52.3749819, 4.9156925, 102.0},
		{"Ghost", 52.3752144, 4.9153733, 45.0},
		{"Falcon", 52.3753012, 4.9156845, 50.0},
		{"Mantis", 52.3750703, 4.9161538, 72.0},
	}

	for _, node := range nodes {
		request := rpc.AircraftPosition{
			Identifier: node.label,
			Geom: &rpc.PointZ{
				Latitude:       node.lat,
				Longitude:      node.lon,
				AltitudeMeters: node.alt,
			},
			TimestampNetwork: &now,
		}

		record, err := aircraftPositionFromRequest(request)
		if err != nil {
			t.Fatalf("aircraftPositionFromRequest(%s) error: %v", node.label, err)
		}
		if record.identifier != node.label {
			t.Errorf("identifier = %q, want %q", record.identifier, node.label)
		}
		if record.geom.Lat != node.lat || record.geom.Lon != node.lon {
			t.Errorf("geom = %+v, want (%v, %v)", record.geom, node.lon, node.lat)
		}
		if record.geom.Alt != float64(node.alt) {
			t.Errorf("alt = %v, want %v", record.geom.Alt, node.alt)
		}
		if !record.timestamp.Equal(now) {
			t.Errorf("timestamp = %v, want %v", record.timestamp, now)
		}
	}
}

func TestAircraftPositionFromRequestInvalidLabel(t *testing.T) {
	now := time.Now().UTC()
	labels := []string{
		"",
		"Aircraft;",
		"'Aircraft'",
		`Aircraft '`,
		strings.Repeat("X", 1000),
	}

	for _, label := range labels {
		request := rpc.AircraftPosition{
			Identifier:       label,
			Geom:             &rpc.PointZ{},
			TimestampNetwork: &now,
		}
		_, err := aircraftPositionFromRequest(request)
		if !errors.Is(err, ErrAircraftLabel) {
			t.Errorf("aircraftPositionFromRequest(%q) = %v, want ErrAircraftLabel", label, err)
		}
	}
}

func TestAircraftPositionFromRequestInvalidLocation(t *testing.T) {
	now := time.Now().UTC()
	coords := []struct{ lat, lon float64 }{
		{-90.1, 0.0},
		{90.1, 0.0},
		{0.0, -180.1},
		{0.0, 180.1},
	}

	for _, c := range coords {
		request := rpc.AircraftPosition{
			Identifier:       "Aircraft",
			Geom:             &rpc.PointZ{Latitude: c.lat, Longitude: c.lon, AltitudeMeters: 100},
			TimestampNetwork: &now,
		}
		_, err := aircraftPositionFromRequest(request)
		if !errors.Is(err, ErrAircraftLocation) {
			t.Errorf("aircraftPositionFromRequest(%v, %v) = %v, want ErrAircraftLocation", c.lat, c.lon, err)
		}
	}

	// Missing geometry.
	request := rpc.AircraftPosition{
		Identifier:       "Aircraft",
		TimestampNetwork: &now,
	}
	if _, err := aircraftPositionFromRequest(request); !errors.Is(err, ErrAircraftLocation) {
		t.Errorf("missing geom = %v, want ErrAircraftLocation", err)
	}
}

func TestAircraftPositionFromRequestMissingTime(t *testing.T) {
	request := rpc.AircraftPosition{
		Identifier: "Aircraft",
		Geom:       &rpc.PointZ{},
	}
	if _, err := aircraftPositionFromRequest(request); !errors.Is(err, ErrAircraftTime) {
		t.Errorf("missing timestamp = %v, want ErrAircraftTime", err)
	}
}

func TestAircraftIDFromRequest(t *testing.T) {
	now := time.Now().UTC()

	record, err := aircraftIDFromRequest(rpc.AircraftID{
		Identifier:       "Marauder",
		AircraftType:     int32(AircraftTypeRotorcraft),
		TimestampNetwork: &now,
	})
	if err != nil {
		t.Fatalf("valid request error: %v", err)
	}
	if record.aircraftType != AircraftTypeRotorcraft {
		t.Errorf("aircraftType = %v, want rotorcraft", record.aircraftType)
	}

	// Unknown enum code is an error, never coerced.
	_, err = aircraftIDFromRequest(rpc.AircraftID{
		Identifier:       "Marauder",
		AircraftType:     999,
		TimestampNetwork: &now,
	})
	if !errors.Is(err, ErrAircraftID) {
		t.Errorf("unknown type code = %v, want ErrAircraftID", err)
	}

	_, err = aircraftIDFromRequest(rpc.AircraftID{
		Identifier:   "Marauder",
		AircraftType: int32(AircraftTypeAeroplane),
	})
	if !errors.Is(err, ErrAircraftTime) {
		t.Errorf("missing timestamp = %v, want ErrAircraftTime", err)
	}
}

func TestAircraftVelocityFromRequest(t *testing.T) {
	now := time.Now().UTC()

	record, err := aircraftVelocityFromRequest(rpc.AircraftVelocity{
		Identifier:                  "Ghost",
		VelocityHorizontalGroundMps: 12.5,
		VelocityVerticalMps:         -1.5,
		TrackAngleDegrees:           270,
		TimestampNetwork:            &now,
	})
	if err != nil {
		t.Fatalf("valid request error: %v", err)
	}
	if record.velocityHorizontalGroundMps != 12.5 || record.velocityVerticalMps != -1.5 {
		t.Errorf("velocities not preserved: %+v", record)
	}

	_, err = aircraftVelocityFromRequest(rpc.AircraftVelocity{Identifier: "Ghost"})
	if !errors.Is(err, ErrAircraftTime) {
		t.Errorf("missing timestamp = %v, want ErrAircraftTime", err)
	}
}

func TestUpdateAircraftEmptyBatch(t *testing.T) {
	// Empty batches fail before any session is acquired; the nil pool
	// would panic otherwise.
	db := newTestDB()
	ctx := context.Background()

	if err := db.UpdateAircraftID(ctx, nil); !errors.Is(err, ErrAircraftNoAircraft) {
		t.Errorf("UpdateAircraftID(empty) = %v, want ErrAircraftNoAircraft", err)
	}
	if err := db.UpdateAircraftPosition(ctx, nil); !errors.Is(err, ErrAircraftNoAircraft) {
		t.Errorf("UpdateAircraftPosition(empty) = %v, want ErrAircraftNoAircraft", err)
	}
	if err := db.UpdateAircraftVelocity(ctx, nil); !errors.Is(err, ErrAircraftNoAircraft) {
		t.Errorf("UpdateAircraftVelocity(empty) = %v, want ErrAircraftNoAircraft", err)
	}
}

func TestUpdateAircraftValidationBeforePool(t *testing.T) {
	// Invalid records are rejected before the pool is touched.
	db := newTestDB()
	ctx := context.Background()

	err := db.UpdateAircraftPosition(ctx, []rpc.AircraftPosition{{Identifier: "bad label"}})
	if !errors.Is(err, ErrAircraftLabel) {
		t.Errorf("invalid label = %v, want ErrAircraftLabel", err)
	}
}

func TestUpdateAircraftPositionRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		t.Skip("No PostGIS connection available")
	}
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	cleanup := func() {
		_, _ = db.pool.Exec(ctx, "DELETE FROM arrow.aircraft WHERE identifier = 'RoundTrip'")
	}
	cleanup()
	defer cleanup()

	position := rpc.AircraftPosition{
		Identifier: "RoundTrip",
		Geom: &rpc.PointZ{
			Latitude:       52.3745905,
			Longitude:      4.9160036,
			AltitudeMeters: 120,
		},
		TimestampNetwork: &now,
	}
	if err := db.UpdateAircraftPosition(ctx, []rpc.AircraftPosition{position}); err != nil {
		t.Fatalf("UpdateAircraftPosition() error: %v", err)
	}

	point, err := db.GetAircraftPointZ(ctx, "RoundTrip")
	if err != nil {
		t.Fatalf("GetAircraftPointZ() error: %v", err)
	}
	if point.Lat != 52.3745905 || point.Lon != 4.9160036 {
		t.Errorf("position = %+v, want submitted coordinates", point)
	}

	// Other streams' timestamps are untouched by a position write.
	var lastVelocity, lastIdentifier *time.Time
	err = db.pool.QueryRow(ctx, `
		SELECT last_velocity_update, last_identifier_update
		FROM arrow.aircraft WHERE identifier = 'RoundTrip'
	`).Scan(&lastVelocity, &lastIdentifier)
	if err != nil {
		t.Fatalf("read timestamps: %v", err)
	}
	if lastVelocity != nil || lastIdentifier != nil {
		t.Errorf("position write touched other streams: velocity=%v identifier=%v",
			lastVelocity, lastIdentifier)
	}
}
