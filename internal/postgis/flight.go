package postgis

import (
	"context"
	"time"

	"svc_gis/internal/geo"
	"svc_gis/internal/rpc"
)

// flightPath is the validated internal form of an UpdateFlightPathRequest.
type flightPath struct {
	flightIdentifier   string
	aircraftIdentifier string
	aircraftType       AircraftType
	simulated          bool
	timeStart          time.Time
	timeEnd            time.Time
	points             []geo.PointZ
}

func flightPathFromRequest(flight rpc.UpdateFlightPathRequest) (flightPath, error) {
	if flight.FlightIdentifier == nil {
		return flightPath{}, ErrFlightLabel
	}
	if err := geo.CheckIdentifier(*flight.FlightIdentifier); err != nil {
		return flightPath{}, ErrFlightLabel
	}

	if flight.AircraftIdentifier == nil {
		return flightPath{}, ErrFlightAircraftID
	}
	if err := geo.CheckIdentifier(*flight.AircraftIdentifier); err != nil {
		return flightPath{}, ErrFlightAircraftID
	}

	aircraftType, err := AircraftTypeFromCode(flight.AircraftType)
	if err != nil {
		return flightPath{}, ErrFlightAircraftType
	}

	if flight.TimestampStart == nil || flight.TimestampEnd == nil {
		return flightPath{}, ErrFlightTime
	}
	timeStart := flight.TimestampStart.UTC()
	timeEnd := flight.TimestampEnd.UTC()
	if timeEnd.Before(timeStart) {
		return flightPath{}, ErrFlightTime
	}

	if len(flight.Path) < 2 {
		return flightPath{}, ErrFlightSegments
	}
	points := make([]geo.PointZ, 0, len(flight.Path))
	for _, p := range flight.Path {
		point := geo.PointZ{Lon: p.Longitude, Lat: p.Latitude, Alt: float64(p.AltitudeMeters)}
		if err := point.Validate(); err != nil {
			return flightPath{}, ErrFlightLocation
		}
		points = append(points, point)
	}

	return flightPath{
		flightIdentifier:   *flight.FlightIdentifier,
		aircraftIdentifier: *flight.AircraftIdentifier,
		aircraftType:       aircraftType,
		simulated:          flight.Simulated,
		timeStart:          timeStart,
		timeEnd:            timeEnd,
		points:             points,
	}, nil
}

// UpdateFlightPath upserts the flight row and replaces all of its segments
// in one transaction. Readers observe either the old complete path or the
// new complete path, never a mixture. The aircraft's session_id is pointed
// at the flight in the same transaction.
func (d *DB) UpdateFlightPath(ctx context.Context, flight rpc.UpdateFlightPathRequest) error {
	record, err := flightPathFromRequest(flight)
	if err != nil {
		d.log.Error().Err(err).Msg("invalid flight path request")
		return err
	}

	segments, err := geo.Segmentize(record.points, record.timeStart, record.timeEnd, geo.MaxFlightSegmentLengthMeters)
	if err != nil {
		d.log.Error().Err(err).Str("flight", record.flightIdentifier).
			Msg("could not segmentize path")
		return ErrFlightSegments
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("could not get session from pool")
		return ErrFlightClient
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO arrow.flights (
			flight_identifier,
			aircraft_identifier,
			aircraft_type,
			simulated,
			time_start,
			time_end,
			geom,
			isa
		)
		VALUES ($1, $2, $3, $4, $5, $6, ST_GeomFromEWKT($7), ST_Envelope(ST_GeomFromEWKT($7)))
		ON CONFLICT (flight_identifier) DO UPDATE
			SET aircraft_identifier = EXCLUDED.aircraft_identifier,
				aircraft_type = EXCLUDED.aircraft_type,
				simulated = EXCLUDED.simulated,
				geom = EXCLUDED.geom,
				isa = EXCLUDED.isa,
				time_start = EXCLUDED.time_start,
				time_end = EXCLUDED.time_end;
	`,
		record.flightIdentifier,
		record.aircraftIdentifier,
		record.aircraftType.String(),
		record.simulated,
		record.timeStart,
		record.timeEnd,
		geo.LineStringZEWKT(record.points),
	); err != nil {
		d.log.Error().Err(err).Str("flight", record.flightIdentifier).
			Msg("could not upsert flight")
		return ErrFlightDB
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM arrow.flight_segments WHERE flight_identifier = $1;`,
		record.flightIdentifier,
	); err != nil {
		d.log.Error().Err(err).Str("flight", record.flightIdentifier).
			Msg("could not delete stale segments")
		return ErrFlightDB
	}

	const stmtName = "flight_segment_insert"
	if _, err := tx.Prepare(ctx, stmtName, `
		INSERT INTO arrow.flight_segments (
			flight_identifier,
			geom,
			time_start,
			time_end
		) VALUES ($1, ST_GeomFromEWKT($2), $3, $4);
	`); err != nil {
		d.log.Error().Err(err).Msg("could not prepare segment insert")
		return ErrFlightDB
	}

	for _, segment := range segments {
		if _, err := tx.Exec(ctx, stmtName,
			record.flightIdentifier,
			segment.EWKT(),
			segment.TimeStart,
			segment.TimeEnd,
		); err != nil {
			d.log.Error().Err(err).Str("flight", record.flightIdentifier).
				Msg("could not insert segment")
			return ErrFlightDB
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE arrow.aircraft SET session_id = $1 WHERE identifier = $2;
	`, record.flightIdentifier, record.aircraftIdentifier); err != nil {
		d.log.Error().Err(err).Str("flight", record.flightIdentifier).
			Msg("could not update aircraft session")
		return ErrFlightDB
	}

	if err := tx.Commit(ctx); err != nil {
		d.log.Error().Err(err).Str("flight", record.flightIdentifier).
			Msg("could not commit flight path")
		return ErrFlightDB
	}

	d.log.Info().Str("flight", record.flightIdentifier).
		Int("segments", len(segments)).Msg("flight path updated")
	return nil
}

// GetFlights returns flights whose envelope intersects the window within
// the interval, plus aircraft whose last-known position lies inside the
// window and was observed in the interval (grounded or pre-flight aircraft
// without a scheduled flight).
func (d *DB) GetFlights(ctx context.Context, request rpc.GetFlightsRequest) ([]rpc.Flight, error) {
	if request.TimeStart == nil || request.TimeEnd == nil {
		d.log.Error().Msg("get flights: time window is required")
		return nil, ErrFlightTime
	}
	timeStart := request.TimeStart.UTC()
	timeEnd := request.TimeEnd.UTC()

	rows, err := d.pool.Query(ctx, `
		SELECT
			flights.flight_identifier AS session_id,
			aircraft.identifier AS aircraft_identifier,
			aircraft.aircraft_type::TEXT AS aircraft_type,
			COALESCE(flights.simulated, FALSE) AS simulated
		FROM arrow.aircraft AS aircraft
		LEFT JOIN arrow.flights AS flights
			ON (
				flights.aircraft_identifier = aircraft.identifier
				OR flights.flight_identifier = aircraft.session_id
			)
		WHERE
			(
				-- grounded aircraft without a scheduled flight
				ST_Intersects(ST_MakeEnvelope($1, $2, $3, $4, 4326), aircraft.geom)
				AND aircraft.last_position_update >= $5
				AND aircraft.last_position_update <= $6
			) OR (
				-- flights that intersect this window
				flights.geom IS NOT NULL
				AND ST_Intersects(ST_MakeEnvelope($1, $2, $3, $4, 4326), flights.geom)
				AND flights.time_end >= $5
				AND flights.time_start <= $6
			);
	`,
		request.WindowMinX, request.WindowMinY,
		request.WindowMaxX, request.WindowMaxY,
		timeStart, timeEnd,
	)
	if err != nil {
		d.log.Error().Err(err).Msg("could not query flights")
		return nil, ErrFlightDB
	}
	defer rows.Close()

	var flights []rpc.Flight
	for rows.Next() {
		var sessionID, aircraftID *string
		var typeName string
		var simulated bool
		if err := rows.Scan(&sessionID, &aircraftID, &typeName, &simulated); err != nil {
			d.log.Error().Err(err).Msg("could not scan flight row")
			return nil, ErrFlightDB
		}
		flights = append(flights, rpc.Flight{
			SessionID:    sessionID,
			AircraftID:   aircraftID,
			Simulated:    simulated,
			AircraftType: int32(aircraftTypeFromName(typeName)),
		})
	}
	if err := rows.Err(); err != nil {
		d.log.Error().Err(err).Msg("could not read flight rows")
		return nil, ErrFlightDB
	}

	d.log.Debug().Int("count", len(flights)).Msg("flights matched window")

	result := make([]rpc.Flight, 0, len(flights))
	for _, flight := range flights {
		snapshot, err := d.aircraftSnapshot(ctx, flight.SessionID, flight.AircraftID)
		if err != nil {
			d.log.Error().Err(err).Msg("could not get telemetry snapshot")
			continue
		}
		if snapshot == nil {
			result = append(result, flight)
			continue
		}

		flight.SessionID = snapshot.sessionID
		flight.AircraftID = snapshot.identifier
		position := &rpc.PointZ{
			Latitude:       snapshot.geom.Lat,
			Longitude:      snapshot.geom.Lon,
			AltitudeMeters: float32(snapshot.geom.Alt),
		}
		timestamp := snapshot.lastPositionUpdate
		flight.Positions = append(flight.Positions, rpc.TimePosition{
			Position:  position,
			Timestamp: &timestamp,
		})
		flight.State = &rpc.AircraftState{
			Timestamp:         &timestamp,
			GroundSpeedMps:    snapshot.velocityHorizontalGroundMps,
			VerticalSpeedMps:  snapshot.velocityVerticalMps,
			TrackAngleDegrees: snapshot.trackAngleDegrees,
			Position:          position,
			Status:            int32(snapshot.status),
		}
		result = append(result, flight)
	}

	return result, nil
}

type telemetrySnapshot struct {
	identifier                  *string
	sessionID                   *string
	geom                        geo.PointZ
	velocityHorizontalGroundMps float32
	velocityVerticalMps         float32
	trackAngleDegrees           float32
	lastPositionUpdate          time.Time
	status                      OperationalStatus
}

// aircraftSnapshot fetches the current telemetry for a flight's aircraft.
// Returns nil when no aircraft row with a position is found.
func (d *DB) aircraftSnapshot(ctx context.Context, sessionID, identifier *string) (*telemetrySnapshot, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT
			identifier,
			session_id,
			ST_X(geom), ST_Y(geom), ST_Z(geom),
			velocity_horizontal_ground_mps,
			velocity_vertical_mps,
			track_angle_degrees,
			last_position_update,
			op_status::TEXT
		FROM arrow.aircraft
		WHERE (session_id = $1 OR identifier = $2)
			AND geom IS NOT NULL
			AND last_position_update IS NOT NULL
		LIMIT 1;
	`, sessionID, identifier)
	if err != nil {
		return nil, ErrFlightDB
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var snapshot telemetrySnapshot
	var vh, vv, track *float32
	var statusName string
	if err := rows.Scan(
		&snapshot.identifier,
		&snapshot.sessionID,
		&snapshot.geom.Lon, &snapshot.geom.Lat, &snapshot.geom.Alt,
		&vh, &vv, &track,
		&snapshot.lastPositionUpdate,
		&statusName,
	); err != nil {
		return nil, ErrFlightDB
	}
	if vh != nil {
		snapshot.velocityHorizontalGroundMps = *vh
	}
	if vv != nil {
		snapshot.velocityVerticalMps = *vv
	}
	if track != nil {
		snapshot.trackAngleDegrees = *track
	}
	snapshot.status = opStatusFromName(statusName)

	return &snapshot, nil
}

// FlightIntersection describes a scheduled flight passing within range of
// a geometry during a time window.
type FlightIntersection struct {
	FlightIdentifier   string
	AircraftIdentifier string
	TimeStart          time.Time
	TimeEnd            time.Time
}

// FlightIntersects is an existence test: it returns the first
// non-simulated flight with a segment within rangeMeters of the geometry
// (3D, SRID 4978) whose window overlaps [timeStart, timeEnd], or nil.
func (d *DB) FlightIntersects(ctx context.Context, geomEWKT string, rangeMeters float64, timeStart, timeEnd time.Time) (*FlightIntersection, error) {
	rows, err := d.pool.Query(ctx, `
		WITH segments AS (
			SELECT flight_identifier
			FROM arrow.flight_segments
			WHERE
				(time_start <= $4 OR time_start IS NULL)
				AND (time_end >= $3 OR time_end IS NULL)
				AND ST_3DDWithin(
					ST_Transform(geom, 4978),
					ST_Transform(ST_GeomFromEWKT($1), 4978),
					$2
				)
		)
		SELECT
			flight_identifier,
			aircraft_identifier,
			time_start,
			time_end
		FROM arrow.flights
		WHERE flight_identifier IN (SELECT flight_identifier FROM segments)
			AND simulated = FALSE
		LIMIT 1;
	`, geomEWKT, rangeMeters, timeStart, timeEnd)
	if err != nil {
		d.log.Error().Err(err).Msg("could not query flight intersection")
		return nil, ErrFlightDB
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			d.log.Error().Err(err).Msg("could not read flight intersection")
			return nil, ErrFlightDB
		}
		return nil, nil
	}

	var hit FlightIntersection
	if err := rows.Scan(&hit.FlightIdentifier, &hit.AircraftIdentifier, &hit.TimeStart, &hit.TimeEnd); err != nil {
		d.log.Error().Err(err).Msg("could not scan flight intersection")
		return nil, ErrFlightDB
	}
	return &hit, nil
}
