package postgis

import (
	"context"
	"time"

	"svc_gis/internal/geo"
	"svc_gis/internal/rpc"
)

// Internal telemetry records. Produced by the adapters below, consumed by
// one transaction, dropped.

type aircraftID struct {
	identifier   string
	aircraftType AircraftType
	timestamp    time.Time
}

type aircraftPosition struct {
	identifier string
	geom       geo.PointZ
	timestamp  time.Time
}

type aircraftVelocity struct {
	identifier                  string
	velocityHorizontalGroundMps float32
	velocityVerticalMps         float32
	trackAngleDegrees           float32
	timestamp                   time.Time
}

func aircraftIDFromRequest(craft rpc.AircraftID) (aircraftID, error) {
	if err := geo.CheckIdentifier(craft.Identifier); err != nil {
		return aircraftID{}, ErrAircraftLabel
	}

	aircraftType, err := AircraftTypeFromCode(craft.AircraftType)
	if err != nil {
		return aircraftID{}, ErrAircraftID
	}

	if craft.TimestampNetwork == nil {
		return aircraftID{}, ErrAircraftTime
	}

	return aircraftID{
		identifier:   craft.Identifier,
		aircraftType: aircraftType,
		timestamp:    craft.TimestampNetwork.UTC(),
	}, nil
}

func aircraftPositionFromRequest(craft rpc.AircraftPosition) (aircraftPosition, error) {
	if err := geo.CheckIdentifier(craft.Identifier); err != nil {
		return aircraftPosition{}, ErrAircraftLabel
	}

	if craft.Geom == nil {
		return aircraftPosition{}, ErrAircraftLocation
	}

	point := geo.PointZ{
		Lon: craft.Geom.Longitude,
		Lat: craft.Geom.Latitude,
		Alt: float64(craft.Geom.AltitudeMeters),
	}
	if err := point.Validate(); err != nil {
		return aircraftPosition{}, ErrAircraftLocation
	}

	if craft.TimestampNetwork == nil {
		return aircraftPosition{}, ErrAircraftTime
	}

	return aircraftPosition{
		identifier: craft.Identifier,
		geom:       point,
		timestamp:  craft.TimestampNetwork.UTC(),
	}, nil
}

func aircraftVelocityFromRequest(craft rpc.AircraftVelocity) (aircraftVelocity, error) {
	if err := geo.CheckIdentifier(craft.Identifier); err != nil {
		return aircraftVelocity{}, ErrAircraftLabel
	}

	if craft.TimestampNetwork == nil {
		return aircraftVelocity{}, ErrAircraftTime
	}

	return aircraftVelocity{
		identifier:                  craft.Identifier,
		velocityHorizontalGroundMps: craft.VelocityHorizontalGroundMps,
		velocityVerticalMps:         craft.VelocityVerticalMps,
		trackAngleDegrees:           craft.TrackAngleDegrees,
		timestamp:                   craft.TimestampNetwork.UTC(),
	}, nil
}

// UpdateAircraftID upserts a batch of identity-stream records. The batch
// is validated in full before a connection is acquired and commits
// atomically; only identity-owned columns are touched on conflict.
func (d *DB) UpdateAircraftID(ctx context.Context, aircraft []rpc.AircraftID) error {
	if len(aircraft) == 0 {
		return ErrAircraftNoAircraft
	}

	records := make([]aircraftID, 0, len(aircraft))
	for _, craft := range aircraft {
		record, err := aircraftIDFromRequest(craft)
		if err != nil {
			d.log.Error().Err(err).Str("identifier", craft.Identifier).
				Msg("invalid aircraft id record")
			return err
		}
		records = append(records, record)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("could not get session from pool")
		return ErrAircraftClient
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const stmtName = "aircraft_id_upsert"
	if _, err := tx.Prepare(ctx, stmtName, `
		INSERT INTO arrow.aircraft (identifier, aircraft_type, last_identifier_update)
		VALUES ($1, $2, $3)
		ON CONFLICT (identifier) DO UPDATE
			SET aircraft_type = $2,
				last_identifier_update = $3;
	`); err != nil {
		d.log.Error().Err(err).Msg("could not prepare identity upsert")
		return ErrAircraftDB
	}

	for _, record := range records {
		if _, err := tx.Exec(ctx, stmtName,
			record.identifier, record.aircraftType.String(), record.timestamp,
		); err != nil {
			d.log.Error().Err(err).Str("identifier", record.identifier).
				Msg("could not execute identity upsert")
			return ErrAircraftDB
		}
	}

	if err := tx.Commit(ctx); err != nil {
		d.log.Error().Err(err).Msg("could not commit identity batch")
		return ErrAircraftDB
	}

	d.log.Debug().Int("count", len(records)).Msg("aircraft identity batch committed")
	return nil
}

// UpdateAircraftPosition upserts a batch of position-stream records.
func (d *DB) UpdateAircraftPosition(ctx context.Context, aircraft []rpc.AircraftPosition) error {
	if len(aircraft) == 0 {
		return ErrAircraftNoAircraft
	}

	records := make([]aircraftPosition, 0, len(aircraft))
	for _, craft := range aircraft {
		record, err := aircraftPositionFromRequest(craft)
		if err != nil {
			d.log.Error().Err(err).Str("identifier", craft.Identifier).
				Msg("invalid aircraft position record")
			return err
		}
		records = append(records, record)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("could not get session from pool")
		return ErrAircraftClient
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const stmtName = "aircraft_position_upsert"
	if _, err := tx.Prepare(ctx, stmtName, `
		INSERT INTO arrow.aircraft (identifier, geom, last_position_update)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3, $4), 4326), $5)
		ON CONFLICT (identifier) DO UPDATE
			SET geom = ST_SetSRID(ST_MakePoint($2, $3, $4), 4326),
				last_position_update = $5;
	`); err != nil {
		d.log.Error().Err(err).Msg("could not prepare position upsert")
		return ErrAircraftDB
	}

	for _, record := range records {
		if _, err := tx.Exec(ctx, stmtName,
			record.identifier,
			record.geom.Lon, record.geom.Lat, record.geom.Alt,
			record.timestamp,
		); err != nil {
			d.log.Error().Err(err).Str("identifier", record.identifier).
				Msg("could not execute position upsert")
			return ErrAircraftDB
		}
	}

	if err := tx.Commit(ctx); err != nil {
		d.log.Error().Err(err).Msg("could not commit position batch")
		return ErrAircraftDB
	}

	d.log.Debug().Int("count", len(records)).Msg("aircraft position batch committed")
	return nil
}

// UpdateAircraftVelocity upserts a batch of velocity-stream records.
func (d *DB) UpdateAircraftVelocity(ctx context.Context, aircraft []rpc.AircraftVelocity) error {
	if len(aircraft) == 0 {
		return ErrAircraftNoAircraft
	}

	records := make([]aircraftVelocity, 0, len(aircraft))
	for _, craft := range aircraft {
		record, err := aircraftVelocityFromRequest(craft)
		if err != nil {
			d.log.Error().Err(err).Str("identifier", craft.Identifier).
				Msg("invalid aircraft velocity record")
			return err
		}
		records = append(records, record)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("could not get session from pool")
		return ErrAircraftClient
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const stmtName = "aircraft_velocity_upsert"
	if _, err := tx.Prepare(ctx, stmtName, `
		INSERT INTO arrow.aircraft (
			identifier,
			velocity_horizontal_ground_mps,
			velocity_vertical_mps,
			track_angle_degrees,
			last_velocity_update
		) VALUES (
			$1, $2, $3, $4, $5
		) ON CONFLICT (identifier) DO UPDATE
			SET velocity_horizontal_ground_mps = $2,
				velocity_vertical_mps = $3,
				track_angle_degrees = $4,
				last_velocity_update = $5;
	`); err != nil {
		d.log.Error().Err(err).Msg("could not prepare velocity upsert")
		return ErrAircraftDB
	}

	for _, record := range records {
		if _, err := tx.Exec(ctx, stmtName,
			record.identifier,
			record.velocityHorizontalGroundMps,
			record.velocityVerticalMps,
			record.trackAngleDegrees,
			record.timestamp,
		); err != nil {
			d.log.Error().Err(err).Str("identifier", record.identifier).
				Msg("could not execute velocity upsert")
			return ErrAircraftDB
		}
	}

	if err := tx.Commit(ctx); err != nil {
		d.log.Error().Err(err).Msg("could not commit velocity batch")
		return ErrAircraftDB
	}

	d.log.Debug().Int("count", len(records)).Msg("aircraft velocity batch committed")
	return nil
}

// GetAircraftPointZ returns the last known position of an aircraft.
func (d *DB) GetAircraftPointZ(ctx context.Context, identifier string) (geo.PointZ, error) {
	var point geo.PointZ
	err := d.pool.QueryRow(ctx, `
		SELECT ST_X(geom), ST_Y(geom), ST_Z(geom)
		FROM arrow.aircraft
		WHERE identifier = $1 AND geom IS NOT NULL
	`, identifier).Scan(&point.Lon, &point.Lat, &point.Alt)
	if err != nil {
		d.log.Error().Err(err).Str("identifier", identifier).
			Msg("could not get aircraft position")
		return geo.PointZ{}, ErrAircraftDB
	}
	return point, nil
}
