package postgis

import (
	"context"
	"fmt"
	"strings"
)

// Table names. The service owns everything under the arrow schema.
const (
	aircraftTable       = "arrow.aircraft"
	flightsTable        = "arrow.flights"
	flightSegmentsTable = "arrow.flight_segments"
)

func enumDeclaration(name string, values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return fmt.Sprintf(`DO $$ BEGIN
		CREATE TYPE %s AS ENUM (%s);
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$;`, name, strings.Join(quoted, ", "))
}

// InitSchema creates the arrow schema, enum types, tables and spatial
// indexes inside one transaction. Re-running against a populated database
// is a no-op; partial creation is never observable.
func (d *DB) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE SCHEMA IF NOT EXISTS arrow;`,
		enumDeclaration("aircrafttype", aircraftTypeNames),
		enumDeclaration("opstatus", opStatusNames),
		enumDeclaration("nodetype", nodeTypeNames),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			identifier VARCHAR(20) UNIQUE PRIMARY KEY NOT NULL,
			session_id VARCHAR(20),
			aircraft_type aircrafttype NOT NULL DEFAULT '%s',
			op_status opstatus NOT NULL DEFAULT '%s',
			velocity_horizontal_ground_mps FLOAT(4),
			velocity_vertical_mps FLOAT(4),
			track_angle_degrees FLOAT(4),
			geom GEOMETRY(POINTZ, 4326),
			last_identifier_update TIMESTAMPTZ,
			last_position_update TIMESTAMPTZ,
			last_velocity_update TIMESTAMPTZ
		);`, aircraftTable, AircraftTypeUndeclared, OpStatusUndeclared),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			flight_identifier VARCHAR(20) UNIQUE PRIMARY KEY NOT NULL,
			aircraft_identifier VARCHAR(20) NOT NULL,
			aircraft_type aircrafttype NOT NULL DEFAULT '%s',
			simulated BOOLEAN NOT NULL DEFAULT FALSE,
			geom GEOMETRY(LINESTRINGZ, 4326), -- full path
			isa GEOMETRY NOT NULL,            -- envelope
			time_start TIMESTAMPTZ,
			time_end TIMESTAMPTZ
		);`, flightsTable, AircraftTypeUndeclared),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			flight_identifier VARCHAR(20) NOT NULL,
			geom GEOMETRY(LINESTRINGZ, 4326),
			time_start TIMESTAMPTZ,
			time_end TIMESTAMPTZ,
			PRIMARY KEY (flight_identifier, time_start)
		);`, flightSegmentsTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS flights_geom_idx ON %s USING GIST (isa);`, flightsTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS flight_segments_geom_idx ON %s USING GIST (ST_Transform(geom, 4978));`, flightSegmentsTable),
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}

	d.log.Info().Msg("schema initialized")
	return nil
}
