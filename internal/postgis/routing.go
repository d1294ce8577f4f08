package postgis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"svc_gis/internal/rpc"
)

// Routing delegates path search to stored procedures in the database;
// this layer validates the request and maps result columns positionally.

// PathType selects the best-path stored procedure.
type PathType int

// Path types.
const (
	// PathPortToPort routes between two vertiports.
	PathPortToPort PathType = iota

	// PathAircraftToPort routes from an in-flight aircraft to a vertiport.
	PathAircraftToPort
)

// Corridors are not modeled yet; every leg reports this altitude.
const pathAltitudeMeters = 1000.0

// DefaultRoutingHorizon bounds the search window when the request leaves
// the end time open.
const DefaultRoutingHorizon = 24 * time.Hour

type pathRequest struct {
	nodeUUIDStart uuid.UUID
	nodeUUIDEnd   uuid.UUID
	timeStart     time.Time
	timeEnd       time.Time
}

// sanitizePathRequest validates UUIDs and the time window, applying the
// [now, now+24h] defaults. Windows ending in the past are rejected.
func sanitizePathRequest(request rpc.BestPathRequest, now time.Time) (pathRequest, error) {
	nodeStart, err := uuid.Parse(request.NodeUUIDStart)
	if err != nil {
		return pathRequest{}, ErrPathInvalidStartNode
	}

	nodeEnd, err := uuid.Parse(request.NodeUUIDEnd)
	if err != nil {
		return pathRequest{}, ErrPathInvalidEndNode
	}

	timeStart := now
	if request.TimeStart != nil {
		timeStart = request.TimeStart.UTC()
	}

	timeEnd := now.Add(DefaultRoutingHorizon)
	if request.TimeEnd != nil {
		timeEnd = request.TimeEnd.UTC()
	}

	if timeEnd.Before(timeStart) {
		return pathRequest{}, ErrPathInvalidTimeWindow
	}
	if timeEnd.Before(now) {
		return pathRequest{}, ErrPathInvalidEndTime
	}

	return pathRequest{
		nodeUUIDStart: nodeStart,
		nodeUUIDEnd:   nodeEnd,
		timeStart:     timeStart,
		timeEnd:       timeEnd,
	}, nil
}

// BestPath verifies that a flight between two nodes is physically
// possible within the window and returns the legs of the best route. The
// search itself runs in the database; an empty result means no path.
func (d *DB) BestPath(ctx context.Context, pathType PathType, request rpc.BestPathRequest) ([]rpc.PathSegment, error) {
	record, err := sanitizePathRequest(request, time.Now().UTC())
	if err != nil {
		d.log.Error().Err(err).Msg("invalid best path request")
		return nil, err
	}

	fnName := "best_path_p2p"
	if pathType == PathAircraftToPort {
		fnName = "best_path_a2p"
	}

	rows, err := d.pool.Query(ctx,
		`SELECT * FROM arrow.`+fnName+`($1::UUID, $2::UUID, $3::TIMESTAMPTZ, $4::TIMESTAMPTZ);`,
		record.nodeUUIDStart.String(), record.nodeUUIDEnd.String(), record.timeStart, record.timeEnd,
	)
	if err != nil {
		d.log.Error().Err(err).Str("procedure", fnName).Msg("could not request routes")
		return nil, ErrPathUnknown
	}
	defer rows.Close()

	var results []rpc.PathSegment
	for rows.Next() {
		var index int32
		var startTypeName, endTypeName string
		var startLat, startLon, endLat, endLon, distance float64
		if err := rows.Scan(
			&index,
			&startTypeName, &startLat, &startLon,
			&endTypeName, &endLat, &endLon,
			&distance,
		); err != nil {
			d.log.Error().Err(err).Str("procedure", fnName).Msg("could not scan path segment")
			return nil, ErrPathUnknown
		}

		results = append(results, rpc.PathSegment{
			Index:          index,
			StartType:      int32(nodeTypeFromName(startTypeName)),
			StartLatitude:  float32(startLat),
			StartLongitude: float32(startLon),
			EndType:        int32(nodeTypeFromName(endTypeName)),
			EndLatitude:    float32(endLat),
			EndLongitude:   float32(endLon),
			DistanceMeters: float32(distance),
			AltitudeMeters: pathAltitudeMeters,
		})
	}
	if err := rows.Err(); err != nil {
		d.log.Error().Err(err).Str("procedure", fnName).Msg("could not read path segments")
		return nil, ErrPathUnknown
	}

	d.log.Debug().Int("segments", len(results)).Str("procedure", fnName).Msg("best path computed")
	return results, nil
}
