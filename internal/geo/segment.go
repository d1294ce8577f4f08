package geo

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MaxFlightSegmentLengthMeters bounds the 3D length of a flight segment.
const MaxFlightSegmentLengthMeters = 40.0

// Segment is one length-bounded piece of a flight path with its own time
// window. Start and End are the two vertices of the segment linestring.
type Segment struct {
	Start     PointZ
	End       PointZ
	TimeStart time.Time
	TimeEnd   time.Time
}

// EWKT renders the segment as a two-vertex LINESTRING Z.
func (s Segment) EWKT() string {
	return LineStringZEWKT([]PointZ{s.Start, s.End})
}

// LengthMeters is the segment's 3D length.
func (s Segment) LengthMeters() float64 {
	return DistanceMeters(s.Start, s.End)
}

// Segmentize cuts a polyline into segments no longer than maxLen meters,
// assigning each a time window by linear interpolation of [start, end]
// along cumulative arc length. Consecutive segments abut exactly: segment
// k+1 starts at the point and instant segment k ends.
func Segmentize(points []PointZ, start, end time.Time, maxLen float64) ([]Segment, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 points, got %d", len(points))
	}
	if maxLen <= 0 {
		return nil, fmt.Errorf("invalid max segment length %v", maxLen)
	}

	edges := make([]float64, len(points)-1)
	total := 0.0
	for i := range edges {
		edges[i] = DistanceMeters(points[i], points[i+1])
		total += edges[i]
	}
	if total == 0 {
		return nil, errors.New("degenerate path: total length is zero")
	}

	duration := end.Sub(start)
	timeAt := func(s float64) time.Time {
		if s >= total {
			return end
		}
		return start.Add(time.Duration(float64(duration) * (s / total)))
	}

	var segments []Segment
	cum := 0.0
	for i, d := range edges {
		if d == 0 {
			continue
		}
		n := int(math.Ceil(d / maxLen))
		for k := 0; k < n; k++ {
			f0 := float64(k) / float64(n)
			f1 := float64(k+1) / float64(n)
			segments = append(segments, Segment{
				Start:     lerp(points[i], points[i+1], f0),
				End:       lerp(points[i], points[i+1], f1),
				TimeStart: timeAt(cum + d*f0),
				TimeEnd:   timeAt(cum + d*f1),
			})
		}
		cum += d
	}

	return segments, nil
}
