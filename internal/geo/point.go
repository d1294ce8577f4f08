// Package geo holds the 3D point and polyline primitives shared by the
// writers and the query layer: validation, EWKT encoding for PostGIS, and
// distance math used by the segmentizer.
package geo

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/samber/lo"
)

// DefaultSRID is the geographic coordinate system all geometries are
// stored in (WGS84 lon/lat degrees, altitude in meters).
const DefaultSRID = 4326

// IdentifierRegex restricts aircraft and flight identifiers.
const IdentifierRegex = `^[-0-9A-Za-z_.]{1,255}$`

var identifierRe = regexp.MustCompile(IdentifierRegex)

// CheckIdentifier verifies that an identifier matches IdentifierRegex.
// Quotes, semicolons and spaces never match, so an identifier that passes
// is safe to log verbatim.
func CheckIdentifier(identifier string) error {
	if identifier == "" {
		return errors.New("identifier is empty")
	}
	if len(identifier) > 255 {
		return fmt.Errorf("identifier exceeds 255 bytes (%d)", len(identifier))
	}
	if !identifierRe.MatchString(identifier) {
		return fmt.Errorf("identifier %q contains disallowed characters", identifier)
	}
	return nil
}

// PointZ is a 3D point in SRID 4326: longitude and latitude in degrees,
// altitude in meters.
type PointZ struct {
	Lon float64
	Lat float64
	Alt float64
}

// Validate range-checks the coordinates. Altitude must be finite.
func (p PointZ) Validate() error {
	if p.Lat < -90 || p.Lat > 90 || math.IsNaN(p.Lat) {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 || math.IsNaN(p.Lon) {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Lon)
	}
	if math.IsNaN(p.Alt) || math.IsInf(p.Alt, 0) {
		return fmt.Errorf("altitude %v is not finite", p.Alt)
	}
	return nil
}

// Orb returns the 2D ground projection of the point.
func (p PointZ) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func (p PointZ) wkt() string {
	return fmt.Sprintf("%v %v %v", p.Lon, p.Lat, p.Alt)
}

// EWKT renders the point as extended WKT for ST_GeomFromEWKT.
func (p PointZ) EWKT() string {
	return fmt.Sprintf("SRID=%d;POINT Z (%s)", DefaultSRID, p.wkt())
}

// LineStringZEWKT renders an ordered polyline as extended WKT.
func LineStringZEWKT(points []PointZ) string {
	coords := lo.Map(points, func(p PointZ, _ int) string { return p.wkt() })
	return fmt.Sprintf("SRID=%d;LINESTRING Z (%s)", DefaultSRID, strings.Join(coords, ", "))
}

// DistanceMeters returns the 3D distance between two points: geodesic
// ground distance combined with the altitude delta.
func DistanceMeters(a, b PointZ) float64 {
	ground := orbgeo.Distance(a.Orb(), b.Orb())
	dz := b.Alt - a.Alt
	return math.Sqrt(ground*ground + dz*dz)
}

func lerp(a, b PointZ, t float64) PointZ {
	if t == 1 {
		return b
	}
	return PointZ{
		Lon: a.Lon + (b.Lon-a.Lon)*t,
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Alt: a.Alt + (b.Alt-a.Alt)*t,
	}
}
