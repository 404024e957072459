package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

// PointType is the only GeoJSON geometry type stored for hospital locations
const PointType = "Point"

// ErrInvalidCoordinate is returned when a latitude or longitude is out of range
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// DefaultOrigin is used when a patient location is unavailable (Mumbai)
var DefaultOrigin = Coordinate{Latitude: 19.0760, Longitude: 72.8777}

// Coordinate is a WGS-84 latitude/longitude pair in degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Validate checks that the coordinate is finite and within range
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrInvalidCoordinate, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// Point is a GeoJSON point. Coordinates are stored as [longitude, latitude].
type Point struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// NewPoint builds a GeoJSON point from a coordinate
func NewPoint(c Coordinate) Point {
	return Point{Type: PointType, Coordinates: []float64{c.Longitude, c.Latitude}}
}

// Coordinate converts the point back to a lat/lon pair. A malformed point yields the zero coordinate.
func (p Point) Coordinate() Coordinate {
	if len(p.Coordinates) != 2 {
		return Coordinate{}
	}
	return Coordinate{Latitude: p.Coordinates[1], Longitude: p.Coordinates[0]}
}

// Validate checks the GeoJSON shape and coordinate ranges
func (p Point) Validate() error {
	if p.Type != "" && p.Type != PointType {
		return fmt.Errorf("%w: geometry type must be %q, got %q", ErrInvalidCoordinate, PointType, p.Type)
	}
	if len(p.Coordinates) != 2 {
		return fmt.Errorf("%w: coordinates must be a list of [longitude, latitude]", ErrInvalidCoordinate)
	}
	return p.Coordinate().Validate()
}

// DistanceKm returns the haversine distance between two coordinates in kilometers
func DistanceKm(from, to Coordinate) float64 {
	dLat := degreesToRadians(to.Latitude - from.Latitude)
	dLon := degreesToRadians(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(from.Latitude))*math.Cos(degreesToRadians(to.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// LineStringType is the GeoJSON type for a route polyline
const LineStringType = "LineString"

// LineString is a GeoJSON polyline. Each position is [longitude, latitude].
type LineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// StraightLine returns a two-point line between from and to
func StraightLine(from, to Coordinate) LineString {
	return LineString{
		Type: LineStringType,
		Coordinates: [][]float64{
			{from.Longitude, from.Latitude},
			{to.Longitude, to.Latitude},
		},
	}
}
