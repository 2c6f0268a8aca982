// Package geo holds the latitude/longitude pair shared by visits and office
// locations.
package geo

import (
	"encoding/json"
	"math"
)

// Coordinate is a validated (latitude, longitude) pair. Invalid input is
// coerced to (0, 0) instead of being rejected, on both read and write paths.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewCoordinate returns (lat, lon), or (0, 0) when either value is non-finite
// or out of range.
func NewCoordinate(lat, lon float64) Coordinate {
	c := Coordinate{Latitude: lat, Longitude: lon}
	if !c.Valid() {
		return Coordinate{}
	}
	return c
}

// Valid reports whether both components are finite and within range.
func (c Coordinate) Valid() bool {
	return finite(c.Latitude) && finite(c.Longitude) &&
		c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// IsZero reports whether c is the (0, 0) placeholder.
func (c Coordinate) IsZero() bool { return c.Latitude == 0 && c.Longitude == 0 }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// MarshalJSON writes the coerced pair. NaN and Inf cannot be encoded as JSON
// numbers, so coercion here also keeps the encoder from failing.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	type raw Coordinate
	return json.Marshal(raw(NewCoordinate(c.Latitude, c.Longitude)))
}

// UnmarshalJSON reads the pair and coerces it.
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	type raw Coordinate
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*c = NewCoordinate(r.Latitude, r.Longitude)
	return nil
}
