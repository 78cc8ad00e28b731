package domain

import "fmt"

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

func NewCoordinates(lat, lon float64) Coordinates {
	return Coordinates{Lon: lon, Lat: lat}
}

// Key is a stable textual form used for cache keys and stub lookups.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}
