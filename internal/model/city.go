package model

import (
	"github.com/google/uuid"
)

// City is a coarse administrative area. Containment checks run against the
// stored bounding box, which is good enough for assigning an initiative to
// a city at creation time.
type City struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	CountryCode string    `json:"country_code" db:"country_code"`
	MinLon      float64   `json:"min_lon" db:"min_lon"`
	MinLat      float64   `json:"min_lat" db:"min_lat"`
	MaxLon      float64   `json:"max_lon" db:"max_lon"`
	MaxLat      float64   `json:"max_lat" db:"max_lat"`
}

// Contains reports whether the point falls inside the city's bounding box.
func (c *City) Contains(p GeoPoint) bool {
	return p.Longitude >= c.MinLon && p.Longitude <= c.MaxLon &&
		p.Latitude >= c.MinLat && p.Latitude <= c.MaxLat
}
