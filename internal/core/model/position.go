package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Position is a single raw location sample as delivered by a device or client.
type Position struct {
	Latitude  float64   `json:"latitude" bson:"latitude"`
	Longitude float64   `json:"longitude" bson:"longitude"`
	Altitude  float64   `json:"altitude,omitempty" bson:"altitude,omitempty"`
	Accuracy  float64   `json:"accuracy,omitempty" bson:"accuracy,omitempty"` // meters, 0 = unknown
	Speed     float64   `json:"speed,omitempty" bson:"speed,omitempty"`       // m/s
	Bearing   float64   `json:"bearing,omitempty" bson:"bearing,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Provider  string    `json:"provider,omitempty" bson:"provider,omitempty"`
}

func NewPosition(lat, lon float64) Position {
	return Position{
		Latitude:  lat,
		Longitude: lon,
		Timestamp: time.Now(),
		Provider:  "unknown",
	}
}

// Point returns the position as an orb point (lon, lat order).
func (p Position) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// DistanceTo returns the great-circle distance to other in meters.
func (p Position) DistanceTo(other Position) float64 {
	return geo.DistanceHaversine(p.Point(), other.Point())
}

func (p Position) HasAccuracy() bool {
	return p.Accuracy > 0
}

// MarshalJSON writes non-finite coordinates as null, which encoding/json
// would otherwise reject. Decoding null leaves the field at zero.
func (p Position) MarshalJSON() ([]byte, error) {
	type plain Position
	return json.Marshal(struct {
		plain
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Altitude  *float64 `json:"altitude,omitempty"`
		Accuracy  *float64 `json:"accuracy,omitempty"`
		Speed     *float64 `json:"speed,omitempty"`
		Bearing   *float64 `json:"bearing,omitempty"`
	}{
		plain:     plain(p),
		Latitude:  finite(p.Latitude),
		Longitude: finite(p.Longitude),
		Altitude:  nonZero(p.Altitude),
		Accuracy:  nonZero(p.Accuracy),
		Speed:     nonZero(p.Speed),
		Bearing:   nonZero(p.Bearing),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nonZero(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return finite(v)
}
