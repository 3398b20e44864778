package model

import "math"

const (
	DefaultStopOverMinDistance    = 10.0
	DefaultStopOverAccuracyFactor = 1.0
)

// StopOverPolicy decides whether a new sample means the device stayed put.
// A sample is a stop-over when it lies closer to the previous waypoint than
// max(MinDistanceMeters, AccuracyFactor * worst reported accuracy).
type StopOverPolicy struct {
	MinDistanceMeters float64 `json:"minDistanceMeters" yaml:"min_distance_meters"`
	AccuracyFactor    float64 `json:"accuracyFactor" yaml:"accuracy_factor"`
}

func DefaultStopOverPolicy() StopOverPolicy {
	return StopOverPolicy{
		MinDistanceMeters: DefaultStopOverMinDistance,
		AccuracyFactor:    DefaultStopOverAccuracyFactor,
	}
}

// Threshold returns the stationary radius in meters for the pair.
func (p StopOverPolicy) Threshold(last, next Position) float64 {
	accuracy := math.Max(last.Accuracy, next.Accuracy)
	return math.Max(p.MinDistanceMeters, p.AccuracyFactor*accuracy)
}

func (p StopOverPolicy) IsStopOver(last, next Position) bool {
	return last.DistanceTo(next) < p.Threshold(last, next)
}
