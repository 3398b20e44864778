package model

// WayPoint is one classified observation of a track. It is never modified
// after construction.
type WayPoint struct {
	position        Position
	stopOver        bool
	distanceToStart float64
}

// NewWayPoint stores the given values as-is. Keeping the cumulative distance
// consistent is the job of the owning Track.
func NewWayPoint(position Position, stopOver bool, distanceToStart float64) WayPoint {
	return WayPoint{
		position:        position,
		stopOver:        stopOver,
		distanceToStart: distanceToStart,
	}
}

func (w WayPoint) Position() Position {
	return w.position
}

func (w WayPoint) IsStopOver() bool {
	return w.stopOver
}

// DistanceToStartingPoint is the track distance in meters up to and including
// this waypoint.
func (w WayPoint) DistanceToStartingPoint() float64 {
	return w.distanceToStart
}
