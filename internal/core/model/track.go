package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrIndexOutOfRange = errors.New("waypoint index out of range")

// Track is an append-only list of waypoints recorded in one session.
// It is not safe for concurrent mutation; callers synchronize.
type Track struct {
	wayPoints      []WayPoint
	totalDistance  float64
	durationMillis int64
	policy         StopOverPolicy
	policySet      bool
}

type TrackSummary struct {
	Distance            string  `json:"distance"`
	Duration            string  `json:"duration"`
	Size                int     `json:"size"`
	StopOvers           int     `json:"stopOvers"`
	TotalDistanceMeters float64 `json:"totalDistanceMeters"`
	DurationMillis      int64   `json:"durationMillis"`
}

func NewTrack() *Track {
	return NewTrackWithPolicy(DefaultStopOverPolicy())
}

func NewTrackWithPolicy(policy StopOverPolicy) *Track {
	return &Track{
		wayPoints: make([]WayPoint, 0),
		policy:    policy,
		policySet: true,
	}
}

// AddWayPoint classifies position against the previous waypoint, appends it
// and returns the new waypoint. Every sample is accepted.
func (t *Track) AddWayPoint(position Position) WayPoint {
	stopOver := false
	if last, ok := t.LastWayPoint(); ok {
		added := last.Position().DistanceTo(position)
		// unusable coordinates add nothing rather than poisoning the total
		if math.IsNaN(added) || math.IsInf(added, 0) {
			added = 0
		}
		t.totalDistance += added
		stopOver = t.policy.IsStopOver(last.Position(), position)
	} else {
		t.totalDistance = 0
	}

	wayPoint := NewWayPoint(position, stopOver, t.totalDistance)
	t.wayPoints = append(t.wayPoints, wayPoint)
	return wayPoint
}

func (t *Track) SetTrackDuration(durationMillis int64) {
	t.durationMillis = durationMillis
}

func (t *Track) DurationMillis() int64 {
	return t.durationMillis
}

// TrackDuration formats the stored duration as hh:mm:ss.
func (t *Track) TrackDuration() string {
	return FormatDuration(t.durationMillis)
}

// TotalDistance returns the distance of the last waypoint, 0 for an empty track.
func (t *Track) TotalDistance() float64 {
	if last, ok := t.LastWayPoint(); ok {
		return last.DistanceToStartingPoint()
	}
	return 0
}

// TrackDistance formats the total distance in whole meters, e.g. "1234m".
func (t *Track) TrackDistance() string {
	return FormatDistance(t.TotalDistance())
}

func (t *Track) Size() int {
	return len(t.wayPoints)
}

// WayPoints returns a copy of the waypoints in recording order.
func (t *Track) WayPoints() []WayPoint {
	out := make([]WayPoint, len(t.wayPoints))
	copy(out, t.wayPoints)
	return out
}

func (t *Track) LastWayPoint() (WayPoint, bool) {
	if len(t.wayPoints) == 0 {
		return WayPoint{}, false
	}
	return t.wayPoints[len(t.wayPoints)-1], true
}

func (t *Track) WayPointLocation(index int) (Position, error) {
	if index < 0 || index >= len(t.wayPoints) {
		return Position{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(t.wayPoints))
	}
	return t.wayPoints[index].Position(), nil
}

func (t *Track) StopOverCount() int {
	count := 0
	for _, w := range t.wayPoints {
		if w.IsStopOver() {
			count++
		}
	}
	return count
}

func (t *Track) Policy() StopOverPolicy {
	return t.policy
}

func (t *Track) Summary() TrackSummary {
	return TrackSummary{
		Distance:            t.TrackDistance(),
		Duration:            t.TrackDuration(),
		Size:                t.Size(),
		StopOvers:           t.StopOverCount(),
		TotalDistanceMeters: t.TotalDistance(),
		DurationMillis:      t.durationMillis,
	}
}

func FormatDistance(meters float64) string {
	return fmt.Sprintf("%.0fm", meters)
}

// FormatDuration renders milliseconds as zero-padded hh:mm:ss, truncating at
// each unit. Hours are not wrapped at 24. Negative input renders as zero.
func FormatDuration(millis int64) string {
	if millis < 0 {
		millis = 0
	}
	hours := millis / time.Hour.Milliseconds()
	minutes := millis / time.Minute.Milliseconds() % 60
	seconds := millis / time.Second.Milliseconds() % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
