package model

import (
	"encoding/json"
	"time"

	"github.com/rahulyhg/trackbook/internal/core/util"
)

// WayPointRecord is the flattened form of a WayPoint.
type WayPointRecord struct {
	Position                Position `json:"position" bson:"position"`
	StopOver                bool     `json:"stopOver" bson:"stopOver"`
	DistanceToStartingPoint float64  `json:"distanceToStartingPoint" bson:"distanceToStartingPoint"`
}

// TrackRecord is the flattened form of a Track: the waypoints in order plus
// the scalar aggregates.
type TrackRecord struct {
	WayPoints      []WayPointRecord `json:"wayPoints" bson:"wayPoints"`
	TotalDistance  float64          `json:"totalDistance" bson:"totalDistance"`
	DurationMillis int64            `json:"durationMillis" bson:"durationMillis"`
}

func (t *Track) Record() TrackRecord {
	rec := TrackRecord{
		WayPoints:      make([]WayPointRecord, 0, len(t.wayPoints)),
		TotalDistance:  t.totalDistance,
		DurationMillis: t.durationMillis,
	}
	for _, w := range t.wayPoints {
		rec.WayPoints = append(rec.WayPoints, WayPointRecord{
			Position:                w.position,
			StopOver:                w.stopOver,
			DistanceToStartingPoint: w.distanceToStart,
		})
	}
	return rec
}

// RestoreTrack rebuilds a track from its record. Stored waypoints are trusted
// and not reclassified. The running total is taken from the last waypoint so
// that TotalDistance and later appends agree; rec.TotalDistance only matters
// for records without waypoints, where it is ignored.
func RestoreTrack(rec TrackRecord, policy StopOverPolicy) *Track {
	t := NewTrackWithPolicy(policy)
	t.wayPoints = make([]WayPoint, 0, len(rec.WayPoints))
	for _, w := range rec.WayPoints {
		t.wayPoints = append(t.wayPoints, NewWayPoint(w.Position, w.StopOver, w.DistanceToStartingPoint))
	}
	if n := len(t.wayPoints); n > 0 {
		t.totalDistance = t.wayPoints[n-1].distanceToStart
	}
	t.durationMillis = rec.DurationMillis
	return t
}

// MarshalJSON encodes the flattened record. Non-finite coordinates are
// written as null (see Position.MarshalJSON).
func (t *Track) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Record())
}

// UnmarshalJSON keeps the policy the receiver was built with. A zero Track
// that was never given one gets the default policy.
func (t *Track) UnmarshalJSON(data []byte) error {
	var rec TrackRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	policy := t.policy
	if !t.policySet {
		policy = DefaultStopOverPolicy()
	}
	*t = *RestoreTrack(rec, policy)
	return nil
}

// Recording is a finished (or live) recording session of one device.
type Recording struct {
	ID        string      `json:"id" bson:"_id"`
	DeviceID  string      `json:"deviceId" bson:"deviceId"`
	StartedAt time.Time   `json:"startedAt" bson:"startedAt"`
	StoppedAt time.Time   `json:"stoppedAt,omitempty" bson:"stoppedAt,omitempty"`
	Track     TrackRecord `json:"track" bson:"track"`
}

func NewRecording(deviceID string, startedAt time.Time) *Recording {
	return &Recording{
		ID:        util.GenerateID(),
		DeviceID:  deviceID,
		StartedAt: startedAt,
		Track:     TrackRecord{WayPoints: []WayPointRecord{}},
	}
}

func (r *Recording) Restore(policy StopOverPolicy) *Track {
	return RestoreTrack(r.Track, policy)
}
