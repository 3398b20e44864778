package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/rahulyhg/trackbook/internal/core/model"
)

// TrackGeoJSON renders the track as a LineString over every waypoint plus
// one Point per stop-over. A single-waypoint track yields just a Point.
func TrackGeoJSON(track *model.Track) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	wayPoints := track.WayPoints()
	summary := track.Summary()

	switch len(wayPoints) {
	case 0:
	case 1:
		f := geojson.NewFeature(wayPoints[0].Position().Point())
		f.Properties["kind"] = "start"
		fc.Append(f)
	default:
		line := make(orb.LineString, 0, len(wayPoints))
		for _, w := range wayPoints {
			line = append(line, w.Position().Point())
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "track"
		f.Properties["distance"] = summary.Distance
		f.Properties["duration"] = summary.Duration
		f.Properties["size"] = summary.Size
		f.Properties["totalDistanceMeters"] = summary.TotalDistanceMeters
		fc.Append(f)
	}

	for i, w := range wayPoints {
		if !w.IsStopOver() {
			continue
		}
		f := geojson.NewFeature(w.Position().Point())
		f.Properties["kind"] = "stopover"
		f.Properties["index"] = i
		f.Properties["distanceToStartingPoint"] = w.DistanceToStartingPoint()
		if !w.Position().Timestamp.IsZero() {
			f.Properties["timestamp"] = w.Position().Timestamp
		}
		fc.Append(f)
	}
	return fc
}

// RecordingGeoJSON is TrackGeoJSON with the recording identity attached.
func RecordingGeoJSON(rec *model.Recording, policy model.StopOverPolicy) *geojson.FeatureCollection {
	fc := TrackGeoJSON(rec.Restore(policy))
	fc.ExtraMembers = geojson.Properties{
		"id":        rec.ID,
		"deviceId":  rec.DeviceID,
		"startedAt": rec.StartedAt,
	}
	return fc
}
