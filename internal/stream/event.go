package stream

import (
	"encoding/json"

	"github.com/rahulyhg/trackbook/internal/core/model"
)

// WayPointEvent is what live subscribers receive for every appended sample.
type WayPointEvent struct {
	DeviceID string               `json:"deviceId"`
	Index    int                  `json:"index"`
	WayPoint model.WayPointRecord `json:"wayPoint"`
	Summary  model.TrackSummary   `json:"summary"`
}

func NewWayPointEvent(deviceID string, index int, wp model.WayPoint, summary model.TrackSummary) WayPointEvent {
	return WayPointEvent{
		DeviceID: deviceID,
		Index:    index,
		WayPoint: model.WayPointRecord{
			Position:                wp.Position(),
			StopOver:                wp.IsStopOver(),
			DistanceToStartingPoint: wp.DistanceToStartingPoint(),
		},
		Summary: summary,
	}
}

func (e WayPointEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}
