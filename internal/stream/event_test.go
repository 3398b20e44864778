package stream

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/rahulyhg/trackbook/internal/core/model"
)

func TestWayPointEventEncodesNonFinitePosition(t *testing.T) {
	track := model.NewTrack()
	track.AddWayPoint(model.NewPosition(1, 1))
	wp := track.AddWayPoint(model.NewPosition(math.NaN(), 1))

	payload, err := NewWayPointEvent("dev-1", 1, wp, track.Summary()).Encode()
	if err != nil {
		t.Fatalf("Encode() unexpected error: %v", err)
	}

	var decoded WayPointEvent
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal() unexpected error: %v", err)
	}
	if decoded.Index != 1 || decoded.WayPoint.Position.Longitude != 1 {
		t.Errorf("decoded event = %+v", decoded)
	}
	if decoded.Summary.Size != 2 {
		t.Errorf("summary size = %d, want 2", decoded.Summary.Size)
	}
}
