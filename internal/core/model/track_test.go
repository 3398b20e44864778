package model

import (
	"errors"
	"math"
	"testing"
)

func samplePositions() []Position {
	return []Position{
		NewPosition(52.5200, 13.4050),
		NewPosition(52.5210, 13.4060),
		NewPosition(52.5210, 13.4060),
		NewPosition(52.5300, 13.4200),
		NewPosition(48.8566, 2.3522),
	}
}

func TestAddWayPointFirstSample(t *testing.T) {
	track := NewTrack()
	wp := track.AddWayPoint(NewPosition(52.52, 13.405))

	if wp.DistanceToStartingPoint() != 0 {
		t.Errorf("first waypoint distance = %v, want 0", wp.DistanceToStartingPoint())
	}
	if wp.IsStopOver() {
		t.Errorf("first waypoint must not be a stop-over")
	}
	if track.Size() != 1 {
		t.Errorf("Size() = %d, want 1", track.Size())
	}
}

func TestCumulativeDistance(t *testing.T) {
	track := NewTrack()
	positions := samplePositions()

	var want float64
	var prev float64
	for i, p := range positions {
		wp := track.AddWayPoint(p)
		if i > 0 {
			step := positions[i-1].DistanceTo(p)
			want += step
			if !almostEqual(wp.DistanceToStartingPoint()-prev, step, 1e-6) {
				t.Errorf("waypoint %d step = %v, want %v", i, wp.DistanceToStartingPoint()-prev, step)
			}
		}
		if wp.DistanceToStartingPoint() < prev {
			t.Errorf("waypoint %d distance decreased: %v < %v", i, wp.DistanceToStartingPoint(), prev)
		}
		prev = wp.DistanceToStartingPoint()
	}

	if !almostEqual(track.TotalDistance(), want, 1e-6) {
		t.Errorf("TotalDistance() = %v, want %v", track.TotalDistance(), want)
	}
	last, _ := track.LastWayPoint()
	if track.TotalDistance() != last.DistanceToStartingPoint() {
		t.Errorf("TotalDistance() = %v, last waypoint = %v", track.TotalDistance(), last.DistanceToStartingPoint())
	}
	if track.Size() != len(positions) {
		t.Errorf("Size() = %d, want %d", track.Size(), len(positions))
	}
}

func TestIdenticalPositionsKeepDistance(t *testing.T) {
	track := NewTrack()
	p := NewPosition(10, 10)
	for i := 0; i < 5; i++ {
		track.AddWayPoint(p)
	}
	if track.TotalDistance() != 0 {
		t.Errorf("TotalDistance() = %v, want 0", track.TotalDistance())
	}
	if track.StopOverCount() != 4 {
		t.Errorf("StopOverCount() = %d, want 4", track.StopOverCount())
	}
}

func TestMalformedPositionAccepted(t *testing.T) {
	track := NewTrack()
	track.AddWayPoint(NewPosition(0, 0))
	track.AddWayPoint(NewPosition(math.NaN(), 500))
	wp := track.AddWayPoint(NewPosition(89.9, -179.9))

	if track.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", track.Size())
	}
	if math.IsNaN(wp.DistanceToStartingPoint()) {
		t.Errorf("distance must stay a number after a bad sample")
	}
}

func TestStopOverClassification(t *testing.T) {
	policy := StopOverPolicy{MinDistanceMeters: 20, AccuracyFactor: 1}
	base := NewPosition(52.5200, 13.4050)

	tests := []struct {
		name string
		next Position
		want bool
	}{
		{name: "same spot", next: base, want: true},
		{name: "about 11m away", next: NewPosition(52.5201, 13.4050), want: true},
		{name: "about 111m away", next: NewPosition(52.5210, 13.4050), want: false},
		{
			name: "inside reported accuracy",
			next: Position{Latitude: 52.5210, Longitude: 13.4050, Accuracy: 150},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := NewTrackWithPolicy(policy)
			track.AddWayPoint(base)
			got := track.AddWayPoint(tt.next)
			if got.IsStopOver() != tt.want {
				t.Errorf("IsStopOver() = %v, want %v", got.IsStopOver(), tt.want)
			}
		})
	}
}

func TestStopOverNeverChangesDistance(t *testing.T) {
	a := NewTrackWithPolicy(StopOverPolicy{})
	b := NewTrackWithPolicy(StopOverPolicy{MinDistanceMeters: 1e7})
	for _, p := range samplePositions() {
		a.AddWayPoint(p)
		b.AddWayPoint(p)
	}
	if a.TotalDistance() != b.TotalDistance() {
		t.Errorf("distance depends on policy: %v vs %v", a.TotalDistance(), b.TotalDistance())
	}
	if a.StopOverCount() != 0 {
		t.Errorf("zero policy StopOverCount() = %d, want 0", a.StopOverCount())
	}
}

func TestTrackDuration(t *testing.T) {
	tests := []struct {
		millis int64
		want   string
	}{
		{0, "00:00:00"},
		{999, "00:00:00"},
		{59999, "00:00:59"},
		{3661000, "01:01:01"},
		{90000000, "25:00:00"},
		{-5000, "00:00:00"},
	}

	track := NewTrack()
	for _, tt := range tests {
		track.SetTrackDuration(tt.millis)
		if got := track.TrackDuration(); got != tt.want {
			t.Errorf("TrackDuration(%d) = %q, want %q", tt.millis, got, tt.want)
		}
	}
}

func TestTrackDistance(t *testing.T) {
	track := NewTrack()
	if got := track.TrackDistance(); got != "0m" {
		t.Errorf("empty TrackDistance() = %q, want \"0m\"", got)
	}

	track.AddWayPoint(NewPosition(0, 0))
	track.AddWayPoint(NewPosition(0, 0.001))
	if got := track.TrackDistance(); got != "111m" {
		t.Errorf("TrackDistance() = %q, want \"111m\"", got)
	}
}

func TestWayPointLocation(t *testing.T) {
	track := NewTrack()
	p := NewPosition(47.37, 8.54)
	track.AddWayPoint(p)

	got, err := track.WayPointLocation(0)
	if err != nil {
		t.Fatalf("WayPointLocation(0) unexpected error: %v", err)
	}
	if got != p {
		t.Errorf("WayPointLocation(0) = %+v, want %+v", got, p)
	}

	for _, idx := range []int{-1, track.Size(), 42} {
		if _, err := track.WayPointLocation(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("WayPointLocation(%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
	}

	// a failed lookup leaves the track usable
	track.AddWayPoint(NewPosition(47.38, 8.55))
	if track.Size() != 2 {
		t.Errorf("Size() = %d, want 2", track.Size())
	}
}

func TestWayPointsReturnsCopy(t *testing.T) {
	track := NewTrack()
	track.AddWayPoint(NewPosition(1, 1))
	track.AddWayPoint(NewPosition(2, 2))

	wps := track.WayPoints()
	wps[0] = NewWayPoint(NewPosition(9, 9), true, 1234)

	got, _ := track.WayPointLocation(0)
	if got.Latitude != 1 {
		t.Errorf("internal waypoint changed through returned slice")
	}
}

func TestSummary(t *testing.T) {
	track := NewTrack()
	track.AddWayPoint(NewPosition(0, 0))
	track.AddWayPoint(NewPosition(0, 0))
	track.SetTrackDuration(3661000)

	s := track.Summary()
	if s.Size != 2 || s.StopOvers != 1 || s.Duration != "01:01:01" || s.Distance != "0m" {
		t.Errorf("Summary() = %+v", s)
	}
}

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}
