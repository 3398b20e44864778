package model

import "testing"

func TestDistanceTo(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Position
		min, max float64
	}{
		{"same point", NewPosition(52.52, 13.405), NewPosition(52.52, 13.405), 0, 0.0001},
		{"berlin to paris", NewPosition(52.5200, 13.4050), NewPosition(48.8566, 2.3522), 870000, 890000},
		{"across the dateline", NewPosition(0, 179.999), NewPosition(0, -179.999), 200, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.a.DistanceTo(tt.b)
			if d < tt.min || d > tt.max {
				t.Errorf("DistanceTo() = %v, want within [%v, %v]", d, tt.min, tt.max)
			}
			if back := tt.b.DistanceTo(tt.a); !almostEqual(back, d, 1e-6) {
				t.Errorf("distance not symmetric: %v vs %v", d, back)
			}
		})
	}
}

func TestStopOverThreshold(t *testing.T) {
	policy := DefaultStopOverPolicy()
	a := Position{Latitude: 1, Longitude: 1}
	b := Position{Latitude: 1, Longitude: 1, Accuracy: 35}

	if got := policy.Threshold(a, a); got != DefaultStopOverMinDistance {
		t.Errorf("Threshold() without accuracy = %v, want %v", got, DefaultStopOverMinDistance)
	}
	if got := policy.Threshold(a, b); got != 35 {
		t.Errorf("Threshold() with accuracy = %v, want 35", got)
	}
	if !b.HasAccuracy() || a.HasAccuracy() {
		t.Errorf("HasAccuracy() mismatch")
	}
}
