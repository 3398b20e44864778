package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rahulyhg/trackbook/internal/core/model"
)

func newRecording(deviceID string, start time.Time) *model.Recording {
	track := model.NewTrack()
	track.AddWayPoint(model.NewPosition(1, 1))
	track.AddWayPoint(model.NewPosition(1, 1.01))
	rec := model.NewRecording(deviceID, start)
	rec.Track = track.Record()
	return rec
}

func TestInMemoryTrackRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryTrackRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	late := newRecording("dev-1", base.Add(time.Hour))
	early := newRecording("dev-1", base)
	other := newRecording("dev-2", base)
	for _, rec := range []*model.Recording{late, early, other} {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
	}

	if err := repo.Create(ctx, early); !errors.Is(err, ErrDuplicateTrack) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicateTrack", err)
	}

	got, err := repo.FindByID(ctx, early.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID() = %v, %v", got, err)
	}
	if len(got.Track.WayPoints) != 2 || got.Track.TotalDistance != early.Track.TotalDistance {
		t.Errorf("FindByID() returned %+v", got.Track)
	}

	missing, err := repo.FindByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("FindByID(missing) = %v, %v, want nil, nil", missing, err)
	}

	list, err := repo.FindByDeviceID(ctx, "dev-1")
	if err != nil {
		t.Fatalf("FindByDeviceID() unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != early.ID || list[1].ID != late.ID {
		t.Errorf("FindByDeviceID() not sorted by start time")
	}
}
