package main

import (
	"context"
	"testing"

	"github.com/rahulyhg/trackbook/internal/core/model"
	"github.com/rahulyhg/trackbook/internal/core/repository"
	"github.com/rahulyhg/trackbook/internal/core/service"
)

func TestPersistActiveRecordings(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryTrackRepository()
	svc := service.NewRecordingService(repo, nil, service.Options{Policy: model.DefaultStopOverPolicy()})

	_, _ = svc.StartRecording(ctx, "dev-1")
	_, _ = svc.AddPosition(ctx, "dev-1", model.NewPosition(1, 1))

	persistActiveRecordings(ctx, svc)

	if got := svc.ActiveDevices(); len(got) != 0 {
		t.Errorf("ActiveDevices() after shutdown = %v", got)
	}
	recs, err := repo.FindByDeviceID(ctx, "dev-1")
	if err != nil || len(recs) != 1 || len(recs[0].Track.WayPoints) != 1 {
		t.Errorf("stored recordings = %+v, %v", recs, err)
	}
}
