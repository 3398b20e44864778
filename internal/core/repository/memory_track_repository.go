package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/rahulyhg/trackbook/internal/core/model"
)

type inMemoryTrackRepository struct {
	recordings map[string]*model.Recording
	mutex      sync.RWMutex
}

func NewInMemoryTrackRepository() TrackRepository {
	return &inMemoryTrackRepository{
		recordings: make(map[string]*model.Recording),
	}
}

func (r *inMemoryTrackRepository) Create(_ context.Context, recording *model.Recording) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.recordings[recording.ID]; exists {
		return ErrDuplicateTrack
	}
	stored := *recording
	r.recordings[recording.ID] = &stored
	return nil
}

func (r *inMemoryTrackRepository) FindByID(_ context.Context, id string) (*model.Recording, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if recording, exists := r.recordings[id]; exists {
		found := *recording
		return &found, nil
	}
	return nil, nil
}

func (r *inMemoryTrackRepository) FindByDeviceID(_ context.Context, deviceID string) ([]*model.Recording, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.Recording
	for _, recording := range r.recordings {
		if recording.DeviceID == deviceID {
			found := *recording
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result, nil
}
