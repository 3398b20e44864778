package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rahulyhg/trackbook/internal/cache"
	"github.com/rahulyhg/trackbook/internal/core/model"
	"github.com/rahulyhg/trackbook/internal/core/repository"
	"github.com/rahulyhg/trackbook/internal/logger"
	"github.com/rahulyhg/trackbook/internal/stream"
)

var (
	ErrInvalidDeviceID  = errors.New("invalid device ID")
	ErrInvalidTrackID   = errors.New("invalid track ID")
	ErrAlreadyRecording = errors.New("device is already recording")
	ErrNotRecording     = errors.New("device is not recording")
	ErrTrackNotFound    = errors.New("track not found")
)

type RecordingService interface {
	StartRecording(ctx context.Context, deviceID string) (*model.Recording, error)
	AddPosition(ctx context.Context, deviceID string, position model.Position) (model.WayPoint, error)
	StopRecording(ctx context.Context, deviceID string) (*model.Recording, error)
	StopAll(ctx context.Context) ([]*model.Recording, error)
	LiveSummary(ctx context.Context, deviceID string) (*model.TrackSummary, error)
	ActiveDevices() []string
	GetTrack(ctx context.Context, id string) (*model.Recording, error)
	ListTracks(ctx context.Context, deviceID string) ([]*model.Recording, error)
	Policy() model.StopOverPolicy
}

type Options struct {
	Policy     model.StopOverPolicy
	AutoStart  bool // start a recording on the first sample of an idle device
	SummaryTTL time.Duration
	Now        func() time.Time
}

// session guards one live track. The track itself has no locking, so every
// access goes through mu.
type session struct {
	mu        sync.Mutex
	recording *model.Recording
	track     *model.Track
	closed    bool
}

type recordingService struct {
	trackRepo repository.TrackRepository
	hub       *stream.Hub
	opts      Options

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRecordingService builds the service. hub may be nil.
func NewRecordingService(trackRepo repository.TrackRepository, hub *stream.Hub, opts Options) RecordingService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SummaryTTL <= 0 {
		opts.SummaryTTL = 6 * time.Hour
	}
	return &recordingService{
		trackRepo: trackRepo,
		hub:       hub,
		opts:      opts,
		sessions:  make(map[string]*session),
	}
}

func (s *recordingService) Policy() model.StopOverPolicy {
	return s.opts.Policy
}

func (s *recordingService) StartRecording(ctx context.Context, deviceID string) (*model.Recording, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	s.mu.Lock()
	if _, exists := s.sessions[deviceID]; exists {
		s.mu.Unlock()
		return nil, ErrAlreadyRecording
	}
	sess := s.newSession(deviceID)
	s.sessions[deviceID] = sess
	s.mu.Unlock()

	logger.Info("recording started",
		logger.String("device", deviceID),
		logger.String("track", sess.recording.ID))

	s.cacheSummary(ctx, deviceID, sess.track.Summary())
	rec := *sess.recording
	return &rec, nil
}

func (s *recordingService) newSession(deviceID string) *session {
	return &session{
		recording: model.NewRecording(deviceID, s.opts.Now()),
		track:     model.NewTrackWithPolicy(s.opts.Policy),
	}
}

func (s *recordingService) AddPosition(ctx context.Context, deviceID string, position model.Position) (model.WayPoint, error) {
	if deviceID == "" {
		return model.WayPoint{}, ErrInvalidDeviceID
	}

	var (
		wayPoint model.WayPoint
		index    int
		summary  model.TrackSummary
	)
	for {
		sess, err := s.sessionFor(deviceID)
		if err != nil {
			return model.WayPoint{}, err
		}

		sess.mu.Lock()
		if sess.closed {
			sess.mu.Unlock()
			// stopped while we waited; a closed session is already out of
			// the map, so auto start picks a fresh one
			if s.opts.AutoStart {
				continue
			}
			return model.WayPoint{}, ErrNotRecording
		}
		wayPoint = sess.track.AddWayPoint(position)
		index = sess.track.Size() - 1
		summary = s.liveSummary(sess)
		sess.mu.Unlock()
		break
	}

	logger.Debug("waypoint added",
		logger.String("device", deviceID),
		logger.Int("index", index),
		logger.Bool("stopOver", wayPoint.IsStopOver()),
		logger.Float64("distance", wayPoint.DistanceToStartingPoint()))

	s.cacheSummary(ctx, deviceID, summary)
	s.publish(ctx, deviceID, index, wayPoint, summary)
	return wayPoint, nil
}

func (s *recordingService) sessionFor(deviceID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[deviceID]; ok {
		return sess, nil
	}
	if !s.opts.AutoStart {
		return nil, ErrNotRecording
	}
	sess := s.newSession(deviceID)
	s.sessions[deviceID] = sess
	logger.Info("recording auto-started",
		logger.String("device", deviceID),
		logger.String("track", sess.recording.ID))
	return sess, nil
}

// StopRecording finalizes the duration and persists the track. The session
// stays registered while the write runs, so concurrent samples wait for it.
// When the repository fails the session stays live and keeps every sample.
func (s *recordingService) StopRecording(ctx context.Context, deviceID string) (*model.Recording, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	s.mu.Lock()
	sess, ok := s.sessions[deviceID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotRecording
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return nil, ErrNotRecording
	}

	stoppedAt := s.opts.Now()
	sess.track.SetTrackDuration(stoppedAt.Sub(sess.recording.StartedAt).Milliseconds())
	finished := *sess.recording
	finished.StoppedAt = stoppedAt
	finished.Track = sess.track.Record()

	if err := s.trackRepo.Create(ctx, &finished); err != nil {
		return nil, fmt.Errorf("failed to store track: %w", err)
	}

	s.mu.Lock()
	if s.sessions[deviceID] == sess {
		delete(s.sessions, deviceID)
	}
	s.mu.Unlock()
	sess.closed = true

	if err := cache.DeleteLiveSummary(ctx, deviceID); err != nil {
		logger.Warn("failed to clear live summary", logger.String("device", deviceID), logger.ErrorField(err))
	}

	logger.Info("recording stopped",
		logger.String("device", deviceID),
		logger.String("track", finished.ID),
		logger.Int("waypoints", sess.track.Size()),
		logger.String("distance", sess.track.TrackDistance()),
		logger.String("duration", sess.track.TrackDuration()))
	return &finished, nil
}

// StopAll stops every live recording, typically on shutdown. Recordings that
// could not be stored stay live and their errors are joined.
func (s *recordingService) StopAll(ctx context.Context) ([]*model.Recording, error) {
	var (
		stopped []*model.Recording
		errs    []error
	)
	for _, deviceID := range s.ActiveDevices() {
		rec, err := s.StopRecording(ctx, deviceID)
		switch {
		case err == nil:
			stopped = append(stopped, rec)
		case errors.Is(err, ErrNotRecording):
		default:
			errs = append(errs, fmt.Errorf("device %s: %w", deviceID, err))
		}
	}
	return stopped, errors.Join(errs...)
}

// LiveSummary reports a running recording. Duration is the wall-clock time
// since start. Recordings held by another instance are served from the cache.
func (s *recordingService) LiveSummary(ctx context.Context, deviceID string) (*model.TrackSummary, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	s.mu.Lock()
	sess, ok := s.sessions[deviceID]
	s.mu.Unlock()

	if ok {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		summary := s.liveSummary(sess)
		return &summary, nil
	}

	summary, err := cache.GetLiveSummary(ctx, deviceID)
	if err != nil {
		return nil, ErrNotRecording
	}
	return summary, nil
}

func (s *recordingService) liveSummary(sess *session) model.TrackSummary {
	summary := sess.track.Summary()
	elapsed := s.opts.Now().Sub(sess.recording.StartedAt).Milliseconds()
	summary.DurationMillis = elapsed
	summary.Duration = model.FormatDuration(elapsed)
	return summary
}

func (s *recordingService) ActiveDevices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		devices = append(devices, id)
	}
	sort.Strings(devices)
	return devices
}

func (s *recordingService) GetTrack(ctx context.Context, id string) (*model.Recording, error) {
	if id == "" {
		return nil, ErrInvalidTrackID
	}
	recording, err := s.trackRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recording == nil {
		return nil, ErrTrackNotFound
	}
	return recording, nil
}

func (s *recordingService) ListTracks(ctx context.Context, deviceID string) ([]*model.Recording, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	return s.trackRepo.FindByDeviceID(ctx, deviceID)
}

func (s *recordingService) cacheSummary(ctx context.Context, deviceID string, summary model.TrackSummary) {
	if err := cache.SetLiveSummary(ctx, deviceID, summary, s.opts.SummaryTTL); err != nil {
		logger.Warn("failed to cache live summary", logger.String("device", deviceID), logger.ErrorField(err))
	}
}

func (s *recordingService) publish(ctx context.Context, deviceID string, index int, wp model.WayPoint, summary model.TrackSummary) {
	if s.hub == nil {
		return
	}
	payload, err := stream.NewWayPointEvent(deviceID, index, wp, summary).Encode()
	if err != nil {
		logger.Error("failed to encode waypoint event", logger.ErrorField(err))
		return
	}
	s.hub.Broadcast(ctx, deviceID, payload)
}
