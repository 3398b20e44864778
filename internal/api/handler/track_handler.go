package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rahulyhg/trackbook/internal/core/export"
	"github.com/rahulyhg/trackbook/internal/core/model"
	"github.com/rahulyhg/trackbook/internal/core/service"
)

type TrackHandler struct {
	recordingService service.RecordingService
}

func NewTrackHandler(recordingService service.RecordingService) *TrackHandler {
	return &TrackHandler{
		recordingService: recordingService,
	}
}

type trackResponse struct {
	*model.Recording
	Summary model.TrackSummary `json:"summary"`
}

func newTrackResponse(rec *model.Recording, policy model.StopOverPolicy) trackResponse {
	return trackResponse{
		Recording: rec,
		Summary:   rec.Restore(policy).Summary(),
	}
}

type trackListItem struct {
	ID        string             `json:"id"`
	DeviceID  string             `json:"deviceId"`
	StartedAt string             `json:"startedAt"`
	Summary   model.TrackSummary `json:"summary"`
}

func (h *TrackHandler) List(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		http.Error(w, "Device ID required", http.StatusBadRequest)
		return
	}

	recordings, err := h.recordingService.ListTracks(r.Context(), deviceID)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]trackListItem, 0, len(recordings))
	for _, rec := range recordings {
		items = append(items, trackListItem{
			ID:        rec.ID,
			DeviceID:  rec.DeviceID,
			StartedAt: rec.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			Summary:   rec.Restore(h.recordingService.Policy()).Summary(),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *TrackHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.recordingService.GetTrack(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTrackResponse(rec, h.recordingService.Policy()))
}

func (h *TrackHandler) GeoJSON(w http.ResponseWriter, r *http.Request) {
	rec, err := h.recordingService.GetTrack(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	data, err := export.RecordingGeoJSON(rec, h.recordingService.Policy()).MarshalJSON()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Write(data)
}
