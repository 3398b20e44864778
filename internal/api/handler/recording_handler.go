package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rahulyhg/trackbook/internal/core/model"
	"github.com/rahulyhg/trackbook/internal/core/service"
	"github.com/rahulyhg/trackbook/internal/logger"
	"github.com/rahulyhg/trackbook/internal/stream"
)

type RecordingHandler struct {
	recordingService service.RecordingService
	hub              *stream.Hub
	upgrader         websocket.Upgrader
}

func NewRecordingHandler(recordingService service.RecordingService, hub *stream.Hub) *RecordingHandler {
	return &RecordingHandler{
		recordingService: recordingService,
		hub:              hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type addPositionRequest struct {
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Altitude  float64   `json:"altitude"`
	Accuracy  float64   `json:"accuracy"`
	Speed     float64   `json:"speed"`
	Bearing   float64   `json:"bearing"`
	Timestamp time.Time `json:"timestamp"`
}

func (r addPositionRequest) position() model.Position {
	p := model.Position{
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		Altitude:  r.Altitude,
		Accuracy:  r.Accuracy,
		Speed:     r.Speed,
		Bearing:   r.Bearing,
		Timestamp: r.Timestamp,
		Provider:  "http",
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	return p
}

func (h *RecordingHandler) Start(w http.ResponseWriter, r *http.Request) {
	recording, err := h.recordingService.StartRecording(r.Context(), mux.Vars(r)["deviceId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recording)
}

func (h *RecordingHandler) AddPosition(w http.ResponseWriter, r *http.Request) {
	var req addPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		http.Error(w, "latitude and longitude required", http.StatusBadRequest)
		return
	}

	wayPoint, err := h.recordingService.AddPosition(r.Context(), mux.Vars(r)["deviceId"], req.position())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.WayPointRecord{
		Position:                wayPoint.Position(),
		StopOver:                wayPoint.IsStopOver(),
		DistanceToStartingPoint: wayPoint.DistanceToStartingPoint(),
	})
}

func (h *RecordingHandler) Stop(w http.ResponseWriter, r *http.Request) {
	recording, err := h.recordingService.StopRecording(r.Context(), mux.Vars(r)["deviceId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTrackResponse(recording, h.recordingService.Policy()))
}

func (h *RecordingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.recordingService.LiveSummary(r.Context(), mux.Vars(r)["deviceId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *RecordingHandler) Active(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"devices": h.recordingService.ActiveDevices()})
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// Live streams waypoint events of one device over a WebSocket.
func (h *RecordingHandler) Live(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["deviceId"]
	if deviceID == "" {
		http.Error(w, "Device ID required", http.StatusBadRequest)
		return
	}
	if h.hub == nil {
		http.Error(w, "Live streaming unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	client := h.hub.Register(deviceID)
	defer h.hub.Unregister(client)
	logger.Info("live subscriber connected", logger.String("device", deviceID))

	// reader: only pongs and close frames are expected
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
