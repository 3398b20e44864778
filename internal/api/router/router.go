package router

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rahulyhg/trackbook/internal/api/handler"
	"github.com/rahulyhg/trackbook/internal/api/middleware"
	"github.com/rahulyhg/trackbook/internal/core/service"
	"github.com/rahulyhg/trackbook/internal/stream"
)

func NewRouter(recordingService service.RecordingService, hub *stream.Hub) http.Handler {
	recordingHandler := handler.NewRecordingHandler(recordingService, hub)
	trackHandler := handler.NewTrackHandler(recordingService)

	r := mux.NewRouter()
	r.Use(middleware.CORSMiddleware, middleware.LoggingMiddleware)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	}).Methods(http.MethodGet)

	// Routes sit on the root router: a mux subrouter answers 404 instead of
	// 405 on a method mismatch.
	// Recording routes
	r.HandleFunc("/api/recordings", recordingHandler.Active).Methods(http.MethodGet)
	r.HandleFunc("/api/recordings/{deviceId}/start", recordingHandler.Start).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/recordings/{deviceId}/positions", recordingHandler.AddPosition).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/recordings/{deviceId}/stop", recordingHandler.Stop).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/recordings/{deviceId}/summary", recordingHandler.Summary).Methods(http.MethodGet)
	r.HandleFunc("/api/recordings/{deviceId}/live", recordingHandler.Live).Methods(http.MethodGet)

	// Track routes
	r.HandleFunc("/api/tracks", trackHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/api/tracks/{id}", trackHandler.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/tracks/{id}/geojson", trackHandler.GeoJSON).Methods(http.MethodGet)

	return r
}
