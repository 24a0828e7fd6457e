// internal/forecastingest/handler.go
package forecastingest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Handler exposes the ingest service over HTTP for the ingest daemon.
type Handler struct {
	drv        *DriveService
	ingestor   *Ingestor
	folderPath string
}

func NewHandler(drv *DriveService, ingestor *Ingestor, folderPath string) *Handler {
	return &Handler{drv: drv, ingestor: ingestor, folderPath: folderPath}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ingest/run", h.RunIngest).Methods("POST")
	r.HandleFunc("/ingest/files", h.ListFiles).Methods("GET")
}

func (h *Handler) RunIngest(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = h.folderPath
	}

	result, err := h.ingestor.Run(r.Context(), folder)
	if err != nil {
		log.Error().Err(err).Str("folder", folder).Msg("ingest run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = h.folderPath
	}

	folderID, err := h.drv.ResolveFolder(folder)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	files, err := h.drv.ListForecastFiles(folderID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
