package server

import (
	"encoding/json"
	"net/http"

	"folio/router"

	"go.uber.org/zap"
)

// HealthResponse is returned by /health
type HealthResponse struct {
	Status  string `json:"status"`
	Mounted bool   `json:"mounted"`
	Routes  int    `json:"routes"`
}

// healthCheck reports ready once the app is mounted
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Mounted: s.app.Mounted(),
		Routes:  s.nav.Table().Len(),
	}
	status := http.StatusOK
	if !resp.Mounted {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, resp)
}

// listRoutes returns the route table with hrefs
func (s *Server) listRoutes(w http.ResponseWriter, r *http.Request) {
	entries := s.nav.Entries()
	if entries == nil {
		entries = []router.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorw("Failed to encode response", "error", err)
	}
}

// writeError writes an error response and logs the underlying error
func writeError(w http.ResponseWriter, statusCode int, message string, err error, logger *zap.SugaredLogger) {
	if logger != nil {
		if err != nil {
			logger.Errorw(message, "error", err.Error(), "status_code", statusCode)
		} else {
			logger.Errorw(message, "status_code", statusCode)
		}
	}
	http.Error(w, message, statusCode)
}
