package web

import "net/http"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "sheetinspect backend running"})
}

// handleHealth is the liveness probe. It does not touch the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCacheStats reports the workbook store and upload limiter state.
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"uploads": s.service.UploadLimiterStatus(),
	}
	if stats, ok := s.service.StoreStats(); ok {
		resp["store"] = stats
	}
	writeJSON(w, r, http.StatusOK, resp)
}
