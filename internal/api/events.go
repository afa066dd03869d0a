package api

import (
	"net/http"

	"github.com/graaaaa/rolecall/internal/app"
)

// eventsResponse represents the response for the events endpoint.
type eventsResponse struct {
	Items []app.EventSummary `json:"items"`
}

// handleEvents handles GET /api/v1/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	items, err := s.events.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "", err)
		return
	}

	// Items is an empty array, not null, when nothing is open
	if items == nil {
		items = []app.EventSummary{}
	}
	s.writeJSON(w, http.StatusOK, eventsResponse{Items: items})
}
