package handler

import (
	"net/http"

	"github.com/pkordes/group-trips/backend/internal/service"
)

// SetFinanceRequest is the body of PUT /trips/{tripID}/finance.
// ParticipantDeadline is an RFC 3339 timestamp.
type SetFinanceRequest struct {
	BaseAmount          int64  `json:"base_amount"`
	Deposit             int64  `json:"deposit"`
	ParticipantDeadline string `json:"participant_deadline"`
}

// SetFinance handles PUT /trips/{tripID}/finance.
func (s *Server) SetFinance(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body SetFinanceRequest
	if !decodeBody(w, r, &body) {
		return
	}

	f, err := s.finance.SetFinance(r.Context(), service.SetFinanceInput{
		TripID:              tripID,
		ActorID:             userID,
		BaseAmount:          body.BaseAmount,
		Deposit:             body.Deposit,
		ParticipantDeadline: body.ParticipantDeadline,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, financeToResponse(f))
}

// GetFinance handles GET /trips/{tripID}/finance.
func (s *Server) GetFinance(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	overview, err := s.finance.GetFinance(r.Context(), tripID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overviewToResponse(overview))
}
