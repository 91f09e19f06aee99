package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/service"
)

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Title  string `json:"title"`
	Public bool   `json:"public"`
}

// UpdateTripStatusRequest is the body of PATCH /trips/{tripID}/status.
type UpdateTripStatusRequest struct {
	Status string `json:"status"`
}

// CreateTrip handles POST /trips. The caller becomes the organizer.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	var body CreateTripRequest
	if !decodeBody(w, r, &body) {
		return
	}

	trip, err := s.trips.CreateTrip(r.Context(), service.CreateTripInput{
		Title:       body.Title,
		Public:      body.Public,
		OrganizerID: userID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(trip))
}

// ListPublicTrips handles GET /trips/public.
func (s *Server) ListPublicTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.ListPublicTrips(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[Trip]{Data: mapSlice(trips, tripToResponse)})
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	trip, err := s.trips.GetTrip(r.Context(), tripID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTripStatus handles PATCH /trips/{tripID}/status.
func (s *Server) UpdateTripStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body UpdateTripStatusRequest
	if !decodeBody(w, r, &body) {
		return
	}
	status := domain.TripStatus(body.Status)
	switch status {
	case domain.TripPlanned, domain.TripActive, domain.TripFinished:
	default:
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", "status must be PLANNED, ACTIVE or FINISHED"))
		return
	}

	trip, err := s.trips.UpdateTripStatus(r.Context(), tripID, userID, status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// DeleteTrip handles DELETE /trips/{tripID}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	if err := s.trips.DeleteTrip(r.Context(), tripID, userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestJoin handles POST /trips/{tripID}/join-requests.
func (s *Server) RequestJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	jr, err := s.trips.RequestJoin(r.Context(), tripID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, joinRequestToResponse(jr))
}

// ListJoinRequests handles GET /trips/{tripID}/join-requests.
func (s *Server) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	views, err := s.trips.ListJoinRequests(r.Context(), tripID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[JoinRequest]{Data: mapSlice(views, func(v domain.JoinRequestView) JoinRequest {
		out := joinRequestToResponse(v.JoinRequest)
		out.User = userToSummary(v.User)
		return out
	})})
}

// ApproveJoinRequest handles POST /trips/{tripID}/join-requests/{requestID}/approve.
func (s *Server) ApproveJoinRequest(w http.ResponseWriter, r *http.Request) {
	s.decideJoinRequest(w, r, s.trips.ApproveJoinRequest)
}

// RejectJoinRequest handles POST /trips/{tripID}/join-requests/{requestID}/reject.
func (s *Server) RejectJoinRequest(w http.ResponseWriter, r *http.Request) {
	s.decideJoinRequest(w, r, s.trips.RejectJoinRequest)
}

func (s *Server) decideJoinRequest(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, tripID, requestID, organizerID uuid.UUID) error) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "requestID")
	if !ok {
		return
	}

	if err := decide(r.Context(), tripID, requestID, userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
