package handler

import (
	"net/http"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/service"
)

// ReportPaymentRequest is the body of POST /trips/{tripID}/payments/report.
// The evidence file itself is uploaded to the file service beforehand.
type ReportPaymentRequest struct {
	EvidenceURL      string `json:"evidence_url"`
	EvidenceFileName string `json:"evidence_file_name"`
	EvidenceMime     string `json:"evidence_mime"`
	Note             string `json:"note"`
}

// RejectPaymentRequest is the optional body of POST .../payments/{userID}/reject.
type RejectPaymentRequest struct {
	Reason string `json:"reason"`
}

// ReportPayment handles POST /trips/{tripID}/payments/report.
func (s *Server) ReportPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var body ReportPaymentRequest
	if !decodeBody(w, r, &body) {
		return
	}

	p, err := s.payments.ReportPayment(r.Context(), service.ReportPaymentInput{
		TripID: tripID,
		UserID: userID,
		Evidence: domain.Evidence{
			URL:      body.EvidenceURL,
			FileName: body.EvidenceFileName,
			Mime:     body.EvidenceMime,
		},
		Note: body.Note,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentToResponse(p))
}

// ListPendingPayments handles GET /trips/{tripID}/payments/pending.
func (s *Server) ListPendingPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	views, err := s.payments.ListPendingPayments(r.Context(), tripID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[Payment]{Data: mapSlice(views, paymentViewToResponse)})
}

// ConfirmPayment handles POST /trips/{tripID}/payments/{userID}/confirm.
func (s *Server) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	memberID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	p, err := s.payments.ConfirmPayment(r.Context(), tripID, organizerID, memberID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentToResponse(p))
}

// RejectPayment handles POST /trips/{tripID}/payments/{userID}/reject.
// The body is optional; without one the payment is rejected with no reason.
func (s *Server) RejectPayment(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	memberID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	var body RejectPaymentRequest
	if !decodeOptionalBody(w, r, &body) {
		return
	}

	p, err := s.payments.RejectPayment(r.Context(), tripID, organizerID, memberID, body.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentToResponse(p))
}
