// Package handler implements the HTTP handlers for the group trips API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, finance.go, ...) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	CreateTrip(ctx context.Context, in service.CreateTripInput) (domain.Trip, error)
	GetTrip(ctx context.Context, tripID, viewerID uuid.UUID) (domain.Trip, error)
	ListPublicTrips(ctx context.Context) ([]domain.Trip, error)
	UpdateTripStatus(ctx context.Context, tripID, organizerID uuid.UUID, status domain.TripStatus) (domain.Trip, error)
	DeleteTrip(ctx context.Context, tripID, organizerID uuid.UUID) error
	RequestJoin(ctx context.Context, tripID, userID uuid.UUID) (domain.JoinRequest, error)
	ListJoinRequests(ctx context.Context, tripID, organizerID uuid.UUID) ([]domain.JoinRequestView, error)
	ApproveJoinRequest(ctx context.Context, tripID, requestID, organizerID uuid.UUID) error
	RejectJoinRequest(ctx context.Context, tripID, requestID, organizerID uuid.UUID) error
}

// FinanceServicer defines the payment terms operations.
type FinanceServicer interface {
	SetFinance(ctx context.Context, in service.SetFinanceInput) (domain.Finance, error)
	GetFinance(ctx context.Context, tripID, viewerID uuid.UUID) (service.FinanceOverview, error)
}

// PaymentServicer defines the payment ledger operations.
type PaymentServicer interface {
	ReportPayment(ctx context.Context, in service.ReportPaymentInput) (domain.Payment, error)
	ConfirmPayment(ctx context.Context, tripID, organizerID, userID uuid.UUID) (domain.Payment, error)
	RejectPayment(ctx context.Context, tripID, organizerID, userID uuid.UUID, reason string) (domain.Payment, error)
	ListPendingPayments(ctx context.Context, tripID, organizerID uuid.UUID) ([]domain.PaymentView, error)
}

// NotificationServicer defines the inbox operations.
type NotificationServicer interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Notification, int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

// Server holds the services every handler needs.
type Server struct {
	trips         TripServicer
	finance       FinanceServicer
	payments      PaymentServicer
	notifications NotificationServicer
	log           *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, finance FinanceServicer, payments PaymentServicer, notifications NotificationServicer, log *slog.Logger) *Server {
	return &Server{
		trips:         trips,
		finance:       finance,
		payments:      payments,
		notifications: notifications,
		log:           log,
	}
}

// Handler returns the API router. /healthz and /openapi.yaml are public;
// every other route runs behind auth, which must put the caller's ID in the
// request context (see middleware.NewAuthHandler).
func (s *Server) Handler(auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/trips", s.CreateTrip)
		r.Get("/trips/public", s.ListPublicTrips)
		r.Route("/trips/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Delete("/", s.DeleteTrip)
			r.Patch("/status", s.UpdateTripStatus)

			r.Post("/join-requests", s.RequestJoin)
			r.Get("/join-requests", s.ListJoinRequests)
			r.Post("/join-requests/{requestID}/approve", s.ApproveJoinRequest)
			r.Post("/join-requests/{requestID}/reject", s.RejectJoinRequest)

			r.Put("/finance", s.SetFinance)
			r.Get("/finance", s.GetFinance)

			r.Post("/payments/report", s.ReportPayment)
			r.Get("/payments/pending", s.ListPendingPayments)
			r.Post("/payments/{userID}/confirm", s.ConfirmPayment)
			r.Post("/payments/{userID}/reject", s.RejectPayment)
		})

		r.Get("/notifications", s.ListNotifications)
		r.Get("/notifications/unread-count", s.UnreadNotificationCount)
		r.Post("/notifications/read-all", s.MarkAllNotificationsRead)
		r.Post("/notifications/{notificationID}/read", s.MarkNotificationRead)
	})
	return r
}
