package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/handler"
	"github.com/pkordes/group-trips/backend/internal/middleware"
	"github.com/pkordes/group-trips/backend/internal/service"
)

// Test doubles for the handler's service interfaces.
// Set only the method fields your test needs.

type mockTripServicer struct {
	createTrip         func(ctx context.Context, in service.CreateTripInput) (domain.Trip, error)
	getTrip            func(ctx context.Context, tripID, viewerID uuid.UUID) (domain.Trip, error)
	listPublicTrips    func(ctx context.Context) ([]domain.Trip, error)
	updateTripStatus   func(ctx context.Context, tripID, organizerID uuid.UUID, status domain.TripStatus) (domain.Trip, error)
	deleteTrip         func(ctx context.Context, tripID, organizerID uuid.UUID) error
	requestJoin        func(ctx context.Context, tripID, userID uuid.UUID) (domain.JoinRequest, error)
	listJoinRequests   func(ctx context.Context, tripID, organizerID uuid.UUID) ([]domain.JoinRequestView, error)
	approveJoinRequest func(ctx context.Context, tripID, requestID, organizerID uuid.UUID) error
	rejectJoinRequest  func(ctx context.Context, tripID, requestID, organizerID uuid.UUID) error
}

func (m *mockTripServicer) CreateTrip(ctx context.Context, in service.CreateTripInput) (domain.Trip, error) {
	return m.createTrip(ctx, in)
}
func (m *mockTripServicer) GetTrip(ctx context.Context, tripID, viewerID uuid.UUID) (domain.Trip, error) {
	return m.getTrip(ctx, tripID, viewerID)
}
func (m *mockTripServicer) ListPublicTrips(ctx context.Context) ([]domain.Trip, error) {
	return m.listPublicTrips(ctx)
}
func (m *mockTripServicer) UpdateTripStatus(ctx context.Context, tripID, organizerID uuid.UUID, status domain.TripStatus) (domain.Trip, error) {
	return m.updateTripStatus(ctx, tripID, organizerID, status)
}
func (m *mockTripServicer) DeleteTrip(ctx context.Context, tripID, organizerID uuid.UUID) error {
	return m.deleteTrip(ctx, tripID, organizerID)
}
func (m *mockTripServicer) RequestJoin(ctx context.Context, tripID, userID uuid.UUID) (domain.JoinRequest, error) {
	return m.requestJoin(ctx, tripID, userID)
}
func (m *mockTripServicer) ListJoinRequests(ctx context.Context, tripID, organizerID uuid.UUID) ([]domain.JoinRequestView, error) {
	return m.listJoinRequests(ctx, tripID, organizerID)
}
func (m *mockTripServicer) ApproveJoinRequest(ctx context.Context, tripID, requestID, organizerID uuid.UUID) error {
	return m.approveJoinRequest(ctx, tripID, requestID, organizerID)
}
func (m *mockTripServicer) RejectJoinRequest(ctx context.Context, tripID, requestID, organizerID uuid.UUID) error {
	return m.rejectJoinRequest(ctx, tripID, requestID, organizerID)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

type mockFinanceServicer struct {
	setFinance func(ctx context.Context, in service.SetFinanceInput) (domain.Finance, error)
	getFinance func(ctx context.Context, tripID, viewerID uuid.UUID) (service.FinanceOverview, error)
}

func (m *mockFinanceServicer) SetFinance(ctx context.Context, in service.SetFinanceInput) (domain.Finance, error) {
	return m.setFinance(ctx, in)
}
func (m *mockFinanceServicer) GetFinance(ctx context.Context, tripID, viewerID uuid.UUID) (service.FinanceOverview, error) {
	return m.getFinance(ctx, tripID, viewerID)
}

var _ handler.FinanceServicer = (*mockFinanceServicer)(nil)

type mockPaymentServicer struct {
	reportPayment       func(ctx context.Context, in service.ReportPaymentInput) (domain.Payment, error)
	confirmPayment      func(ctx context.Context, tripID, organizerID, userID uuid.UUID) (domain.Payment, error)
	rejectPayment       func(ctx context.Context, tripID, organizerID, userID uuid.UUID, reason string) (domain.Payment, error)
	listPendingPayments func(ctx context.Context, tripID, organizerID uuid.UUID) ([]domain.PaymentView, error)
}

func (m *mockPaymentServicer) ReportPayment(ctx context.Context, in service.ReportPaymentInput) (domain.Payment, error) {
	return m.reportPayment(ctx, in)
}
func (m *mockPaymentServicer) ConfirmPayment(ctx context.Context, tripID, organizerID, userID uuid.UUID) (domain.Payment, error) {
	return m.confirmPayment(ctx, tripID, organizerID, userID)
}
func (m *mockPaymentServicer) RejectPayment(ctx context.Context, tripID, organizerID, userID uuid.UUID, reason string) (domain.Payment, error) {
	return m.rejectPayment(ctx, tripID, organizerID, userID, reason)
}
func (m *mockPaymentServicer) ListPendingPayments(ctx context.Context, tripID, organizerID uuid.UUID) ([]domain.PaymentView, error) {
	return m.listPendingPayments(ctx, tripID, organizerID)
}

var _ handler.PaymentServicer = (*mockPaymentServicer)(nil)

type mockNotificationServicer struct {
	listNotifications func(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Notification, int64, error)
	markRead          func(ctx context.Context, userID, id uuid.UUID) error
	unreadCount       func(ctx context.Context, userID uuid.UUID) (int64, error)
	markAllRead       func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (m *mockNotificationServicer) ListNotifications(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Notification, int64, error) {
	return m.listNotifications(ctx, userID, p)
}
func (m *mockNotificationServicer) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return m.markRead(ctx, userID, id)
}
func (m *mockNotificationServicer) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.unreadCount(ctx, userID)
}
func (m *mockNotificationServicer) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.markAllRead(ctx, userID)
}

var _ handler.NotificationServicer = (*mockNotificationServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// services bundles the mocks one test wires into a Server.
type services struct {
	trips         *mockTripServicer
	finance       *mockFinanceServicer
	payments      *mockPaymentServicer
	notifications *mockNotificationServicer
}

// asUser stands in for the JWT middleware and authenticates every request as id.
func asUser(id uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), id)))
		})
	}
}

// newHTTPHandler wires a Server with the given mocks the way main.go does,
// with the caller authenticated as userID.
func newHTTPHandler(svc services, userID uuid.UUID) http.Handler {
	if svc.trips == nil {
		svc.trips = &mockTripServicer{}
	}
	if svc.finance == nil {
		svc.finance = &mockFinanceServicer{}
	}
	if svc.payments == nil {
		svc.payments = &mockPaymentServicer{}
	}
	if svc.notifications == nil {
		svc.notifications = &mockNotificationServicer{}
	}
	srv := handler.NewServer(svc.trips, svc.finance, svc.payments, svc.notifications,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return srv.Handler(asUser(userID))
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}
