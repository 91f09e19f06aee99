package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/service"
)

// Response shapes mirror the schemas in spec/openapi.yaml.

type Trip struct {
	ID          openapi_types.UUID `json:"id"`
	Title       string             `json:"title"`
	OrganizerID openapi_types.UUID `json:"organizer_id"`
	Visibility  string             `json:"visibility"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type UserSummary struct {
	ID    openapi_types.UUID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

type JoinRequest struct {
	ID        openapi_types.UUID `json:"id"`
	TripID    openapi_types.UUID `json:"trip_id"`
	UserID    openapi_types.UUID `json:"user_id"`
	Status    string             `json:"status"`
	User      *UserSummary       `json:"user,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type Finance struct {
	TripID              openapi_types.UUID `json:"trip_id"`
	BaseAmount          int64              `json:"base_amount"`
	Deposit             int64              `json:"deposit"`
	AmountDue           int64              `json:"amount_due"`
	ParticipantDeadline time.Time          `json:"participant_deadline"`
	OrganizerDeadline   time.Time          `json:"organizer_deadline"`
}

type Evidence struct {
	URL      string `json:"url"`
	FileName string `json:"file_name,omitempty"`
	Mime     string `json:"mime,omitempty"`
}

type Payment struct {
	ID           openapi_types.UUID `json:"id"`
	TripID       openapi_types.UUID `json:"trip_id"`
	UserID       openapi_types.UUID `json:"user_id"`
	AmountDue    int64              `json:"amount_due"`
	Status       string             `json:"status"`
	Evidence     *Evidence          `json:"evidence,omitempty"`
	Note         string             `json:"note,omitempty"`
	RejectReason string             `json:"reject_reason,omitempty"`
	ReportedAt   *time.Time         `json:"reported_at,omitempty"`
	User         *UserSummary       `json:"user,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type FinanceOverview struct {
	Finance              *Finance  `json:"finance"`
	OrganizerPaymentLink string    `json:"organizer_payment_link"`
	MyPayment            *Payment  `json:"my_payment"`
	Payments             []Payment `json:"payments,omitempty"`
}

type Notification struct {
	ID        openapi_types.UUID  `json:"id"`
	TripID    *openapi_types.UUID `json:"trip_id"`
	Kind      string              `json:"kind"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	ReadAt    *time.Time          `json:"read_at"`
	CreatedAt time.Time           `json:"created_at"`
}

type UnreadCount struct {
	Count int64 `json:"count"`
}

type MarkedRead struct {
	Updated int64 `json:"updated"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ListResponse wraps collections; Pagination is only set for paged lists.
type ListResponse[T any] struct {
	Data       []T         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// ---- mappers -------------------------------------------------------------------

func tripToResponse(t domain.Trip) Trip {
	return Trip{
		ID:          t.ID,
		Title:       t.Title,
		OrganizerID: t.OrganizerID,
		Visibility:  string(t.Visibility),
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func userToSummary(u domain.User) *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.DisplayName(), Email: u.Email}
}

func joinRequestToResponse(jr domain.JoinRequest) JoinRequest {
	return JoinRequest{
		ID:        jr.ID,
		TripID:    jr.TripID,
		UserID:    jr.UserID,
		Status:    string(jr.Status),
		CreatedAt: jr.CreatedAt,
		UpdatedAt: jr.UpdatedAt,
	}
}

func financeToResponse(f domain.Finance) Finance {
	return Finance{
		TripID:              f.TripID,
		BaseAmount:          f.BaseAmount,
		Deposit:             f.Deposit,
		AmountDue:           f.AmountDue(),
		ParticipantDeadline: f.ParticipantDeadline,
		OrganizerDeadline:   f.OrganizerDeadline,
	}
}

func paymentToResponse(p domain.Payment) Payment {
	out := Payment{
		ID:           p.ID,
		TripID:       p.TripID,
		UserID:       p.UserID,
		AmountDue:    p.AmountDue,
		Status:       string(p.Status),
		Note:         p.Note,
		RejectReason: p.RejectReason,
		ReportedAt:   p.ReportedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.Evidence.URL != "" {
		out.Evidence = &Evidence{URL: p.Evidence.URL, FileName: p.Evidence.FileName, Mime: p.Evidence.Mime}
	}
	return out
}

func paymentViewToResponse(v domain.PaymentView) Payment {
	out := paymentToResponse(v.Payment)
	out.User = userToSummary(v.User)
	return out
}

func overviewToResponse(o service.FinanceOverview) FinanceOverview {
	out := FinanceOverview{OrganizerPaymentLink: o.OrganizerPaymentLink}
	if o.Finance != nil {
		f := financeToResponse(*o.Finance)
		out.Finance = &f
	}
	if o.ViewerPayment != nil {
		p := paymentToResponse(*o.ViewerPayment)
		out.MyPayment = &p
	}
	if o.Payments != nil {
		out.Payments = mapSlice(o.Payments, paymentViewToResponse)
	}
	return out
}

func notificationToResponse(n domain.Notification) Notification {
	return Notification{
		ID:        n.ID,
		TripID:    n.TripID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Message:   n.Message,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// mapSlice always returns a non-nil slice so empty lists encode as [].
func mapSlice[In, Out any](in []In, fn func(In) Out) []Out {
	out := make([]Out, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
