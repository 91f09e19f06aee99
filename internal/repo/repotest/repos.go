package repotest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

// ---- trips -------------------------------------------------------------------

type tripRepo struct {
	store *Store
	with  access
}

func (r *tripRepo) Create(_ context.Context, trip domain.Trip) (domain.Trip, error) {
	err := r.with(func(st *state) error {
		trip.ID = uuid.New()
		trip.CreatedAt = st.stamp()
		trip.UpdatedAt = trip.CreatedAt
		st.trips[trip.ID] = trip
		return nil
	})
	return trip, err
}

func (r *tripRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	var trip domain.Trip
	err := r.with(func(st *state) error {
		if err := r.store.failure("Trips.GetByID", id); err != nil {
			return err
		}
		t, ok := st.trips[id]
		if !ok {
			return fmt.Errorf("repotest.TripRepo.GetByID: %w", domain.ErrNotFound)
		}
		trip = t
		return nil
	})
	return trip, err
}

func (r *tripRepo) ListPublic(_ context.Context) ([]domain.Trip, error) {
	out := []domain.Trip{}
	err := r.with(func(st *state) error {
		for _, t := range st.trips {
			if t.IsPublic() {
				out = append(out, t)
			}
		}
		slices.SortFunc(out, func(a, b domain.Trip) int { return b.CreatedAt.Compare(a.CreatedAt) })
		return nil
	})
	return out, err
}

func (r *tripRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TripStatus) (domain.Trip, error) {
	var trip domain.Trip
	err := r.with(func(st *state) error {
		t, ok := st.trips[id]
		if !ok {
			return fmt.Errorf("repotest.TripRepo.UpdateStatus: %w", domain.ErrNotFound)
		}
		t.Status = status
		t.UpdatedAt = st.stamp()
		st.trips[id] = t
		trip = t
		return nil
	})
	return trip, err
}

func (r *tripRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.with(func(st *state) error {
		if err := r.store.failure("Trips.Delete", id); err != nil {
			return err
		}
		delete(st.memories, id)
		for k := range st.payments {
			if k.trip == id {
				delete(st.payments, k)
			}
		}
		delete(st.finances, id)
		for k, jr := range st.joinRequests {
			if jr.TripID == id {
				delete(st.joinRequests, k)
			}
		}
		for k := range st.members {
			if k.trip == id {
				delete(st.members, k)
			}
		}
		delete(st.waypoints, id)
		for i, n := range st.notifications {
			if n.TripID != nil && *n.TripID == id {
				st.notifications[i].TripID = nil
			}
		}
		if _, ok := st.trips[id]; !ok {
			return fmt.Errorf("repotest.TripRepo.Delete: %w", domain.ErrNotFound)
		}
		delete(st.trips, id)
		return nil
	})
}

// ---- members -----------------------------------------------------------------

type memberRepo struct {
	store *Store
	with  access
}

func (r *memberRepo) Upsert(_ context.Context, m domain.Membership) (domain.Membership, error) {
	err := r.with(func(st *state) error {
		k := pair{m.TripID, m.UserID}
		if existing, ok := st.members[k]; ok {
			m.CreatedAt = existing.CreatedAt
		} else {
			m.CreatedAt = st.stamp()
		}
		st.members[k] = m
		return nil
	})
	return m, err
}

func (r *memberRepo) Get(_ context.Context, tripID, userID uuid.UUID) (domain.Membership, error) {
	var m domain.Membership
	err := r.with(func(st *state) error {
		if err := r.store.failure("Members.Get", tripID); err != nil {
			return err
		}
		found, ok := st.members[pair{tripID, userID}]
		if !ok {
			return fmt.Errorf("repotest.MemberRepo.Get: %w", domain.ErrNotFound)
		}
		m = found
		return nil
	})
	return m, err
}

func (r *memberRepo) ListActiveParticipants(_ context.Context, tripID uuid.UUID) ([]domain.Membership, error) {
	out := []domain.Membership{}
	err := r.with(func(st *state) error {
		for k, m := range st.members {
			if k.trip == tripID && m.IsActiveParticipant() {
				out = append(out, m)
			}
		}
		slices.SortFunc(out, func(a, b domain.Membership) int { return a.CreatedAt.Compare(b.CreatedAt) })
		return nil
	})
	return out, err
}

func (r *memberRepo) DeleteParticipants(_ context.Context, tripID uuid.UUID, userIDs []uuid.UUID) (int64, error) {
	var n int64
	err := r.with(func(st *state) error {
		if err := r.store.failure("Members.DeleteParticipants", tripID); err != nil {
			return err
		}
		for _, id := range userIDs {
			k := pair{tripID, id}
			if m, ok := st.members[k]; ok && m.Role == domain.RoleParticipant {
				delete(st.members, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

// ---- join requests -------------------------------------------------------------

type joinRequestRepo struct {
	store *Store
	with  access
}

func (r *joinRequestRepo) Upsert(_ context.Context, tripID, userID uuid.UUID) (domain.JoinRequest, error) {
	var out domain.JoinRequest
	err := r.with(func(st *state) error {
		now := st.stamp()
		for id, jr := range st.joinRequests {
			if jr.TripID == tripID && jr.UserID == userID {
				jr.Status = domain.JoinPending
				jr.UpdatedAt = now
				st.joinRequests[id] = jr
				out = jr
				return nil
			}
		}
		out = domain.JoinRequest{
			ID:        uuid.New(),
			TripID:    tripID,
			UserID:    userID,
			Status:    domain.JoinPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.joinRequests[out.ID] = out
		return nil
	})
	return out, err
}

func (r *joinRequestRepo) GetByID(_ context.Context, id uuid.UUID) (domain.JoinRequest, error) {
	var out domain.JoinRequest
	err := r.with(func(st *state) error {
		jr, ok := st.joinRequests[id]
		if !ok {
			return fmt.Errorf("repotest.JoinRequestRepo.GetByID: %w", domain.ErrNotFound)
		}
		out = jr
		return nil
	})
	return out, err
}

func (r *joinRequestRepo) SetStatus(_ context.Context, id uuid.UUID, status domain.JoinStatus) (domain.JoinRequest, error) {
	var out domain.JoinRequest
	err := r.with(func(st *state) error {
		jr, ok := st.joinRequests[id]
		if !ok {
			return fmt.Errorf("repotest.JoinRequestRepo.SetStatus: %w", domain.ErrNotFound)
		}
		jr.Status = status
		jr.UpdatedAt = st.stamp()
		st.joinRequests[id] = jr
		out = jr
		return nil
	})
	return out, err
}

func (r *joinRequestRepo) ListPending(_ context.Context, tripID uuid.UUID) ([]domain.JoinRequestView, error) {
	out := []domain.JoinRequestView{}
	err := r.with(func(st *state) error {
		for _, jr := range st.joinRequests {
			if jr.TripID == tripID && jr.Status == domain.JoinPending {
				out = append(out, domain.JoinRequestView{JoinRequest: jr, User: st.users[jr.UserID]})
			}
		}
		slices.SortFunc(out, func(a, b domain.JoinRequestView) int { return a.CreatedAt.Compare(b.CreatedAt) })
		return nil
	})
	return out, err
}

// ---- finances ------------------------------------------------------------------

type financeRepo struct {
	store *Store
	with  access
}

func (r *financeRepo) Get(_ context.Context, tripID uuid.UUID) (domain.Finance, error) {
	var out domain.Finance
	err := r.with(func(st *state) error {
		if err := r.store.failure("Finances.Get", tripID); err != nil {
			return err
		}
		f, ok := st.finances[tripID]
		if !ok {
			return fmt.Errorf("repotest.FinanceRepo.Get: %w", domain.ErrNotFound)
		}
		out = f
		return nil
	})
	return out, err
}

func (r *financeRepo) Upsert(_ context.Context, f domain.Finance) (domain.Finance, error) {
	err := r.with(func(st *state) error {
		now := st.stamp()
		if existing, ok := st.finances[f.TripID]; ok {
			f.CreatedAt = existing.CreatedAt
		} else {
			f.CreatedAt = now
		}
		f.UpdatedAt = now
		st.finances[f.TripID] = f
		return nil
	})
	return f, err
}

func (r *financeRepo) ListSchedules(_ context.Context) ([]domain.FinanceSchedule, error) {
	out := []domain.FinanceSchedule{}
	err := r.with(func(st *state) error {
		if err := r.store.failure("Finances.ListSchedules", uuid.Nil); err != nil {
			return err
		}
		for tripID, f := range st.finances {
			t := st.trips[tripID]
			out = append(out, domain.FinanceSchedule{Finance: f, TripTitle: t.Title, OrganizerID: t.OrganizerID})
		}
		slices.SortFunc(out, func(a, b domain.FinanceSchedule) int {
			return cmp.Or(
				a.ParticipantDeadline.Compare(b.ParticipantDeadline),
				cmp.Compare(a.TripID.String(), b.TripID.String()),
			)
		})
		return nil
	})
	return out, err
}

// ---- payments ------------------------------------------------------------------

type paymentRepo struct {
	store *Store
	with  access
}

func (r *paymentRepo) Get(_ context.Context, tripID, userID uuid.UUID) (domain.Payment, error) {
	var out domain.Payment
	err := r.with(func(st *state) error {
		p, ok := st.payments[pair{tripID, userID}]
		if !ok {
			return fmt.Errorf("repotest.PaymentRepo.Get: %w", domain.ErrNotFound)
		}
		out = p
		return nil
	})
	return out, err
}

// GetForUpdate needs no lock: transactions are already serialized.
func (r *paymentRepo) GetForUpdate(ctx context.Context, tripID, userID uuid.UUID) (domain.Payment, error) {
	return r.Get(ctx, tripID, userID)
}

func (r *paymentRepo) Seed(_ context.Context, tripID, userID uuid.UUID, amountDue int64) (domain.Payment, error) {
	var out domain.Payment
	err := r.with(func(st *state) error {
		if err := r.store.failure("Payments.Seed", tripID); err != nil {
			return err
		}
		now := st.stamp()
		k := pair{tripID, userID}
		p, ok := st.payments[k]
		if !ok {
			p = domain.Payment{ID: uuid.New(), TripID: tripID, UserID: userID, CreatedAt: now}
		}
		p.AmountDue = amountDue
		p.Status = domain.PaymentPending
		p.ReportedAt = nil
		p.RejectReason = ""
		p.RemovedAt = nil
		p.UpdatedAt = now
		st.payments[k] = p
		out = p
		return nil
	})
	return out, err
}

func (r *paymentRepo) Update(_ context.Context, p domain.Payment) (domain.Payment, error) {
	var out domain.Payment
	err := r.with(func(st *state) error {
		k := pair{p.TripID, p.UserID}
		existing, ok := st.payments[k]
		if !ok {
			return fmt.Errorf("repotest.PaymentRepo.Update: %w", domain.ErrNotFound)
		}
		existing.Status = p.Status
		existing.Evidence = p.Evidence
		existing.Note = p.Note
		existing.RejectReason = p.RejectReason
		existing.ReportedAt = p.ReportedAt
		existing.UpdatedAt = st.stamp()
		st.payments[k] = existing
		out = existing
		return nil
	})
	return out, err
}

func (r *paymentRepo) list(tripID uuid.UUID, keep func(domain.Payment) bool) func(*state) []domain.PaymentView {
	return func(st *state) []domain.PaymentView {
		out := []domain.PaymentView{}
		for k, p := range st.payments {
			if k.trip == tripID && !p.Removed() && keep(p) {
				out = append(out, domain.PaymentView{Payment: p, User: st.users[p.UserID]})
			}
		}
		return out
	}
}

func (r *paymentRepo) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.PaymentView, error) {
	var out []domain.PaymentView
	err := r.with(func(st *state) error {
		out = r.list(tripID, func(domain.Payment) bool { return true })(st)
		slices.SortFunc(out, func(a, b domain.PaymentView) int { return a.CreatedAt.Compare(b.CreatedAt) })
		return nil
	})
	return out, err
}

func (r *paymentRepo) ListByStatus(_ context.Context, tripID uuid.UUID, status domain.PaymentStatus) ([]domain.PaymentView, error) {
	var out []domain.PaymentView
	err := r.with(func(st *state) error {
		out = r.list(tripID, func(p domain.Payment) bool { return p.Status == status })(st)
		slices.SortFunc(out, func(a, b domain.PaymentView) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
		return nil
	})
	return out, err
}

func (r *paymentRepo) ListUnpaid(_ context.Context, tripID uuid.UUID) ([]domain.Payment, error) {
	out := []domain.Payment{}
	err := r.with(func(st *state) error {
		if err := r.store.failure("Payments.ListUnpaid", tripID); err != nil {
			return err
		}
		for k, p := range st.payments {
			if k.trip != tripID || p.Removed() || !p.Status.Unpaid() {
				continue
			}
			if m, ok := st.members[k]; ok && m.IsActiveParticipant() {
				out = append(out, p)
			}
		}
		slices.SortFunc(out, func(a, b domain.Payment) int { return a.CreatedAt.Compare(b.CreatedAt) })
		return nil
	})
	return out, err
}

func (r *paymentRepo) MarkRemoved(_ context.Context, tripID uuid.UUID, userIDs []uuid.UUID, at time.Time) (int64, error) {
	var n int64
	err := r.with(func(st *state) error {
		if err := r.store.failure("Payments.MarkRemoved", tripID); err != nil {
			return err
		}
		now := st.stamp()
		for _, id := range userIDs {
			k := pair{tripID, id}
			p, ok := st.payments[k]
			if !ok || p.Removed() {
				continue
			}
			removedAt := at
			p.RemovedAt = &removedAt
			p.UpdatedAt = now
			st.payments[k] = p
			n++
		}
		return nil
	})
	return n, err
}

// ---- users ---------------------------------------------------------------------

type userRepo struct {
	with access
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	var out domain.User
	err := r.with(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("repotest.UserRepo.GetByID: %w", domain.ErrNotFound)
		}
		out = u
		return nil
	})
	return out, err
}

// ---- notifications -------------------------------------------------------------

type notificationRepo struct {
	with access
}

func (r *notificationRepo) Create(_ context.Context, n domain.Notification) (domain.Notification, error) {
	err := r.with(func(st *state) error {
		n.ID = uuid.New()
		n.CreatedAt = st.stamp()
		if n.TripID != nil {
			if _, ok := st.trips[*n.TripID]; !ok {
				n.TripID = nil
			}
		}
		st.notifications = append(st.notifications, n)
		return nil
	})
	return n, err
}

func (r *notificationRepo) ListByUser(_ context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Notification, int64, error) {
	out := []domain.Notification{}
	var total int64
	err := r.with(func(st *state) error {
		var mine []domain.Notification
		for _, n := range st.notifications {
			if n.UserID == userID {
				mine = append(mine, n)
			}
		}
		slices.SortFunc(mine, func(a, b domain.Notification) int { return b.CreatedAt.Compare(a.CreatedAt) })
		total = int64(len(mine))
		start := min(p.Offset(), len(mine))
		end := min(start+p.Limit, len(mine))
		out = append(out, mine[start:end]...)
		return nil
	})
	return out, total, err
}

func (r *notificationRepo) MarkRead(_ context.Context, userID, id uuid.UUID, at time.Time) error {
	return r.with(func(st *state) error {
		for i, n := range st.notifications {
			if n.ID == id && n.UserID == userID {
				if n.ReadAt == nil {
					readAt := at
					st.notifications[i].ReadAt = &readAt
				}
				return nil
			}
		}
		return fmt.Errorf("repotest.NotificationRepo.MarkRead: %w", domain.ErrNotFound)
	})
}

func (r *notificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.with(func(st *state) error {
		for _, item := range st.notifications {
			if item.UserID == userID && item.ReadAt == nil {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *notificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	var n int64
	err := r.with(func(st *state) error {
		for i, item := range st.notifications {
			if item.UserID == userID && item.ReadAt == nil {
				readAt := at
				st.notifications[i].ReadAt = &readAt
				n++
			}
		}
		return nil
	})
	return n, err
}
