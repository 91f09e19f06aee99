package handler

import "net/http"

// ListNotifications handles GET /notifications.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	params, ok := pagination(w, r)
	if !ok {
		return
	}

	items, total, err := s.notifications.ListNotifications(r.Context(), userID, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[Notification]{
		Data: mapSlice(items, notificationToResponse),
		Pagination: &Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// MarkNotificationRead handles POST /notifications/{notificationID}/read.
func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "notificationID")
	if !ok {
		return
	}

	if err := s.notifications.MarkRead(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnreadNotificationCount handles GET /notifications/unread-count.
func (s *Server) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	n, err := s.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UnreadCount{Count: n})
}

// MarkAllNotificationsRead handles POST /notifications/read-all.
func (s *Server) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	n, err := s.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MarkedRead{Updated: n})
}
