package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pesio-ai/be-dash-approvals/internal/logger"
	"github.com/pesio-ai/be-dash-approvals/internal/store"
)

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	approvals     *store.ApprovalStore
	notifications *store.NotificationStore
	log           *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(approvals *store.ApprovalStore, notifications *store.NotificationStore, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		approvals:     approvals,
		notifications: notifications,
		log:           log,
	}
}

// ── Approvals ─────────────────────────────────────────────────────────────────

// CreateApproval handles create approval request HTTP requests
func (h *HTTPHandler) CreateApproval(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req store.AddPendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Concept == "" {
		http.Error(w, "Concept is required", http.StatusBadRequest)
		return
	}

	created := h.approvals.AddPending(r.Context(), &req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// ListApprovals handles list approval requests HTTP requests
func (h *HTTPHandler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch status := r.URL.Query().Get("status"); status {
	case "pending":
		json.NewEncoder(w).Encode(map[string]interface{}{
			"approvals":    h.approvals.Pending(),
			"pendingCount": h.approvals.PendingCount(),
		})
	case store.StatusApproved:
		json.NewEncoder(w).Encode(map[string]interface{}{
			"approvals": h.approvals.Approved(),
		})
	case store.StatusRejected:
		json.NewEncoder(w).Encode(map[string]interface{}{
			"approvals": h.approvals.Rejected(),
		})
	case "":
		json.NewEncoder(w).Encode(map[string]interface{}{
			"pending":      h.approvals.Pending(),
			"approved":     h.approvals.Approved(),
			"rejected":     h.approvals.Rejected(),
			"pendingCount": h.approvals.PendingCount(),
		})
	default:
		http.Error(w, "Unknown status", http.StatusBadRequest)
	}
}

// ApproveRequest handles approve HTTP requests. A miss declines
// silently, so the response is 200 either way and reports whether the
// transition was applied.
func (h *HTTPHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.approvals.Approve)
}

// RejectRequest handles reject HTTP requests, with the same
// silent-decline contract as ApproveRequest.
func (h *HTTPHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.approvals.Reject)
}

func (h *HTTPHandler) decide(w http.ResponseWriter, r *http.Request, op func(context.Context, string) bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	applied := op(r.Context(), req.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"applied":      applied,
		"pendingCount": h.approvals.PendingCount(),
	})
}

// ── Notifications ─────────────────────────────────────────────────────────────

// ListNotifications handles list notifications HTTP requests
func (h *HTTPHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": h.notifications.Notifications(),
		"unreadCount":   h.notifications.UnreadCount(),
	})
}

// MarkNotificationRead handles mark-read HTTP requests
func (h *HTTPHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.notifications.MarkRead(r.Context(), req.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"unreadCount": h.notifications.UnreadCount(),
	})
}

// MarkAllNotificationsRead handles mark-all-read HTTP requests
func (h *HTTPHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.notifications.MarkAllRead(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"unreadCount": h.notifications.UnreadCount(),
	})
}

// DeleteNotification handles delete notification HTTP requests
func (h *HTTPHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Notification ID is required", http.StatusBadRequest)
		return
	}

	h.notifications.Remove(r.Context(), id)

	w.WriteHeader(http.StatusNoContent)
}

// ClearNotifications handles clear-all HTTP requests
func (h *HTTPHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.notifications.ClearAll(r.Context())

	w.WriteHeader(http.StatusNoContent)
}
