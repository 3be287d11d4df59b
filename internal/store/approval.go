// Package store holds the two state stores behind the dashboard: the
// approval request collections and the notification event log. Both are
// rehydrated from a Storage backend at startup and written through to it
// after every mutation.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pesio-ai/be-dash-approvals/internal/logger"
)

// Approval request statuses. A request in the pending collection carries
// no status field; the status is set when it moves to a terminal
// collection and never changes afterwards.
const (
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// TransferDestinations is the fixed set of sister entities an approval's
// amount can be split across. The per-destination amounts are
// independent fields; they are not required to sum to the principal
// amount.
var TransferDestinations = []string{"tesoreria", "nomina", "proveedores", "impuestos"}

// ApprovalRequest is a monetary disbursement proposal. Amounts are in
// minor currency units (centavos).
type ApprovalRequest struct {
	ID          string           `json:"id"`
	Urgent      bool             `json:"urgent"`
	PaymentDate string           `json:"paymentDate"`
	Category    string           `json:"category"`
	Subcategory string           `json:"subcategory"`
	Concept     string           `json:"concept"`
	Comments    string           `json:"comments"`
	Amount      int64            `json:"amount"`
	Transfers   map[string]int64 `json:"transfers"`
	Status      string           `json:"status,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (r *ApprovalRequest) clone() *ApprovalRequest {
	out := *r
	out.Transfers = make(map[string]int64, len(r.Transfers))
	for dest, amount := range r.Transfers {
		out.Transfers[dest] = amount
	}
	return &out
}

// snapshot captures the request's data for embedding in a notification.
func (r *ApprovalRequest) snapshot() map[string]any {
	transfers := make(map[string]int64, len(r.Transfers))
	for dest, amount := range r.Transfers {
		transfers[dest] = amount
	}
	snap := map[string]any{
		"id":          r.ID,
		"urgent":      r.Urgent,
		"paymentDate": r.PaymentDate,
		"category":    r.Category,
		"subcategory": r.Subcategory,
		"concept":     r.Concept,
		"comments":    r.Comments,
		"amount":      r.Amount,
		"transfers":   transfers,
		"createdAt":   r.CreatedAt,
	}
	if r.Status != "" {
		snap["status"] = r.Status
	}
	return snap
}

// AddPendingRequest carries the form-dialog fields for a new approval
// request. The dialog owns field validation; the store only defaults
// absent transfer amounts to zero.
type AddPendingRequest struct {
	Urgent      bool             `json:"urgent"`
	PaymentDate string           `json:"paymentDate"`
	Category    string           `json:"category"`
	Subcategory string           `json:"subcategory"`
	Concept     string           `json:"concept"`
	Comments    string           `json:"comments"`
	Amount      int64            `json:"amount"`
	Transfers   map[string]int64 `json:"transfers"`
}

// Notifier is the write port into the notification log. ApprovalStore
// depends on this interface only; the concrete NotificationStore is
// injected at wiring time, keeping the coupling one-directional.
type Notifier interface {
	Add(ctx context.Context, typ, action string, entity map[string]any, location string) *Notification
}

// approvalsLocation labels approval events in notification text.
const approvalsLocation = "Payment approvals"

// ApprovalStore is the sole authority over the three approval
// collections. A request lives in exactly one collection at a time;
// pending → approved and pending → rejected are the only transitions,
// and both are terminal.
type ApprovalStore struct {
	mu       sync.Mutex
	pending  []*ApprovalRequest
	approved []*ApprovalRequest
	rejected []*ApprovalRequest

	storage  Storage
	notifier Notifier
	log      *logger.Logger
}

// NewApprovalStore rehydrates the three collections from storage.
func NewApprovalStore(ctx context.Context, storage Storage, notifier Notifier, log *logger.Logger) (*ApprovalStore, error) {
	s := &ApprovalStore{
		storage:  storage,
		notifier: notifier,
		log:      log,
	}

	for key, dest := range map[string]*[]*ApprovalRequest{
		KeyPendingApprovals:  &s.pending,
		KeyApprovedApprovals: &s.approved,
		KeyRejectedApprovals: &s.rejected,
	} {
		if _, err := storage.Load(ctx, key, dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// AddPending creates a new approval request at the head of the pending
// collection and emits a created notification. It always succeeds.
func (s *ApprovalStore) AddPending(ctx context.Context, req *AddPendingRequest) *ApprovalRequest {
	r := &ApprovalRequest{
		ID:          uuid.NewString(),
		Urgent:      req.Urgent,
		PaymentDate: req.PaymentDate,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Concept:     req.Concept,
		Comments:    req.Comments,
		Amount:      req.Amount,
		Transfers:   normalizeTransfers(req.Transfers),
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.pending = append([]*ApprovalRequest{r}, s.pending...)
	s.persist(ctx, KeyPendingApprovals, s.pending)
	s.mu.Unlock()

	s.notify(ctx, ActionCreated, r)

	s.log.Info().
		Str("approval_id", r.ID).
		Str("concept", r.Concept).
		Int64("amount", r.Amount).
		Msg("Approval request created")

	return r.clone()
}

// Approve moves a pending request to the approved collection. It
// reports whether the transition was applied; an unknown or already
// decided id declines silently with no notification.
func (s *ApprovalStore) Approve(ctx context.Context, id string) bool {
	return s.decide(ctx, id, StatusApproved)
}

// Reject moves a pending request to the rejected collection, with the
// same silent-decline semantics as Approve.
func (s *ApprovalStore) Reject(ctx context.Context, id string) bool {
	return s.decide(ctx, id, StatusRejected)
}

func (s *ApprovalStore) decide(ctx context.Context, id, status string) bool {
	s.mu.Lock()

	idx := -1
	for i, r := range s.pending {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Only pending requests can be decided. The id is unknown or
		// already terminal: decline without error or notification.
		s.mu.Unlock()
		return false
	}

	moved := s.pending[idx].clone()
	moved.Status = status
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)

	if status == StatusApproved {
		s.approved = append([]*ApprovalRequest{moved}, s.approved...)
		s.persist(ctx, KeyApprovedApprovals, s.approved)
	} else {
		s.rejected = append([]*ApprovalRequest{moved}, s.rejected...)
		s.persist(ctx, KeyRejectedApprovals, s.rejected)
	}
	s.persist(ctx, KeyPendingApprovals, s.pending)
	s.mu.Unlock()

	s.notify(ctx, ActionUpdated, moved)

	s.log.Info().
		Str("approval_id", id).
		Str("status", status).
		Msg("Approval request decided")

	return true
}

// Pending returns the pending collection, most recent first.
func (s *ApprovalStore) Pending() []*ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRequests(s.pending)
}

// Approved returns the approved collection, most recent first.
func (s *ApprovalStore) Approved() []*ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRequests(s.approved)
}

// Rejected returns the rejected collection, most recent first.
func (s *ApprovalStore) Rejected() []*ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRequests(s.rejected)
}

// PendingCount returns the number of requests awaiting a decision.
func (s *ApprovalStore) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// notify emits a notification for a committed mutation. Emission always
// happens after the state change it describes has been persisted.
func (s *ApprovalStore) notify(ctx context.Context, action string, r *ApprovalRequest) {
	if s.notifier == nil {
		return
	}
	s.notifier.Add(ctx, "approvals", action, r.snapshot(), approvalsLocation)
}

// persist writes a collection through to storage. Persistence is
// best-effort: a write failure is logged and the mutation stands.
func (s *ApprovalStore) persist(ctx context.Context, key string, collection []*ApprovalRequest) {
	if err := s.storage.Save(ctx, key, collection); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to persist approval collection")
	}
}

// normalizeTransfers fills the fixed destination set, defaulting absent
// amounts to 0 and dropping unknown destinations.
func normalizeTransfers(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(TransferDestinations))
	for _, dest := range TransferDestinations {
		out[dest] = in[dest]
	}
	return out
}

func cloneRequests(in []*ApprovalRequest) []*ApprovalRequest {
	out := make([]*ApprovalRequest, len(in))
	for i, r := range in {
		out[i] = r.clone()
	}
	return out
}
