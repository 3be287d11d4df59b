package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"

	"github.com/pesio-ai/be-dash-approvals/internal/auth"
	"github.com/pesio-ai/be-dash-approvals/internal/events"
	"github.com/pesio-ai/be-dash-approvals/internal/logger"
)

// Notification actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// defaultLocation labels events whose caller supplied no list context.
const defaultLocation = "Dashboard"

// Notification is an immutable record of a domain event with a mutable
// read flag. Title and description are derived at creation time and
// never edited afterwards.
type Notification struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Action      string         `json:"action"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	Read        bool           `json:"read"`
	EntityID    string         `json:"entityId,omitempty"`
	EntityType  string         `json:"entityType,omitempty"`
	Entity      map[string]any `json:"entity,omitempty"`
	UserID      string         `json:"userId,omitempty"`
	UserName    string         `json:"userName,omitempty"`
	UserRole    string         `json:"userRole,omitempty"`
	Location    string         `json:"location,omitempty"`
}

func (n *Notification) clone() *Notification {
	out := *n
	if n.Entity != nil {
		out.Entity = make(map[string]any, len(n.Entity))
		for k, v := range n.Entity {
			out.Entity[k] = v
		}
	}
	return &out
}

// NotificationStore is the global event log and read-state tracker for
// the dashboard. New entries always go to the head of the list; no
// operation reorders existing entries.
type NotificationStore struct {
	mu    sync.Mutex
	items []*Notification

	storage Storage
	events  *events.Publisher
	log     *logger.Logger
}

// NewNotificationStore rehydrates the log from storage. The events
// publisher is optional; pass nil to disable fan-out.
func NewNotificationStore(ctx context.Context, storage Storage, pub *events.Publisher, log *logger.Logger) (*NotificationStore, error) {
	s := &NotificationStore{
		storage: storage,
		events:  pub,
		log:     log,
	}
	if _, err := storage.Load(ctx, KeyNotifications, &s.items); err != nil {
		return nil, err
	}
	return s, nil
}

// Add records a domain event at the head of the log. Title and
// description are derived from the entity's shape and the action;
// acting-user metadata comes from the auth context and is omitted when
// no user is present. The new entry starts unread.
func (s *NotificationStore) Add(ctx context.Context, typ, action string, entity map[string]any, location string) *Notification {
	title := deriveTitle(entity)

	n := &Notification{
		ID:          uuid.NewString(),
		Type:        typ,
		Action:      action,
		Title:       title,
		Description: deriveDescription(action, title, entity, location),
		CreatedAt:   time.Now(),
		EntityType:  typ,
		Location:    location,
	}
	if id, ok := entity["id"].(string); ok {
		n.EntityID = id
	}
	if entity != nil {
		n.Entity = make(map[string]any, len(entity))
		for k, v := range entity {
			n.Entity[k] = v
		}
	}
	if user, ok := auth.UserFromContext(ctx); ok {
		n.UserID = user.ID
		n.UserName = user.Name
		n.UserRole = user.Role
	}

	s.mu.Lock()
	s.items = append([]*Notification{n}, s.items...)
	s.persist(ctx)
	s.mu.Unlock()

	s.publish(n)

	return n.clone()
}

// MarkRead flags a notification as read. No-op when the id is unknown.
func (s *NotificationStore) MarkRead(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.items {
		if n.ID == id {
			if !n.Read {
				n.Read = true
				s.persist(ctx)
			}
			return
		}
	}
}

// MarkAllRead flags every notification as read.
func (s *NotificationStore) MarkAllRead(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.items {
		n.Read = true
	}
	s.persist(ctx)
}

// Remove permanently deletes a notification. No-op when the id is unknown.
func (s *NotificationStore) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persist(ctx)
			return
		}
	}
}

// ClearAll permanently empties the log.
func (s *NotificationStore) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persist(ctx)
}

// Notifications returns the log, most recent first.
func (s *NotificationStore) Notifications() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Notification, len(s.items))
	for i, n := range s.items {
		out[i] = n.clone()
	}
	return out
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *NotificationStore) persist(ctx context.Context) {
	if err := s.storage.Save(ctx, KeyNotifications, s.items); err != nil {
		s.log.Error().Err(err).Str("key", KeyNotifications).Msg("Failed to persist notifications")
	}
}

// publish fans the event out to NATS. Nil-safe and non-fatal.
func (s *NotificationStore) publish(n *Notification) {
	if s.events == nil {
		return
	}
	s.events.Publish(&events.Event{
		EventType:   n.Type,
		Action:      n.Action,
		EntityID:    n.EntityID,
		EntityType:  n.EntityType,
		ActorID:     n.UserID,
		Title:       n.Title,
		Description: n.Description,
		Payload:     n.Entity,
	})
}

// deriveTitle picks the entity's display title by shape: agreements
// expose "title", to-dos expose "task", approval requests expose
// "concept".
func deriveTitle(entity map[string]any) string {
	for _, key := range []string{"title", "task", "concept", "name"} {
		if v, ok := entity[key].(string); ok && v != "" {
			return v
		}
	}
	return "item"
}

// deriveDescription builds the human-readable event sentence. Monetary
// entities get their amount formatted in; terminal approval decisions
// read as approved/rejected rather than a generic update.
func deriveDescription(action, title string, entity map[string]any, location string) string {
	if location == "" {
		location = defaultLocation
	}

	subject := fmt.Sprintf("%q", title)
	if amount, ok := entityAmount(entity); ok {
		subject = fmt.Sprintf("%q for %s", title, money.New(amount, money.MXN).Display())
	}

	verb := ""
	switch action {
	case ActionCreated:
		verb = "was created in"
	case ActionUpdated:
		verb = "was updated in"
	case ActionDeleted:
		verb = "was removed from"
	default:
		verb = "changed in"
	}
	if status, ok := entity["status"].(string); ok && action == ActionUpdated {
		if status == StatusApproved || status == StatusRejected {
			verb = fmt.Sprintf("was %s in", status)
		}
	}

	return fmt.Sprintf("%s %s %s", subject, verb, location)
}

// entityAmount reads a principal amount in minor units from a snapshot,
// tolerating the numeric types JSON decoding produces.
func entityAmount(entity map[string]any) (int64, bool) {
	switch v := entity["amount"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
