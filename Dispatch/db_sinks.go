package Dispatch

import (
	"context"
	"fmt"

	"Taskflow/Models"
	"Taskflow/Store"
)

// NotificationStore persists notices as Notification rows.
type NotificationStore struct {
	store *Store.Store
	clock Models.Clock
}

func NewNotificationStore(s *Store.Store, clock Models.Clock) *NotificationStore {
	return &NotificationStore{store: s, clock: clock}
}

func (n *NotificationStore) Notify(ctx context.Context, notice Notice) error {
	row := &Models.Notification{
		RecipientID: notice.RecipientID,
		Title:       notice.Title,
		Message:     notice.Message,
		Type:        notice.Type,
		ReferenceID: notice.ReferenceID,
		CreatedAt:   n.clock.Now(),
	}
	return n.store.WithContext(ctx).Create(row)
}

// AuditStore appends AuditLog rows. A missing parent is taken from the
// actor: a manager is its own parent, an opic reports to its manager.
type AuditStore struct {
	store *Store.Store
	clock Models.Clock
}

func NewAuditStore(s *Store.Store, clock Models.Clock) *AuditStore {
	return &AuditStore{store: s, clock: clock}
}

func (a *AuditStore) Record(ctx context.Context, e AuditEntry) error {
	s := a.store.WithContext(ctx)
	parent := e.ParentID
	if parent == nil {
		actor, err := Store.Get[Models.User](s, e.UserID)
		if err != nil {
			return fmt.Errorf("failed to resolve audit parent: %w", err)
		}
		parent = ParentOf(actor)
	}
	return s.Create(&Models.AuditLog{
		UserID:         e.UserID,
		Action:         e.Action,
		ObjectID:       e.ObjectID,
		ObjectType:     e.ObjectType,
		AdditionalInfo: e.Info,
		ParentID:       parent,
		Timestamp:      a.clock.Now(),
	})
}

func ParentOf(actor *Models.User) *uint {
	switch actor.Role {
	case Models.RoleManager:
		id := actor.ID
		return &id
	case Models.RoleOpic:
		return actor.ManagerID
	}
	return nil
}
