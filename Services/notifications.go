package Services

import (
	"context"
	"strings"

	"Taskflow/Models"
	"Taskflow/Permissions"
	"Taskflow/Store"

	"gorm.io/gorm"
)

const defaultNotificationLimit = 50

type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
}

type NotificationService struct {
	*Core
}

func NewNotificationService(core *Core) *NotificationService {
	return &NotificationService{Core: core}
}

// List returns the notifications actor may see, newest first.
func (s *NotificationService) List(ctx context.Context, actor *Models.User, f NotificationFilter) ([]Models.Notification, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return Store.Find[Models.Notification](s.read(ctx), Permissions.VisibleNotifications(actor), func(db *gorm.DB) *gorm.DB {
		if f.UnreadOnly {
			db = db.Where(map[string]any{"read": false})
		}
		return db.Order("created_at DESC, id DESC").Limit(limit)
	})
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor *Models.User) (int64, error) {
	return Store.Count[Models.Notification](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where("recipient_id = ?", actor.ID).Where(map[string]any{"read": false})
	})
}

// MarkRead flags one notification as read. Only its recipient or an admin
// may.
func (s *NotificationService) MarkRead(ctx context.Context, actor *Models.User, id uint) (*Models.Notification, error) {
	var n *Models.Notification
	err := s.store.Transaction(ctx, func(tx *Store.Store) error {
		var err error
		n, err = Store.Get[Models.Notification](tx, id)
		if err != nil {
			return err
		}
		if n.RecipientID != actor.ID && !actor.IsAdmin() {
			return Models.NewForbidden("you can only mark your own notifications as read")
		}
		if n.Read {
			return nil
		}
		n.Read = true
		return tx.Save(n)
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// MarkAllRead flags every unread notification of actor and reports how many
// changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *Models.User) (int64, error) {
	res := s.read(ctx).DB().Model(&Models.Notification{}).
		Where("recipient_id = ?", actor.ID).
		Where(map[string]any{"read": false}).
		Update("read", true)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// RegisterToken binds a device push token to actor. A token already held
// by another user moves to actor.
func (s *NotificationService) RegisterToken(ctx context.Context, actor *Models.User, value string) (*Models.DeviceToken, error) {
	req := Models.UpdateTokenRequest{Value: strings.TrimSpace(value)}
	if err := s.check(req); err != nil {
		return nil, err
	}
	var token *Models.DeviceToken
	err := s.store.Transaction(ctx, func(tx *Store.Store) error {
		found, err := Store.Find[Models.DeviceToken](tx, func(db *gorm.DB) *gorm.DB {
			return db.Where("value = ?", req.Value).Limit(1)
		})
		if err != nil {
			return err
		}
		if len(found) > 0 {
			token = &found[0]
			if token.UserID == actor.ID {
				return nil
			}
			token.UserID = actor.ID
			return tx.Save(token)
		}
		token = &Models.DeviceToken{UserID: actor.ID, Value: req.Value}
		return tx.Create(token)
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *NotificationService) RemoveToken(ctx context.Context, actor *Models.User, value string) error {
	return Store.Purge[Models.DeviceToken](s.read(ctx), "user_id = ? AND value = ?", actor.ID, strings.TrimSpace(value))
}
