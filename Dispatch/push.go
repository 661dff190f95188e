package Dispatch

import (
	"context"
	"fmt"

	"Taskflow/Models"
	"Taskflow/Store"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// Messenger is the part of the FCM client the push sink uses.
type Messenger interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// NewFirebaseMessenger builds an FCM client from a service account file.
func NewFirebaseMessenger(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Messaging client: %w", err)
	}
	return client, nil
}

// PushSink sends each notice to every device the recipient registered.
// Tokens FCM reports as unregistered are dropped.
type PushSink struct {
	store     *Store.Store
	messenger Messenger
}

func NewPushSink(s *Store.Store, m Messenger) *PushSink {
	return &PushSink{store: s, messenger: m}
}

func (p *PushSink) Notify(ctx context.Context, n Notice) error {
	s := p.store.WithContext(ctx)
	tokens, err := Store.Find[Models.DeviceToken](s, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", n.RecipientID)
	})
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	values := make([]string, 0, len(tokens))
	for _, t := range tokens {
		values = append(values, t.Value)
	}
	message := &messaging.MulticastMessage{
		Tokens: values,
		Data: map[string]string{
			"type":         string(n.Type),
			"reference_id": n.ReferenceID,
		},
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
	}

	resp, err := p.messenger.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending Firebase message: %w", err)
	}

	var stale []string
	for i, r := range resp.Responses {
		if r != nil && !r.Success && messaging.IsUnregistered(r.Error) {
			stale = append(stale, values[i])
		}
	}
	if len(stale) > 0 {
		if err := Store.Purge[Models.DeviceToken](s, "value IN ?", stale); err != nil {
			return err
		}
	}
	if resp.FailureCount > len(stale) {
		return fmt.Errorf("push failed for %d of %d devices", resp.FailureCount, len(values))
	}
	return nil
}
