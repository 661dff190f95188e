package Models

import "time"

type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	RecipientID uint             `json:"recipient_id" gorm:"index;not null"`
	Title       string           `json:"title"`
	Message     string           `json:"message" gorm:"type:text"`
	Type        NotificationType `json:"type" gorm:"type:varchar(20)"`
	ReferenceID string           `json:"reference_id"`
	Read        bool             `json:"read" gorm:"index"`
	CreatedAt   time.Time        `json:"created_at"`
}

// DeviceToken is a push registration for a user's device.
type DeviceToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Value     string    `json:"value" gorm:"uniqueIndex;size:255;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateTokenRequest struct {
	Value string `json:"value" validate:"required"`
}
