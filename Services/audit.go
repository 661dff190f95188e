package Services

import (
	"context"

	"Taskflow/Models"
	"Taskflow/Permissions"
	"Taskflow/Store"

	"gorm.io/gorm"
)

type AuditFilter struct {
	ObjectType string
	UserID     uint
	Limit      int
}

type AuditService struct {
	*Core
}

func NewAuditService(core *Core) *AuditService {
	return &AuditService{Core: core}
}

// List returns the audit entries visible to actor, newest first.
func (s *AuditService) List(ctx context.Context, actor *Models.User, f AuditFilter) ([]Models.AuditLog, error) {
	return Store.Find[Models.AuditLog](s.read(ctx), Permissions.VisibleAuditLogs(actor), func(db *gorm.DB) *gorm.DB {
		if f.ObjectType != "" {
			db = db.Where("audit_logs.object_type = ?", f.ObjectType)
		}
		if f.UserID != 0 {
			db = db.Where("audit_logs.user_id = ?", f.UserID)
		}
		if f.Limit > 0 {
			db = db.Limit(f.Limit)
		}
		return db.Order("timestamp DESC, id DESC")
	})
}
