package Models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name        string         `json:"name" gorm:"not null"`
	Email       string         `json:"email" gorm:"uniqueIndex;size:191;not null"`
	Password    []byte         `json:"-"`
	Role        Role           `json:"role" gorm:"type:varchar(20);index;not null"`
	Team        string         `json:"team" gorm:"index"`
	Location    string         `json:"location"`
	Designation string         `json:"designation"`
	ManagerID   *uint          `json:"manager_id" gorm:"index"`
	Permissions datatypes.JSON `json:"permissions"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// PermissionList decodes the per-user permission column.
func (u *User) PermissionList() []string {
	return decodeStrings(u.Permissions)
}

func (u *User) SetPermissions(perms []string) {
	u.Permissions = encodeStrings(perms)
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func encodeStrings(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}
