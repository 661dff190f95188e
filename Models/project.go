package Models

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	gorm.Model
	Versioning
	ProjectCode      string           `json:"project_id" gorm:"uniqueIndex;size:32;not null"`
	Name             string           `json:"project_name" gorm:"not null"`
	Type             string           `json:"project_type"`
	Description      string           `json:"project_description" gorm:"type:text"`
	OwnerID          uint             `json:"owner_id" gorm:"index"`
	ProjectOwnerID   uint             `json:"project_owner_id" gorm:"index"`
	Team             string           `json:"team" gorm:"index"`
	Status           ProjectStatus    `json:"status" gorm:"type:varchar(20);not null"`
	StartDate        *time.Time       `json:"start_date"`
	EndDate          *time.Time       `json:"end_date"`
	CompletionDate   *time.Time       `json:"completion_date"`
	SubmissionStatus SubmissionStatus `json:"submission_status" gorm:"type:varchar(20)"`
	ExpectedDuration int              `json:"expected_duration"`

	Tasks         []Task `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
	AssignedUsers []User `json:"assigned_users,omitempty" gorm:"many2many:project_assignees;"`

	// Mean task progress, filled by the aggregator for display only.
	Progress int `json:"progress" gorm:"-"`
}

func (p *Project) GetID() uint { return p.ID }

func (p *Project) IsCompleted() bool { return p.Status == ProjectCompleted }

func (p *Project) BeforeSave(tx *gorm.DB) error {
	utc(p.StartDate, p.EndDate, p.CompletionDate)
	return nil
}

// AssignedUserIDs returns the ids of the loaded AssignedUsers.
func (p *Project) AssignedUserIDs() []uint {
	ids := make([]uint, 0, len(p.AssignedUsers))
	for _, u := range p.AssignedUsers {
		ids = append(ids, u.ID)
	}
	return ids
}
