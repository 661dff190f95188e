package Models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Task struct {
	gorm.Model
	Versioning
	TaskCode         string           `json:"task_id" gorm:"uniqueIndex;size:32;not null"`
	ProjectID        uint             `json:"project_id" gorm:"index;not null"`
	Position         int              `json:"position"`
	Name             string           `json:"task_name" gorm:"not null"`
	AssigneeID       *uint            `json:"assignee_id" gorm:"index"`
	AssignerID       uint             `json:"assigner_id" gorm:"index"`
	TeamStatus       TaskStatus       `json:"team_status" gorm:"type:varchar(20);not null"`
	Progress         int              `json:"progress"`
	StartDate        *time.Time       `json:"start_date"`
	DueDate          *time.Time       `json:"due_date" gorm:"index"`
	CompletionDate   *time.Time       `json:"completion_date"`
	SubmissionStatus SubmissionStatus `json:"submission_status" gorm:"type:varchar(20)"`
	ReminderSentAt   *time.Time       `json:"reminder_sent_at"`

	Subtasks     []Subtask    `json:"subtasks,omitempty" gorm:"foreignKey:TaskID"`
	Dependencies []Dependency `json:"dependencies,omitempty" gorm:"foreignKey:TaskID"`
}

func (t *Task) GetID() uint { return t.ID }

func (t *Task) IsCompleted() bool { return t.TeamStatus == TaskCompleted }

func (t *Task) BeforeSave(tx *gorm.DB) error {
	utc(t.StartDate, t.DueDate, t.CompletionDate, t.ReminderSentAt)
	return nil
}

type Subtask struct {
	gorm.Model
	Versioning
	TaskID      uint          `json:"task_id" gorm:"index;not null"`
	Position    int           `json:"position"`
	Name        string        `json:"name" gorm:"not null"`
	Description string        `json:"description" gorm:"type:text"`
	AssigneeID  *uint         `json:"assignee_id" gorm:"index"`
	AssignerID  *uint         `json:"assigner_id" gorm:"index"`
	Status      SubtaskStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Submission  string        `json:"submission"`
	StartDate   *time.Time    `json:"start_date"`
	DueDate     *time.Time    `json:"due_date"`
}

func (s *Subtask) GetID() uint { return s.ID }

// Dependency is a blocking item owed to a task by another person.
type Dependency struct {
	gorm.Model
	TaskID         uint             `json:"task_id" gorm:"uniqueIndex:idx_task_person_description;not null"`
	PersonID       uint             `json:"person_id" gorm:"uniqueIndex:idx_task_person_description;not null"`
	Description    string           `json:"description" gorm:"not null"`
	DescriptionKey string           `json:"-" gorm:"uniqueIndex:idx_task_person_description;size:191;not null"`
	Status         DependencyStatus `json:"status" gorm:"type:varchar(20);not null"`
}

// DependencyKey normalizes a description for uniqueness checks.
func DependencyKey(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// BeforeSave keeps DescriptionKey in sync with Description.
func (d *Dependency) BeforeSave(tx *gorm.DB) error {
	d.Description = strings.TrimSpace(d.Description)
	d.DescriptionKey = DependencyKey(d.Description)
	return nil
}

type Comment struct {
	gorm.Model
	TaskID  uint   `json:"task_id" gorm:"index;not null"`
	UserID  uint   `json:"user_id" gorm:"index;not null"`
	Content string `json:"content" gorm:"type:text"`
	User    *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
