package Models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TemplateTask struct {
	Name     string   `json:"name" validate:"required"`
	Subtasks []string `json:"subtasks"`
}

// ProjectTemplate is matched to new projects by ProjectType.
type ProjectTemplate struct {
	gorm.Model
	Name        string         `json:"name" gorm:"not null"`
	ProjectType string         `json:"project_type" gorm:"uniqueIndex;size:100;not null"`
	Tasks       datatypes.JSON `json:"tasks"`
}

func (t *ProjectTemplate) TaskList() ([]TemplateTask, error) {
	if len(t.Tasks) == 0 {
		return nil, nil
	}
	var out []TemplateTask
	if err := json.Unmarshal(t.Tasks, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *ProjectTemplate) SetTaskList(tasks []TemplateTask) error {
	b, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	t.Tasks = datatypes.JSON(b)
	return nil
}
