package Reports

import (
	"testing"
	"time"

	"Taskflow/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func TestProjectWorkbook(t *testing.T) {
	opic := uint(7)
	stranger := uint(9)
	due := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	project := &Models.Project{
		ProjectCode:   "PJ240315-0001",
		AssignedUsers: []Models.User{{Model: gorm.Model{ID: opic}, Name: "Nadia"}},
		Tasks: []Models.Task{
			{
				TaskCode:   "TK240315-0001",
				Name:       "Design",
				AssigneeID: &opic,
				TeamStatus: Models.TaskInProgress,
				Progress:   50,
				DueDate:    &due,
				Subtasks: []Models.Subtask{
					{Name: "Wireframes", AssigneeID: &opic, Status: Models.SubtaskCompleted},
					{Name: "Mockups", AssigneeID: &stranger, Status: Models.SubtaskNotStarted},
				},
			},
			{TaskCode: "TK240315-0002", Name: "Build", TeamStatus: Models.TaskNotStarted},
		},
	}

	buf, err := ProjectWorkbook(project)
	require.NoError(t, err)
	assert.Equal(t, "PJ240315-0001.xlsx", Filename(project))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	tasks, err := f.GetRows(TasksSheet)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Task ID", tasks[0][0])
	assert.Equal(t, []string{"TK240315-0001", "Design", "Nadia", "In Progress", "50", "", "2024-03-20"}, tasks[1])
	assert.Equal(t, "Build", tasks[2][1])

	subtasks, err := f.GetRows(SubtasksSheet)
	require.NoError(t, err)
	require.Len(t, subtasks, 3)
	assert.Equal(t, []string{"TK240315-0001", "Wireframes", "Nadia", "Completed"}, subtasks[1])
	assert.Equal(t, "#9", subtasks[2][2])
}
