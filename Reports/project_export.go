// Package Reports renders projects as spreadsheets.
package Reports

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"Taskflow/Models"

	"github.com/xuri/excelize/v2"
)

const (
	TasksSheet    = "Tasks"
	SubtasksSheet = "Subtasks"
	dateLayout    = "2006-01-02"
)

var (
	taskHeaders = []string{
		"Task ID", "Task", "Assignee", "Status", "Progress",
		"Start Date", "Due Date", "Completion Date", "Submission",
	}
	subtaskHeaders = []string{"Task ID", "Subtask", "Assignee", "Status", "Due Date"}
)

// ProjectWorkbook writes the project's tasks and subtasks into an xlsx
// workbook. Tasks and their Subtasks must be loaded; assignees are named
// from the project's AssignedUsers when possible.
func ProjectWorkbook(project *Models.Project) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TasksSheet); err != nil {
		return nil, fmt.Errorf("error renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(SubtasksSheet); err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}

	names := make(map[uint]string, len(project.AssignedUsers))
	for _, u := range project.AssignedUsers {
		names[u.ID] = u.Name
	}
	assignee := func(id *uint) string {
		if id == nil {
			return ""
		}
		if name, ok := names[*id]; ok {
			return name
		}
		return "#" + strconv.FormatUint(uint64(*id), 10)
	}

	if err := writeHeader(f, TasksSheet, taskHeaders); err != nil {
		return nil, err
	}
	if err := writeHeader(f, SubtasksSheet, subtaskHeaders); err != nil {
		return nil, err
	}

	subRow := 2
	for i, task := range project.Tasks {
		values := []interface{}{
			task.TaskCode,
			task.Name,
			assignee(task.AssigneeID),
			string(task.TeamStatus),
			task.Progress,
			formatDate(task.StartDate),
			formatDate(task.DueDate),
			formatDate(task.CompletionDate),
			string(task.SubmissionStatus),
		}
		if err := writeRow(f, TasksSheet, i+2, values); err != nil {
			return nil, err
		}
		for _, sub := range task.Subtasks {
			values := []interface{}{
				task.TaskCode,
				sub.Name,
				assignee(sub.AssigneeID),
				string(sub.Status),
				formatDate(sub.DueDate),
			}
			if err := writeRow(f, SubtasksSheet, subRow, values); err != nil {
				return nil, err
			}
			subRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing Excel file to buffer: %w", err)
	}
	return &buf, nil
}

// Filename is the download name for a project's workbook.
func Filename(project *Models.Project) string {
	return project.ProjectCode + ".xlsx"
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := writeRow(f, sheet, 1, row); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("error writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
