package Models

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleOpic    Role = "opic"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleOpic:
		return true
	}
	return false
}

// ProjectStatus is the lifecycle state of a Project.
type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "Pending"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectCompleted  ProjectStatus = "Completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPending, ProjectInProgress, ProjectCompleted:
		return true
	}
	return false
}

// TaskStatus is a Task's teamStatus.
type TaskStatus string

const (
	TaskNotStarted TaskStatus = "Not Started"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

type SubtaskStatus string

const (
	SubtaskNotStarted SubtaskStatus = "Not Started"
	SubtaskInProgress SubtaskStatus = "In Progress"
	SubtaskInReview   SubtaskStatus = "In Review"
	SubtaskCompleted  SubtaskStatus = "Completed"
)

func (s SubtaskStatus) Valid() bool {
	switch s {
	case SubtaskNotStarted, SubtaskInProgress, SubtaskInReview, SubtaskCompleted:
		return true
	}
	return false
}

type DependencyStatus string

const (
	DependencyPending    DependencyStatus = "Pending"
	DependencyInProgress DependencyStatus = "In Progress"
	DependencyCompleted  DependencyStatus = "Completed"
)

func (s DependencyStatus) Valid() bool {
	switch s {
	case DependencyPending, DependencyInProgress, DependencyCompleted:
		return true
	}
	return false
}

// SubmissionStatus classifies a completion against its target date.
type SubmissionStatus string

const (
	SubmissionOnTime     SubmissionStatus = "On Time"
	SubmissionBeforeTime SubmissionStatus = "Before Time"
	SubmissionOverDue    SubmissionStatus = "OverDue"
)

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "Pending"
	LeaveApproved LeaveStatus = "Approved"
	LeaveRejected LeaveStatus = "Rejected"
)

func (s LeaveStatus) Valid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected:
		return true
	}
	return false
}

type LeaveType string

const (
	LeaveCasual       LeaveType = "Casual Leave"
	LeaveSick         LeaveType = "Sick Leave"
	LeavePaid         LeaveType = "Paid Leave"
	LeaveUnpaid       LeaveType = "Unpaid Leave"
	LeaveWorkFromHome LeaveType = "Work From Home"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeaveCasual, LeaveSick, LeavePaid, LeaveUnpaid, LeaveWorkFromHome:
		return true
	}
	return false
}

// NotificationType names the kind of object a notification points at.
type NotificationType string

const (
	NotifyProject NotificationType = "project"
	NotifyTask    NotificationType = "task"
	NotifySubtask NotificationType = "subtask"
	NotifyComment NotificationType = "comment"
)
