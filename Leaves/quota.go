package Leaves

import (
	"fmt"
	"time"

	"Taskflow/Models"
	"Taskflow/Store"

	"gorm.io/gorm"
)

// MonthlyLimit is how many pending or approved leaves an employee may hold
// per calendar month.
const MonthlyLimit = 2

type QuotaChecker struct {
	location *time.Location
}

func NewQuotaChecker(loc *time.Location) *QuotaChecker {
	if loc == nil {
		loc = time.UTC
	}
	return &QuotaChecker{location: loc}
}

// MonthBounds returns [first day of t's month, first day of the next).
func (q *QuotaChecker) MonthBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(q.location)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, q.location)
	return start, start.AddDate(0, 1, 0)
}

// Used counts the employee's pending and approved leaves starting in the
// month of t.
func (q *QuotaChecker) Used(tx *Store.Store, employeeID uint, t time.Time) (int, error) {
	from, to := q.MonthBounds(t)
	n, err := Store.Count[Models.Leave](tx, func(db *gorm.DB) *gorm.DB {
		return db.Where("employee_id = ? AND status IN ? AND start_date >= ? AND start_date < ?",
			employeeID, []Models.LeaveStatus{Models.LeavePending, Models.LeaveApproved}, from.UTC(), to.UTC())
	})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// CanApply fails with QuotaExceeded once the month of start is full.
func (q *QuotaChecker) CanApply(tx *Store.Store, employeeID uint, start time.Time) error {
	used, err := q.Used(tx, employeeID, start)
	if err != nil {
		return err
	}
	if used >= MonthlyLimit {
		return Models.NewQuotaExceeded(fmt.Sprintf(
			"you can only apply for %d leaves per month", MonthlyLimit))
	}
	return nil
}
