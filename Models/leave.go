package Models

import (
	"time"

	"gorm.io/gorm"
)

type Leave struct {
	gorm.Model
	EmployeeID uint        `json:"employee_id" gorm:"index;not null"`
	Employee   *User       `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
	LeaveType  LeaveType   `json:"leave_type" gorm:"type:varchar(30);not null"`
	StartDate  time.Time   `json:"start_date" gorm:"index;not null"`
	EndDate    time.Time   `json:"end_date" gorm:"not null"`
	Reason     string      `json:"reason" gorm:"type:text"`
	Status     LeaveStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	ApprovedBy *uint       `json:"approved_by"`
}

func (l *Leave) BeforeSave(tx *gorm.DB) error {
	utc(&l.StartDate, &l.EndDate)
	return nil
}
