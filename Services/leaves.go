package Services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Taskflow/Dispatch"
	"Taskflow/Leaves"
	"Taskflow/Models"
	"Taskflow/Store"
	"Taskflow/email"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

const leaveDateLayout = "2006-01-02"

type ApplyLeaveInput struct {
	LeaveType Models.LeaveType `json:"leave_type" validate:"required"`
	StartDate time.Time        `json:"start_date" validate:"required"`
	EndDate   time.Time        `json:"end_date" validate:"required"`
	Reason    string           `json:"reason"`
}

type LeaveSummary struct {
	Month     string `json:"month"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
}

type LeaveService struct {
	*Core
	approvers []string
}

// NewLeaveService builds the leave workflow. Requests are mailed to
// approvers and to the employee's manager.
func NewLeaveService(core *Core, approvers []string) *LeaveService {
	return &LeaveService{Core: core, approvers: approvers}
}

func (s *LeaveService) Apply(ctx context.Context, actor *Models.User, in ApplyLeaveInput) (*Models.Leave, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if !in.LeaveType.Valid() {
		return nil, Models.NewInvalidInput(fmt.Sprintf("invalid leave type %q", in.LeaveType))
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, Models.NewInvalidInput("end date must not be before start date")
	}
	var leave *Models.Leave
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.quota.CanApply(tx, actor.ID, in.StartDate); err != nil {
			return err
		}
		leave = &Models.Leave{
			EmployeeID: actor.ID,
			LeaveType:  in.LeaveType,
			StartDate:  in.StartDate,
			EndDate:    in.EndDate,
			Reason:     strings.TrimSpace(in.Reason),
			Status:     Models.LeavePending,
		}
		if err := tx.Create(leave); err != nil {
			return err
		}

		to := append([]string(nil), s.approvers...)
		if actor.ManagerID != nil {
			manager, err := Store.Get[Models.User](tx, *actor.ManagerID)
			if err != nil && !Models.HasCode(err, Models.ErrCodeNotFound) {
				return err
			}
			if manager != nil && !slices.Contains(to, manager.Email) {
				to = append(to, manager.Email)
			}
		}
		fx.Audit(actor.ID, "Applied Leave", idString(leave.ID), "leave",
			fmt.Sprintf("%s from %s to %s", leave.LeaveType,
				leave.StartDate.Format(leaveDateLayout), leave.EndDate.Format(leaveDateLayout)))
		if len(to) > 0 {
			fx.Mail(to, "New Leave Request", email.TemplateLeaveRequest, map[string]any{
				"Employee":  actor.Name,
				"LeaveType": string(leave.LeaveType),
				"StartDate": leave.StartDate.Format(leaveDateLayout),
				"EndDate":   leave.EndDate.Format(leaveDateLayout),
				"Reason":    leave.Reason,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return leave, nil
}

// Mine lists actor's leaves, latest start first.
func (s *LeaveService) Mine(ctx context.Context, actor *Models.User) ([]Models.Leave, error) {
	return Store.Find[Models.Leave](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where("employee_id = ?", actor.ID).Order("start_date DESC, id DESC")
	})
}

// All lists every leave, optionally only those with status.
func (s *LeaveService) All(ctx context.Context, actor *Models.User, status Models.LeaveStatus) ([]Models.Leave, error) {
	if err := s.resolver.Require(ctx, actor, Models.PermViewAllLeaves); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, Models.NewInvalidInput(fmt.Sprintf("invalid leave status %q", status))
	}
	return Store.Find[Models.Leave](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db.Preload("Employee").Order("start_date DESC, id DESC")
	})
}

// Summary reports how much of the month's quota actor has used. A zero
// month means the current one.
func (s *LeaveService) Summary(ctx context.Context, actor *Models.User, month time.Time) (*LeaveSummary, error) {
	if month.IsZero() {
		month = s.now()
	}
	used, err := s.quota.Used(s.read(ctx), actor.ID, month)
	if err != nil {
		return nil, err
	}
	from, _ := s.quota.MonthBounds(month)
	remaining := Leaves.MonthlyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return &LeaveSummary{
		Month:     from.Format("2006-01"),
		Used:      used,
		Remaining: remaining,
		Limit:     Leaves.MonthlyLimit,
	}, nil
}

// Decide approves or rejects a leave and mails the employee.
func (s *LeaveService) Decide(ctx context.Context, actor *Models.User, id uint, status Models.LeaveStatus) (*Models.Leave, error) {
	if status != Models.LeaveApproved && status != Models.LeaveRejected {
		return nil, Models.NewInvalidInput(fmt.Sprintf("a leave can only be %s or %s", Models.LeaveApproved, Models.LeaveRejected))
	}
	var leave *Models.Leave
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermManageLeaves); err != nil {
			return err
		}
		var err error
		leave, err = Store.Get[Models.Leave](tx, id, "Employee")
		if err != nil {
			return err
		}
		if leave.EmployeeID == actor.ID && !actor.IsAdmin() {
			return Models.NewForbidden("you cannot decide your own leave")
		}
		approver := actor.ID
		leave.Status = status
		leave.ApprovedBy = &approver
		if err := tx.Save(leave); err != nil {
			return err
		}
		fx.Audit(actor.ID, "Updated Leave", idString(leave.ID), "leave", string(status))
		if leave.Employee != nil {
			fx.Mail([]string{leave.Employee.Email}, "Leave Request "+string(status), email.TemplateLeaveDecision, map[string]any{
				"Employee":  leave.Employee.Name,
				"LeaveType": string(leave.LeaveType),
				"StartDate": leave.StartDate.Format(leaveDateLayout),
				"EndDate":   leave.EndDate.Format(leaveDateLayout),
				"Status":    string(status),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return leave, nil
}
