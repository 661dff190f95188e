package Services

import (
	"context"
	"fmt"
	"strings"

	"Taskflow/Dispatch"
	"Taskflow/Models"
	"Taskflow/Store"

	"gorm.io/gorm"
)

type TemplateInput struct {
	Name        string                `json:"name" validate:"required"`
	ProjectType string                `json:"project_type" validate:"required"`
	Tasks       []Models.TemplateTask `json:"tasks" validate:"dive"`
}

type TemplateService struct {
	*Core
}

func NewTemplateService(core *Core) *TemplateService {
	return &TemplateService{Core: core}
}

func (s *TemplateService) normalize(in *TemplateInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.ProjectType = strings.TrimSpace(in.ProjectType)
	return s.check(*in)
}

func (s *TemplateService) Create(ctx context.Context, actor *Models.User, in TemplateInput) (*Models.ProjectTemplate, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}
	var tpl *Models.ProjectTemplate
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermCreateProject); err != nil {
			return err
		}
		tpl = &Models.ProjectTemplate{Name: in.Name, ProjectType: in.ProjectType}
		if err := tpl.SetTaskList(in.Tasks); err != nil {
			return fmt.Errorf("failed to encode template tasks: %w", err)
		}
		if err := tx.Create(tpl); err != nil {
			if Store.IsDuplicateKey(err) {
				return Models.NewInvalidInput(fmt.Sprintf("a template for project type %q already exists", in.ProjectType))
			}
			return err
		}
		fx.Audit(actor.ID, "Created Template", idString(tpl.ID), "template",
			fmt.Sprintf("%s (%s), %d tasks", tpl.Name, tpl.ProjectType, len(in.Tasks)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *TemplateService) List(ctx context.Context) ([]Models.ProjectTemplate, error) {
	return Store.Find[Models.ProjectTemplate](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Order("project_type")
	})
}

// ForType returns the template a new project of projectType would use.
func (s *TemplateService) ForType(ctx context.Context, projectType string) (*Models.ProjectTemplate, error) {
	tpls, err := Store.Find[Models.ProjectTemplate](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where("project_type = ?", strings.TrimSpace(projectType)).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(tpls) == 0 {
		return nil, Models.NewNotFound("template", projectType)
	}
	return &tpls[0], nil
}

func (s *TemplateService) Update(ctx context.Context, actor *Models.User, id uint, in TemplateInput) (*Models.ProjectTemplate, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}
	var tpl *Models.ProjectTemplate
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermCreateProject); err != nil {
			return err
		}
		var err error
		tpl, err = Store.Get[Models.ProjectTemplate](tx, id)
		if err != nil {
			return err
		}
		tpl.Name = in.Name
		tpl.ProjectType = in.ProjectType
		if err := tpl.SetTaskList(in.Tasks); err != nil {
			return fmt.Errorf("failed to encode template tasks: %w", err)
		}
		if err := tx.Save(tpl); err != nil {
			if Store.IsDuplicateKey(err) {
				return Models.NewInvalidInput(fmt.Sprintf("a template for project type %q already exists", in.ProjectType))
			}
			return err
		}
		fx.Audit(actor.ID, "Updated Template", idString(tpl.ID), "template", tpl.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// Delete removes the template for good so its project type can be reused.
func (s *TemplateService) Delete(ctx context.Context, actor *Models.User, id uint) error {
	return s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermCreateProject); err != nil {
			return err
		}
		tpl, err := Store.Get[Models.ProjectTemplate](tx, id)
		if err != nil {
			return err
		}
		if err := Store.Purge[Models.ProjectTemplate](tx, "id = ?", id); err != nil {
			return err
		}
		fx.Audit(actor.ID, "Deleted Template", idString(id), "template", tpl.Name)
		return nil
	})
}
