package email

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html"
)

//go:embed templates/*.html
var templateFiles embed.FS

const (
	TemplateWelcome          = "welcome"
	TemplateDependencyAdded  = "dependency_added"
	TemplateDependencyStatus = "dependency_status"
	TemplateLeaveRequest     = "leave_request"
	TemplateLeaveDecision    = "leave_decision"
)

// Templates renders the embedded mail bodies.
type Templates struct {
	engine *html.Engine
}

func NewTemplates() (*Templates, error) {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("failed to load mail templates: %w", err)
	}
	return &Templates{engine: engine}, nil
}

func (t *Templates) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.engine.Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
