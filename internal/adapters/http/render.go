package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/iiFadel/dynamic-form-allocation/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))
	// Form descriptions are creator-supplied and rendered as markup, so
	// they pass through a UGC sanitizer first. Titles and option names are
	// rendered as plain text and rely on template escaping.
	descriptionPolicy = bluemonday.UGCPolicy()
)

type formPage struct {
	Ref         string
	Title       string
	Description template.HTML
	Services    []domain.ServiceOption
	Workers     []domain.WorkerOption
}

// RenderForm serves the respondent-facing page: one radio group per
// service across all workers, plus optional notes. A reference that fails
// to resolve or verify renders the invalid-link page.
func (h *FormHandler) RenderForm(c *gin.Context) {
	ref := c.Param("ref")

	def, err := h.formService.ResolveForm(c.Request.Context(), ref)
	if err != nil {
		if !errors.Is(err, domain.ErrFormNotFound) {
			h.log.WithError(err).WithField("ref", ref).Error("unexpected error while resolving form")
		}
		c.Status(http.StatusNotFound)
		h.renderPage(c, "invalid.html", nil)
		return
	}

	c.Status(http.StatusOK)
	h.renderPage(c, "form.html", formPage{
		Ref:         ref,
		Title:       def.Title,
		Description: template.HTML(descriptionPolicy.Sanitize(def.Description)),
		Services:    def.Services,
		Workers:     def.Workers,
	})
}

func (h *FormHandler) renderPage(c *gin.Context, name string, data any) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(c.Writer, name, data); err != nil {
		h.log.WithError(err).Error("failed to render form page")
	}
}
