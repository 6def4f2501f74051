package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/iiFadel/dynamic-form-allocation/internal/app"
	"github.com/iiFadel/dynamic-form-allocation/internal/domain"
)

type FormHandler struct {
	formService app.FormService
	baseURL     string
	log         *logrus.Logger
}

type OptionPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateFormRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Workers     []OptionPayload `json:"workers"`
	Services    []OptionPayload `json:"services"`
	CallbackURL string          `json:"callbackUrl"`
}

type SubmitFormRequest struct {
	Assignments []domain.Assignment `json:"assignments"`
	Notes       string              `json:"notes"`
}

func NewFormHandler(formService app.FormService, baseURL string, log *logrus.Logger) *FormHandler {
	return &FormHandler{formService: formService, baseURL: baseURL, log: log}
}

func (h *FormHandler) CreateForm(c *gin.Context) {
	var req CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "request body is not valid JSON"})
		return
	}

	result, err := h.formService.CreateForm(c.Request.Context(), app.CreateFormInput{
		Title:       req.Title,
		Description: req.Description,
		CallbackURL: req.CallbackURL,
		Workers:     toWorkerOptions(req.Workers),
		Services:    toServiceOptions(req.Services),
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "the form could not be created because of invalid input",
				"issues":  verr.Issues,
			})
			return
		}
		h.log.WithError(err).Error("unexpected error while creating form")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "an unexpected error occurred, please try again later"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"formUrl": h.formURL(c, result.Alias),
		"formId":  result.FormID,
	})
}

func (h *FormHandler) SubmitForm(c *gin.Context) {
	ref := c.Param("ref")

	var req SubmitFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "request body is not valid JSON"})
		return
	}

	err := h.formService.SubmitForm(c.Request.Context(), ref, app.Submission{
		Assignments: req.Assignments,
		Notes:       req.Notes,
	})
	if err != nil {
		h.respondSubmitError(c, ref, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "submission received and delivered"})
}

func (h *FormHandler) respondSubmitError(c *gin.Context, ref string, err error) {
	var mismatch *domain.MismatchError
	var delivery *domain.DeliveryError

	switch {
	case errors.Is(err, domain.ErrFormNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "the form link is invalid or has expired"})
	case errors.As(err, &mismatch):
		c.JSON(http.StatusBadRequest, gin.H{"message": mismatch.Reason})
	case errors.As(err, &delivery):
		c.JSON(http.StatusBadGateway, gin.H{"message": "the submission was valid but could not be delivered to the callback endpoint"})
	default:
		h.log.WithError(err).WithField("ref", ref).Error("unexpected error while submitting form")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "an unexpected error occurred, please try again later"})
	}
}

// formURL assembles the shareable link from the configured base URL, or
// from the incoming request when none is configured.
func (h *FormHandler) formURL(c *gin.Context, alias string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/form/" + alias
}

func toWorkerOptions(payload []OptionPayload) []domain.WorkerOption {
	options := make([]domain.WorkerOption, len(payload))
	for i, p := range payload {
		options[i] = domain.WorkerOption{ID: p.ID, Name: p.Name}
	}
	return options
}

func toServiceOptions(payload []OptionPayload) []domain.ServiceOption {
	options := make([]domain.ServiceOption, len(payload))
	for i, p := range payload {
		options[i] = domain.ServiceOption{ID: p.ID, Name: p.Name}
	}
	return options
}
