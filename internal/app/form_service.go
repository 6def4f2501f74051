package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iiFadel/dynamic-form-allocation/internal/alias"
	"github.com/iiFadel/dynamic-form-allocation/internal/domain"
	"github.com/iiFadel/dynamic-form-allocation/internal/metrics"
	"github.com/iiFadel/dynamic-form-allocation/internal/token"
)

const maxDescriptionLength = 800

// CreateFormInput is the validated-to-be creation request.
type CreateFormInput struct {
	Title       string
	Description string
	CallbackURL string
	Workers     []domain.WorkerOption
	Services    []domain.ServiceOption
}

// CreateFormResult carries what the caller needs to share the form.
type CreateFormResult struct {
	FormID string
	Alias  string
}

// Submission is a respondent's complete answer for one form.
type Submission struct {
	Assignments []domain.Assignment
	Notes       string
}

// FormService orchestrates the form lifecycle: create-and-publish, and
// resolve-and-submit.
type FormService interface {
	// CreateForm validates input, mints a definition and publishes it
	// under a fresh alias. Returns *domain.ValidationError on bad input.
	CreateForm(ctx context.Context, input CreateFormInput) (*CreateFormResult, error)
	// ResolveForm resolves an alias — or a raw token pasted in its place —
	// to a verified definition. Returns domain.ErrFormNotFound when the
	// reference does not resolve or the token fails verification.
	ResolveForm(ctx context.Context, ref string) (*domain.FormDefinition, error)
	// SubmitForm validates the assignments against the resolved definition
	// and relays the result to the definition's callback URL, blocking
	// until the single delivery attempt completes.
	SubmitForm(ctx context.Context, ref string, sub Submission) error
}

type formService struct {
	registry *alias.Registry
	codec    *token.Codec
	relay    domain.CallbackRelay
	metrics  *metrics.Metrics
	log      *logrus.Logger
}

func NewFormService(registry *alias.Registry, codec *token.Codec, relay domain.CallbackRelay, m *metrics.Metrics, log *logrus.Logger) FormService {
	return &formService{
		registry: registry,
		codec:    codec,
		relay:    relay,
		metrics:  m,
		log:      log,
	}
}

func (s *formService) CreateForm(ctx context.Context, input CreateFormInput) (*CreateFormResult, error) {
	if issues := validateCreateInput(input); len(issues) > 0 {
		return nil, &domain.ValidationError{Issues: issues}
	}

	def := domain.NewFormDefinition(input.Title, input.Description, input.CallbackURL, input.Workers, input.Services)
	a, err := s.registry.CreateAlias(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("publish form: %w", err)
	}

	s.metrics.FormsCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"formId": def.FormID,
		"alias":  a,
	}).Info("form created")

	return &CreateFormResult{FormID: def.FormID, Alias: a}, nil
}

func (s *formService) ResolveForm(ctx context.Context, ref string) (*domain.FormDefinition, error) {
	if ref == "" {
		return nil, domain.ErrFormNotFound
	}

	tok, found, err := s.registry.ResolveAlias(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve alias: %w", err)
	}
	if !found {
		// The path segment may be a full token rather than an alias; the
		// codec's signature check decides.
		tok = ref
	}

	def := s.codec.Decode(tok)
	if def == nil {
		return nil, domain.ErrFormNotFound
	}
	return def, nil
}

func (s *formService) SubmitForm(ctx context.Context, ref string, sub Submission) error {
	def, err := s.ResolveForm(ctx, ref)
	if err != nil {
		s.metrics.Submissions.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return err
	}

	resolved, err := resolveAssignments(def, sub.Assignments)
	if err != nil {
		s.metrics.Submissions.WithLabelValues(metrics.OutcomeRejected).Inc()
		return err
	}

	payload := &domain.CallbackPayload{
		FormID:      def.FormID,
		FormTitle:   def.Title,
		Assignments: resolved,
		Notes:       trimNotes(sub.Notes),
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.relay.Deliver(ctx, def.CallbackURL, payload); err != nil {
		s.metrics.Submissions.WithLabelValues(metrics.OutcomeDeliveryFailed).Inc()
		return err
	}

	s.metrics.Submissions.WithLabelValues(metrics.OutcomeDelivered).Inc()
	s.log.WithFields(logrus.Fields{
		"formId": def.FormID,
		"alias":  ref,
	}).Info("submission delivered")
	return nil
}

// resolveAssignments checks a submission against the definition: one
// assignment per service, no duplicated service, every referenced id
// present. Nothing is relayed unless the whole set validates.
func resolveAssignments(def *domain.FormDefinition, assignments []domain.Assignment) ([]domain.ResolvedAssignment, error) {
	if len(assignments) != len(def.Services) {
		return nil, &domain.MismatchError{
			Reason: fmt.Sprintf("a worker must be assigned to every service: got %d assignment(s) for %d service(s)", len(assignments), len(def.Services)),
		}
	}

	seen := make(map[string]struct{}, len(assignments))
	resolved := make([]domain.ResolvedAssignment, 0, len(assignments))
	for _, a := range assignments {
		if _, dup := seen[a.ServiceID]; dup {
			return nil, &domain.MismatchError{
				Reason: fmt.Sprintf("service %q is assigned more than once", a.ServiceID),
			}
		}
		seen[a.ServiceID] = struct{}{}

		service := def.ServiceByID(a.ServiceID)
		worker := def.WorkerByID(a.WorkerID)
		if service == nil || worker == nil {
			return nil, &domain.MismatchError{
				Reason: "could not match the selected service or worker",
			}
		}
		resolved = append(resolved, domain.ResolvedAssignment{Service: *service, Worker: *worker})
	}
	return resolved, nil
}

func trimNotes(notes string) *string {
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validateCreateInput(input CreateFormInput) []domain.FieldIssue {
	var issues []domain.FieldIssue

	if strings.TrimSpace(input.Title) == "" {
		issues = append(issues, domain.FieldIssue{Path: "title", Message: "title is required"})
	}
	if strings.TrimSpace(input.Description) == "" {
		issues = append(issues, domain.FieldIssue{Path: "description", Message: "description is required"})
	} else if len([]rune(input.Description)) > maxDescriptionLength {
		issues = append(issues, domain.FieldIssue{Path: "description", Message: "description is too long"})
	}

	if len(input.Workers) == 0 {
		issues = append(issues, domain.FieldIssue{Path: "workers", Message: "at least one worker is required"})
	}
	issues = append(issues, validateOptionList("workers", workerIDs(input.Workers), workerNames(input.Workers))...)

	if len(input.Services) == 0 {
		issues = append(issues, domain.FieldIssue{Path: "services", Message: "at least one service is required"})
	}
	issues = append(issues, validateOptionList("services", serviceIDs(input.Services), serviceNames(input.Services))...)

	if !isAbsoluteURL(input.CallbackURL) {
		issues = append(issues, domain.FieldIssue{Path: "callbackUrl", Message: "callback URL is not valid"})
	}

	return issues
}

func validateOptionList(path string, ids, names []string) []domain.FieldIssue {
	var issues []domain.FieldIssue
	seen := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		if id == "" {
			issues = append(issues, domain.FieldIssue{Path: fmt.Sprintf("%s[%d].id", path, i), Message: "id is required"})
			continue
		}
		if _, dup := seen[id]; dup {
			issues = append(issues, domain.FieldIssue{Path: fmt.Sprintf("%s[%d].id", path, i), Message: "id is duplicated"})
		}
		seen[id] = struct{}{}
	}
	for i, name := range names {
		if name == "" {
			issues = append(issues, domain.FieldIssue{Path: fmt.Sprintf("%s[%d].name", path, i), Message: "name is required"})
		}
	}
	return issues
}

func workerIDs(workers []domain.WorkerOption) []string {
	ids := make([]string, len(workers))
	for i, w := range workers {
		ids[i] = w.ID
	}
	return ids
}

func workerNames(workers []domain.WorkerOption) []string {
	names := make([]string, len(workers))
	for i, w := range workers {
		names[i] = w.Name
	}
	return names
}

func serviceIDs(services []domain.ServiceOption) []string {
	ids := make([]string, len(services))
	for i, s := range services {
		ids[i] = s.ID
	}
	return ids
}

func serviceNames(services []domain.ServiceOption) []string {
	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.Name
	}
	return names
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
