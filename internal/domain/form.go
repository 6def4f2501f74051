package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkerOption is one selectable worker inside a form.
type WorkerOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ServiceOption is one service that needs a worker assigned to it.
type ServiceOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FormDefinition is the complete, immutable description of a selection form.
// The signed token is the only durable representation of a definition; there
// is no other store of truth. The JSON field names and the millisecond
// CreatedAt encoding are part of the token wire format and must not change.
type FormDefinition struct {
	FormID      string          `json:"formId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	CallbackURL string          `json:"callbackUrl"`
	Workers     []WorkerOption  `json:"workers"`
	Services    []ServiceOption `json:"services"`
	CreatedAt   int64           `json:"createdAt"`
}

func NewFormDefinition(title, description, callbackURL string, workers []WorkerOption, services []ServiceOption) *FormDefinition {
	return &FormDefinition{
		FormID:      uuid.NewString(),
		Title:       title,
		Description: description,
		CallbackURL: callbackURL,
		Workers:     workers,
		Services:    services,
		CreatedAt:   time.Now().UnixMilli(),
	}
}

// ServiceByID returns the service with the given id, or nil.
func (f *FormDefinition) ServiceByID(id string) *ServiceOption {
	for i := range f.Services {
		if f.Services[i].ID == id {
			return &f.Services[i]
		}
	}
	return nil
}

// WorkerByID returns the worker with the given id, or nil.
func (f *FormDefinition) WorkerByID(id string) *WorkerOption {
	for i := range f.Workers {
		if f.Workers[i].ID == id {
			return &f.Workers[i]
		}
	}
	return nil
}

// Assignment is a respondent's chosen worker for one service.
type Assignment struct {
	ServiceID string `json:"serviceId"`
	WorkerID  string `json:"workerId"`
}

// ResolvedAssignment carries the full option objects for the callback relay.
type ResolvedAssignment struct {
	Service ServiceOption `json:"service"`
	Worker  WorkerOption  `json:"worker"`
}

// CallbackPayload is the JSON body POSTed to a form's callback URL after a
// valid submission.
type CallbackPayload struct {
	FormID      string               `json:"formId"`
	FormTitle   string               `json:"formTitle"`
	Assignments []ResolvedAssignment `json:"assignments"`
	Notes       *string              `json:"notes"`
	SubmittedAt string               `json:"submittedAt"`
}
