// Package crm holds the lead-management domain: workflows, the appointments
// booked against their leads, and the execution log that sheet imports feed.
package crm

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("crm: not found")
	ErrAlreadyExists = errors.New("crm: already exists")
	ErrInvalidInput  = errors.New("crm: invalid input")
)

// Workflow is a lead funnel owned by a user. SheetName is the explicit
// external sheet identifier; DeriveSheetName covers rows created before the
// mapping existed.
type Workflow struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	SheetName string    `json:"sheet_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sheet returns the external sheet identifier for this workflow.
func (w *Workflow) Sheet() string {
	if strings.TrimSpace(w.SheetName) != "" {
		return w.SheetName
	}
	return DeriveSheetName(w.Name)
}

// DeriveSheetName is the legacy naming convention: workflow name with
// whitespace runs joined by underscores.
func DeriveSheetName(workflowName string) string {
	return strings.Join(strings.Fields(workflowName), "_")
}

// Appointment is a scheduled call with a lead.
type Appointment struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	LeadName    string    `json:"lead_name"`
	LeadEmail   string    `json:"lead_email"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Execution is one imported lead result row. Content is the canonical
// serialized form of the row and ContentHash its dedup key; two executions
// for the same workflow never share a hash.
type Execution struct {
	ID             string    `json:"id"`
	WorkflowID     string    `json:"workflow_id"`
	UserID         string    `json:"user_id"`
	LeadName       string    `json:"lead_name"`
	LeadEmail      string    `json:"lead_email"`
	LeadPhone      string    `json:"lead_phone"`
	Status         string    `json:"status"`
	CallbackBooked bool      `json:"callback_booked"`
	AgentMessages  []string  `json:"agent_messages"`
	Notes          string    `json:"notes,omitempty"`
	Content        string    `json:"-"`
	ContentHash    string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
