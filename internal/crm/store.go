package crm

import "context"

// WorkflowStore manages workflows.
type WorkflowStore interface {
	Create(ctx context.Context, w *Workflow) error
	Find(ctx context.Context, id string) (*Workflow, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Workflow, error)
	Delete(ctx context.Context, id string) error
}

// AppointmentStore manages appointments.
type AppointmentStore interface {
	Create(ctx context.Context, a *Appointment) error
	Find(ctx context.Context, id string) (*Appointment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Appointment, error)
	Delete(ctx context.Context, id string) error
}

// ExecutionStore manages the append-only execution log.
type ExecutionStore interface {
	// Insert adds a row. Implementations back the (workflow_id, content_hash)
	// uniqueness invariant and return ErrAlreadyExists when an identical row
	// already landed, which closes the concurrent-sync race.
	Insert(ctx context.Context, e *Execution) error
	// ExistsByContent reports whether a row with the same content hash was
	// already imported for the workflow.
	ExistsByContent(ctx context.Context, workflowID, contentHash string) (bool, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]*Execution, error)
}
