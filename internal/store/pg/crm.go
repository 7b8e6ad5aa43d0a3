package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"leadgrid.org/internal/crm"
	"leadgrid.org/internal/ids"
)

// Workflows returns the workflow store view.
func (s *Store) Workflows() crm.WorkflowStore { return &workflowStore{db: s.db} }

// Appointments returns the appointment store view.
func (s *Store) Appointments() crm.AppointmentStore { return &appointmentStore{db: s.db} }

// Executions returns the execution store view.
func (s *Store) Executions() crm.ExecutionStore { return &executionStore{db: s.db} }

// Workflow store -----------------------------------------------------------

type workflowStore struct{ db *sql.DB }

func (s *workflowStore) Create(ctx context.Context, w *crm.Workflow) error {
	if w.ID == "" {
		w.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into workflows(id, owner_id, name, sheet_name) values($1,$2,$3,$4)`,
		w.ID, w.OwnerID, w.Name, w.SheetName,
	)
	return err
}

func (s *workflowStore) Find(ctx context.Context, id string) (*crm.Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, owner_id, name, sheet_name, created_at, updated_at from workflows where id=$1`, id)
	var w crm.Workflow
	if err := row.Scan(&w.ID, &w.OwnerID, &w.Name, &w.SheetName, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, crm.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (s *workflowStore) ListByOwner(ctx context.Context, ownerID string) ([]*crm.Workflow, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, owner_id, name, sheet_name, created_at, updated_at from workflows where owner_id=$1 order by created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*crm.Workflow
	for rows.Next() {
		var w crm.Workflow
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.Name, &w.SheetName, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &w)
	}
	return res, rows.Err()
}

func (s *workflowStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from workflows where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return crm.ErrNotFound
	}
	return nil
}

// Appointment store --------------------------------------------------------

type appointmentStore struct{ db *sql.DB }

func (s *appointmentStore) Create(ctx context.Context, a *crm.Appointment) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into appointments(id, owner_id, lead_name, lead_email, scheduled_at, notes) values($1,$2,$3,$4,$5,$6)`,
		a.ID, a.OwnerID, a.LeadName, a.LeadEmail, a.ScheduledAt, a.Notes,
	)
	return err
}

func (s *appointmentStore) Find(ctx context.Context, id string) (*crm.Appointment, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, owner_id, lead_name, lead_email, scheduled_at, notes, created_at from appointments where id=$1`, id)
	var a crm.Appointment
	if err := row.Scan(&a.ID, &a.OwnerID, &a.LeadName, &a.LeadEmail, &a.ScheduledAt, &a.Notes, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, crm.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *appointmentStore) ListByOwner(ctx context.Context, ownerID string) ([]*crm.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, owner_id, lead_name, lead_email, scheduled_at, notes, created_at from appointments where owner_id=$1 order by scheduled_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*crm.Appointment
	for rows.Next() {
		var a crm.Appointment
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.LeadName, &a.LeadEmail, &a.ScheduledAt, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &a)
	}
	return res, rows.Err()
}

func (s *appointmentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from appointments where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return crm.ErrNotFound
	}
	return nil
}

// Execution store ----------------------------------------------------------

type executionStore struct{ db *sql.DB }

func (s *executionStore) Insert(ctx context.Context, e *crm.Execution) error {
	if e.ID == "" {
		e.ID = ids.New()
	}
	messages, err := json.Marshal(e.AgentMessages)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into workflow_executions(
			id, workflow_id, user_id, lead_name, lead_email, lead_phone,
			status, callback_booked, agent_messages, notes, content, content_hash)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.WorkflowID, e.UserID, e.LeadName, e.LeadEmail, e.LeadPhone,
		e.Status, e.CallbackBooked, messages, e.Notes, e.Content, e.ContentHash,
	)
	// The unique index on (workflow_id, content_hash) is what makes
	// concurrent syncs safe; report the loss as "already exists".
	if isUniqueViolation(err) {
		return crm.ErrAlreadyExists
	}
	return err
}

func (s *executionStore) ExistsByContent(ctx context.Context, workflowID, contentHash string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from workflow_executions where workflow_id=$1 and content_hash=$2)`,
		workflowID, contentHash,
	).Scan(&exists)
	return exists, err
}

func (s *executionStore) ListByWorkflow(ctx context.Context, workflowID string) ([]*crm.Execution, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, workflow_id, user_id, lead_name, lead_email, lead_phone,
			status, callback_booked, agent_messages, notes, content, content_hash, created_at
		 from workflow_executions where workflow_id=$1 order by created_at`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*crm.Execution
	for rows.Next() {
		var (
			e        crm.Execution
			messages []byte
		)
		if err := rows.Scan(&e.ID, &e.WorkflowID, &e.UserID, &e.LeadName, &e.LeadEmail, &e.LeadPhone,
			&e.Status, &e.CallbackBooked, &messages, &e.Notes, &e.Content, &e.ContentHash, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(messages) > 0 {
			_ = json.Unmarshal(messages, &e.AgentMessages)
		}
		res = append(res, &e)
	}
	return res, rows.Err()
}
