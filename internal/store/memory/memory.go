// Package memory provides in-memory store implementations used by tests and
// by the API when no database DSN is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"leadgrid.org/internal/auth"
	"leadgrid.org/internal/crm"
)

// Store implements the auth and crm store interfaces with map-backed state.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*auth.User
	workflows    map[string]*crm.Workflow
	appointments map[string]*crm.Appointment
	executions   map[string][]*crm.Execution // workflowID -> rows in insert order
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:        make(map[string]*auth.User),
		workflows:    make(map[string]*crm.Workflow),
		appointments: make(map[string]*crm.Appointment),
		executions:   make(map[string][]*crm.Execution),
	}
}

// Users returns the user store view.
func (s *Store) Users() auth.UserStore { return (*userStore)(s) }

// Workflows returns the workflow store view.
func (s *Store) Workflows() crm.WorkflowStore { return (*workflowStore)(s) }

// Appointments returns the appointment store view.
func (s *Store) Appointments() crm.AppointmentStore { return (*appointmentStore)(s) }

// Executions returns the execution store view.
func (s *Store) Executions() crm.ExecutionStore { return (*executionStore)(s) }

// User store ---------------------------------------------------------------

type userStore Store

func (s *userStore) Create(_ context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return auth.ErrAlreadyExists
		}
	}
	now := time.Now().UTC()
	cp := *u
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.users[u.ID] = &cp
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (s *userStore) Find(_ context.Context, id string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *userStore) List(_ context.Context) ([]*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*auth.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *userStore) UpdateRefreshToken(_ context.Context, userID, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.RefreshToken = refreshToken
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Workflow store -----------------------------------------------------------

type workflowStore Store

func (s *workflowStore) Create(_ context.Context, w *crm.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	cp := *w
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.workflows[w.ID] = &cp
	w.CreatedAt = now
	w.UpdatedAt = now
	return nil
}

func (s *workflowStore) Find(_ context.Context, id string) (*crm.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, crm.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *workflowStore) ListByOwner(_ context.Context, ownerID string) ([]*crm.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*crm.Workflow
	for _, w := range s.workflows {
		if w.OwnerID == ownerID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *workflowStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return crm.ErrNotFound
	}
	delete(s.workflows, id)
	delete(s.executions, id)
	return nil
}

// Appointment store --------------------------------------------------------

type appointmentStore Store

func (s *appointmentStore) Create(_ context.Context, a *crm.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	cp := *a
	cp.CreatedAt = now
	s.appointments[a.ID] = &cp
	a.CreatedAt = now
	return nil
}

func (s *appointmentStore) Find(_ context.Context, id string) (*crm.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, crm.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *appointmentStore) ListByOwner(_ context.Context, ownerID string) ([]*crm.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*crm.Appointment
	for _, a := range s.appointments {
		if a.OwnerID == ownerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *appointmentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return crm.ErrNotFound
	}
	delete(s.appointments, id)
	return nil
}

// Execution store ----------------------------------------------------------

type executionStore Store

func (s *executionStore) Insert(_ context.Context, e *crm.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.executions[e.WorkflowID] {
		if existing.ContentHash == e.ContentHash {
			return crm.ErrAlreadyExists
		}
	}
	cp := *e
	s.executions[e.WorkflowID] = append(s.executions[e.WorkflowID], &cp)
	return nil
}

func (s *executionStore) ExistsByContent(_ context.Context, workflowID, contentHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.executions[workflowID] {
		if e.ContentHash == contentHash {
			return true, nil
		}
	}
	return false, nil
}

func (s *executionStore) ListByWorkflow(_ context.Context, workflowID string) ([]*crm.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.executions[workflowID]
	out := make([]*crm.Execution, 0, len(rows))
	for _, e := range rows {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}
