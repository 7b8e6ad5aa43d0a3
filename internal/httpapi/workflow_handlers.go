package httpapi

import (
	"net/http"
	"strings"
	"time"

	"leadgrid.org/internal/audit"
	"leadgrid.org/internal/auth"
	"leadgrid.org/internal/crm"
	"leadgrid.org/internal/ids"
)

type createWorkflowRequest struct {
	Name      string `json:"name"`
	SheetName string `json:"sheet_name,omitempty"`
}

func (a *API) handleWorkflowsCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireRole(w, r, auth.RoleUser, auth.RoleAdmin, auth.RoleSuperAdmin)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		a.createWorkflow(w, r, id)
	case http.MethodGet:
		a.listWorkflows(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createWorkflow(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req createWorkflowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	now := time.Now().UTC()
	wf := &crm.Workflow{
		ID:        ids.New(),
		OwnerID:   id.UserID,
		Name:      strings.TrimSpace(req.Name),
		SheetName: strings.TrimSpace(req.SheetName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.workflows.Create(r.Context(), wf); err != nil {
		handleCRMError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "workflow.created", map[string]any{
		"workflow_id": wf.ID,
	})
	writeJSON(w, http.StatusCreated, wf)
}

func (a *API) listWorkflows(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	list, err := a.workflows.ListByOwner(r.Context(), id.UserID)
	if err != nil {
		handleCRMError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": list})
}

// handleWorkflowResource routes /v1/workflows/{id} and its two subresources,
// /executions and /sync.
func (a *API) handleWorkflowResource(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireRole(w, r, auth.RoleUser, auth.RoleAdmin, auth.RoleSuperAdmin)
	if !ok {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/workflows/")
	workflowID, sub, _ := strings.Cut(rest, "/")
	if workflowID == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	wf, err := a.loadOwnedWorkflow(w, r, id, workflowID)
	if err != nil {
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, wf)
		case http.MethodDelete:
			a.deleteWorkflow(w, r, wf)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
		}
	case "executions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listExecutions(w, r, wf)
	case "sync":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.syncWorkflow(w, r, id, wf)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// loadOwnedWorkflow fetches a workflow and enforces ownership. Admin tiers
// may reach workflows they do not own. On error the response is already
// written and the returned error is only a signal to stop.
func (a *API) loadOwnedWorkflow(w http.ResponseWriter, r *http.Request, id auth.Identity, workflowID string) (*crm.Workflow, error) {
	wf, err := a.workflows.Find(r.Context(), workflowID)
	if err != nil {
		handleCRMError(w, r, err)
		return nil, err
	}
	if wf.OwnerID != id.UserID && id.Role == auth.RoleUser {
		// Hide existence of other users' workflows.
		writeError(w, r, http.StatusNotFound, "resource not found")
		return nil, auth.ErrForbidden
	}
	return wf, nil
}

func (a *API) deleteWorkflow(w http.ResponseWriter, r *http.Request, wf *crm.Workflow) {
	if err := a.workflows.Delete(r.Context(), wf.ID); err != nil {
		handleCRMError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "workflow.deleted", map[string]any{
		"workflow_id": wf.ID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listExecutions(w http.ResponseWriter, r *http.Request, wf *crm.Workflow) {
	list, err := a.executions.ListByWorkflow(r.Context(), wf.ID)
	if err != nil {
		handleCRMError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"executions": list})
}

func (a *API) syncWorkflow(w http.ResponseWriter, r *http.Request, id auth.Identity, wf *crm.Workflow) {
	if a.importer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "sheet import is not configured")
		return
	}
	result, err := a.importer.Sync(r.Context(), wf.ID, id.UserID)
	if err != nil {
		handleCRMError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "sync.completed", map[string]any{
		"workflow_id": wf.ID,
		"imported":    result.Imported,
	})
	writeJSON(w, http.StatusOK, result)
}
