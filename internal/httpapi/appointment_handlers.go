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

type createAppointmentRequest struct {
	LeadName    string    `json:"lead_name"`
	LeadEmail   string    `json:"lead_email"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes,omitempty"`
}

func (a *API) handleAppointmentsCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireRole(w, r, auth.RoleUser, auth.RoleAdmin, auth.RoleSuperAdmin)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		a.createAppointment(w, r, id)
	case http.MethodGet:
		list, err := a.appointments.ListByOwner(r.Context(), id.UserID)
		if err != nil {
			handleCRMError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"appointments": list})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createAppointment(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req createAppointmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.LeadName) == "" {
		writeError(w, r, http.StatusBadRequest, "lead_name is required")
		return
	}
	if req.ScheduledAt.IsZero() {
		writeError(w, r, http.StatusBadRequest, "scheduled_at is required")
		return
	}
	appt := &crm.Appointment{
		ID:          ids.New(),
		OwnerID:     id.UserID,
		LeadName:    strings.TrimSpace(req.LeadName),
		LeadEmail:   strings.TrimSpace(req.LeadEmail),
		ScheduledAt: req.ScheduledAt.UTC(),
		Notes:       req.Notes,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.appointments.Create(r.Context(), appt); err != nil {
		handleCRMError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "appointment.created", map[string]any{
		"appointment_id": appt.ID,
	})
	writeJSON(w, http.StatusCreated, appt)
}

func (a *API) handleAppointmentResource(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireRole(w, r, auth.RoleUser, auth.RoleAdmin, auth.RoleSuperAdmin)
	if !ok {
		return
	}
	apptID := strings.TrimPrefix(r.URL.Path, "/v1/appointments/")
	if apptID == "" || strings.Contains(apptID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	appt, err := a.appointments.Find(r.Context(), apptID)
	if err != nil {
		handleCRMError(w, r, err)
		return
	}
	if appt.OwnerID != id.UserID && id.Role == auth.RoleUser {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, appt)
	case http.MethodDelete:
		if err := a.appointments.Delete(r.Context(), appt.ID); err != nil {
			handleCRMError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "appointment.deleted", map[string]any{
			"appointment_id": appt.ID,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}
