// Package importer pulls lead rows out of an external sheet and appends the
// previously unseen ones to a workflow's execution log.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadgrid.org/internal/crm"
	"leadgrid.org/internal/ids"
	"leadgrid.org/internal/obs"
)

// ErrImportFailed wraps external fetch and parse failures during a sync.
var ErrImportFailed = errors.New("importer: import failed")

// RowSource fetches all rows of a named sheet. The first row is a header
// and is discarded by the importer.
type RowSource interface {
	FetchRows(ctx context.Context, sheetName string) ([][]string, error)
}

// Importer runs sheet-to-execution-log synchronization.
type Importer struct {
	workflows  crm.WorkflowStore
	executions crm.ExecutionStore
	source     RowSource
	now        func() time.Time
}

// New constructs an Importer.
func New(workflows crm.WorkflowStore, executions crm.ExecutionStore, source RowSource) *Importer {
	return &Importer{
		workflows:  workflows,
		executions: executions,
		source:     source,
		now:        time.Now,
	}
}

// Result reports what a sync inserted. Rows contains only newly inserted
// executions; rows that already existed are silently omitted.
type Result struct {
	Imported int              `json:"imported"`
	Rows     []*crm.Execution `json:"rows"`
}

// Sync fetches the workflow's sheet and inserts every row whose canonical
// content has not been imported before. Inserts are per-row with no
// cross-row transaction: a mid-import failure leaves earlier rows in place,
// and rerunning Sync (idempotent by construction) picks up the remainder.
func (imp *Importer) Sync(ctx context.Context, workflowID, userID string) (Result, error) {
	workflow, err := imp.workflows.Find(ctx, workflowID)
	if err != nil {
		return Result{}, err
	}

	rows, err := imp.source.FetchRows(ctx, workflow.Sheet())
	if err != nil {
		return Result{}, fmt.Errorf("%w: fetch sheet %q: %v", ErrImportFailed, workflow.Sheet(), err)
	}
	if len(rows) <= 1 {
		// Header-only or empty sheet: nothing to import, not an error.
		return Result{Rows: []*crm.Execution{}}, nil
	}

	result := Result{Rows: []*crm.Execution{}}
	for i, cells := range rows[1:] {
		lead, err := ParseLead(cells)
		if err != nil {
			return Result{}, fmt.Errorf("%w: row %d: %v", ErrImportFailed, i+2, err)
		}
		canonical, err := lead.Fingerprint()
		if err != nil {
			return Result{}, fmt.Errorf("%w: row %d: %v", ErrImportFailed, i+2, err)
		}
		hash := HashContent(canonical)

		seen, err := imp.executions.ExistsByContent(ctx, workflowID, hash)
		if err != nil {
			return result, err
		}
		if seen {
			obs.ImportRowsSkipped.Inc()
			continue
		}

		exec := &crm.Execution{
			ID:             ids.New(),
			WorkflowID:     workflowID,
			UserID:         userID,
			LeadName:       lead.Name,
			LeadEmail:      lead.Email,
			LeadPhone:      lead.Phone,
			Status:         lead.Status,
			CallbackBooked: lead.CallbackBooked,
			AgentMessages:  lead.AgentMessages,
			Notes:          lead.Notes,
			Content:        canonical,
			ContentHash:    hash,
			CreatedAt:      imp.now().UTC(),
		}
		if err := imp.executions.Insert(ctx, exec); err != nil {
			if errors.Is(err, crm.ErrAlreadyExists) {
				// A concurrent sync won the race for this row.
				obs.ImportRowsSkipped.Inc()
				continue
			}
			return result, err
		}
		obs.ImportRowsInserted.Inc()
		result.Imported++
		result.Rows = append(result.Rows, exec)
	}
	return result, nil
}
