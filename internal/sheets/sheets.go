// Package sheets adapts the Google Sheets API to the importer's RowSource.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// fetchRange covers the importer's fixed 7-column layout.
const fetchRange = "A:G"

// Client reads rows from one spreadsheet. Each workflow maps to a sheet
// (tab) inside it.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// New builds a Client for the given spreadsheet. Credentials come in via
// standard Google client options (service-account file, API key, ...).
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// FetchRows returns every populated row of the named sheet, header included,
// with cells stringified. A single attempt; callers own retry policy.
func (c *Client) FetchRows(ctx context.Context, sheetName string) ([][]string, error) {
	readRange := fmt.Sprintf("%s!%s", sheetName, fetchRange)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: get %s: %w", readRange, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}
