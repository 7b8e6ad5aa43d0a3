package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// sheetColumns is the fixed layout of a data row: lead name, email, phone,
// status, callback-booked flag, JSON agent messages, free-text notes.
const sheetColumns = 7

// Lead is one parsed sheet row. The json tags define the canonical
// serialization order used for deduplication; changing them changes what
// counts as "the same row", so treat the order as part of the wire contract.
type Lead struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Status         string   `json:"status"`
	CallbackBooked bool     `json:"callback_booked"`
	AgentMessages  []string `json:"agent_messages"`
	Notes          string   `json:"notes"`
}

// ParseLead decodes a raw sheet row. Missing trailing cells are treated as
// empty; a malformed agent-messages cell is an error that aborts the whole
// import.
func ParseLead(cells []string) (Lead, error) {
	if len(cells) > sheetColumns {
		cells = cells[:sheetColumns]
	}
	padded := make([]string, sheetColumns)
	copy(padded, cells)

	lead := Lead{
		Name:           strings.TrimSpace(padded[0]),
		Email:          strings.TrimSpace(padded[1]),
		Phone:          strings.TrimSpace(padded[2]),
		Status:         strings.TrimSpace(padded[3]),
		CallbackBooked: padded[4] == "TRUE",
		Notes:          padded[6],
	}
	if raw := strings.TrimSpace(padded[5]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &lead.AgentMessages); err != nil {
			return Lead{}, fmt.Errorf("agent messages cell: %w", err)
		}
	}
	return lead, nil
}

// Fingerprint returns the canonical serialized form of the lead. Field order
// is the struct's declared order, so the result is stable across processes.
func (l Lead) Fingerprint() (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HashContent returns the dedup key stored alongside the serialized content.
func HashContent(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
