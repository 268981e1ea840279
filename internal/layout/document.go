package layout

import (
	"encoding/json"
	"fmt"
)

// DataPart is one placed workflow tile. TestResult is whatever payload the
// last dry-run produced; the document does not interpret it.
type DataPart struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Position   Position        `json:"position"`
	Enabled    bool            `json:"enabled"`
	CharCount  int             `json:"char_count"`
	TestResult json.RawMessage `json:"test_result,omitempty"`
}

// Document is the layout editor's in-memory aggregate. It lives only in the
// editing session and is persisted solely by an explicit save mutation.
type Document struct {
	ID         string     `json:"id"`
	Parts      []DataPart `json:"parts"`
	MaxRows    int        `json:"max_rows"`
	MaxColumns int        `json:"max_columns"`
	CharBudget int        `json:"char_budget"`
}

// Occupied returns the set of cells currently holding a part.
func (d *Document) Occupied() map[Position]struct{} {
	out := make(map[Position]struct{}, len(d.Parts))
	for _, p := range d.Parts {
		out[p.Position] = struct{}{}
	}
	return out
}

// Place assigns grid cells to the given parts and appends them. Parts beyond
// the available cells are left out; the returned slice holds what was
// actually placed.
func (d *Document) Place(parts []DataPart) []DataPart {
	positions := NextPositions(d.Occupied(), len(parts), d.MaxColumns, d.MaxRows)
	placed := make([]DataPart, 0, len(positions))
	for i, pos := range positions {
		part := parts[i]
		part.Position = pos
		d.Parts = append(d.Parts, part)
		placed = append(placed, part)
	}
	return placed
}

// SetEnabled toggles one part's enablement flag.
func (d *Document) SetEnabled(partID string, enabled bool) bool {
	for i := range d.Parts {
		if d.Parts[i].ID == partID {
			d.Parts[i].Enabled = enabled
			return true
		}
	}
	return false
}

// Remove deletes a part, freeing its cell.
func (d *Document) Remove(partID string) bool {
	for i := range d.Parts {
		if d.Parts[i].ID == partID {
			d.Parts = append(d.Parts[:i], d.Parts[i+1:]...)
			return true
		}
	}
	return false
}

// CharsUsed sums the parts' character counts against the budget.
func (d *Document) CharsUsed() int {
	total := 0
	for _, p := range d.Parts {
		total += p.CharCount
	}
	return total
}

func (d *Document) CharsRemaining() int {
	return d.CharBudget - d.CharsUsed()
}

// Validate enforces the document invariants: unique cells, in-bounds
// positions, and the character budget when one is set.
func (d *Document) Validate() error {
	seen := map[Position]string{}
	for _, p := range d.Parts {
		if p.Position.Row < 0 || p.Position.Column < 0 ||
			(d.MaxRows > 0 && p.Position.Row >= d.MaxRows) ||
			(d.MaxColumns > 0 && p.Position.Column >= d.MaxColumns) {
			return fmt.Errorf("part %s out of bounds at (%d,%d)", p.ID, p.Position.Row, p.Position.Column)
		}
		if other, ok := seen[p.Position]; ok {
			return fmt.Errorf("parts %s and %s collide at (%d,%d)", other, p.ID, p.Position.Row, p.Position.Column)
		}
		seen[p.Position] = p.ID
	}
	if d.CharBudget > 0 && d.CharsUsed() > d.CharBudget {
		return fmt.Errorf("character budget exceeded: %d > %d", d.CharsUsed(), d.CharBudget)
	}
	return nil
}
