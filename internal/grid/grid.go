package grid

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"mprs/internal/domain"
)

// Field names a LineItem column editable through the grid. UpdateCell is
// the single mutation boundary; per-field rules (unit vocabulary
// fallback, trimming of identity-adjacent fields) live there.
type Field int

const (
	FieldItemName Field = iota
	FieldSpecification
	FieldQuantity
	FieldUnit
	FieldPurpose
	FieldLeadTime
	FieldItemCode
	FieldRemarks
)

// pasteFields is the fixed positional column order of a tab-delimited
// paste.
var pasteFields = [...]Field{
	FieldItemName,
	FieldSpecification,
	FieldQuantity,
	FieldUnit,
	FieldPurpose,
	FieldLeadTime,
	FieldItemCode,
	FieldRemarks,
}

const seedRows = 3

// defaultUnit is the fallback when a value is not in the unit vocabulary.
const defaultUnit = "Pcs"

// ClearToken is a pending-confirmation handle from RequestClear. The
// grid only resets when the same token comes back through ConfirmClear,
// so the destructive step stays behind an explicit confirmation without
// the model knowing how the confirmation is solicited.
type ClearToken string

// Grid is the ordered, mutable sequence of draft line items for one
// editing session. Row order is insertion order and doubles as the
// displayed serial number. A grid never holds fewer than one row.
type Grid struct {
	rows         []domain.LineItem
	units        []string
	pendingClear ClearToken
	Now          func() time.Time
}

// New returns a grid seeded with three empty rows, matching a fresh
// requisition form. units is the allowed unit vocabulary.
func New(units []string) *Grid {
	g := &Grid{units: units, Now: time.Now}
	for i := 0; i < seedRows; i++ {
		g.rows = append(g.rows, g.newRow())
	}
	return g
}

func (g *Grid) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Grid) newRow() domain.LineItem {
	now := g.now()
	return domain.LineItem{
		ID:        uuid.NewString(),
		MPRSDate:  now.Format("2006-01-02"),
		Unit:      defaultUnit,
		Status:    domain.StatusPending,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}

// Rows returns a copy of the current rows in order.
func (g *Grid) Rows() []domain.LineItem {
	out := make([]domain.LineItem, len(g.rows))
	copy(out, g.rows)
	return out
}

// Len returns the number of rows.
func (g *Grid) Len() int { return len(g.rows) }

// Row returns the row with the given identity.
func (g *Grid) Row(id string) (domain.LineItem, bool) {
	for _, r := range g.rows {
		if r.ID == id {
			return r, true
		}
	}
	return domain.LineItem{}, false
}

// AddRow appends one freshly created empty row and returns it.
func (g *Grid) AddRow() domain.LineItem {
	row := g.newRow()
	g.rows = append(g.rows, row)
	return row
}

// RemoveRow removes the matching row unless that would leave the grid
// empty. Reports whether a row was removed.
func (g *Grid) RemoveRow(id string) bool {
	if len(g.rows) <= 1 {
		return false
	}
	for i, r := range g.rows {
		if r.ID == id {
			g.rows = append(g.rows[:i], g.rows[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateCell replaces one field on the row with the given identity,
// preserving the relative order of all rows. Unknown ids are a no-op.
// A unit outside the vocabulary falls back to the default unit.
func (g *Grid) UpdateCell(id string, field Field, value string) bool {
	for i := range g.rows {
		if g.rows[i].ID != id {
			continue
		}
		switch field {
		case FieldItemName:
			g.rows[i].ItemName = value
		case FieldSpecification:
			g.rows[i].Specification = value
		case FieldQuantity:
			g.rows[i].Quantity = value
		case FieldUnit:
			g.rows[i].Unit = g.normalizeUnit(value)
		case FieldPurpose:
			g.rows[i].Purpose = value
		case FieldLeadTime:
			g.rows[i].LeadTime = value
		case FieldItemCode:
			g.rows[i].ItemCode = value
		case FieldRemarks:
			g.rows[i].Remarks = value
		}
		return true
	}
	return false
}

// RequestClear starts the two-step destructive reset and returns the
// confirmation token. A later RequestClear invalidates earlier tokens.
func (g *Grid) RequestClear() ClearToken {
	g.pendingClear = ClearToken(uuid.NewString())
	return g.pendingClear
}

// ConfirmClear resets the grid to three fresh empty rows if tok matches
// the pending request. Reports whether the reset happened.
func (g *Grid) ConfirmClear(tok ClearToken) bool {
	if tok == "" || tok != g.pendingClear {
		return false
	}
	g.pendingClear = ""
	g.rows = nil
	for i := 0; i < seedRows; i++ {
		g.rows = append(g.rows, g.newRow())
	}
	return true
}

// IngestPaste parses raw as a multi-column paste. A horizontal tab is
// the signal distinguishing a grid paste from ordinary text entry: when
// absent, IngestPaste reports false and the grid is untouched so the
// paste can fall through to single-field insertion. Otherwise each
// non-blank line becomes a row, columns mapped positionally; rows whose
// item name is still blank are replaced by the pasted rows, non-empty
// rows stay ahead of them.
func (g *Grid) IngestPaste(raw string) bool {
	if !strings.Contains(raw, "\t") {
		return false
	}
	var pasted []domain.LineItem
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		row := g.newRow()
		for i, f := range pasteFields {
			v := ""
			if i < len(cols) {
				v = cols[i]
			}
			switch f {
			case FieldItemName:
				row.ItemName = v
			case FieldSpecification:
				row.Specification = v
			case FieldQuantity:
				row.Quantity = v
			case FieldUnit:
				row.Unit = g.normalizeUnit(v)
			case FieldPurpose:
				row.Purpose = v
			case FieldLeadTime:
				row.LeadTime = v
			case FieldItemCode:
				row.ItemCode = v
			case FieldRemarks:
				row.Remarks = v
			}
		}
		pasted = append(pasted, row)
	}
	if len(pasted) == 0 {
		return false
	}
	kept := g.rows[:0:0]
	for _, r := range g.rows {
		if strings.TrimSpace(r.ItemName) != "" {
			kept = append(kept, r)
		}
	}
	g.rows = append(kept, pasted...)
	return true
}

func (g *Grid) normalizeUnit(u string) string {
	for _, known := range g.units {
		if known == u {
			return u
		}
	}
	return defaultUnit
}
