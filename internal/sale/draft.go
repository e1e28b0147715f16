// Package sale holds the draft-side representation of a sale and the line
// arithmetic shared by drafts and persisted sales. A Draft has no database
// identity: its lines live in memory (serialized to Redis between requests)
// until a single commit transaction turns them into rows, or the draft is
// discarded without touching the database at all.
package sale

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCustomerName is the sentinel walk-in customer used when a draft is
// opened with a blank name.
const DefaultCustomerName = "Consumidor Final"

// ErrInvalidQuantity rejects non-positive quantities before anything is stored.
var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// Line is a draft line item. ID is a synthetic per-draft token (monotonic,
// never reused) so a line can be edited or removed before real persistence.
type Line struct {
	ID          int64           `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

// Subtotal returns quantity × unit price − discount, exactly as entered.
// Negative results are preserved here; clamping is display-only.
func (l Line) Subtotal() decimal.Decimal {
	return Subtotal(l.Quantity, l.UnitPrice, l.Discount)
}

// Subtotal is the one line-item formula: quantity × unit price − discount.
// Used for draft lines and persisted items alike so the two representations
// can never drift.
func Subtotal(qty, unitPrice, discount decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitPrice).Sub(discount)
}

// DisplaySubtotal is Subtotal floored at zero, for rendering only.
func (l Line) DisplaySubtotal() decimal.Decimal {
	if s := l.Subtotal(); s.Sign() > 0 {
		return s
	}
	return decimal.Zero
}

// Draft is the pre-persistence state of a sale.
type Draft struct {
	CustomerName string    `json:"customer_name"`
	Lines        []Line    `json:"lines"`
	NextLineID   int64     `json:"next_line_id"`
	OpenedAt     time.Time `json:"opened_at"`
}

// NewDraft opens an empty draft. A blank customer name falls back to the
// walk-in sentinel.
func NewDraft(customerName string) *Draft {
	name := strings.TrimSpace(customerName)
	if name == "" {
		name = DefaultCustomerName
	}
	return &Draft{
		CustomerName: name,
		NextLineID:   1,
		OpenedAt:     time.Now().UTC(),
	}
}

// Upsert adds a line (lineID == 0) or replaces an existing one. Quantity must
// be positive; unit price and discount are stored as given (callers default
// unparsable input to zero).
func (d *Draft) Upsert(lineID int64, productID uuid.UUID, description string, qty, unitPrice, discount decimal.Decimal) (Line, error) {
	if qty.Sign() <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	line := Line{
		ProductID:   productID,
		Description: description,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		Discount:    discount,
	}
	if lineID != 0 {
		for i := range d.Lines {
			if d.Lines[i].ID == lineID {
				line.ID = lineID
				d.Lines[i] = line
				return line, nil
			}
		}
	}
	line.ID = d.NextLineID
	d.NextLineID++
	d.Lines = append(d.Lines, line)
	return line, nil
}

// Remove filters the line out of memory. Returns false when no line carries
// the given token.
func (d *Draft) Remove(lineID int64) bool {
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// Total sums all line subtotals. Recomputing is idempotent and
// order-independent — the draft never stores a running total.
func (d *Draft) Total() decimal.Decimal {
	return SumSubtotals(d.Lines)
}

// Empty reports whether the draft has no lines. An empty draft is discarded
// at finalization rather than persisted.
func (d *Draft) Empty() bool { return len(d.Lines) == 0 }

// SumSubtotals computes a sale total from any set of lines.
func SumSubtotals(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
