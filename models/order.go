package models

import (
	"fmt"
	"time"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

const (
	DiningModeDineIn  = "dine_in"
	DiningModeTakeout = "takeout"
)

// Order is one submitted ticket. A Separator entry is a pseudo-order
// marking a sequence-number reset: it is always completed, carries a
// banner instead of line items and never takes part in kitchen flow.
type Order struct {
	ID          int64      `json:"id"`
	Number      int        `json:"number"`
	DiningMode  string     `json:"dining_mode,omitempty"`
	Separator   bool       `json:"separator,omitempty"`
	Banner      string     `json:"banner,omitempty"`
	Foods       []CartLine `json:"foods"`
	Drinks      []CartLine `json:"drinks"`
	FoodTotal   float64    `json:"food_total"`
	DrinkTotal  float64    `json:"drink_total"`
	Total       float64    `json:"total"`
	FoodPaid    bool       `json:"food_paid"`
	DrinkPaid   bool       `json:"drink_paid"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RecomputeTotals rebuilds the derived totals from the lines. Totals
// are never patched incrementally.
func (o *Order) RecomputeTotals() {
	o.FoodTotal = SubtotalOf(o.Foods)
	o.DrinkTotal = SubtotalOf(o.Drinks)
	o.Total = o.FoodTotal + o.DrinkTotal
}

// Lines returns a pointer to the named section's slice, or nil for an
// unknown section name.
func (o *Order) Lines(section string) *[]CartLine {
	switch section {
	case SectionFood:
		return &o.Foods
	case SectionDrink:
		return &o.Drinks
	}
	return nil
}

// Label renders the human-facing order number, zero-padded the way the
// displays show it.
func (o *Order) Label() string {
	return fmt.Sprintf("#%03d", o.Number)
}

func (o *Order) Pending() bool {
	return o.Status != StatusCompleted
}

func (o *Order) Clone() *Order {
	out := *o
	out.Foods = CloneLines(o.Foods)
	out.Drinks = CloneLines(o.Drinks)
	if o.UpdatedAt != nil {
		t := *o.UpdatedAt
		out.UpdatedAt = &t
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
