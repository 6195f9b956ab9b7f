package models

import "time"

// Document is the whole shared state synchronized between the counter
// and kitchen displays. Replication is last-writer-wins at document
// granularity: whoever publishes last replaces the entire document.
type Document struct {
	// OrderNumber is the running human-facing counter; the next
	// submitted order takes this number.
	OrderNumber int `json:"order_number"`
	// Orders is keyed by order id. JSON encodes the keys as strings.
	Orders map[int64]*Order `json:"orders"`
	// Revision marks each write so the polling path can tell a fresh
	// snapshot from one it has already applied.
	Revision int64 `json:"revision"`
}

func NewDocument() *Document {
	return &Document{
		OrderNumber: 1,
		Orders:      make(map[int64]*Order),
	}
}

func (d *Document) Clone() *Document {
	out := &Document{
		OrderNumber: d.OrderNumber,
		Orders:      make(map[int64]*Order, len(d.Orders)),
		Revision:    d.Revision,
	}
	for id, o := range d.Orders {
		out.Orders[id] = o.Clone()
	}
	return out
}

// PendingCount is what the kitchen alert compares between snapshots.
func (d *Document) PendingCount() int {
	n := 0
	for _, o := range d.Orders {
		if o.Pending() {
			n++
		}
	}
	return n
}

// StateRecord is the on-device persisted form of the document: a single
// row holding the full JSON payload, replaced wholesale on every write.
type StateRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	Revision  int64     `gorm:"not null;default:0;index" json:"revision"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
