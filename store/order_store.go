package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fanguan/pos-app/models"
	"github.com/fanguan/pos-app/replication"
	"github.com/fanguan/pos-app/utils"
)

// ErrEmptyCart rejects a submission with nothing in either section.
// The counter advances neither the order id nor the running number.
var ErrEmptyCart = errors.New("cart is empty")

const publishTimeout = 5 * time.Second

// Store owns the shared order document for one display process. Every
// mutation recomputes the derived totals, bumps the document revision
// and hands the full document to the replicator (last-writer-wins).
// Controllers get a Store injected; nothing here touches a rendering
// surface.
type Store struct {
	mu   sync.Mutex
	doc  *models.Document
	repl replication.Replicator

	obsMu     sync.Mutex
	observers []func(*models.Document)
}

// New loads the last persisted document through the replicator and
// subscribes for remote snapshots. A load failure starts from an empty
// document rather than refusing to boot: the display must stay usable.
func New(repl replication.Replicator) *Store {
	s := &Store{repl: repl}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	doc, err := repl.Load(ctx)
	if err != nil {
		utils.ErrorLogger.Printf("State load failed: %v - starting from an empty document", err)
	}
	if doc == nil {
		doc = models.NewDocument()
	}
	s.doc = doc

	repl.Subscribe(s.ApplySnapshot)
	return s
}

// Observe registers fn to run after every local mutation and every
// applied remote snapshot. Used by the display hub and the kitchen
// alert monitor.
func (s *Store) Observe(fn func(*models.Document)) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

// Document returns a deep copy of the current document.
func (s *Store) Document() *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Order returns a copy of one order, if present.
func (s *Store) Order(id int64) (*models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.doc.Orders[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// NextNumber is the number the next submitted order will take.
func (s *Store) NextNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.OrderNumber
}

// PendingOrders returns every non-completed order in stored (insertion)
// order. Ids are minted from the clock, so ascending id is insertion
// order; callers wanting recency-first must sort themselves.
func (s *Store) PendingOrders() []*models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Order, 0, len(s.doc.Orders))
	for _, o := range s.doc.Orders {
		if o.Pending() {
			out = append(out, o.Clone())
		}
	}
	sortByID(out)
	return out
}

// PendingCount feeds the kitchen's new-order alert.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.PendingCount()
}

// Submit turns the cart into a new pending order: fresh id, the next
// running number, deep-copied lines, recomputed totals, payment flags
// down. The running counter advances by exactly one.
func (s *Store) Submit(c *models.Cart, diningMode string) (*models.Order, error) {
	if c == nil || c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if diningMode != models.DiningModeTakeout {
		diningMode = models.DiningModeDineIn
	}

	s.mu.Lock()
	order := &models.Order{
		ID:         s.nextID(),
		Number:     s.doc.OrderNumber,
		DiningMode: diningMode,
		Foods:      models.CloneLines(c.Food),
		Drinks:     models.CloneLines(c.Drink),
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
	}
	order.RecomputeTotals()
	s.doc.Orders[order.ID] = order
	s.doc.OrderNumber++
	snap := s.commitLocked()
	result := order.Clone()
	s.mu.Unlock()

	s.broadcast(snap)
	return result, nil
}

// AppendTo merges the cart into an existing pending order. Lines the
// order already has (matched by id) are replaced by the incoming copy
// but keep their completion flag, so fulfillment history survives the
// edit; genuinely new lines start with no flag. Number and status never
// change here.
func (s *Store) AppendTo(orderID int64, c *models.Cart) bool {
	if c == nil || c.IsEmpty() {
		return false
	}

	s.mu.Lock()
	order, ok := s.doc.Orders[orderID]
	if !ok || !order.Pending() || order.Separator {
		s.mu.Unlock()
		return false
	}

	order.Foods = mergeSection(order.Foods, c.Food)
	order.Drinks = mergeSection(order.Drinks, c.Drink)
	order.RecomputeTotals()
	now := time.Now()
	order.UpdatedAt = &now
	snap := s.commitLocked()
	s.mu.Unlock()

	s.broadcast(snap)
	return true
}

// TogglePayment flips one section's paid flag. Unknown orders and
// sections are a no-op so a stale reference from the other display
// cannot crash anything.
func (s *Store) TogglePayment(orderID int64, section string) bool {
	if !models.ValidSection(section) {
		return false
	}

	s.mu.Lock()
	order, ok := s.doc.Orders[orderID]
	if !ok || order.Separator {
		s.mu.Unlock()
		return false
	}
	if section == models.SectionFood {
		order.FoodPaid = !order.FoodPaid
	} else {
		order.DrinkPaid = !order.DrinkPaid
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.broadcast(snap)
	return true
}

// ToggleLineCompletion flips one line's fulfilled flag, initializing an
// absent flag to false first (so the first toggle reads as done).
// Kitchen-side only.
func (s *Store) ToggleLineCompletion(orderID int64, section string, lineIndex int) bool {
	s.mu.Lock()
	order, ok := s.doc.Orders[orderID]
	if !ok || order.Separator {
		s.mu.Unlock()
		return false
	}
	lines := order.Lines(section)
	if lines == nil || lineIndex < 0 || lineIndex >= len(*lines) {
		s.mu.Unlock()
		return false
	}

	line := &(*lines)[lineIndex]
	if line.Completed == nil {
		v := true
		line.Completed = &v
	} else {
		*line.Completed = !*line.Completed
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.broadcast(snap)
	return true
}

// Complete marks an order done. Re-completing is an idempotent no-op:
// the first completion timestamp is kept.
func (s *Store) Complete(orderID int64) bool {
	s.mu.Lock()
	order, ok := s.doc.Orders[orderID]
	if !ok || order.Separator {
		s.mu.Unlock()
		return false
	}
	if order.Status == models.StatusCompleted {
		s.mu.Unlock()
		return true
	}

	order.Status = models.StatusCompleted
	now := time.Now()
	order.CompletedAt = &now
	snap := s.commitLocked()
	s.mu.Unlock()

	s.broadcast(snap)
	return true
}

// ResetSequence sets the running number back to 1 and drops a Separator
// into history so the old numbers stay unambiguous. Pending orders keep
// the numbers they were called by.
func (s *Store) ResetSequence() *models.Order {
	now := time.Now()

	s.mu.Lock()
	sep := &models.Order{
		ID:        s.nextID(),
		Separator: true,
		Banner:    fmt.Sprintf("Order numbers reset · %s", now.Format("2006-01-02 15:04")),
		Status:    models.StatusCompleted,
		CreatedAt: now,
	}
	s.doc.Orders[sep.ID] = sep
	s.doc.OrderNumber = 1
	snap := s.commitLocked()
	result := sep.Clone()
	s.mu.Unlock()

	s.broadcast(snap)
	return result
}

// ClearCompletedHistory removes every completed entry, separators
// included; only pending orders survive. Returns how many were removed.
func (s *Store) ClearCompletedHistory() int {
	s.mu.Lock()
	removed := 0
	for id, o := range s.doc.Orders {
		if !o.Pending() {
			delete(s.doc.Orders, id)
			removed++
		}
	}
	if removed == 0 {
		s.mu.Unlock()
		return 0
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.broadcast(snap)
	return removed
}

// ApplySnapshot is the single entry point for remotely observed state,
// whether it arrived by live subscription or by poll. Same-revision
// snapshots (including echoes of our own writes) are dropped; anything
// else replaces the document wholesale.
func (s *Store) ApplySnapshot(doc *models.Document) {
	if doc == nil {
		return
	}

	s.mu.Lock()
	if doc.Revision == s.doc.Revision {
		s.mu.Unlock()
		return
	}
	s.doc = doc.Clone()
	snap := s.doc.Clone()
	s.mu.Unlock()

	s.notify(snap)
}

// nextID mints a monotonic-time-derived identifier, bumped past any
// collision so ids stay unique and sortable by creation.
func (s *Store) nextID() int64 {
	id := time.Now().UnixMilli()
	for {
		if _, exists := s.doc.Orders[id]; !exists {
			return id
		}
		id++
	}
}

// commitLocked bumps the revision and snapshots the document. Caller
// holds s.mu and publishes the snapshot after unlocking.
func (s *Store) commitLocked() *models.Document {
	s.doc.Revision = time.Now().UnixNano()
	return s.doc.Clone()
}

// broadcast persists a freshly committed snapshot and fans it out. A
// replication failure is a notice, not a crash: the next mutation
// carries the state across.
func (s *Store) broadcast(snap *models.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.repl.Publish(ctx, snap); err != nil {
		utils.ErrorLogger.Printf("State publish failed: %v", err)
	}
	s.notify(snap)
}

func (s *Store) notify(snap *models.Document) {
	s.obsMu.Lock()
	observers := append([]func(*models.Document){}, s.observers...)
	s.obsMu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}

// mergeSection replaces current lines with their incoming edit (keeping
// the completion flag) and appends lines the order has not seen before.
// Lines absent from the incoming cart are kept untouched.
func mergeSection(current, incoming []models.CartLine) []models.CartLine {
	byID := make(map[string]models.CartLine, len(incoming))
	for _, in := range incoming {
		byID[in.ID] = in
	}

	merged := make([]models.CartLine, 0, len(current)+len(incoming))
	seen := make(map[string]bool, len(current))
	for _, cur := range current {
		in, ok := byID[cur.ID]
		if !ok {
			merged = append(merged, cur.Clone())
			continue
		}
		line := in.Clone()
		if cur.Completed != nil {
			v := *cur.Completed
			line.Completed = &v
		}
		merged = append(merged, line)
		seen[cur.ID] = true
	}
	for _, in := range incoming {
		if seen[in.ID] {
			continue
		}
		line := in.Clone()
		line.Completed = nil
		merged = append(merged, line)
	}
	return merged
}

func sortByID(orders []*models.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
}
