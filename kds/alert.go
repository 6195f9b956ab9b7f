package kds

import (
	"sync"

	"github.com/fanguan/pos-app/models"
)

// AlertMonitor raises a notification whenever the pending-order count
// strictly increases between two observed snapshots. The trigger is an
// edge derived from the last two counts only; nothing is stored.
type AlertMonitor struct {
	mu     sync.Mutex
	last   int
	notify func(pending int)
}

func NewAlertMonitor(notify func(pending int)) *AlertMonitor {
	return &AlertMonitor{notify: notify}
}

// Observe is wired as a store observer and runs on every snapshot,
// local or remote.
func (m *AlertMonitor) Observe(doc *models.Document) {
	count := doc.PendingCount()

	m.mu.Lock()
	fire := count > m.last
	m.last = count
	m.mu.Unlock()

	if fire && m.notify != nil {
		m.notify(count)
	}
}
