package replication

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/fanguan/pos-app/models"
	"github.com/fanguan/pos-app/utils"
)

const stateRecordID = 1

// DefaultPollInterval covers missed change notifications; a few seconds
// is fine for a counter-to-kitchen hand-off.
const DefaultPollInterval = 3 * time.Second

// LocalReplicator keeps the document in a single database row on the
// device and fans out changes in-process. A fallback poll re-reads the
// row so a subscriber that shares the database file with another
// process still converges when it missed the notification.
type LocalReplicator struct {
	db       *gorm.DB
	interval time.Duration

	mu      sync.Mutex
	subs    []func(*models.Document)
	lastRev int64

	stop     chan struct{}
	stopOnce sync.Once
}

func NewLocal(db *gorm.DB, pollInterval time.Duration) (*LocalReplicator, error) {
	if err := db.AutoMigrate(&models.StateRecord{}); err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	l := &LocalReplicator{
		db:       db,
		interval: pollInterval,
		stop:     make(chan struct{}),
	}
	go l.pollLoop()
	return l, nil
}

func (l *LocalReplicator) Load(ctx context.Context) (*models.Document, error) {
	var rec models.StateRecord
	err := l.db.WithContext(ctx).First(&rec, stateRecordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(rec.Payload), &doc); err != nil {
		return nil, err
	}
	if doc.Orders == nil {
		doc.Orders = make(map[int64]*models.Order)
	}

	l.mu.Lock()
	l.lastRev = doc.Revision
	l.mu.Unlock()
	return &doc, nil
}

// Publish replaces the stored row wholesale and notifies in-process
// subscribers right away; the poll path covers everyone else.
func (l *LocalReplicator) Publish(ctx context.Context, doc *models.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	rec := models.StateRecord{
		ID:        stateRecordID,
		Payload:   string(payload),
		Revision:  doc.Revision,
		UpdatedAt: time.Now(),
	}
	if err := l.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return err
	}

	l.mu.Lock()
	l.lastRev = doc.Revision
	subs := append([]func(*models.Document){}, l.subs...)
	l.mu.Unlock()

	for _, fn := range subs {
		fn(doc.Clone())
	}
	return nil
}

func (l *LocalReplicator) Subscribe(fn func(*models.Document)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, fn)
}

func (l *LocalReplicator) Close() error {
	l.stopOnce.Do(func() { close(l.stop) })
	return nil
}

func (l *LocalReplicator) pollLoop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.pollOnce()
		case <-l.stop:
			return
		}
	}
}

// pollOnce re-reads the revision column and only loads the full payload
// when it moved. Read failures are non-fatal: the local copy stays the
// last-known-good document.
func (l *LocalReplicator) pollOnce() {
	var rec models.StateRecord
	err := l.db.Select("revision").First(&rec, stateRecordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}
	if err != nil {
		utils.ErrorLogger.Printf("State poll failed: %v", err)
		return
	}

	l.mu.Lock()
	seen := l.lastRev
	l.mu.Unlock()
	if rec.Revision == seen {
		return
	}

	doc, err := l.Load(context.Background())
	if err != nil || doc == nil {
		if err != nil {
			utils.ErrorLogger.Printf("State reload failed: %v", err)
		}
		return
	}

	l.mu.Lock()
	subs := append([]func(*models.Document){}, l.subs...)
	l.mu.Unlock()
	for _, fn := range subs {
		fn(doc.Clone())
	}
}
