// Package replication propagates the shared order document between the
// counter and kitchen displays.
//
// The model is last-writer-wins at document granularity: Publish
// replaces the stored copy outright, with no field-level merge and no
// conflict detection. Concurrent read-modify-write cycles from two
// displays in an overlapping window can lose one side's edits; that is
// a deliberate availability tradeoff for a single-location, low
// write-rate deployment, not a bug to paper over here.
package replication

import (
	"context"

	"github.com/fanguan/pos-app/models"
)

// Replicator is the consumer contract both propagation mechanisms
// implement. After Publish returns the document is durable; other
// subscribers observe it within the propagation delay of the
// implementation (sub-second for redis pub/sub, up to the poll interval
// for the on-device store). A failed publish is not queued for retry;
// the next local mutation carries the state across.
type Replicator interface {
	// Load returns the current document, or (nil, nil) when nothing
	// has been persisted yet.
	Load(ctx context.Context) (*models.Document, error)
	Publish(ctx context.Context, doc *models.Document) error
	// Subscribe registers fn to receive every remotely observed
	// snapshot. fn must not block.
	Subscribe(fn func(*models.Document))
	Close() error
}
