package replication

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/fanguan/pos-app/models"
	"github.com/fanguan/pos-app/utils"
)

// RedisReplicator keeps the document in a single redis key and uses
// pub/sub as the live subscription channel, so remote displays converge
// sub-second. The on-device replicator is written first on every
// publish: when the remote is unreachable a display keeps serving its
// last-known-good document and the failure surfaces as a notice, never
// a crash.
type RedisReplicator struct {
	client  *redis.Client
	key     string
	channel string
	local   *LocalReplicator

	mu   sync.Mutex
	subs []func(*models.Document)

	ctx    context.Context
	cancel context.CancelFunc
	pubsub *redis.PubSub
}

func NewRedis(client *redis.Client, key, channel string, local *LocalReplicator) *RedisReplicator {
	ctx, cancel := context.WithCancel(context.Background())
	r := &RedisReplicator{
		client:  client,
		key:     key,
		channel: channel,
		local:   local,
		ctx:     ctx,
		cancel:  cancel,
	}
	r.pubsub = client.Subscribe(ctx, channel)
	go r.listen()
	return r
}

// Load prefers the remote copy and falls back to the on-device store
// when redis is empty or unreachable.
func (r *RedisReplicator) Load(ctx context.Context) (*models.Document, error) {
	payload, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return r.local.Load(ctx)
	}
	if err != nil {
		utils.ErrorLogger.Printf("Remote state read failed: %v - using local copy", err)
		return r.local.Load(ctx)
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode remote state: %w", err)
	}
	if doc.Orders == nil {
		doc.Orders = make(map[int64]*models.Order)
	}
	return &doc, nil
}

// Publish writes the on-device copy first, then replaces the remote key
// and announces the new revision. A remote failure is returned to the
// caller as a notice; the write is not queued for retry.
func (r *RedisReplicator) Publish(ctx context.Context, doc *models.Document) error {
	if err := r.local.Publish(ctx, doc); err != nil {
		return err
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("remote state write: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, strconv.FormatInt(doc.Revision, 10)).Err(); err != nil {
		return fmt.Errorf("remote state notify: %w", err)
	}
	return nil
}

func (r *RedisReplicator) Subscribe(fn func(*models.Document)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

func (r *RedisReplicator) Close() error {
	r.cancel()
	if r.pubsub != nil {
		r.pubsub.Close()
	}
	return r.local.Close()
}

func (r *RedisReplicator) listen() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case msg, ok := <-r.pubsub.Channel():
			if !ok {
				return
			}
			_ = msg
			doc, err := r.Load(r.ctx)
			if err != nil || doc == nil {
				if err != nil {
					utils.ErrorLogger.Printf("Remote snapshot fetch failed: %v", err)
				}
				continue
			}

			r.mu.Lock()
			subs := append([]func(*models.Document){}, r.subs...)
			r.mu.Unlock()
			for _, fn := range subs {
				fn(doc.Clone())
			}
		}
	}
}
