package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	touchTimeout   = 5 * time.Second
)

// LastLoginStore is the write the dispatcher performs for each login.
type LastLoginStore interface {
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

type loginEvent struct {
	userID string
	at     time.Time
}

// LoginDispatcher records last-login timestamps off the request path. Events
// are sharded by user id so one user's touches are applied in order.
type LoginDispatcher struct {
	workers []chan loginEvent
	store   LastLoginStore
	log     zerolog.Logger
	now     func() time.Time
	wg      sync.WaitGroup

	// OnDrop is called when a shard is full and the event is discarded.
	OnDrop func(userID string)
}

// NewLoginDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewLoginDispatcher(numWorkers int, store LastLoginStore, log zerolog.Logger) *LoginDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &LoginDispatcher{
		workers: make([]chan loginEvent, numWorkers),
		store:   store,
		log:     log,
		now:     time.Now,
	}
	for i := range d.workers {
		d.workers[i] = make(chan loginEvent, channelBuffer)
	}
	return d
}

// Start launches the workers. They drain their queues and exit when ctx is
// cancelled; Wait blocks until they have.
func (d *LoginDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

func (d *LoginDispatcher) Wait() {
	d.wg.Wait()
}

// RecordLogin never blocks. A full shard drops the event.
func (d *LoginDispatcher) RecordLogin(userID string) {
	ev := loginEvent{userID: userID, at: d.now().UTC()}
	select {
	case d.workers[d.shardIndex(userID)] <- ev:
	default:
		d.log.Warn().Str("user_id", userID).Msg("last login update dropped")
		if d.OnDrop != nil {
			d.OnDrop(userID)
		}
	}
}

func (d *LoginDispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *LoginDispatcher) runWorker(ctx context.Context, id int, ch <-chan loginEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev := <-ch:
					d.touch(id, ev)
				default:
					return
				}
			}
		case ev := <-ch:
			d.touch(id, ev)
		}
	}
}

// touch runs on its own deadline; the originating request has long returned.
func (d *LoginDispatcher) touch(worker int, ev loginEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
	defer cancel()

	if err := d.store.TouchLastLogin(ctx, ev.userID, ev.at); err != nil {
		d.log.Error().Err(err).
			Str("user_id", ev.userID).
			Int("worker_id", worker).
			Msg("last login update failed")
	}
}
