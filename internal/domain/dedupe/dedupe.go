// Package dedupe tracks idempotency keys so a repeated LOR trigger maps back
// to the job it already started instead of starting a second one.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const defaultMaxSize = 10_000

// Deduper records idempotency keys together with the id of the work they
// started.
type Deduper interface {
	// SeenAndRecord atomically looks up key. If it is known and not expired
	// the recorded value is returned with seen=true. Otherwise value is
	// recorded and seen=false.
	SeenAndRecord(ctx context.Context, key, value string) (existing string, seen bool)

	// Unrecord forgets key so the same request can be retried, e.g. after
	// the queue rejected it.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key     string
	value   string
	expires time.Time
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest when
// full. A zero ttl keeps keys until they are evicted.
type inMemoryDeduper struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key, value string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if el, ok := d.items[key]; ok {
		e := el.Value.(*entry)
		if e.expires.IsZero() || now.Before(e.expires) {
			return e.value, true
		}
		d.remove(el)
	}

	if d.maxSize > 0 {
		for d.order.Len() >= d.maxSize {
			d.remove(d.order.Front())
		}
	}

	e := &entry{key: key, value: value}
	if d.ttl > 0 {
		e.expires = now.Add(d.ttl)
	}
	d.items[key] = d.order.PushBack(e)
	return "", false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.items[key]; ok {
		d.remove(el)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}

// remove must be called with d.mu held.
func (d *inMemoryDeduper) remove(el *list.Element) {
	e := d.order.Remove(el).(*entry)
	delete(d.items, e.key)
}
