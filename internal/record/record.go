package record

import (
	"sync"
)

// Record is the mutable inspection record shared by widgets and predicates.
//
// The zero value is not usable; construct with New.
type Record struct {
	mu      sync.RWMutex
	fields  map[string]any
	version uint64

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// New creates an empty record.
func New() *Record {
	return &Record{
		fields: make(map[string]any),
		subs:   make(map[int]chan struct{}),
	}
}

// Publish shallow-merges fields into the record. Keys not named in fields
// are preserved. Publishing an empty map is a no-op and does not notify
// subscribers.
func (r *Record) Publish(fields map[string]any) {
	if len(fields) == 0 {
		return
	}

	r.mu.Lock()
	for k, v := range fields {
		r.fields[k] = v
	}
	r.version++
	r.mu.Unlock()

	r.notify()
}

// Set replaces the value stored under key.
func (r *Record) Set(key string, value any) {
	r.Publish(map[string]any{key: value})
}

// Get returns the current value stored under key.
// The returned value is shared with the record; use Snapshot for an
// isolated copy.
func (r *Record) Get(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.fields[key]
	return v, ok
}

// Delete removes key from the record. Deleting a missing key is a no-op.
func (r *Record) Delete(key string) {
	r.mu.Lock()
	if _, ok := r.fields[key]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.fields, key)
	r.version++
	r.mu.Unlock()

	r.notify()
}

// Reset removes every key. Subscribers are notified only if the record
// was not already empty.
func (r *Record) Reset() {
	r.mu.Lock()
	if len(r.fields) == 0 {
		r.mu.Unlock()
		return
	}
	r.fields = make(map[string]any)
	r.version++
	r.mu.Unlock()

	r.notify()
}

// Snapshot returns a deep copy of the current contents.
func (r *Record) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(Snapshot, len(r.fields))
	for k, v := range r.fields {
		snap[k] = deepCopy(v)
	}
	return snap
}

// Version returns a counter that increases on every mutation.
func (r *Record) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Subscribe registers for change notifications.
//
// The returned channel has a buffer of one: any number of writes between
// two receives collapse into a single pending signal. Call cancel to
// unsubscribe; cancel is idempotent and closes the channel.
func (r *Record) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	r.subMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, id)
			r.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// notify signals every subscriber without blocking.
func (r *Record) notify() {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// deepCopy copies the JSON-like containers so snapshots never alias the
// live record. Scalars and foreign types are returned as-is.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = deepCopy(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = deepCopy(elem)
		}
		return out
	default:
		return v
	}
}
