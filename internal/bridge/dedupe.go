package bridge

import "sync"

const defaultDedupeWindow = 256

// dedupe remembers the most recent event ids so retried posts are
// acknowledged without being applied twice. A toggle applied twice would
// undo itself.
type dedupe struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	order  []string
	window int
}

func newDedupe(window int) *dedupe {
	if window <= 0 {
		window = defaultDedupeWindow
	}
	return &dedupe{
		seen:   make(map[string]struct{}, window),
		order:  make([]string, 0, window),
		window: window,
	}
}

// remember records id and reports whether it was new.
func (d *dedupe) remember(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	if len(d.order) > d.window {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	return true
}

// forget drops id so a failed event can be retried.
func (d *dedupe) forget(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	for i, candidate := range d.order {
		if candidate == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}
