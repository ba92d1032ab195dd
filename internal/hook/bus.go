package hook

import (
	"context"
	"io"
	"sort"
	"sync"
)

// DefaultPriority is the priority used by the host when none is given.
const DefaultPriority = 10

// Action is a callback attached to an action hook. It writes any markup it
// produces to w, which is the request's output (possibly buffered).
type Action func(ctx context.Context, w io.Writer)

// Filter is a callback attached to a filter hook. It receives the current
// value and returns the replacement.
type Filter func(ctx context.Context, value string) string

// ReturnFalse is the constant-false filter. The host represents false as
// the empty string.
func ReturnFalse(context.Context, string) string { return "" }

type action struct {
	id       string
	priority int
	fn       Action
}

type filter struct {
	id       string
	priority int
	fn       Filter
}

// Bus holds the action and filter callbacks of one host instance. Callbacks
// run by ascending priority, then in registration order. A callback is
// identified by its hook name, callback id and priority; detaching needs all
// three, the same way the host attached it.
//
// Bus is safe for concurrent use, though the host builds one per request.
type Bus struct {
	mu      sync.RWMutex
	actions map[string][]action
	filters map[string][]filter
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{
		actions: make(map[string][]action),
		filters: make(map[string][]filter),
	}
}

// AddAction attaches fn to the action hook under the given callback id.
// Attaching the same id twice at the same priority replaces the callback
// in place.
func (b *Bus) AddAction(hook, id string, fn Action, priority int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.actions[hook]
	for i := range list {
		if list[i].id == id && list[i].priority == priority {
			list[i].fn = fn
			return
		}
	}
	b.actions[hook] = insertAction(list, action{id: id, priority: priority, fn: fn})
}

// RemoveAction detaches the callback id from the hook at the given priority.
// It reports whether a callback was removed.
func (b *Bus) RemoveAction(hook, id string, priority int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.actions[hook]
	for i := range list {
		if list[i].id == id && list[i].priority == priority {
			b.actions[hook] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// HasAction reports whether the callback id is attached to the hook at any
// priority, and returns the lowest such priority.
func (b *Bus) HasAction(hook, id string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, a := range b.actions[hook] {
		if a.id == id {
			return a.priority, true
		}
	}
	return 0, false
}

// DoAction runs every callback attached to the hook, in order. The list is
// snapshotted first, so callbacks may attach or detach without deadlocking;
// changes take effect on the next DoAction.
func (b *Bus) DoAction(ctx context.Context, hook string, w io.Writer) {
	b.mu.RLock()
	list := append([]action(nil), b.actions[hook]...)
	b.mu.RUnlock()
	for _, a := range list {
		a.fn(ctx, w)
	}
}

// AddFilter attaches fn to the filter hook under the given callback id.
func (b *Bus) AddFilter(hook, id string, fn Filter, priority int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.filters[hook]
	for i := range list {
		if list[i].id == id && list[i].priority == priority {
			list[i].fn = fn
			return
		}
	}
	b.filters[hook] = insertFilter(list, filter{id: id, priority: priority, fn: fn})
}

// RemoveFilter detaches the callback id from the filter hook at the given
// priority. It reports whether a callback was removed.
func (b *Bus) RemoveFilter(hook, id string, priority int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.filters[hook]
	for i := range list {
		if list[i].id == id && list[i].priority == priority {
			b.filters[hook] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// HasFilter reports whether the callback id is attached to the filter hook.
func (b *Bus) HasFilter(hook, id string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, f := range b.filters[hook] {
		if f.id == id {
			return f.priority, true
		}
	}
	return 0, false
}

// ApplyFilters passes value through every filter attached to the hook and
// returns the result.
func (b *Bus) ApplyFilters(ctx context.Context, hook, value string) string {
	b.mu.RLock()
	list := append([]filter(nil), b.filters[hook]...)
	b.mu.RUnlock()
	for _, f := range list {
		value = f.fn(ctx, value)
	}
	return value
}

// Listeners returns the callback ids attached to the action hook, in run
// order.
func (b *Bus) Listeners(hook string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.actions[hook]))
	for _, a := range b.actions[hook] {
		ids = append(ids, a.id)
	}
	return ids
}

func insertAction(list []action, a action) []action {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].priority > a.priority
	})
	list = append(list, action{})
	copy(list[i+1:], list[i:])
	list[i] = a
	return list
}

func insertFilter(list []filter, f filter) []filter {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].priority > f.priority
	})
	list = append(list, filter{})
	copy(list[i+1:], list[i:])
	list[i] = f
	return list
}
