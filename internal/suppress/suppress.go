// Package suppress removes head elements from a host page according to the
// saved settings: it detaches the host callbacks that print them and, for the
// pingback link that themes hard-code, strips it from buffered output.
package suppress

import (
	"context"
	"io"
	"log/slog"

	"head-cleaner/internal/hook"
	"head-cleaner/internal/output"
	"head-cleaner/internal/registry"
	"head-cleaner/internal/settings"
)

// PingbackScope names the output scope that captures the page head.
const PingbackScope = "pingback"

// Callback ids under which the pingback interception is attached.
const (
	PingbackBufferStart = "head_cleaner_pingback_buffer_start"
	PingbackBufferEnd   = "head_cleaner_pingback_buffer_end"
)

// PingbackEndPriority runs after every stock wp_head callback.
const PingbackEndPriority = 999

// EventBus is the part of the host hook system the suppressor needs.
type EventBus interface {
	AddAction(hook, id string, fn hook.Action, priority int)
	RemoveAction(hook, id string, priority int) bool
	AddFilter(hook, id string, fn hook.Filter, priority int)
	RemoveFilter(hook, id string, priority int) bool
}

// Scoper is implemented by request writers that can buffer output.
type Scoper interface {
	Start(name string, cb output.Callback) error
	End(name string) error
}

// Report describes what Apply changed on the bus.
type Report struct {
	// Applied lists removals that took effect.
	Applied []registry.Removal
	// Missing lists removals whose callback was not attached.
	Missing []registry.Removal
	// Intercept is true when the pingback buffer was installed.
	Intercept bool
}

// Suppressor applies the registry to a host bus.
type Suppressor struct {
	specs  []registry.Spec
	logger *slog.Logger
}

// New returns a Suppressor over specs. A nil logger uses slog.Default.
func New(specs []registry.Spec, logger *slog.Logger) *Suppressor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Suppressor{specs: specs, logger: logger.With("module", "suppress")}
}

// Apply detaches, for every spec checked in m, the callbacks it controls,
// and installs the pingback interception when that spec is checked. Specs
// that are unchecked or absent leave the bus untouched.
func (s *Suppressor) Apply(bus EventBus, m settings.Map) Report {
	var rep Report
	for _, spec := range s.specs {
		if !m.Enabled(spec.Key()) {
			continue
		}
		if spec.Intercept {
			s.intercept(bus)
			rep.Intercept = true
			continue
		}
		for _, r := range spec.Removals {
			if apply(bus, r) {
				rep.Applied = append(rep.Applied, r)
			} else {
				rep.Missing = append(rep.Missing, r)
			}
		}
	}
	return rep
}

func apply(bus EventBus, r registry.Removal) bool {
	switch r.Kind {
	case registry.RemoveAction:
		return bus.RemoveAction(r.Hook, r.Callback, r.Priority)
	case registry.RemoveFilter:
		return bus.RemoveFilter(r.Hook, r.Callback, r.Priority)
	case registry.AddFilter:
		bus.AddFilter(r.Hook, r.Callback, hook.ReturnFalse, r.Priority)
		return true
	}
	return false
}

// intercept opens the pingback scope as early as the host allows and closes
// it once the head has been printed.
func (s *Suppressor) intercept(bus EventBus) {
	bus.AddAction(hook.TemplateRedirect, PingbackBufferStart, s.startBuffer, -1)
	bus.AddAction(hook.GetHeader, PingbackBufferStart, s.startBuffer, hook.DefaultPriority)
	bus.AddAction(hook.WPHead, PingbackBufferEnd, s.endBuffer, PingbackEndPriority)
}

func (s *Suppressor) startBuffer(ctx context.Context, w io.Writer) {
	sc, ok := w.(Scoper)
	if !ok {
		s.logger.DebugContext(ctx, "pingback buffer unavailable",
			"operation", "buffer_start", "outcome", "skipped", "reason", "writer cannot buffer")
		return
	}
	if err := sc.Start(PingbackScope, StripPingback); err != nil {
		s.logger.DebugContext(ctx, "pingback buffer unavailable",
			"operation", "buffer_start", "outcome", "skipped", "error", err.Error())
	}
}

func (s *Suppressor) endBuffer(ctx context.Context, w io.Writer) {
	sc, ok := w.(Scoper)
	if !ok {
		return
	}
	if err := sc.End(PingbackScope); err != nil {
		s.logger.DebugContext(ctx, "pingback buffer not open",
			"operation", "buffer_end", "outcome", "skipped", "error", err.Error())
	}
}
