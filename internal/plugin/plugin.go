// Package plugin ties the settings store to the suppressor and implements
// the activate, deactivate and uninstall lifecycle.
package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"head-cleaner/internal/auth"
	"head-cleaner/internal/registry"
	"head-cleaner/internal/settings"
	"head-cleaner/internal/suppress"
)

// Plugin is the head-cleaner plugin bound to one settings store.
type Plugin struct {
	store      settings.Store
	specs      []registry.Spec
	suppressor *suppress.Suppressor
	logger     *slog.Logger
}

// New returns a Plugin over store. A nil logger uses slog.Default.
func New(store settings.Store, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.Default()
	}
	specs := registry.Specs()
	return &Plugin{
		store:      store,
		specs:      specs,
		suppressor: suppress.New(specs, logger),
		logger:     logger.With("module", "plugin"),
	}
}

// Specs returns the registry the plugin was built with.
func (p *Plugin) Specs() []registry.Spec {
	return p.specs
}

// Store returns the settings store.
func (p *Plugin) Store() settings.Store {
	return p.store
}

// Settings loads the saved map. Load errors degrade to an empty map so a
// page still renders with every element in place.
func (p *Plugin) Settings(ctx context.Context) settings.Map {
	m, err := p.store.Load(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "settings unavailable",
			"operation", "load", "outcome", "degraded", "error", err.Error())
		return settings.Map{}
	}
	return m
}

// Boot loads the settings and applies them to bus. It runs once per request
// before the page is rendered.
func (p *Plugin) Boot(ctx context.Context, bus suppress.EventBus) (settings.Map, suppress.Report) {
	m := p.Settings(ctx)
	rep := p.Apply(bus, m)
	for _, r := range rep.Missing {
		p.logger.DebugContext(ctx, "callback not attached",
			"operation", "boot", "hook", r.Hook, "callback", r.Callback, "priority", r.Priority)
	}
	return m, rep
}

// Apply applies m to bus without touching the store.
func (p *Plugin) Apply(bus suppress.EventBus, m settings.Map) suppress.Report {
	return p.suppressor.Apply(bus, m)
}

// Activate stores the existing settings again, or an empty map on first
// activation. Users without activate_plugins are ignored.
func (p *Plugin) Activate(ctx context.Context, user *auth.Claims) error {
	if !user.Can(auth.ActivatePlugins) {
		return nil
	}
	m, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("activate: load settings: %w", err)
	}
	if err := p.store.Save(ctx, m.Clone()); err != nil {
		return fmt.Errorf("activate: save settings: %w", err)
	}
	p.logger.InfoContext(ctx, "plugin activated",
		"operation", "activate", "outcome", "success", "checked", len(m.Keys()))
	return nil
}

// Deactivate keeps the settings so a later activation restores them.
func (p *Plugin) Deactivate(ctx context.Context, user *auth.Claims) error {
	if !user.Can(auth.ActivatePlugins) {
		return nil
	}
	p.logger.InfoContext(ctx, "plugin deactivated", "operation", "deactivate", "outcome", "success")
	return nil
}

// Uninstall deletes the settings. Users without delete_plugins are ignored.
func (p *Plugin) Uninstall(ctx context.Context, user *auth.Claims) error {
	if !user.Can(auth.DeletePlugins) {
		return nil
	}
	if err := p.store.Delete(ctx); err != nil {
		return fmt.Errorf("uninstall: delete settings: %w", err)
	}
	p.logger.InfoContext(ctx, "plugin uninstalled", "operation", "uninstall", "outcome", "success")
	return nil
}
