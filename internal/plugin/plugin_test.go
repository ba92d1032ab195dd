package plugin

import (
	"context"
	"errors"
	"io"
	"testing"

	"head-cleaner/internal/auth"
	"head-cleaner/internal/hook"
	"head-cleaner/internal/settings"
)

// failStore fails every operation.
type failStore struct{ settings.MemoryStore }

var errDown = errors.New("store down")

func (f *failStore) Load(context.Context) (settings.Map, error) { return nil, errDown }
func (f *failStore) Save(context.Context, settings.Map) error   { return errDown }
func (f *failStore) Delete(context.Context) error               { return errDown }

func admin(caps ...string) *auth.Claims {
	return &auth.Claims{Capabilities: caps}
}

func TestBoot_AppliesSettings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := settings.NewMemoryStore()
	if err := store.Save(ctx, settings.Map{"wp_head-wp_generator": true, "pingback-__return_false": true}); err != nil {
		t.Fatal(err)
	}
	p := New(store, nil)

	bus := hook.NewBus()
	bus.AddAction(hook.WPHead, "wp_generator", func(context.Context, io.Writer) {}, hook.DefaultPriority)
	m, rep := p.Boot(ctx, bus)

	if !m.Enabled("wp_head-wp_generator") {
		t.Error("Boot should return the saved map")
	}
	if _, ok := bus.HasAction(hook.WPHead, "wp_generator"); ok {
		t.Error("wp_generator should be detached")
	}
	if len(rep.Applied) != 1 || !rep.Intercept {
		t.Errorf("report = %+v, want 1 applied and intercept", rep)
	}
}

func TestBoot_LoadErrorDegrades(t *testing.T) {
	t.Parallel()
	p := New(&failStore{}, nil)
	bus := hook.NewBus()
	bus.AddAction(hook.WPHead, "wp_generator", nil, hook.DefaultPriority)

	m, rep := p.Boot(context.Background(), bus)
	if len(m) != 0 {
		t.Errorf("map = %v, want empty", m)
	}
	if len(rep.Applied) != 0 || rep.Intercept {
		t.Errorf("report = %+v, want nothing applied", rep)
	}
	if _, ok := bus.HasAction(hook.WPHead, "wp_generator"); !ok {
		t.Error("bus should be untouched")
	}
}

func TestActivate_KeepsExisting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := settings.NewMemoryStore()
	_ = store.Save(ctx, settings.Map{"wp_head-rsd_link": true})
	p := New(store, nil)

	if err := p.Deactivate(ctx, admin(auth.ActivatePlugins)); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if err := p.Activate(ctx, admin(auth.ActivatePlugins)); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	m, _ := store.Load(ctx)
	if !m.Enabled("wp_head-rsd_link") {
		t.Errorf("settings after reactivation = %v, want rsd_link kept", m)
	}
}

func TestActivate_FirstTimeCreatesEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := settings.NewMemoryStore()
	p := New(store, nil)

	if err := p.Activate(ctx, admin(auth.ActivatePlugins)); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if store.Revision() == "" {
		t.Error("Activate should write the option")
	}
	m, _ := store.Load(ctx)
	if len(m) != 0 {
		t.Errorf("map = %v, want empty", m)
	}
}

func TestLifecycle_MissingCapabilityIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := settings.NewMemoryStore()
	_ = store.Save(ctx, settings.Map{"wp_head-rsd_link": true})
	rev := store.Revision()
	p := New(store, nil)

	viewer := admin(auth.ManageOptions)
	if err := p.Activate(ctx, viewer); err != nil {
		t.Errorf("Activate err = %v, want nil", err)
	}
	if err := p.Uninstall(ctx, viewer); err != nil {
		t.Errorf("Uninstall err = %v, want nil", err)
	}
	if err := p.Activate(ctx, nil); err != nil {
		t.Errorf("Activate(nil) err = %v, want nil", err)
	}
	if store.Revision() != rev {
		t.Error("store should not be written without the capability")
	}
	m, _ := store.Load(ctx)
	if !m.Enabled("wp_head-rsd_link") {
		t.Error("settings should survive an unauthorized uninstall")
	}
}

func TestUninstall_DeletesSettings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := settings.NewMemoryStore()
	_ = store.Save(ctx, settings.Map{"wp_head-rsd_link": true})
	p := New(store, nil)

	if err := p.Uninstall(ctx, admin(auth.DeletePlugins)); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	m, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("map after uninstall = %v, want empty", m)
	}
}

func TestUninstall_StoreError(t *testing.T) {
	t.Parallel()
	p := New(&failStore{}, nil)
	err := p.Uninstall(context.Background(), admin(auth.DeletePlugins))
	if !errors.Is(err, errDown) {
		t.Errorf("err = %v, want wrapped errDown", err)
	}
}
