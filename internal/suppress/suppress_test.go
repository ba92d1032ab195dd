package suppress

import (
	"context"
	"io"
	"strings"
	"testing"

	"head-cleaner/internal/hook"
	"head-cleaner/internal/output"
	"head-cleaner/internal/registry"
	"head-cleaner/internal/settings"
)

func noop(context.Context, io.Writer) {}

func passthrough(_ context.Context, v string) string { return v }

// stockBus attaches every callback the registry knows how to remove.
func stockBus() *hook.Bus {
	b := hook.NewBus()
	for _, s := range registry.Specs() {
		for _, r := range s.Removals {
			switch r.Kind {
			case registry.RemoveAction:
				b.AddAction(r.Hook, r.Callback, noop, r.Priority)
			case registry.RemoveFilter:
				b.AddFilter(r.Hook, r.Callback, passthrough, r.Priority)
			}
		}
	}
	return b
}

func attached(b *hook.Bus, r registry.Removal) bool {
	switch r.Kind {
	case registry.RemoveAction:
		_, ok := b.HasAction(r.Hook, r.Callback)
		return ok
	case registry.RemoveFilter, registry.AddFilter:
		_, ok := b.HasFilter(r.Hook, r.Callback)
		return ok
	}
	return false
}

func TestApply_EachSpecAlone(t *testing.T) {
	t.Parallel()
	for _, target := range registry.Specs() {
		target := target
		t.Run(target.Key(), func(t *testing.T) {
			t.Parallel()
			b := stockBus()
			rep := New(registry.Specs(), nil).Apply(b, settings.Map{target.Key(): true})

			for _, s := range registry.Specs() {
				for _, r := range s.Removals {
					got := attached(b, r)
					want := s.Key() != target.Key()
					if r.Kind == registry.AddFilter {
						want = s.Key() == target.Key()
					}
					if got != want {
						t.Errorf("%s %s/%s@%d attached = %v, want %v",
							r.Kind, r.Hook, r.Callback, r.Priority, got, want)
					}
				}
			}
			if rep.Intercept != target.Intercept {
				t.Errorf("Intercept = %v, want %v", rep.Intercept, target.Intercept)
			}
			if len(rep.Missing) != 0 {
				t.Errorf("Missing = %+v, want none", rep.Missing)
			}
			if len(rep.Applied) != len(target.Removals) {
				t.Errorf("len(Applied) = %d, want %d", len(rep.Applied), len(target.Removals))
			}
		})
	}
}

func TestApply_FalseAndAbsentLeaveBus(t *testing.T) {
	t.Parallel()
	b := stockBus()
	m := settings.Map{"wp_head-rsd_link": false}
	rep := New(registry.Specs(), nil).Apply(b, m)

	if len(rep.Applied) != 0 || rep.Intercept {
		t.Errorf("report = %+v, want empty", rep)
	}
	for _, s := range registry.Specs() {
		for _, r := range s.Removals {
			if r.Kind == registry.AddFilter {
				continue
			}
			if !attached(b, r) {
				t.Errorf("%s/%s should remain attached", r.Hook, r.Callback)
			}
		}
	}
}

func TestApply_MissingCallbackReported(t *testing.T) {
	t.Parallel()
	b := hook.NewBus()
	rep := New(registry.Specs(), nil).Apply(b, settings.Map{"wp_head-feed_links": true})
	if len(rep.Missing) != 2 {
		t.Errorf("len(Missing) = %d, want 2", len(rep.Missing))
	}
}

func TestPingbackInterception_StripsHead(t *testing.T) {
	t.Parallel()
	b := hook.NewBus()
	New(registry.Specs(), nil).Apply(b, settings.Map{"pingback-__return_false": true})

	var dst strings.Builder
	out := output.New(&dst)
	ctx := context.Background()

	b.DoAction(ctx, hook.TemplateRedirect, out)
	io.WriteString(out, "<head>\n")
	b.DoAction(ctx, hook.GetHeader, out)
	io.WriteString(out, `<link rel="pingback" href="http://x/xmlrpc.php">`+"\n")
	b.DoAction(ctx, hook.WPHead, out)
	io.WriteString(out, `</head><body><link rel="pingback" href="http://x/in-body">`)
	out.Close()

	want := "<head>\n\n</head><body><link rel=\"pingback\" href=\"http://x/in-body\">"
	if dst.String() != want {
		t.Errorf("output = %q, want %q", dst.String(), want)
	}
}

func TestPingbackInterception_UnbufferedWriterNoop(t *testing.T) {
	t.Parallel()
	b := hook.NewBus()
	New(registry.Specs(), nil).Apply(b, settings.Map{"pingback-__return_false": true})

	var dst strings.Builder
	ctx := context.Background()
	b.DoAction(ctx, hook.TemplateRedirect, &dst)
	io.WriteString(&dst, `<link rel="pingback" href="x">`)
	b.DoAction(ctx, hook.WPHead, &dst)

	if dst.String() != `<link rel="pingback" href="x">` {
		t.Errorf("output = %q, want untouched", dst.String())
	}
}

func TestPingbackInterception_OutputAlreadySent(t *testing.T) {
	t.Parallel()
	b := hook.NewBus()
	New(registry.Specs(), nil).Apply(b, settings.Map{"pingback-__return_false": true})

	var dst strings.Builder
	out := output.New(&dst)
	io.WriteString(out, `<link rel="pingback" href="x">`)
	b.DoAction(context.Background(), hook.TemplateRedirect, out)
	b.DoAction(context.Background(), hook.WPHead, out)
	out.Close()

	if dst.String() != `<link rel="pingback" href="x">` {
		t.Errorf("output = %q, want untouched", dst.String())
	}
}
