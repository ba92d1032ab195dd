package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"head-cleaner/internal/auth"
	"head-cleaner/internal/plugin"
	"head-cleaner/internal/settings"
	"head-cleaner/internal/site"
)

// flakyStore fails Load when failLoad is set.
type flakyStore struct {
	settings.MemoryStore
	failLoad bool
}

func (f *flakyStore) Load(ctx context.Context) (settings.Map, error) {
	if f.failLoad {
		return nil, errors.New("store down")
	}
	return f.MemoryStore.Load(ctx)
}

func newServer(t *testing.T, store settings.Store) (*Server, *auth.Issuer) {
	t.Helper()
	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	srv := New(plugin.New(store, nil), site.New("Example", "http://example.test"), issuer, nil)
	return srv, issuer
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHandlePage_Default(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, settings.NewMemoryStore())

	w := get(srv, "/hello-world/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`rel="pingback"`, `name="generator"`, `rel="shortlink"`, "_wpemojiSettings"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s", want)
		}
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("response should carry a request id")
	}
}

func TestHandlePage_SettingsApplied(t *testing.T) {
	t.Parallel()
	store := settings.NewMemoryStore()
	_ = store.Save(context.Background(), settings.Map{
		"pingback-__return_false": true,
		"wp_head-wp_generator":    true,
		"emoji-__return_false":    true,
	})
	srv, _ := newServer(t, store)

	var got RenderEvent
	srv.SetOnRender(func(e RenderEvent) { got = e })

	w := get(srv, "/hello-world/")
	body := w.Body.String()
	for _, gone := range []string{`rel="pingback"`, `name="generator"`, "_wpemojiSettings", "wp-smiley"} {
		if strings.Contains(body, gone) {
			t.Errorf("body should not contain %s", gone)
		}
	}
	if !strings.Contains(body, `rel="shortlink"`) {
		t.Error("unchecked elements should stay")
	}
	if !strings.Contains(body, ":)") {
		t.Error("smilies should stay as text once conversion is removed")
	}

	if got.Path != "/hello-world/" || !got.Intercept || got.Bytes != len(body) {
		t.Errorf("render event = %+v", got)
	}
	if got.Removed == 0 {
		t.Error("render event should count removals")
	}
}

func TestHandlePage_StoreDownDegrades(t *testing.T) {
	t.Parallel()
	store := &flakyStore{}
	_ = store.Save(context.Background(), settings.Map{"wp_head-wp_generator": true})
	store.failLoad = true
	srv, _ := newServer(t, store)

	w := get(srv, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `name="generator"`) {
		t.Error("page should render unmodified when settings cannot load")
	}
}

func TestHandlePage_NotFound(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, settings.NewMemoryStore())
	if w := get(srv, "/no-such-post/"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleSlash(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, settings.NewMemoryStore())
	w := get(srv, "/hello-world")
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/hello-world/" {
		t.Errorf("Location = %q, want /hello-world/", loc)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, settings.NewMemoryStore())

	w := get(srv, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]interface{}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", resp["status"])
	}
}

func TestHandleStats(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, settings.NewMemoryStore())

	get(srv, "/")
	get(srv, "/second-post/")
	get(srv, "/missing/")

	w := get(srv, "/stats")
	var resp map[string]interface{}
	json.NewDecoder(w.Body).Decode(&resp)

	if resp["renders"] != float64(2) {
		t.Errorf("renders = %v, want 2", resp["renders"])
	}
	if resp["saves"] != float64(0) {
		t.Errorf("saves = %v, want 0", resp["saves"])
	}
	if resp["last_render"] == nil {
		t.Error("stats should include last_render")
	}
}

func TestStats_NoRenders(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, settings.NewMemoryStore())
	var resp map[string]interface{}
	json.NewDecoder(get(srv, "/stats").Body).Decode(&resp)
	if _, ok := resp["last_render"]; ok {
		t.Error("last_render should be absent before any render")
	}
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, settings.NewMemoryStore())
	h := srv.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if srv.ErrCount().Load() != 1 {
		t.Errorf("errors = %d, want 1", srv.ErrCount().Load())
	}
}

func TestAdminRoutes_RequireAuth(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, settings.NewMemoryStore())
	if w := get(srv, "/wp-admin/options-general.php?page=head-cleaner"); w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}
