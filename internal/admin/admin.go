// Package admin serves the plugin's settings screen and lifecycle endpoints.
package admin

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"head-cleaner/internal/auth"
	"head-cleaner/internal/inspect"
	"head-cleaner/internal/plugin"
	"head-cleaner/internal/settings"
	"head-cleaner/internal/site"
)

// PageSlug is the ?page= value of the settings screen.
const PageSlug = "head-cleaner"

// NonceAction binds the settings form nonce to the option group.
const NonceAction = settings.OptionName + "-options"

// Route paths.
const (
	SettingsPath = "/wp-admin/options-general.php"
	OptionsPath  = "/wp-admin/options.php"
	PluginsPath  = "/wp-admin/plugins.php"
	LoginPath    = "/wp-login.php"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// SaveEvent describes a successful settings submission.
type SaveEvent struct {
	User      string
	Checked   []string
	Timestamp time.Time
}

// Handler serves the admin routes.
type Handler struct {
	plugin *plugin.Plugin
	site   *site.Site
	issuer *auth.Issuer
	logger *slog.Logger
	onSave func(SaveEvent)
}

// New returns a Handler. A nil logger uses slog.Default.
func New(p *plugin.Plugin, s *site.Site, issuer *auth.Issuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{plugin: p, site: s, issuer: issuer, logger: logger.With("module", "admin")}
}

// SetOnSave registers a callback invoked after each successful save.
// The callback must be non-blocking.
func (h *Handler) SetOnSave(fn func(SaveEvent)) {
	h.onSave = fn
}

// Routes registers the admin routes on r. Callers are expected to have
// attached the auth middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Get(SettingsPath, h.handleSettings)
	r.Post(OptionsPath, h.handleOptions)
	r.Post(PluginsPath, h.handleLifecycle)
	r.Get(LoginPath, h.handleLogin)
}

type row struct {
	Key      string
	Label    string
	Short    string
	Long     string
	Checked  bool
	Rows     int
	Examples string
}

type pageData struct {
	Title       string
	SiteName    string
	AdminHead   template.HTML
	OptionName  string
	OptionGroup string
	Nonce       string
	Updated     bool
	Rows        []row
	Preview     []string

	Heading string
	Message string
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.URL.Query().Get("page") != PageSlug {
		h.message(w, http.StatusNotFound, "Not Found", "The requested admin page does not exist.")
		return
	}
	user := auth.UserFrom(ctx)
	if !user.Can(auth.ManageOptions) {
		h.denied(w)
		return
	}

	bus := h.site.NewBus()
	m, _ := h.plugin.Boot(ctx, bus)

	var head bytes.Buffer
	h.site.RenderAdminHead(ctx, bus, &head)

	nonce, err := h.issuer.Nonce(NonceAction, user.Subject)
	if err != nil {
		h.logger.ErrorContext(ctx, "nonce failed", "operation", "settings_page", "outcome", "failure", "error", err.Error())
		h.message(w, http.StatusInternalServerError, "Error", "The settings page could not be rendered.")
		return
	}

	data := pageData{
		Title:       "Head Cleaner Settings",
		SiteName:    h.site.Name,
		AdminHead:   template.HTML(head.String()),
		OptionName:  settings.OptionName,
		OptionGroup: settings.OptionName,
		Nonce:       nonce,
		Updated:     r.URL.Query().Get("settings-updated") == "true",
		Preview:     h.preview(r, m),
	}
	for _, spec := range h.plugin.Specs() {
		data.Rows = append(data.Rows, row{
			Key:      spec.Key(),
			Label:    spec.Label,
			Short:    spec.Short,
			Long:     spec.Long,
			Checked:  m.Enabled(spec.Key()),
			Rows:     spec.Rows(),
			Examples: strings.Join(spec.Examples, "\n") + "\n",
		})
	}
	h.render(w, http.StatusOK, "settings", data)
}

// preview renders the front page with the current settings applied and
// lists what ends up in its head.
func (h *Handler) preview(r *http.Request, m settings.Map) []string {
	ctx := r.Context()
	bus := h.site.NewBus()
	h.plugin.Apply(bus, m)
	var page bytes.Buffer
	if err := h.site.Render(ctx, bus, &page, ""); err != nil {
		h.logger.WarnContext(ctx, "preview failed", "operation", "preview", "outcome", "failure", "error", err.Error())
		return nil
	}
	elems, err := inspect.Head(&page)
	if err != nil {
		h.logger.WarnContext(ctx, "preview failed", "operation", "preview", "outcome", "failure", "error", err.Error())
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		out = append(out, e.String())
	}
	return out
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFrom(ctx)
	if !user.Can(auth.ManageOptions) {
		h.denied(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.message(w, http.StatusBadRequest, "Error", "The submitted form could not be read.")
		return
	}
	if r.PostForm.Get("option_page") != settings.OptionName {
		h.message(w, http.StatusBadRequest, "Error", "Unknown option group.")
		return
	}
	if err := h.issuer.VerifyNonce(r.PostForm.Get("_wpnonce"), NonceAction, user.Subject); err != nil {
		h.logger.WarnContext(ctx, "nonce rejected", "operation", "save_settings", "outcome", "denied", "error", err.Error())
		h.message(w, http.StatusForbidden, "Something went wrong.", "The link you followed has expired.")
		return
	}

	m := h.formMap(r.PostForm)
	if err := h.plugin.Store().Save(ctx, m); err != nil {
		h.logger.ErrorContext(ctx, "settings not saved", "operation", "save_settings", "outcome", "failure", "error", err.Error())
		h.message(w, http.StatusServiceUnavailable, "Error", "Settings could not be saved. Please try again.")
		return
	}
	h.logger.InfoContext(ctx, "settings saved", "operation", "save_settings", "outcome", "success",
		"user", user.Subject, "checked", len(m))

	if h.onSave != nil {
		h.onSave(SaveEvent{User: user.Subject, Checked: m.Keys(), Timestamp: time.Now()})
	}

	q := url.Values{"page": {PageSlug}, "settings-updated": {"true"}}
	http.Redirect(w, r, SettingsPath+"?"+q.Encode(), http.StatusSeeOther)
}

// formMap collects the checked boxes. Only registry keys are kept; an
// unchecked box is not submitted and so stays absent.
func (h *Handler) formMap(form url.Values) settings.Map {
	m := settings.Map{}
	for _, spec := range h.plugin.Specs() {
		if form.Get(settings.OptionName+"["+spec.Key()+"]") != "" {
			m[spec.Key()] = true
		}
	}
	return m
}

func (h *Handler) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFrom(ctx)
	action := r.URL.Query().Get("action")

	var err error
	switch action {
	case "activate":
		err = h.plugin.Activate(ctx, user)
	case "deactivate":
		err = h.plugin.Deactivate(ctx, user)
	case "uninstall":
		err = h.plugin.Uninstall(ctx, user)
	default:
		jsonError(w, "unknown action", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "lifecycle failed", "operation", action, "outcome", "failure", "error", err.Error())
		jsonError(w, action+" failed", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "action": action})
}

// handleLogin moves a token from the query string into the auth cookie so a
// browser can reach the settings screen.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	claims, err := h.issuer.Verify(raw)
	if err != nil {
		h.message(w, http.StatusForbidden, "Error", "The login token is invalid or has expired.")
		return
	}
	cookie := &http.Cookie{
		Name:     auth.CookieName,
		Value:    raw,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if claims.ExpiresAt != nil {
		cookie.Expires = claims.ExpiresAt.Time
	}
	http.SetCookie(w, cookie)
	http.Redirect(w, r, SettingsPath+"?page="+PageSlug, http.StatusSeeOther)
}

func (h *Handler) denied(w http.ResponseWriter) {
	h.message(w, http.StatusForbidden, "You need a higher level of permission.",
		"Sorry, you are not allowed to manage options for this site.")
}

func (h *Handler) message(w http.ResponseWriter, code int, heading, msg string) {
	h.render(w, code, "message", pageData{
		Title:    heading,
		SiteName: h.site.Name,
		Heading:  heading,
		Message:  msg,
	})
}

func (h *Handler) render(w http.ResponseWriter, code int, name string, data pageData) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("template failed", "operation", "render", "template", name, "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

// jsonError writes a JSON error response with the correct Content-Type.
func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
