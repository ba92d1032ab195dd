// Package hook is the host's event bus: named action and filter hooks with
// priority-ordered callbacks that plugins attach to and detach from.
package hook

// Host hook names used by the page renderer and the admin screens.
const (
	TemplateRedirect  = "template_redirect"
	GetHeader         = "get_header"
	WPHead            = "wp_head"
	WPPrintStyles     = "wp_print_styles"
	AdminPrintScripts = "admin_print_scripts"
	AdminPrintStyles  = "admin_print_styles"

	TheContent  = "the_content"
	EmojiSVGURL = "emoji_svg_url"
)
