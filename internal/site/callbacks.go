package site

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"head-cleaner/internal/hook"
)

// NewBus returns a bus with the host's stock callbacks attached at their
// stock priorities.
func (s *Site) NewBus() *hook.Bus {
	b := hook.NewBus()
	b.AddAction(hook.WPHead, "wp_resource_hints", s.resourceHints(b), 2)
	b.AddAction(hook.WPHead, "feed_links", s.feedLinks, 2)
	b.AddAction(hook.WPHead, "feed_links_extra", s.feedLinksExtra, 3)
	b.AddAction(hook.WPHead, "rsd_link", s.rsdLink, hook.DefaultPriority)
	b.AddAction(hook.WPHead, "wlwmanifest_link", s.wlwmanifestLink, hook.DefaultPriority)
	b.AddAction(hook.WPHead, "adjacent_posts_rel_link_wp_head", s.adjacentPosts, hook.DefaultPriority)
	b.AddAction(hook.WPHead, "print_emoji_detection_script", s.emojiScript(b), 7)
	b.AddAction(hook.WPHead, "wp_print_styles", printStyles(b), 8)
	b.AddAction(hook.WPHead, "wp_generator", s.generator, hook.DefaultPriority)
	b.AddAction(hook.WPHead, "rel_canonical", s.canonical, hook.DefaultPriority)
	b.AddAction(hook.WPHead, "wp_shortlink_wp_head", s.shortlink, hook.DefaultPriority)
	b.AddAction(hook.WPHead, "rest_output_link_wp_head", s.restLink, hook.DefaultPriority)
	b.AddAction(hook.WPHead, "wp_oembed_add_discovery_links", s.oembedLinks, hook.DefaultPriority)

	b.AddAction(hook.WPPrintStyles, "print_emoji_styles", emojiStyles, hook.DefaultPriority)
	b.AddAction(hook.AdminPrintScripts, "print_emoji_detection_script", s.emojiScript(b), hook.DefaultPriority)
	b.AddAction(hook.AdminPrintStyles, "print_emoji_styles", emojiStyles, hook.DefaultPriority)

	b.AddFilter(hook.TheContent, "convert_smilies", convertSmilies, 20)
	return b
}

const twemojiHost = "//twemoji.classicpress.net"

func (s *Site) resourceHints(b *hook.Bus) hook.Action {
	return func(ctx context.Context, w io.Writer) {
		if _, ok := b.HasAction(hook.WPHead, "print_emoji_detection_script"); !ok {
			return
		}
		fmt.Fprintf(w, "<link rel=\"dns-prefetch\" href=\"%s\" />\n", twemojiHost)
	}
}

func (s *Site) feedLinks(_ context.Context, w io.Writer) {
	name := html.EscapeString(s.Name)
	fmt.Fprintf(w, "<link rel=\"alternate\" type=\"application/rss+xml\" title=\"%s &raquo; Feed\" href=\"%s/feed/\" />\n", name, s.URL)
	fmt.Fprintf(w, "<link rel=\"alternate\" type=\"application/rss+xml\" title=\"%s &raquo; Comments Feed\" href=\"%s/comments/feed/\" />\n", name, s.URL)
}

func (s *Site) feedLinksExtra(ctx context.Context, w io.Writer) {
	p := pageFrom(ctx)
	if p.post == nil {
		return
	}
	fmt.Fprintf(w, "<link rel=\"alternate\" type=\"application/rss+xml\" title=\"%s &raquo; %s Comments Feed\" href=\"%sfeed/\" />\n",
		html.EscapeString(s.Name), html.EscapeString(p.post.Title), s.permalink(*p.post))
}

func (s *Site) rsdLink(_ context.Context, w io.Writer) {
	fmt.Fprintf(w, "<link rel=\"EditURI\" type=\"application/rsd+xml\" title=\"RSD\" href=\"%s/xmlrpc.php?rsd\" />\n", s.URL)
}

func (s *Site) wlwmanifestLink(_ context.Context, w io.Writer) {
	fmt.Fprintf(w, "<link rel=\"wlwmanifest\" type=\"application/wlwmanifest+xml\" href=\"%s/wp-includes/wlwmanifest.xml\" />\n", s.URL)
}

func (s *Site) adjacentPosts(ctx context.Context, w io.Writer) {
	p := pageFrom(ctx)
	if p.post == nil {
		return
	}
	if p.prev != nil {
		fmt.Fprintf(w, "<link rel=\"prev\" title=\"%s\" href=\"%s\" />\n", html.EscapeString(p.prev.Title), s.permalink(*p.prev))
	}
	if p.next != nil {
		fmt.Fprintf(w, "<link rel=\"next\" title=\"%s\" href=\"%s\" />\n", html.EscapeString(p.next.Title), s.permalink(*p.next))
	}
}

func (s *Site) generator(_ context.Context, w io.Writer) {
	fmt.Fprintf(w, "<meta name=\"generator\" content=\"%s\">\n", html.EscapeString(s.Version))
}

func (s *Site) canonical(ctx context.Context, w io.Writer) {
	p := pageFrom(ctx)
	if p.post == nil {
		return
	}
	fmt.Fprintf(w, "<link rel=\"canonical\" href=\"%s\" />\n", s.permalink(*p.post))
}

func (s *Site) shortlink(ctx context.Context, w io.Writer) {
	p := pageFrom(ctx)
	if p.post == nil {
		return
	}
	fmt.Fprintf(w, "<link rel=\"shortlink\" href=\"%s/?p=%d\" />\n", s.URL, p.post.ID)
}

func (s *Site) restLink(_ context.Context, w io.Writer) {
	fmt.Fprintf(w, "<link rel=\"https://api.w.org/\" href=\"%s/index.php?rest_route=/\" />\n", s.URL)
}

func (s *Site) oembedLinks(ctx context.Context, w io.Writer) {
	p := pageFrom(ctx)
	if p.post == nil {
		return
	}
	target := url.QueryEscape(s.permalink(*p.post))
	fmt.Fprintf(w, "<link rel=\"alternate\" type=\"application/json+oembed\" href=\"%s/wp-json/oembed/1.0/embed?url=%s\" />\n", s.URL, target)
	fmt.Fprintf(w, "<link rel=\"alternate\" type=\"text/xml+oembed\" href=\"%s/wp-json/oembed/1.0/embed?url=%s&#038;format=xml\" />\n", s.URL, target)
}

// emojiScript prints the detection script once per page, whichever hook
// reaches it first.
func (s *Site) emojiScript(b *hook.Bus) hook.Action {
	return func(ctx context.Context, w io.Writer) {
		p := pageFrom(ctx)
		if p.emoji {
			return
		}
		p.emoji = true
		svg := b.ApplyFilters(ctx, hook.EmojiSVGURL, "https:"+twemojiHost+"/12/svg/")
		svgJSON := "false"
		if svg != "" {
			svgJSON = `"` + strings.ReplaceAll(svg, "/", `\/`) + `"`
		}
		fmt.Fprintf(w, "<script type=\"text/javascript\">\nwindow._wpemojiSettings = {\"baseUrl\":\"https:\\/\\/twemoji.classicpress.net\\/12\\/72x72\\/\",\"ext\":\".png\",\"svgUrl\":%s,\"svgExt\":\".svg\",\"source\":{\"concatemoji\":\"%s\\/wp-includes\\/js\\/wp-emoji-release.min.js\"}};\n</script>\n",
			svgJSON, strings.ReplaceAll(s.URL, "/", `\/`))
	}
}

// printStyles runs the wp_print_styles hook from inside wp_head.
func printStyles(b *hook.Bus) hook.Action {
	return func(ctx context.Context, w io.Writer) {
		b.DoAction(ctx, hook.WPPrintStyles, w)
	}
}

func emojiStyles(_ context.Context, w io.Writer) {
	io.WriteString(w, `<style type="text/css">
img.wp-smiley,
img.emoji {
	display: inline !important;
	border: none !important;
	box-shadow: none !important;
	height: 1em !important;
	width: 1em !important;
	margin: 0 .07em !important;
	vertical-align: -0.1em !important;
	background: none !important;
	padding: 0 !important;
}
</style>
`)
}

var smilies = strings.NewReplacer(
	":)", "\U0001F642",
	":(", "\U0001F641",
	";)", "\U0001F609",
	":D", "\U0001F600",
)

func convertSmilies(_ context.Context, content string) string {
	return smilies.Replace(content)
}
