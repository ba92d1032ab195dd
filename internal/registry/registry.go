// Package registry holds the table of removable head elements: which host
// hook and callback each settings checkbox controls, how to describe it on
// the settings page, and what markup it removes.
package registry

import "head-cleaner/internal/hook"

// Kind says what a Removal does to the host bus.
type Kind int

const (
	// RemoveAction detaches an action callback.
	RemoveAction Kind = iota
	// RemoveFilter detaches a filter callback.
	RemoveFilter
	// AddFilter attaches a constant-false filter.
	AddFilter
)

func (k Kind) String() string {
	switch k {
	case RemoveAction:
		return "remove_action"
	case RemoveFilter:
		return "remove_filter"
	case AddFilter:
		return "add_filter"
	}
	return "unknown"
}

// Removal is one host-bus change made when a checkbox is enabled.
type Removal struct {
	Kind     Kind
	Hook     string
	Callback string
	Priority int
}

// Spec describes one removable head element.
type Spec struct {
	Event    string
	Callback string
	Label    string
	Short    string
	Long     string
	Examples []string

	// Removals are applied in order when the checkbox is enabled.
	Removals []Removal
	// Intercept marks an element that cannot be detached because themes
	// write it directly; it is stripped from buffered output instead.
	Intercept bool
}

// Key is the settings key and form field id: "{event}-{callback}".
func (s Spec) Key() string {
	return s.Event + "-" + s.Callback
}

// Rows is the height of the examples region on the settings page.
func (s Spec) Rows() int {
	if s.Event == "emoji" && s.Callback == "__return_false" {
		return 10
	}
	return len(s.Examples)
}

func remove(callback string, priority int) Removal {
	return Removal{Kind: RemoveAction, Hook: hook.WPHead, Callback: callback, Priority: priority}
}

const emojiScript = `<script type="text/javascript">
window._wpemojiSettings = {"baseUrl":"https:\/\/twemoji.classicpress.net\/12\/72x72\/","ext":".png","svgUrl":"https:\/\/twemoji.classicpress.net\/12\/svg\/","svgExt":".svg","source":{"concatemoji":"https:\/\/{Site URL}\/wp-includes\/js\/wp-emoji-release.min.js?ver=cp_ca570ce6"}};
!function(e,t,a){var r,n,o,i,p=t.createElement("canvas"),s=p.getContext&&p.getContext("2d");function c(e,t){var a=String.fromCharCode;s.clearRect(0,0,p.width,p.height),s.fillText(a.apply(this,e),0,0);var r=p.toDataURL();return s.clearRect(0,0,p.width,p.height),s.fillText(a.apply(this,t),0,0),r===p.toDataURL()}function l(e){if(!s||!s.fillText)return!1;switch(s.textBaseline="top",s.font="600 32px Arial",e){case"flag":return!c([55356,56826,55356,56819],[55356,56826,8203,55356,56819])&&!c([55356,57332,56128,56423,56128,56418,56128,56421,56128,56430,56128,56423,56128,56447],[55356,57332,8203,56128,56423,8203,56128,56418,8203,56128,56421,8203,56128,56430,8203,56128,56423,8203,56128,56447]);case"emoji":return!c([55357,56424,55356,57342,8205,55358,56605,8205,55357,56424,55356,57340],[55357,56424,55356,57342,8203,55358,56605,8203,55357,56424,55356,57340])}return!1}function d(e){var a=t.createElement("script");a.src=e,a.defer=a.type="text/javascript",t.getElementsByTagName("head")[0].appendChild(a)}for(i=Array("flag","emoji"),a.supports={everything:!0,everythingExceptFlag:!0},o=0;o<i.length;o++)a.supports[i[o]]=l(i[o]),a.supports.everything=a.supports.everything&&a.supports[i[o]],"flag"!==i[o]&&(a.supports.everythingExceptFlag=a.supports.everythingExceptFlag&&a.supports[i[o]]);a.supports.everythingExceptFlag=a.supports.everythingExceptFlag&&!a.supports.flag,a.DOMReady=!1,a.readyCallback=function(){a.DOMReady=!0},a.supports.everything||(n=function(){a.readyCallback()},t.addEventListener?(t.addEventListener("DOMContentLoaded",n,!1),e.addEventListener("load",n,!1)):(e.attachEvent("onload",n),t.attachEvent("onreadystatechange",(function(){"complete"===t.readyState&&a.readyCallback()}))),(r=a.source||{}).concatemoji?d(r.concatemoji):r.wpemoji&&r.twemoji&&(d(r.twemoji),d(r.wpemoji)))}(window,document,window._wpemojiSettings);
</script>`

const emojiStyle = `<style type="text/css">
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
</style>`

var specs = []Spec{
	{
		Event:    "wp_head",
		Callback: "wp_generator",
		Label:    "Generator Tag",
		Short:    "Remove generator tag.",
		Long:     "This tag references the platform and version on which the site it built. Note that it is not a security risk to leave this tag in the head section. Leaving this tag intact helps ClassicPress. The following is an example of the tag removed.",
		Examples: []string{
			`<meta name="generator" content="WordPress 4.9.15 (compatible; ClassicPress 1.2.0)">`,
		},
		Removals: []Removal{remove("wp_generator", hook.DefaultPriority)},
	},
	{
		Event:    "wp_head",
		Callback: "rest_output_link_wp_head",
		Label:    "REST Tag",
		Short:    "Remove WordPress API call tag.",
		Long:     "If your site is not using the REST API, this tag can be removed. It is unclear whether this tag is used for tracking purposes. The following is an example of the tag removed.",
		Examples: []string{
			`<link rel="https://api.w.org/" href="{Site URL}/index.php?rest_route=/" />`,
		},
		Removals: []Removal{remove("rest_output_link_wp_head", hook.DefaultPriority)},
	},
	{
		Event:    "wp_head",
		Callback: "wp_oembed_add_discovery_links",
		Label:    "oEmbed Tags",
		Short:    "Remove oEmbed discovery tags.",
		Long:     "oEmbed is a format for allowing an embedded representation of a URL on third party sites. The API allows a website to display embedded content (such as photos or videos) when a user posts a link to that resource, without having to parse the resource directly. The following is an example of the tags removed.",
		Examples: []string{
			`<link rel="alternate" type="application/json+oembed" href="{Site URL}/wp-json/oembed/1.0/embed?url={Site URL}%2Fpost-title%2F" />`,
			`<link rel="alternate" type="text/xml+oembed" href="{Site URL}/wp-json/oembed/1.0/embed?url={Site URL}%2Fpost-title%2F&#038;format=xml" />`,
		},
		Removals: []Removal{remove("wp_oembed_add_discovery_links", hook.DefaultPriority)},
	},
	{
		Event:    "pingback",
		Callback: "__return_false",
		Label:    "Pingback Tag",
		Short:    "Remove the pingback tag.",
		Long:     "Used for pingbacks and trackbacks. If you are not using XMLRPC, pingbacks, or trackbacks, you can remove this tag. Note that this tag is usually added directly to your theme's header.php file, rather than being added by ClassicPress.",
		Examples: []string{
			`<link rel="pingback" href="{Site URL}/xmlrpc.php">`,
		},
		Intercept: true,
	},
	{
		Event:    "wp_head",
		Callback: "adjacent_posts_rel_link_wp_head",
		Label:    "Relation Tags",
		Short:    "Remove previous and next relation tags.",
		Long:     "For sequential items (think posts, not pages) tags are injected to indicate the URL of the previous and next posts. These tags can help search engines to understand that the items are in a sequence. The following is an example of the tags removed.",
		Examples: []string{
			`<link rel="prev" title="{Title of Previous Article}" href="{Site URL}/title-of-previous-article/" />`,
			`<link rel="next" title="{Title of Next Article}" href="{Site URL}/title-of-next-article/" />`,
		},
		Removals: []Removal{remove("adjacent_posts_rel_link_wp_head", hook.DefaultPriority)},
	},
	{
		Event:    "wp_head",
		Callback: "feed_links",
		Label:    "Feed Tags",
		Short:    "Remove RSS feed tags.",
		Long:     "RSS feed tags allow your content to be more easily discovered by feed readers. This setting removes the feed tags for posts and comments. The following is an example of the tags removed.",
		Examples: []string{
			`<link rel="alternate" type="application/rss+xml" title="{Site Name} &raquo; Feed" href="{Site URL}/feed/" />`,
			`<link rel="alternate" type="application/rss+xml" title="{Site Name} &raquo; Comments Feed" href="{Site URL}/comments/feed/" />`,
			`<link rel="alternate" type="application/rss+xml" title="{Site Name} &raquo; {Post Name} Comments Feed" href="{Site URL}/post-name/feed/" />`,
		},
		Removals: []Removal{
			remove("feed_links", 2),
			remove("feed_links_extra", 3),
		},
	},
	{
		Event:    "wp_head",
		Callback: "wp_shortlink_wp_head",
		Label:    "Shortlink Tag",
		Short:    "Remove shortlink tag.",
		Long:     "When you have short URLs enabled, a tag is injected into the head section that indicates the direct URL to the page by its post id. This value is already used in the canonical URL tag. The following is an example of the tag removed.",
		Examples: []string{
			`<link rel="shortlink" href="{Site URL}/?p=1591" />`,
		},
		Removals: []Removal{remove("wp_shortlink_wp_head", hook.DefaultPriority)},
	},
	{
		Event:    "wp_head",
		Callback: "rsd_link",
		Label:    "RSD Tag",
		Short:    `Remove "Really Simple Discovery" tag.`,
		Long:     "Used in conjunction with xmlrpc.php, Really Simple Discovery is an XML publishing convention for exposing services on the web. If you are not using xmlrpc, this tag can be removed. The following is an example of the tag removed.",
		Examples: []string{
			`<link rel="EditURI" type="application/rsd+xml" title="RSD" href="{Site URL}/xmlrpc.php?rsd" />`,
		},
		Removals: []Removal{remove("rsd_link", hook.DefaultPriority)},
	},
	{
		Event:    "wp_head",
		Callback: "wlwmanifest_link",
		Label:    "WLW Manifest Tag",
		Short:    `Remove "Windows Live Writer Manifest" tag.`,
		Long:     "If you are not composing posts with Windows Live Writer (WLW), this tag can go. As a safeguard, be sure to consult with all those who author posts on your site before removing this tag. The following is an example of the tag removed.",
		Examples: []string{
			`<link rel="wlwmanifest" type="application/wlwmanifest+xml" href="{Site URL}/wp-includes/wlwmanifest.xml" />`,
		},
		Removals: []Removal{remove("wlwmanifest_link", hook.DefaultPriority)},
	},
	{
		Event:    "emoji",
		Callback: "__return_false",
		Label:    "Emoji Tags",
		Short:    "Remove emoji tags.",
		Long:     "Emoji functionality injects JavaScript and CSS into the header as well as doing a DNS prefetch. If your site does not use emoji, it can be removed. The following is an example of the tags, scripts, and styles removed.",
		Examples: []string{
			`<link rel="dns-prefetch" href="//twemoji.classicpress.net" />`,
			emojiScript,
			emojiStyle,
		},
		Removals: []Removal{
			remove("print_emoji_detection_script", 7),
			{Kind: RemoveAction, Hook: hook.AdminPrintScripts, Callback: "print_emoji_detection_script", Priority: hook.DefaultPriority},
			{Kind: RemoveAction, Hook: hook.WPPrintStyles, Callback: "print_emoji_styles", Priority: hook.DefaultPriority},
			{Kind: RemoveAction, Hook: hook.AdminPrintStyles, Callback: "print_emoji_styles", Priority: hook.DefaultPriority},
			{Kind: AddFilter, Hook: hook.EmojiSVGURL, Callback: "__return_false", Priority: hook.DefaultPriority},
			{Kind: RemoveFilter, Hook: hook.TheContent, Callback: "convert_smilies", Priority: 20},
		},
	},
}

// Specs returns the table in display order. The returned slice is a copy;
// the Spec values share their Examples and Removals slices with the table
// and must not be modified.
func Specs() []Spec {
	return append([]Spec(nil), specs...)
}

// Lookup returns the spec whose key matches.
func Lookup(key string) (Spec, bool) {
	for _, s := range specs {
		if s.Key() == key {
			return s, true
		}
	}
	return Spec{}, false
}
