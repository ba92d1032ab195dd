package site

import (
	"context"
	"errors"
	"strings"
	"testing"

	"head-cleaner/internal/hook"
	"head-cleaner/internal/inspect"
)

func render(t *testing.T, s *Site, bus *hook.Bus, slug string) (string, []inspect.Element) {
	t.Helper()
	var sb strings.Builder
	if err := s.Render(context.Background(), bus, &sb, slug); err != nil {
		t.Fatalf("Render(%q): %v", slug, err)
	}
	elems, err := inspect.Head(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("inspect.Head: %v", err)
	}
	return sb.String(), elems
}

func TestRender_SinglePostHead(t *testing.T) {
	t.Parallel()
	s := New("Test Site", "http://example.test/")
	_, elems := render(t, s, s.NewBus(), "second-post")

	for _, rel := range []string{"pingback", "EditURI", "wlwmanifest", "prev", "next", "canonical", "shortlink", "https://api.w.org/", "dns-prefetch"} {
		if len(inspect.Find(elems, "link", "rel", rel)) == 0 {
			t.Errorf("head missing link rel=%q", rel)
		}
	}
	if got := len(inspect.Find(elems, "link", "rel", "alternate")); got != 5 {
		t.Errorf("alternate links = %d, want 5 (2 feeds, 1 comments feed, 2 oEmbed)", got)
	}
	if len(inspect.Find(elems, "meta", "name", "generator")) != 1 {
		t.Error("head missing generator meta")
	}
	var scripts, styles int
	for _, e := range elems {
		switch e.Tag {
		case "script":
			scripts++
		case "style":
			styles++
		}
	}
	if scripts != 1 || styles != 1 {
		t.Errorf("scripts, styles = %d, %d; want 1, 1", scripts, styles)
	}
}

func TestRender_FrontPageHead(t *testing.T) {
	t.Parallel()
	s := New("Test Site", "http://example.test")
	body, elems := render(t, s, s.NewBus(), "")

	for _, rel := range []string{"shortlink", "canonical", "prev", "next"} {
		if len(inspect.Find(elems, "link", "rel", rel)) != 0 {
			t.Errorf("front page should not carry rel=%q", rel)
		}
	}
	if !strings.Contains(body, `href="http://example.test/hello-world/"`) {
		t.Error("front page should list post permalinks")
	}
}

func TestRender_ContentFilter(t *testing.T) {
	t.Parallel()
	s := New("Test Site", "http://example.test")
	bus := s.NewBus()
	body, _ := render(t, s, bus, "hello-world")
	if strings.Contains(body, "first post :)") {
		t.Error("convert_smilies should replace :)")
	}

	bus.RemoveFilter(hook.TheContent, "convert_smilies", 20)
	body, _ = render(t, s, bus, "hello-world")
	if !strings.Contains(body, "first post :)") {
		t.Error("without convert_smilies the text should be untouched")
	}
}

func TestRender_EmojiHintFollowsScript(t *testing.T) {
	t.Parallel()
	s := New("Test Site", "http://example.test")
	bus := s.NewBus()
	bus.RemoveAction(hook.WPHead, "print_emoji_detection_script", 7)
	_, elems := render(t, s, bus, "")
	if len(inspect.Find(elems, "link", "rel", "dns-prefetch")) != 0 {
		t.Error("dns-prefetch should go with the detection script")
	}
}

func TestRender_EmojiSVGFilter(t *testing.T) {
	t.Parallel()
	s := New("Test Site", "http://example.test")
	bus := s.NewBus()
	bus.AddFilter(hook.EmojiSVGURL, "__return_false", hook.ReturnFalse, hook.DefaultPriority)
	body, _ := render(t, s, bus, "")
	if !strings.Contains(body, `"svgUrl":false`) {
		t.Error("svgUrl should be false when the filter returns false")
	}
}

func TestRender_NotFound(t *testing.T) {
	t.Parallel()
	s := New("Test Site", "http://example.test")
	err := s.Render(context.Background(), s.NewBus(), &strings.Builder{}, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRenderAdminHead(t *testing.T) {
	t.Parallel()
	s := New("Test Site", "http://example.test")
	var sb strings.Builder
	s.RenderAdminHead(context.Background(), s.NewBus(), &sb)
	if !strings.Contains(sb.String(), "img.wp-smiley") || !strings.Contains(sb.String(), "_wpemojiSettings") {
		t.Errorf("admin head = %q, want emoji styles and script", sb.String())
	}
}
