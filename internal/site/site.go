// Package site is a minimal host: it attaches the stock head callbacks to a
// hook bus and renders pages through it, the way a classic theme does.
package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"head-cleaner/internal/hook"
	"head-cleaner/internal/output"
)

// ErrNotFound is returned by Render for an unknown slug.
var ErrNotFound = errors.New("site: not found")

// Post is one piece of content. Posts are ordered by ID for the previous
// and next relation links.
type Post struct {
	ID      int
	Slug    string
	Title   string
	Content string
}

// Site holds what the stock callbacks print.
type Site struct {
	Name    string
	URL     string
	Version string
	Posts   []Post
}

// New returns a Site with a few sample posts.
func New(name, url string) *Site {
	return &Site{
		Name:    name,
		URL:     strings.TrimRight(url, "/"),
		Version: "WordPress 4.9.15 (compatible; ClassicPress 1.2.0)",
		Posts: []Post{
			{ID: 1, Slug: "hello-world", Title: "Hello world!", Content: "Welcome to ClassicPress. This is your first post :)"},
			{ID: 2, Slug: "second-post", Title: "Second post", Content: "Keeping the head section lean ;)"},
			{ID: 3, Slug: "third-post", Title: "Third post", Content: "Nothing to see here :D"},
		},
	}
}

// page is the request being rendered, carried to callbacks in the context.
type page struct {
	post  *Post
	prev  *Post
	next  *Post
	emoji bool
}

type pageKey struct{}

func pageFrom(ctx context.Context) *page {
	if p, ok := ctx.Value(pageKey{}).(*page); ok {
		return p
	}
	return &page{}
}

func (s *Site) lookup(slug string) (*page, error) {
	if slug == "" {
		return &page{}, nil
	}
	for i := range s.Posts {
		if s.Posts[i].Slug != slug {
			continue
		}
		p := &page{post: &s.Posts[i]}
		if i > 0 {
			p.prev = &s.Posts[i-1]
		}
		if i+1 < len(s.Posts) {
			p.next = &s.Posts[i+1]
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, slug)
}

// Render writes the page for slug ("" is the front page) to w. Output goes
// through a request-scoped output.Buffer so callbacks can capture it.
func (s *Site) Render(ctx context.Context, bus *hook.Bus, w io.Writer, slug string) error {
	p, err := s.lookup(slug)
	if err != nil {
		return err
	}
	ctx = context.WithValue(ctx, pageKey{}, p)

	out := output.New(w)
	bus.DoAction(ctx, hook.TemplateRedirect, out)
	bus.DoAction(ctx, hook.GetHeader, out)
	s.header(ctx, bus, out, p)

	if p.post != nil {
		fmt.Fprintf(out, "<article id=\"post-%d\">\n<h1>%s</h1>\n<div class=\"entry-content\">%s</div>\n</article>\n",
			p.post.ID, html.EscapeString(p.post.Title),
			bus.ApplyFilters(ctx, hook.TheContent, html.EscapeString(p.post.Content)))
	} else {
		io.WriteString(out, "<ul class=\"posts\">\n")
		for _, post := range s.Posts {
			fmt.Fprintf(out, "<li><a href=\"%s\">%s</a></li>\n",
				html.EscapeString(s.permalink(post)), html.EscapeString(post.Title))
		}
		io.WriteString(out, "</ul>\n")
	}
	io.WriteString(out, "</body>\n</html>\n")
	return out.Close()
}

// header is the theme's header template. Like most classic themes it prints
// the pingback link itself instead of leaving it to a callback.
func (s *Site) header(ctx context.Context, bus *hook.Bus, w io.Writer, p *page) {
	title := html.EscapeString(s.Name)
	if p.post != nil {
		title = html.EscapeString(p.post.Title) + " &#8211; " + title
	}
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"en-US\">\n<head>\n<meta charset=\"UTF-8\">\n<title>%s</title>\n", title)
	io.WriteString(w, "<link rel=\"profile\" href=\"http://gmpg.org/xfn/11\">\n")
	fmt.Fprintf(w, "<link rel=\"pingback\" href=\"%s/xmlrpc.php\">\n", s.URL)
	bus.DoAction(ctx, hook.WPHead, w)
	io.WriteString(w, "</head>\n<body>\n")
}

// RenderAdminHead prints what the host adds to the head of admin screens.
func (s *Site) RenderAdminHead(ctx context.Context, bus *hook.Bus, w io.Writer) {
	ctx = context.WithValue(ctx, pageKey{}, &page{})
	bus.DoAction(ctx, hook.AdminPrintStyles, w)
	bus.DoAction(ctx, hook.AdminPrintScripts, w)
}

func (s *Site) permalink(p Post) string {
	return s.URL + "/" + p.Slug + "/"
}
