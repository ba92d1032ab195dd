package inspect

import (
	"reflect"
	"strings"
	"testing"
)

const page = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Site</title>
<link rel="pingback" href="http://x/xmlrpc.php">
<link rel="EditURI" type="application/rsd+xml" title="RSD" href="http://x/xmlrpc.php?rsd" />
<style type="text/css">img.emoji { display: inline; }</style>
<script type="text/javascript">window.x = 1;</script>
</head>
<body>
<link rel="stylesheet" href="late.css">
</body>
</html>`

func TestHead_Elements(t *testing.T) {
	t.Parallel()
	elems, err := Head(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	var tags []string
	for _, e := range elems {
		tags = append(tags, e.Tag)
	}
	want := []string{"meta", "title", "link", "link", "style", "script"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
	if got := elems[4].Text; !strings.Contains(got, "img.emoji") {
		t.Errorf("style text = %q, want emoji css", got)
	}
	if got := elems[5].Text; got != "window.x = 1;" {
		t.Errorf("script text = %q", got)
	}
}

func TestLinksAndFind(t *testing.T) {
	t.Parallel()
	elems, _ := Head(strings.NewReader(page))
	if got := Links(elems); !reflect.DeepEqual(got, []string{"pingback", "EditURI"}) {
		t.Errorf("Links = %v", got)
	}
	if got := Find(elems, "link", "rel", "editURI"); len(got) != 1 {
		t.Errorf("Find should match rel case-insensitively, got %d", len(got))
	}
	if got := Find(elems, "link", "rel", "stylesheet"); len(got) != 0 {
		t.Error("Find should not see body elements")
	}
}

func TestElement_String(t *testing.T) {
	t.Parallel()
	elems, _ := Head(strings.NewReader(`<head><link rel="pingback" href="http://x/?a=1&amp;b=2"></head>`))
	if len(elems) != 1 {
		t.Fatalf("len = %d, want 1", len(elems))
	}
	want := `<link rel="pingback" href="http://x/?a=1&amp;b=2">`
	if got := elems[0].String(); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestHead_NoHead(t *testing.T) {
	t.Parallel()
	elems, err := Head(strings.NewReader(`<p>just a fragment</p>`))
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if len(elems) != 0 {
		t.Errorf("len = %d, want 0", len(elems))
	}
}
