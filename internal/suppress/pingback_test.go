package suppress

import "testing"

func TestStripPingback(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rel before href",
			in:   `<head>` + "\n" + `<link rel="pingback" href="http://x/xmlrpc.php">` + "\n" + `</head>`,
			want: "<head>\n\n</head>",
		},
		{
			name: "href before rel",
			in:   `<link href="http://x/xmlrpc.php" rel="pingback">`,
			want: "",
		},
		{
			name: "single quotes",
			in:   `<link rel='pingback' href='http://x/xmlrpc.php'>`,
			want: "",
		},
		{
			name: "self-closing",
			in:   `<link rel="pingback" href="http://x/xmlrpc.php" />`,
			want: "",
		},
		{
			name: "upper case",
			in:   `<LINK REL="PINGBACK" HREF="http://x/xmlrpc.php">`,
			want: "",
		},
		{
			name: "several lines",
			in:   "<link rel=\"pingback\" href=\"a\">\n<title>t</title>\n<link href=\"b\" rel=\"pingback\">",
			want: "\n<title>t</title>\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripPingback(tc.in); got != tc.want {
				t.Errorf("StripPingback(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripPingback_NoMatchUnchanged(t *testing.T) {
	t.Parallel()
	in := "<head>\n<link rel=\"stylesheet\" href=\"style.css\">\n<meta name=\"generator\" content=\"x\">\n</head>"
	if got := StripPingback(in); got != in {
		t.Errorf("StripPingback changed input without pingback link:\n got %q\nwant %q", got, in)
	}
}

func TestStripPingback_Idempotent(t *testing.T) {
	t.Parallel()
	in := "<head>\n<link rel=\"pingback\" href=\"http://x/xmlrpc.php\">\n<link rel=\"canonical\" href=\"http://x/\">\n</head>"
	once := StripPingback(in)
	if twice := StripPingback(once); twice != once {
		t.Errorf("second pass changed output:\n once %q\ntwice %q", once, twice)
	}
}
