package suppress

import "regexp"

// pingbackPattern matches a <link> element carrying rel="pingback" (or
// rel='pingback') on either side of its href. The match is non-greedy and
// does not cross line breaks.
var pingbackPattern = regexp.MustCompile(`(?i)(<link.*?rel=("|')pingback("|').*?href=("|')(.*?)("|')(.*?)?/?>|<link.*?href=("|')(.*?)("|').*?rel=("|')pingback("|')(.*?)?/?>)`)

// StripPingback deletes every pingback <link> from buf. Text without one is
// returned unchanged.
func StripPingback(buf string) string {
	return pingbackPattern.ReplaceAllLiteralString(buf, "")
}
