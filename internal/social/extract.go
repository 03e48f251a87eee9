// Package social parses raw social-profile references into canonical handles
// or content shortcodes.
package social

import (
	"regexp"
	"strings"
)

// Kind classifies a parsed reference.
type Kind int

const (
	// KindUnresolvable means no handle or shortcode could be recovered.
	KindUnresolvable Kind = iota
	// KindHandle means the reference yielded a handle directly.
	KindHandle
	// KindPost means the reference points at a post or reel; the author's
	// handle must be recovered from another source via the shortcode.
	KindPost
)

func (k Kind) String() string {
	switch k {
	case KindHandle:
		return "handle"
	case KindPost:
		return "post"
	default:
		return "unresolvable"
	}
}

// Reference is the result of parsing one raw social reference.
type Reference struct {
	Raw       string
	Kind      Kind
	Handle    string // lower-cased; set when Kind == KindHandle
	Shortcode string // case preserved; set when Kind == KindPost
}

var (
	contentMarkerRe = regexp.MustCompile(`/(?:p|reels?|tv)/([A-Za-z0-9_-]+)`)
	profileURLRe    = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.|m\.)?(?:instagram\.com|instagr\.am)/([^/?#]+)`)
	tiktokURLRe     = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.|m\.)?tiktok\.com/@([^/?#]+)`)
	handleRe        = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)
)

// reservedSegments are profile-URL path segments that are site sections, not
// handles.
var reservedSegments = map[string]bool{
	"explore":   true,
	"stories":   true,
	"accounts":  true,
	"direct":    true,
	"about":     true,
	"developer": true,
	"legal":     true,
	"p":         true,
	"reel":      true,
	"reels":     true,
	"tv":        true,
	"tags":      true,
	"locations": true,
}

// Extract parses a profile URL, post/reel URL, bare handle or @handle.
func Extract(raw string) Reference {
	s := strings.TrimSpace(raw)
	ref := Reference{Raw: raw}
	if s == "" {
		return ref
	}

	if strings.Contains(s, "/p/") || strings.Contains(s, "/reel/") ||
		strings.Contains(s, "/reels/") || strings.Contains(s, "/tv/") {
		if code, ok := ShortcodeOf(s); ok {
			ref.Kind = KindPost
			ref.Shortcode = code
		}
		return ref
	}

	if m := profileURLRe.FindStringSubmatch(s); m != nil {
		return profileRef(ref, m[1])
	}
	if m := tiktokURLRe.FindStringSubmatch(s); m != nil {
		return profileRef(ref, m[1])
	}

	if strings.HasPrefix(s, "@") {
		return handleRef(ref, strings.TrimPrefix(s, "@"))
	}

	return handleRef(ref, s)
}

// ShortcodeOf returns the content shortcode following a /p/, /reel/, /reels/
// or /tv/ marker.
func ShortcodeOf(rawURL string) (string, bool) {
	m := contentMarkerRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// NormalizeHandle lower-cases a candidate handle and reports whether it is
// handle-shaped.
func NormalizeHandle(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !handleRe.MatchString(s) {
		return "", false
	}
	return strings.ToLower(s), true
}

// profileRef resolves the first path segment of a profile URL. Site
// sections such as /explore/ are not handles.
func profileRef(ref Reference, segment string) Reference {
	if reservedSegments[strings.ToLower(segment)] {
		return ref
	}
	return handleRef(ref, segment)
}

func handleRef(ref Reference, candidate string) Reference {
	h, ok := NormalizeHandle(candidate)
	if !ok {
		return ref
	}
	ref.Kind = KindHandle
	ref.Handle = h
	return ref
}
