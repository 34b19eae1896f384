package checker

import "strings"

// Scheme is the transport a target URL is labelled with.
type Scheme int

const (
	SchemeUnknown Scheme = iota
	SchemeHTTP
	SchemeHTTPS
)

func (s Scheme) String() string {
	switch s {
	case SchemeHTTP:
		return "HTTP"
	case SchemeHTTPS:
		return "HTTPS"
	default:
		return "UNKNOWN"
	}
}

// ClassifyScheme labels a URL by a case-insensitive search for the literal
// text "https:" and then "http:" anywhere in the string. The URL is not
// parsed, so a URL containing both resolves to HTTPS.
func ClassifyScheme(url string) Scheme {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "https:"):
		return SchemeHTTPS
	case strings.Contains(lower, "http:"):
		return SchemeHTTP
	default:
		return SchemeUnknown
	}
}
