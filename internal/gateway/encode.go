package gateway

import "strings"

const upperhex = "0123456789ABCDEF"

// EncodePathParam percent-encodes an identifier for use inside a URL path. Everything
// outside the unreserved set is escaped except "/", which is kept literal so that
// identifiers that are themselves paths stay readable on the wire.
func EncodePathParam(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' || unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// unreserved matches the set left alone by a browser's encodeURIComponent.
func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
