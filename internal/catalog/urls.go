package catalog

import "strings"

const upperHex = "0123456789ABCDEF"

// EncodeURLPath percent-encodes each segment and joins them under a leading "/".
// Only unreserved characters (ALPHA, DIGIT, "-", ".", "_", "~") are left as is.
func EncodeURLPath(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteByte('/')
		for i := 0; i < len(part); i++ {
			c := part[i]
			if isUnreserved(c) {
				b.WriteByte(c)
				continue
			}
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&15])
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
