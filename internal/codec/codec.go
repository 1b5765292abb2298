// Package codec holds the small text transforms shared by the subscription
// codecs: lenient base64, percent decoding and bounded splitting.
package codec

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	errBase64Length = errors.New("base64: length divides by 4 leaving a remainder of 1")
	errBase64Char   = errors.New("base64: invalid character")
)

var base64Unescaper = strings.NewReplacer("%2B", "+", "%2F", "/", "%3D", "=")

// DecodeBase64URL decodes s as standard or URL-safe base64, with or without
// padding. A '#' comments out the rest of its line and whitespace is
// ignored. Invalid UTF-8 in the payload is replaced with U+FFFD.
func DecodeBase64URL(s string) (string, error) {
	s = base64Unescaper.Replace(stripComments(s))
	if len(s)%4 == 1 {
		return "", errBase64Length
	}
	body := strings.TrimSuffix(strings.TrimSuffix(s, "="), "=")
	for i := 0; i < len(body); i++ {
		if !isBase64Char(body[i]) {
			return "", errBase64Char
		}
	}
	body = strings.NewReplacer("-", "+", "_", "/").Replace(body)
	b, err := base64.RawStdEncoding.DecodeString(body)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return strings.ToValidUTF8(string(b), "\uFFFD"), nil
	}
	return string(b), nil
}

func isBase64Char(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
		c == '+' || c == '/' || c == '-' || c == '_'
}

// stripComments drops whitespace and every '#' up to the end of its line.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	comment := false
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029':
			comment = false
		case comment || unicode.IsSpace(r):
		case r == '#':
			comment = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EncodeBase64URL encodes s with the URL-safe alphabet and no padding.
func EncodeBase64URL(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// EncodeBase64 encodes s with the standard alphabet and padding.
func EncodeBase64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// URLDecode percent-decodes s. Malformed input is returned unchanged.
func URLDecode(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

// URLDecodePlus is URLDecode with '+' treated as a space.
func URLDecodePlus(s string) string {
	return URLDecode(strings.ReplaceAll(s, "+", " "))
}

// SplitLeft splits s on sep at most limit-1 times counting from the left, so
// the last element keeps any remaining separators. limit <= 0 means 2.
func SplitLeft(s, sep string, limit int) []string {
	if limit <= 0 {
		limit = 2
	}
	return strings.SplitN(s, sep, limit)
}

// SplitRight is SplitLeft counting from the right: the first element keeps
// any remaining separators.
func SplitRight(s, sep string, limit int) []string {
	if limit <= 0 {
		limit = 2
	}
	var tail []string
	for len(tail) < limit-1 {
		i := strings.LastIndex(s, sep)
		if i < 0 {
			break
		}
		tail = append(tail, s[i+len(sep):])
		s = s[:i]
	}
	out := make([]string, 0, len(tail)+1)
	out = append(out, s)
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	return out
}

// ParseBool reads the textual booleans used in query strings. ok is false
// when s is not a recognised spelling.
func ParseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, true
	case "0", "f", "false", "n", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// Truncate cuts s to at most max runes after dropping line breaks.
func Truncate(s string, max int) string {
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
