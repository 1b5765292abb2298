package fetch

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

var errNotDataURL = errors.New("not a data URL")

// DecodeDataURL returns the payload of an RFC 2397 data URL. The payload is
// percent-decoded and, with the ;base64 parameter, base64-decoded (padding
// optional).
func DecodeDataURL(raw string) ([]byte, error) {
	if len(raw) < 5 || !strings.EqualFold(raw[:5], "data:") {
		return nil, errNotDataURL
	}
	meta, data, ok := strings.Cut(raw[5:], ",")
	if !ok {
		return nil, errNotDataURL
	}
	// a fragment is not part of the payload
	if i := strings.IndexByte(data, '#'); i >= 0 {
		data = data[:i]
	}
	s, err := url.PathUnescape(data)
	if err != nil {
		return nil, err
	}
	isBase64 := false
	for _, p := range strings.Split(meta, ";")[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		return []byte(s), nil
	}
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, s)
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
