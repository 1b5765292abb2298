package codec

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64URL(t *testing.T) {
	raw := "aes-128-gcm:p+ss/word?"
	cases := map[string]string{
		"std":       base64.StdEncoding.EncodeToString([]byte(raw)),
		"url":       base64.URLEncoding.EncodeToString([]byte(raw)),
		"raw-url":   base64.RawURLEncoding.EncodeToString([]byte(raw)),
		"with-hash": base64.RawURLEncoding.EncodeToString([]byte(raw)) + "#name",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeBase64URL(in)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}

	_, err := DecodeBase64URL("not base64 !!")
	assert.Error(t, err)
	_, err = DecodeBase64URL("YWJjZ")
	assert.Error(t, err)

	got, err := DecodeBase64URL("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeBase64URL_CommentsAndEscapes(t *testing.T) {
	got, err := DecodeBase64URL("YWJj # trailing comment\n ZGVm\n")
	require.NoError(t, err)
	assert.Equal(t, "abcdef", got)

	got, err = DecodeBase64URL("YQ%3D%3D")
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestDecodeBase64URL_InvalidUTF8(t *testing.T) {
	in := base64.StdEncoding.EncodeToString([]byte{'a', 0xff, 'b'})
	got, err := DecodeBase64URL(in)
	require.NoError(t, err)
	assert.Equal(t, "a\uFFFDb", got)
}

func TestEncodeBase64URL_RoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "ab", "abc", "中文?/+", "server:443:origin:aes-256-cfb:plain:cGFzcw"} {
		enc := EncodeBase64URL(s)
		assert.NotContains(t, enc, "=")
		if s == "" {
			continue
		}
		got, err := DecodeBase64URL(enc)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestURLDecode(t *testing.T) {
	assert.Equal(t, "a b", URLDecode("a%20b"))
	assert.Equal(t, "a+b", URLDecode("a+b"))
	assert.Equal(t, "a b", URLDecodePlus("a+b"))
	assert.Equal(t, "100%", URLDecode("100%"))
	assert.Equal(t, "🇯🇵 Tokyo", URLDecodePlus("%F0%9F%87%AF%F0%9F%87%B5+Tokyo"))
}

func TestSplitLeftRight(t *testing.T) {
	assert.Equal(t, []string{"a", "b:c"}, SplitLeft("a:b:c", ":", 2))
	assert.Equal(t, []string{"a"}, SplitLeft("a", ":", 2))
	assert.Equal(t, []string{"a:b", "c"}, SplitRight("a:b:c", ":", 2))
	assert.Equal(t, []string{"::1", "443", "origin", "aes-256-cfb", "plain", "cGFzcw"},
		SplitRight("::1:443:origin:aes-256-cfb:plain:cGFzcw", ":", 6))
	assert.Equal(t, []string{"abc"}, SplitRight("abc", ":", 3))
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "1", "YES", " on "} {
		v, ok := ParseBool(s)
		assert.True(t, ok, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"false", "0", "no", "Off", "f", "N"} {
		v, ok := ParseBool(s)
		assert.True(t, ok, s)
		assert.False(t, v, s)
	}
	_, ok := ParseBool("maybe")
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "ab", Truncate("a\r\nbcd", 2))
	assert.Equal(t, "中文", Truncate("中文节点", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}
