package httpapi

import "testing"

func TestAttachmentName(t *testing.T) {
	cases := []struct {
		from string
		want string
	}{
		{"https://raw.githubusercontent.com/alice/repo/main/sub.yaml", "alice - sub.yaml"},
		{"https://raw.githubusercontent.com/alice/alice/main/alice", "alice"},
		{"https://raw.githubusercontent.com/alice/repo/main/my%20sub", "alice - my sub"},
		{"https://raw.githubusercontent.com/alice/r/main/a|https://raw.githubusercontent.com/alice/r/main/b", "alice"},
		{"https://raw.githubusercontent.com/alice/r/main/a|https://raw.githubusercontent.com/bob/r/main/b", ""},
		{"https://gist.githubusercontent.com/bob/abc/raw/sub.txt", "bob - gist"},
		{"https://gist.githubusercontent.com/bob/abc/raw/a|https://gist.githubusercontent.com/bob/def/raw/b", "bob - gist"},
		{"https://example.com/sub", ""},
		{"trojan://pw@a.example.com:443#alpha", ""},
	}
	for _, c := range cases {
		if got := attachmentName(c.from); got != c.want {
			t.Fatalf("attachmentName(%q)=%q, want=%q", c.from, got, c.want)
		}
	}
}

func TestPctEncode(t *testing.T) {
	cases := map[string]string{
		"my sub":   "my%20sub",
		"a(b)!~*'": "a(b)!~*'",
		"中":        "%E4%B8%AD",
		"a/b?c=d":  "a%2Fb%3Fc%3Dd",
	}
	for in, want := range cases {
		if got := pctEncode(in); got != want {
			t.Fatalf("pctEncode(%q)=%q, want=%q", in, got, want)
		}
	}
}
