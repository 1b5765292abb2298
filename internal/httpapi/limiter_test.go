package httpapi

import (
	"testing"
	"time"
)

func TestIPLimiter_ForgetsIdleClients(t *testing.T) {
	now := time.Unix(1000, 0)
	l := newIPLimiter(1, 1)
	l.now = func() time.Time { return now }

	if !l.allow("192.0.2.1") {
		t.Fatalf("first request denied")
	}
	if l.allow("192.0.2.1") {
		t.Fatalf("second request within the same instant allowed")
	}

	now = now.Add(idleLimiterTTL + time.Second)
	l.forget(now)
	if n := l.clients.Size(); n != 0 {
		t.Fatalf("clients=%d after forget, want 0", n)
	}
	if !l.allow("192.0.2.1") {
		t.Fatalf("request after idle period denied")
	}
}
