package httpapi

import (
	"time"

	"github.com/John-Robertt/cvt/internal/convert"
	"github.com/John-Robertt/cvt/internal/emoji"
	"github.com/John-Robertt/cvt/internal/fetch"
)

// Options controls HTTP API runtime behavior.
type Options struct {
	// ConvertTimeout is the hard upper bound for a single conversion request,
	// fetches included.
	ConvertTimeout time.Duration

	// FetchTimeout is the per-request timeout used when fetching
	// subscriptions.
	FetchTimeout time.Duration

	// RateLimit is the sustained conversions per second allowed per client
	// IP; 0 disables limiting. Burst defaults to twice the rate.
	RateLimit float64
	Burst     int

	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool

	Version string

	// Collaborators; tests substitute in-memory ones.
	Fetcher convert.Fetcher
	GeoIP   emoji.GeoIP
}

func (o Options) withDefaults() Options {
	if o.ConvertTimeout <= 0 {
		o.ConvertTimeout = 60 * time.Second
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 15 * time.Second
	}
	if o.RateLimit > 0 && o.Burst <= 0 {
		o.Burst = max(1, int(2*o.RateLimit))
	}
	if o.Version == "" {
		o.Version = "dev"
	}
	if o.Fetcher == nil {
		o.Fetcher = &fetch.Client{
			Kind:     fetch.KindSubscription,
			Defaults: fetch.Options{Timeout: o.FetchTimeout},
		}
	}
	return o
}
