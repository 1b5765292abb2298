package geoip

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/John-Robertt/cvt/internal/fetch"
)

// DefaultURL serves the packed table.
const DefaultURL = "https://raw.githubusercontent.com/zsokami/cvt/main/geoip.dat"

const defaultRetryAfter = 10 * time.Minute

// Remote is a table downloaded on first use and kept for the life of the
// process. Concurrent first lookups share one download. A failed download
// leaves an empty table in place until RetryAfter has passed.
type Remote struct {
	URL        string
	Client     *fetch.Client
	RetryAfter time.Duration

	group singleflight.Group

	mu       sync.RWMutex
	table    *Table
	failedAt time.Time
}

func NewRemote(url string, client *fetch.Client) *Remote {
	if client == nil {
		client = &fetch.Client{Kind: fetch.KindGeoIP}
	}
	return &Remote{URL: url, Client: client, RetryAfter: defaultRetryAfter}
}

var defaultRemote = sync.OnceValue(func() *Remote { return NewRemote(DefaultURL, nil) })

// Default returns the process-wide remote table at DefaultURL.
func Default() *Remote { return defaultRemote() }

func (r *Remote) Lookup(ctx context.Context, ip string) string {
	n, ok := ParseIPv4(ip)
	if !ok {
		return ""
	}
	return r.Table(ctx).lookup(n)
}

// Table returns the loaded table, downloading it when needed. It never
// fails; a table that cannot be loaded is empty.
func (r *Remote) Table(ctx context.Context) *Table {
	if t, ok := r.fresh(); ok {
		return t
	}

	v, _, _ := r.group.Do("load", func() (any, error) {
		if t, ok := r.fresh(); ok {
			return t, nil
		}
		// the download outlives the caller that happened to start it
		t, err := r.load(context.WithoutCancel(ctx))
		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			logrus.WithError(err).WithField("url", r.URL).Warn("geoip: table load failed, using empty table")
			r.table, r.failedAt = &Table{}, time.Now()
			return r.table, nil
		}
		logrus.WithField("ranges", t.Len()).Debug("geoip: table loaded")
		r.table, r.failedAt = t, time.Time{}
		return t, nil
	})
	return v.(*Table)
}

// fresh returns the current table unless it is missing or a failed load is
// due for a retry.
func (r *Remote) fresh() (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.table == nil || (!r.failedAt.IsZero() && time.Since(r.failedAt) >= r.retryAfter()) {
		return nil, false
	}
	return r.table, true
}

func (r *Remote) load(ctx context.Context) (*Table, error) {
	res, err := r.Client.Fetch(ctx, r.URL, fetch.Options{})
	if err != nil {
		return nil, err
	}
	return Parse(res.Body)
}

func (r *Remote) retryAfter() time.Duration {
	if r.RetryAfter > 0 {
		return r.RetryAfter
	}
	return defaultRetryAfter
}
