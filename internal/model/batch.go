package model

// Batch is the outcome of decoding one subscription document.
type Batch struct {
	Proxies []*Proxy
	// Total counts every entry that looked like a proxy, decoded or not.
	Total int
	// Unsupported counts entries dropped per scheme or type because the
	// protocol, or in legacy mode the record, is not supported.
	Unsupported map[string]int
	// Malformed counts entries dropped because they failed to decode.
	Malformed int
}

// Dropped returns Total minus the number of decoded records.
func (b Batch) Dropped() int { return b.Total - len(b.Proxies) }

// Defaults applied when a source leaves a field unset.
const (
	DefaultClientFingerprint = "chrome"
	DefaultGrpcUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
	DefaultUDP               = true
	DefaultSkipCertVerify    = true
)
