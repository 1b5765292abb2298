// Package geoip maps IPv4 addresses to two-letter country codes.
//
// The packed table format is a sequence of 6-byte entries sorted by address:
// a big-endian uint32 range start followed by two ASCII letters. A range
// runs up to the next entry's start; the last one runs to the end of the
// address space.
package geoip

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const entrySize = 6

// Table is a parsed range table. The zero value knows no addresses.
type Table struct {
	starts []uint32
	codes  []string
}

// Parse reads a packed table. Entries whose code is not two capital letters
// are kept as ranges without a country.
func Parse(b []byte) (*Table, error) {
	if len(b)%entrySize != 0 {
		return nil, fmt.Errorf("geoip: table size %d is not a multiple of %d", len(b), entrySize)
	}
	n := len(b) / entrySize
	t := &Table{starts: make([]uint32, n), codes: make([]string, n)}
	for i := 0; i < n; i++ {
		e := b[i*entrySize : (i+1)*entrySize]
		t.starts[i] = binary.BigEndian.Uint32(e)
		t.codes[i] = unpack(e[4], e[5])
		if i > 0 && t.starts[i] < t.starts[i-1] {
			return nil, fmt.Errorf("geoip: entry %d is out of order", i)
		}
	}
	return t, nil
}

func unpack(hi, lo byte) string {
	if hi < 'A' || hi > 'Z' || lo < 'A' || lo > 'Z' {
		return ""
	}
	return string([]byte{hi, lo})
}

// Len returns the number of ranges.
func (t *Table) Len() int { return len(t.starts) }

// Lookup returns the country code of ip, or "" when ip is not a dotted IPv4
// address or falls in no known range.
func (t *Table) Lookup(_ context.Context, ip string) string {
	n, ok := ParseIPv4(ip)
	if !ok {
		return ""
	}
	return t.lookup(n)
}

func (t *Table) lookup(n uint32) string {
	i := sort.Search(len(t.starts), func(i int) bool { return t.starts[i] > n }) - 1
	if i < 0 {
		return ""
	}
	return t.codes[i]
}

// ParseIPv4 parses exactly four dot-separated decimal octets. Leading zeros
// are allowed and read as decimal.
func ParseIPv4(s string) (uint32, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return 0, false
	}
	var n uint32
	for _, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return 0, false
		}
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil || v > 255 {
			return 0, false
		}
		n = n<<8 | uint32(v)
	}
	return n, true
}

// Pack encodes ranges in the packed table format. It is the inverse of
// Parse for well-formed tables.
func Pack(starts []uint32, codes []string) []byte {
	out := make([]byte, 0, len(starts)*entrySize)
	for i, s := range starts {
		var e [entrySize]byte
		binary.BigEndian.PutUint32(e[:4], s)
		if c := codes[i]; len(c) == 2 {
			e[4], e[5] = c[0], c[1]
		}
		out = append(out, e[:]...)
	}
	return out
}
