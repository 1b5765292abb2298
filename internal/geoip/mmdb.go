package geoip

import (
	"context"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	RegisteredCountry struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"registered_country"`
}

// MMDB looks addresses up in a MaxMind country database.
type MMDB struct {
	reader *maxminddb.Reader
}

func OpenMMDB(path string) (*MMDB, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return nil, err
	}
	return &MMDB{reader: r}, nil
}

func MMDBFromBytes(b []byte) (*MMDB, error) {
	r, err := maxminddb.FromBytes(b)
	if err != nil {
		return nil, err
	}
	return &MMDB{reader: r}, nil
}

// Lookup accepts the same dotted IPv4 form as Table.
func (m *MMDB) Lookup(_ context.Context, ip string) string {
	n, ok := ParseIPv4(ip)
	if !ok {
		return ""
	}
	addr := net.IPv4(byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	var rec countryRecord
	if err := m.reader.Lookup(addr, &rec); err != nil {
		return ""
	}
	if rec.Country.ISOCode != "" {
		return rec.Country.ISOCode
	}
	return rec.RegisteredCountry.ISOCode
}

func (m *MMDB) Close() error { return m.reader.Close() }
