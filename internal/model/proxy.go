package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Type is the protocol discriminator of a proxy record.
type Type string

const (
	TypeHTTP      Type = "http"
	TypeSocks5    Type = "socks5"
	TypeSS        Type = "ss"
	TypeSSR       Type = "ssr"
	TypeMieru     Type = "mieru"
	TypeSnell     Type = "snell"
	TypeVMess     Type = "vmess"
	TypeVLESS     Type = "vless"
	TypeTrojan    Type = "trojan"
	TypeHysteria  Type = "hysteria"
	TypeHysteria2 Type = "hysteria2"
	TypeTUIC      Type = "tuic"
	TypeWireGuard Type = "wireguard"
	TypeSSH       Type = "ssh"
	TypeAnyTLS    Type = "anytls"
	TypeSudoku    Type = "sudoku"
)

// Types lists every supported protocol in wire-dump order.
var Types = []Type{
	TypeHTTP, TypeSocks5, TypeSS, TypeSSR, TypeMieru, TypeSnell, TypeVMess, TypeVLESS,
	TypeTrojan, TypeHysteria, TypeHysteria2, TypeTUIC, TypeWireGuard, TypeSSH, TypeAnyTLS, TypeSudoku,
}

// Options is the protocol-specific payload of a Proxy. Exactly one
// implementation exists per Type.
type Options interface {
	Kind() Type
}

// Proxy is one outbound proxy record: the base fields shared by every
// protocol plus the protocol payload in Options.
type Proxy struct {
	Name   string
	Server string
	Port   int // 0 when only a port range is known (Ports/PortRange)
	Type   Type

	TFO           bool
	MPTCP         bool
	Hidden        bool
	IPVersion     string
	InterfaceName string
	RoutingMark   int
	DialerProxy   string // name of another record in the same batch

	Options Options
}

// DisplayName returns Name, or server:port when the record has no name.
func (p *Proxy) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Port == 0 {
		return p.Server
	}
	return net.JoinHostPort(p.Server, strconv.Itoa(p.Port))
}

// Validate checks the tagged-union invariant and the base fields.
func (p *Proxy) Validate() error {
	if p.Options == nil {
		return fmt.Errorf("%s: missing options", p.Type)
	}
	if p.Options.Kind() != p.Type {
		return fmt.Errorf("type %q does not match %q options", p.Type, p.Options.Kind())
	}
	if p.Server == "" {
		return fmt.Errorf("%s: missing server", p.Type)
	}
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("%s: port out of range: %d", p.Type, p.Port)
	}
	if k, _ := portRange(p.Options); p.Port == 0 && k == "" {
		return fmt.Errorf("%s: missing port", p.Type)
	}
	return nil
}

// portRange returns the port-list field of protocols that accept one.
func portRange(o Options) (key, value string) {
	switch v := o.(type) {
	case *Hysteria:
		if v.Ports != "" {
			return "ports", v.Ports
		}
	case *Hysteria2:
		if v.Ports != "" {
			return "ports", v.Ports
		}
	case *Mieru:
		if v.PortRange != "" {
			return "port-range", v.PortRange
		}
	}
	return "", ""
}

// Fields returns the ordered key/value dump of p: base fields first, then the
// protocol fields in declaration order. Unset optional fields are omitted.
func (p *Proxy) Fields() (*orderedmap.OrderedMap[string, json.RawMessage], error) {
	om := orderedmap.New[string, json.RawMessage]()
	set := func(k string, v any) error {
		raw, err := marshal(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		om.Set(k, raw)
		return nil
	}

	base := []struct {
		key  string
		val  any
		keep bool
	}{
		{"name", p.DisplayName(), true},
		{"server", p.Server, true},
		{"port", p.Port, p.Port != 0},
		{"type", p.Type, true},
		{"tfo", p.TFO, p.TFO},
		{"mptcp", p.MPTCP, p.MPTCP},
		{"hidden", p.Hidden, p.Hidden},
		{"ip-version", p.IPVersion, p.IPVersion != ""},
		{"interface-name", p.InterfaceName, p.InterfaceName != ""},
		{"routing-mark", p.RoutingMark, p.RoutingMark != 0},
		{"dialer-proxy", p.DialerProxy, p.DialerProxy != ""},
	}
	for _, f := range base {
		if !f.keep {
			continue
		}
		if err := set(f.key, f.val); err != nil {
			return nil, err
		}
		// a port list sits right before type; the merge below keeps its position
		if f.key == "port" || (f.key == "server" && p.Port == 0) {
			if k, v := portRange(p.Options); k != "" {
				if err := set(k, v); err != nil {
					return nil, err
				}
			}
		}
	}

	if p.Options == nil {
		return om, nil
	}
	raw, err := marshal(p.Options)
	if err != nil {
		return nil, err
	}
	opts := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, opts); err != nil {
		return nil, err
	}
	for pair := opts.Oldest(); pair != nil; pair = pair.Next() {
		om.Set(pair.Key, pair.Value)
	}
	return om, nil
}

// MarshalJSON writes the record as a single JSON object in wire order.
func (p *Proxy) MarshalJSON() ([]byte, error) {
	fields, err := p.Fields()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := marshal(pair.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(pair.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// View returns the record as a generic tree (maps, slices, strings, numbers,
// bools) with the same keys as its JSON dump.
func (p *Proxy) View() (map[string]any, error) {
	raw, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Clone returns a shallow copy of p. Options is shared.
func (p *Proxy) Clone() *Proxy {
	c := *p
	return &c
}

// marshal is json.Marshal without HTML escaping and without the trailing newline.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Bool returns a pointer to v, for the optional flags that may be explicitly false.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
