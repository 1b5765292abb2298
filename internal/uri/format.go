package uri

import (
	"fmt"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/John-Robertt/cvt/internal/codec"
	"github.com/John-Robertt/cvt/internal/model"
)

// Format writes p as a share link. Protocols without a link form return an
// error wrapping model.ErrUnsupported.
func Format(p *model.Proxy) (string, error) {
	switch o := p.Options.(type) {
	case *model.HTTP:
		return formatHTTP(p, o), nil
	case *model.Socks5:
		return formatSocks5(p, o), nil
	case *model.Shadowsocks:
		return formatSS(p, o)
	case *model.ShadowsocksR:
		return formatSSR(p, o), nil
	case *model.VMess:
		return formatVMess(p, o)
	case *model.VLESS:
		return formatVLESS(p, o), nil
	case *model.Trojan:
		return formatTrojan(p, o), nil
	case *model.Hysteria:
		return formatHysteria(p, o), nil
	case *model.Hysteria2:
		return formatHysteria2(p, o), nil
	case *model.TUIC:
		return formatTUIC(p, o), nil
	case *model.WireGuard:
		return formatWireGuard(p, o), nil
	case *model.AnyTLS:
		return formatAnyTLS(p, o), nil
	}
	return "", fmt.Errorf("%w type: %s", model.ErrUnsupported, p.Type)
}

// FormatAll writes one link per line, skipping records that have no link
// form.
func FormatAll(proxies []*model.Proxy) string {
	lines := make([]string, 0, len(proxies))
	for _, p := range proxies {
		s, err := Format(p)
		if err != nil {
			continue
		}
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n")
}

// assemble builds scheme://[user@]host[:port][/][?query]#name.
func assemble(scheme, userinfo string, p *model.Proxy, slash bool, q params) string {
	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	if userinfo != "" {
		b.WriteString(userinfo)
		b.WriteByte('@')
	}
	b.WriteString(authority(p.Server, p.Port))
	if slash {
		b.WriteByte('/')
	}
	if q.m != nil && q.m.Len() > 0 {
		b.WriteByte('?')
		b.WriteString(q.encode())
	}
	b.WriteByte('#')
	b.WriteString(escapeFragment(p.DisplayName()))
	return b.String()
}

func auth(p *model.Proxy, user, pass string) string {
	s := authority(p.Server, p.Port)
	if user != "" || pass != "" {
		s = user + ":" + pass + "@" + s
	}
	return s
}

func formatHTTP(p *model.Proxy, o *model.HTTP) string {
	scheme := "http"
	if o.TLS {
		scheme = "https"
	}
	q := newParams()
	q.set("remarks", p.DisplayName())
	return scheme + "://" + codec.EncodeBase64URL(auth(p, o.Username, o.Password)) + "?" + q.encode()
}

func formatSocks5(p *model.Proxy, o *model.Socks5) string {
	return "socks://" + codec.EncodeBase64URL(auth(p, o.Username, o.Password)) + "#" + escapeFragment(p.DisplayName())
}

func formatSS(p *model.Proxy, o *model.Shadowsocks) (string, error) {
	plugin, err := pluginTo(o)
	if err != nil {
		return "", err
	}
	q := newParams()
	q.setIf("plugin", plugin)
	user := codec.EncodeBase64URL(o.Cipher + ":" + o.Password)
	return assemble("ss", user, p, plugin != "", q), nil
}

func formatSSR(p *model.Proxy, o *model.ShadowsocksR) string {
	head := strings.Join([]string{
		p.Server, strconv.Itoa(p.Port), o.Protocol, o.Cipher, o.Obfs, codec.EncodeBase64URL(o.Password),
	}, ":")
	var ps []string
	for _, kv := range [][2]string{{"remarks", p.DisplayName()}, {"obfsparam", o.ObfsParam}, {"protoparam", o.ProtocolParam}} {
		if kv[1] != "" {
			ps = append(ps, kv[0]+"="+codec.EncodeBase64URL(kv[1]))
		}
	}
	return "ssr://" + codec.EncodeBase64URL(head+"/?"+strings.Join(ps, "&"))
}

func formatVMess(p *model.Proxy, o *model.VMess) (string, error) {
	j := orderedmap.New[string, string]()
	j.Set("v", "2")
	j.Set("ps", p.DisplayName())
	j.Set("add", p.Server)
	j.Set("port", strconv.Itoa(p.Port))
	j.Set("id", o.UUID)
	if o.AlterID != 0 {
		j.Set("aid", strconv.Itoa(o.AlterID))
	}
	if o.Cipher != "auto" {
		j.Set("scy", o.Cipher)
	}
	n := networkTo(o.Transport, "net", "type", "path")
	for pair := n.m.Oldest(); pair != nil; pair = pair.Next() {
		j.Set(pair.Key, pair.Value)
	}
	if o.TLS {
		j.Set("tls", "tls")
		if o.ServerName != "" {
			j.Set("sni", o.ServerName)
		}
		if len(o.ALPN) > 0 {
			j.Set("alpn", strings.Join(o.ALPN, ","))
		}
		if o.ClientFingerprint != "" {
			j.Set("fp", o.ClientFingerprint)
		}
	}
	raw, err := j.MarshalJSON()
	if err != nil {
		return "", err
	}
	return "vmess://" + codec.EncodeBase64(string(raw)), nil
}

func formatVLESS(p *model.Proxy, o *model.VLESS) string {
	q := networkToStd(o.Transport)
	q.setIf("flow", o.Flow)
	if o.TLS {
		if !realityTo(o.RealityOpts, q) {
			q.set("security", "tls")
		}
		q.setIf("sni", o.ServerName)
		q.setIf("alpn", strings.Join(o.ALPN, ","))
		q.setIf("fp", o.ClientFingerprint)
	}
	return assemble("vless", escapeUserinfo(o.UUID), p, false, q)
}

func formatTrojan(p *model.Proxy, o *model.Trojan) string {
	q := networkToStd(o.Transport)
	realityTo(o.RealityOpts, q)
	q.setIf("sni", o.SNI)
	q.setIf("alpn", strings.Join(o.ALPN, ","))
	q.setIf("fp", o.ClientFingerprint)
	return assemble("trojan", escapeUserinfo(o.Password), p, false, q)
}

func formatHysteria(p *model.Proxy, o *model.Hysteria) string {
	q := newParams()
	q.setIf("protocol", o.Protocol)
	q.setIf("auth", o.AuthStr)
	q.setIf("peer", o.SNI)
	q.set("upmbps", toMbps(o.Up))
	q.set("downmbps", toMbps(o.Down))
	q.setIf("alpn", strings.Join(o.ALPN, ","))
	if o.Obfs != "" {
		q.set("obfs", "xplus")
		q.set("obfsParam", o.Obfs)
	}
	if o.FastOpen {
		q.set("fastopen", "1")
	}
	return assemble("hysteria", "", p, false, q)
}

func formatHysteria2(p *model.Proxy, o *model.Hysteria2) string {
	q := newParams()
	q.setIf("mport", o.Ports)
	if o.Up != "" {
		q.set("up", toMbps(o.Up))
	}
	if o.Down != "" {
		q.set("down", toMbps(o.Down))
	}
	q.setIf("obfs", o.Obfs)
	q.setIf("obfs-password", o.ObfsPassword)
	q.setIf("sni", o.SNI)
	q.setIf("alpn", strings.Join(o.ALPN, ","))
	return assemble("hysteria2", escapeUserinfo(o.Password), p, false, q)
}

func formatTUIC(p *model.Proxy, o *model.TUIC) string {
	q := newParams()
	q.setIf("alpn", strings.Join(o.ALPN, ","))
	q.setIf("sni", o.SNI)
	q.setIf("congestion_control", o.CongestionController)
	user := escapeUserinfo(o.UUID)
	if o.Password != "" {
		user += ":" + escapeUserinfo(o.Password)
	}
	return assemble("tuic", user, p, false, q)
}

func formatWireGuard(p *model.Proxy, o *model.WireGuard) string {
	q := newParams()
	q.setIf("publickey", o.PublicKey)
	if len(o.Reserved) > 0 {
		rs := make([]string, len(o.Reserved))
		for i, r := range o.Reserved {
			rs[i] = strconv.Itoa(r)
		}
		q.set("reserved", strings.Join(rs, ","))
	}
	var addr []string
	for _, a := range []string{o.IP, o.IPv6} {
		if a != "" {
			addr = append(addr, a)
		}
	}
	q.set("address", strings.Join(addr, ","))
	if o.MTU != 0 {
		q.set("mtu", strconv.Itoa(o.MTU))
	}
	return assemble("wireguard", escapeUserinfo(o.PrivateKey), p, false, q)
}

func formatAnyTLS(p *model.Proxy, o *model.AnyTLS) string {
	q := newParams()
	q.setIf("sni", o.SNI)
	q.setIf("alpn", strings.Join(o.ALPN, ","))
	return assemble("anytls", escapeUserinfo(o.Password), p, false, q)
}
