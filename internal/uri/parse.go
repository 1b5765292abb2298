// Package uri reads and writes single-line share links (ss://, vmess://,
// vless://, ...).
package uri

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/John-Robertt/cvt/internal/codec"
	"github.com/John-Robertt/cvt/internal/model"
)

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

func newParseError(line string, code, message string, cause error) error {
	return &ParseError{
		AppError: model.AppError{
			Code:    code,
			Message: message,
			Stage:   "parse_uri",
			Snippet: codec.Truncate(line, 200),
		},
		Cause: cause,
	}
}

// Schemes maps every accepted link scheme to the record type it produces.
var Schemes = map[string]model.Type{
	"http":      model.TypeHTTP,
	"https":     model.TypeHTTP,
	"socks":     model.TypeSocks5,
	"socks5":    model.TypeSocks5,
	"ss":        model.TypeSS,
	"ssr":       model.TypeSSR,
	"vmess":     model.TypeVMess,
	"vless":     model.TypeVLESS,
	"trojan":    model.TypeTrojan,
	"trojan-go": model.TypeTrojan,
	"hysteria":  model.TypeHysteria,
	"hy":        model.TypeHysteria,
	"hysteria2": model.TypeHysteria2,
	"hy2":       model.TypeHysteria2,
	"tuic":      model.TypeTUIC,
	"wireguard": model.TypeWireGuard,
	"wg":        model.TypeWireGuard,
	"anytls":    model.TypeAnyTLS,
}

type parseFunc func(line string) (*model.Proxy, error)

var parsers map[model.Type]parseFunc

func init() {
	parsers = map[model.Type]parseFunc{
		model.TypeHTTP:      parseHTTP,
		model.TypeSocks5:    parseSocks5,
		model.TypeSS:        parseSS,
		model.TypeSSR:       parseSSR,
		model.TypeVMess:     parseVMess,
		model.TypeVLESS:     parseVLESS,
		model.TypeTrojan:    parseTrojan,
		model.TypeHysteria:  parseHysteria,
		model.TypeHysteria2: parseHysteria2,
		model.TypeTUIC:      parseTUIC,
		model.TypeWireGuard: parseWireGuard,
		model.TypeAnyTLS:    parseAnyTLS,
	}
}

// Parse reads one share link.
func Parse(line string) (*model.Proxy, error) {
	line = strings.TrimSpace(line)
	scheme, _, _ := strings.Cut(line, "://")
	scheme = strings.ToLower(scheme)
	t, ok := Schemes[scheme]
	if !ok {
		return nil, newParseError(line, "UNSUPPORTED_TYPE", "不支持的协议："+scheme, model.ErrUnsupported)
	}
	p, err := parsers[t](line)
	if err != nil {
		code := "SUB_PARSE_ERROR"
		if errors.Is(err, model.ErrUnsupported) {
			code = "UNSUPPORTED_TYPE"
		}
		return nil, newParseError(line, code, "节点链接解析失败", err)
	}
	if err := p.Validate(); err != nil {
		return nil, newParseError(line, "SUB_PARSE_ERROR", "节点链接解析失败", err)
	}
	return p, nil
}

var reLink = regexp.MustCompile(`(?mi)^[a-z][a-z0-9.+-]*://[^\r\n]+`)

// ParseAll extracts every link-looking line of text. Lines that fail to parse
// are dropped and counted; they never fail the batch. In legacy mode records
// the legacy core cannot load are dropped as well. Rejections wrapping
// model.ErrUnsupported count per scheme, anything else as malformed.
func ParseAll(text string, legacy bool) model.Batch {
	lines := reLink.FindAllString(text, -1)
	res := model.Batch{
		Proxies:     make([]*model.Proxy, 0, len(lines)),
		Total:       len(lines),
		Unsupported: map[string]int{},
	}
	for _, line := range lines {
		p, err := Parse(line)
		if err == nil && legacy {
			err = model.RequireLegacySupport(p)
		}
		switch {
		case errors.Is(err, model.ErrUnsupported):
			scheme, _, _ := strings.Cut(line, "://")
			res.Unsupported[strings.ToLower(scheme)]++
			continue
		case err != nil:
			res.Malformed++
			continue
		}
		res.Proxies = append(res.Proxies, p)
	}
	return res
}

// base fills the fields every URL-shaped link shares. The name comes from
// the remarks parameter, then the fragment, then host[:port].
func base(l *link, t model.Type) (*model.Proxy, error) {
	port, err := parsePort(l.port)
	if err != nil {
		return nil, err
	}
	if port == 0 {
		port = defaultPort(l.scheme)
	}
	return &model.Proxy{
		Name:   name(l),
		Server: l.host,
		Port:   port,
		Type:   t,
	}, nil
}

func defaultPort(scheme string) int {
	if scheme == "http" {
		return 80
	}
	return 443
}

func name(l *link) string {
	if r := l.query["remarks"]; r != "" {
		return r
	}
	if l.fragment != "" {
		if n := codec.URLDecodePlus(l.fragment); n != "" {
			return n
		}
	}
	return l.hostPort()
}

// credentials returns the user/password of http and socks links, which may
// carry base64("user:pass@host:port") in place of the host.
func credentials(l *link) (user, pass string) {
	if l.hasUser || l.port != "" {
		return decodeUser(l.user), decodeUser(l.pass)
	}
	decoded, err := codec.DecodeBase64URL(l.host)
	if err != nil {
		return "", ""
	}
	s := codec.SplitRight(decoded, "@", 2)
	if len(s) == 2 {
		up := codec.SplitLeft(s[0], ":", 2)
		user = up[0]
		if len(up) == 2 {
			pass = up[1]
		}
	}
	host, port, err := splitHostPort(s[len(s)-1])
	if err != nil || host == "" {
		return "", ""
	}
	l.host, l.port = host, port
	return user, pass
}

func parseHTTP(line string) (*model.Proxy, error) {
	l, err := splitLink(line)
	if err != nil {
		return nil, err
	}
	user, pass := credentials(l)
	p, err := base(l, model.TypeHTTP)
	if err != nil {
		return nil, err
	}
	o := &model.HTTP{Username: user, Password: pass}
	if l.scheme == "https" {
		o.TLS = true
		o.SkipCertVerify = model.Bool(true)
	}
	p.Options = o
	return p, nil
}

func parseSocks5(line string) (*model.Proxy, error) {
	l, err := splitLink(line)
	if err != nil {
		return nil, err
	}
	user, pass := credentials(l)
	p, err := base(l, model.TypeSocks5)
	if err != nil {
		return nil, err
	}
	p.Options = &model.Socks5{Username: user, Password: pass, UDP: model.Bool(true)}
	return p, nil
}

func parseSS(line string) (*model.Proxy, error) {
	l, err := splitLink(line)
	if err != nil {
		return nil, err
	}
	var userinfo string
	switch {
	case l.hasUser && l.pass != "":
		// SIP002 plain form for AEAD-2022: method:password, percent-encoded
		userinfo = decodeUser(l.user) + ":" + decodeUser(l.pass)
	case l.hasUser:
		if userinfo, err = codec.DecodeBase64URL(l.user); err != nil {
			return nil, err
		}
	default:
		_, body, _ := strings.Cut(line, "://")
		body, _, _ = strings.Cut(body, "#")
		body, _, _ = strings.Cut(body, "?")
		decoded, err := codec.DecodeBase64URL(strings.TrimSuffix(body, "/"))
		if err != nil {
			return nil, err
		}
		s := codec.SplitRight(decoded, "@", 2)
		if len(s) != 2 {
			return nil, errors.New("missing '@' in decoded ss link")
		}
		userinfo = s[0]
		if l.host, l.port, err = splitHostPort(s[1]); err != nil {
			return nil, err
		}
	}
	cp := codec.SplitLeft(userinfo, ":", 2)
	if len(cp) != 2 || cp[0] == "" {
		return nil, errors.New("missing cipher:password")
	}
	p, err := base(l, model.TypeSS)
	if err != nil {
		return nil, err
	}
	plugin, opts, err := pluginFrom(l.query["plugin"])
	if err != nil {
		return nil, err
	}
	p.Options = &model.Shadowsocks{
		Cipher:     cp[0],
		Password:   cp[1],
		Plugin:     plugin,
		PluginOpts: opts,
		UDP:        model.Bool(true),
	}
	return p, nil
}

func parseSSR(line string) (*model.Proxy, error) {
	_, body, _ := strings.Cut(line, "://")
	decoded, err := codec.DecodeBase64URL(body)
	if err != nil {
		return nil, err
	}
	head, rawParams, _ := strings.Cut(decoded, "/?")
	f := codec.SplitRight(head, ":", 6)
	if len(f) != 6 {
		return nil, errors.New("ssr link needs server:port:protocol:cipher:obfs:password")
	}
	server, portStr, protocol, cipher, obfs, password := f[0], f[1], f[2], f[3], f[4], f[5]
	port, err := parsePort(portStr)
	if err != nil {
		return nil, err
	}
	password, err = codec.DecodeBase64URL(password)
	if err != nil {
		return nil, err
	}
	q := map[string]string{}
	if rawParams != "" {
		for _, kv := range strings.Split(rawParams, "&") {
			k, v, _ := strings.Cut(kv, "=")
			if q[k], err = codec.DecodeBase64URL(v); err != nil {
				return nil, fmt.Errorf("ssr param %s: %w", k, err)
			}
		}
	}
	n := q["remarks"]
	if n == "" {
		n = server + ":" + portStr
	}
	return &model.Proxy{
		Name:   n,
		Server: strings.TrimSuffix(strings.TrimPrefix(server, "["), "]"),
		Port:   port,
		Type:   model.TypeSSR,
		Options: &model.ShadowsocksR{
			Cipher:        cipher,
			Password:      password,
			Obfs:          obfs,
			Protocol:      protocol,
			ObfsParam:     q["obfsparam"],
			ProtocolParam: q["protoparam"],
			UDP:           model.Bool(true),
		},
	}, nil
}

// vmessJSON is the v2rayN link payload. Numbers are sometimes quoted.
type vmessJSON map[string]any

func (j vmessJSON) str(k string) string {
	switch v := j[k].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func parseVMess(line string) (*model.Proxy, error) {
	_, body, _ := strings.Cut(line, "://")
	decoded, err := codec.DecodeBase64URL(body)
	if err != nil {
		return nil, err
	}
	var j vmessJSON
	if err := json.Unmarshal([]byte(decoded), &j); err != nil {
		return nil, err
	}
	add, portStr := j.str("add"), j.str("port")
	port, err := parsePort(portStr)
	if err != nil {
		return nil, err
	}
	transport, err := networkFrom(netParams{
		net: j.str("net"), typ: j.str("type"), host: j.str("host"), path: j.str("path"),
	})
	if err != nil {
		return nil, err
	}
	o := &model.VMess{
		UUID:      j.str("id"),
		Cipher:    j.str("scy"),
		Transport: transport,
		UDP:       model.Bool(true),
	}
	if o.Cipher == "" {
		o.Cipher = "auto"
	}
	if aid, err := strconv.Atoi(j.str("aid")); err == nil {
		o.AlterID = aid
	}
	net := j.str("net")
	if j.str("tls") == "tls" || net == "grpc" || net == "h2" {
		o.TLS = true
		o.ServerName = j.str("sni")
		o.ALPN = splitList(j.str("alpn"))
		o.ClientFingerprint = j.str("fp")
		o.SkipCertVerify = model.Bool(true)
	}
	n := j.str("ps")
	if n == "" {
		n = add + ":" + portStr
	}
	return &model.Proxy{Name: n, Server: add, Port: port, Type: model.TypeVMess, Options: o}, nil
}

func parseVLESS(line string) (*model.Proxy, error) {
	l, err := splitLink(line)
	if err != nil {
		return nil, err
	}
	p, err := base(l, model.TypeVLESS)
	if err != nil {
		return nil, err
	}
	q := l.query
	transport, err := networkFrom(netParams{
		typ: q["type"], headerType: q["headerType"], host: q["host"], path: q["path"], serviceName: q["serviceName"],
	})
	if err != nil {
		return nil, err
	}
	o := &model.VLESS{
		UUID:      decodeUser(l.user),
		Flow:      q["flow"],
		Transport: transport,
		UDP:       model.Bool(true),
	}
	sec, typ := q["security"], q["type"]
	if sec == "tls" || sec == "reality" || typ == "grpc" || typ == "h2" {
		o.TLS = true
		o.ServerName = q["sni"]
		o.ALPN = splitList(q["alpn"])
		o.ClientFingerprint = q["fp"]
		o.RealityOpts = realityFrom(q["pbk"], q["sid"])
		o.SkipCertVerify = model.Bool(true)
	}
	p.Options = o
	return p, nil
}

func parseTrojan(line string) (*model.Proxy, error) {
	l, err := splitLink(line)
	if err != nil {
		return nil, err
	}
	p, err := base(l, model.TypeTrojan)
	if err != nil {
		return nil, err
	}
	q := l.query
	np := netParams{typ: q["type"], headerType: q["headerType"], host: q["host"], path: q["path"], serviceName: q["serviceName"]}
	if q["ws"] == "1" {
		np = netParams{typ: "ws", host: q["host"], path: q["wspath"]}
	}
	transport, err := networkFrom(np)
	if err != nil {
		return nil, err
	}
	if transport.Network != "" && transport.Network != "ws" && transport.Network != "grpc" {
		return nil, fmt.Errorf("%w network: %s", model.ErrUnsupported, transport.Network)
	}
	p.Options = &model.Trojan{
		Password:          decodeUser(l.user),
		Transport:         transport,
		SNI:               q["sni"],
		ALPN:              splitList(q["alpn"]),
		ClientFingerprint: q["fp"],
		RealityOpts:       realityFrom(q["pbk"], q["sid"]),
		SkipCertVerify:    model.Bool(true),
		UDP:               model.Bool(true),
	}
	return p, nil
}

func parseHysteria(line string) (*model.Proxy, error) {
	l, err := splitLink(line)
	if err != nil {
		return nil, err
	}
	p, err := base(l, model.TypeHysteria)
	if err != nil {
		return nil, err
	}
	q := l.query
	o := &model.Hysteria{
		AuthStr:        q["auth"],
		Up:             q["upmbps"],
		Down:           q["downmbps"],
		Obfs:           q["obfsParam"],
		SNI:            q["peer"],
		SkipCertVerify: model.Bool(true),
		FastOpen:       q["fastopen"] == "1",
	}
	if pr := q["protocol"]; pr != "udp" {
		o.Protocol = pr
	}
	if a := q["alpn"]; a != "hysteria" {
		o.ALPN = splitList(a)
	}
	p.Options = o
	return p, nil
}

func parseHysteria2(line string) (*model.Proxy, error) {
	l, err := splitLink(line)
	if err != nil {
		return nil, err
	}
	q := l.query
	ports := q["mport"]
	// host:443,8443-8450 carries the port list in place of the port
	if strings.ContainsAny(l.port, ",-") {
		if ports == "" {
			ports = l.port
		}
		l.port = ""
	}
	port, err := parsePort(l.port)
	if err != nil {
		return nil, err
	}
	if port == 0 && ports == "" {
		port = defaultPort(l.scheme)
	}
	p := &model.Proxy{Name: name(l), Server: l.host, Port: port, Type: model.TypeHysteria2}
	p.Options = &model.Hysteria2{
		Ports:          ports,
		Password:       decodeUser(l.user),
		Up:             q["up"],
		Down:           q["down"],
		Obfs:           q["obfs"],
		ObfsPassword:   q["obfs-password"],
		SNI:            q["sni"],
		ALPN:           splitList(q["alpn"]),
		SkipCertVerify: model.Bool(true),
	}
	return p, nil
}

func parseTUIC(line string) (*model.Proxy, error) {
	l, err := splitLink(line)
	if err != nil {
		return nil, err
	}
	p, err := base(l, model.TypeTUIC)
	if err != nil {
		return nil, err
	}
	q := l.query
	p.Options = &model.TUIC{
		UUID:                 decodeUser(l.user),
		Password:             decodeUser(l.pass),
		ALPN:                 splitList(q["alpn"]),
		SNI:                  q["sni"],
		CongestionController: q["congestion_control"],
		SkipCertVerify:       model.Bool(true),
	}
	return p, nil
}

func parseWireGuard(line string) (*model.Proxy, error) {
	l, err := splitLink(line)
	if err != nil {
		return nil, err
	}
	p, err := base(l, model.TypeWireGuard)
	if err != nil {
		return nil, err
	}
	q := l.query
	o := &model.WireGuard{
		PrivateKey: decodeUser(l.user),
		PublicKey:  q["publickey"],
		UDP:        model.Bool(true),
	}
	for _, r := range splitList(q["reserved"]) {
		n, err := strconv.Atoi(strings.TrimSpace(r))
		if err != nil {
			return nil, fmt.Errorf("reserved: %w", err)
		}
		o.Reserved = append(o.Reserved, n)
	}
	for _, a := range splitList(q["address"]) {
		if strings.Contains(a, ":") {
			o.IPv6 = a
		} else {
			o.IP = a
		}
	}
	if mtu, err := strconv.Atoi(q["mtu"]); err == nil {
		o.MTU = mtu
	}
	p.Options = o
	return p, nil
}

func parseAnyTLS(line string) (*model.Proxy, error) {
	l, err := splitLink(line)
	if err != nil {
		return nil, err
	}
	p, err := base(l, model.TypeAnyTLS)
	if err != nil {
		return nil, err
	}
	q := l.query
	p.Options = &model.AnyTLS{
		Password:       decodeUser(l.user),
		SNI:            q["sni"],
		ALPN:           splitList(q["alpn"]),
		SkipCertVerify: model.Bool(true),
		UDP:            model.Bool(true),
	}
	return p, nil
}
