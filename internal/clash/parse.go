// Package clash reads and writes Clash (mihomo) YAML configurations.
package clash

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

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

type decodeFunc func(o object) (model.Options, error)

var decoders map[model.Type]decodeFunc

func init() {
	decoders = map[model.Type]decodeFunc{
		model.TypeHTTP:      decodeHTTP,
		model.TypeSocks5:    decodeSocks5,
		model.TypeSS:        decodeSS,
		model.TypeSSR:       decodeSSR,
		model.TypeMieru:     decodeMieru,
		model.TypeSnell:     decodeSnell,
		model.TypeVMess:     decodeVMess,
		model.TypeVLESS:     decodeVLESS,
		model.TypeTrojan:    decodeTrojan,
		model.TypeHysteria:  decodeHysteria,
		model.TypeHysteria2: decodeHysteria2,
		model.TypeTUIC:      decodeTUIC,
		model.TypeWireGuard: decodeWireGuard,
		model.TypeSSH:       decodeSSH,
		model.TypeAnyTLS:    decodeAnyTLS,
		model.TypeSudoku:    decodeSudoku,
	}
}

// Parse reads the proxies list of a Clash config (the legacy "Proxy" key is
// accepted too). Entries that fail to decode are dropped and counted by
// type; they never fail the batch. A document that is not YAML, or has no
// proxies list, yields an empty batch and, for the former, an error.
func Parse(text string, legacy bool) (model.Batch, error) {
	res := model.Batch{Unsupported: map[string]int{}}

	var doc any
	if err := yaml.Unmarshal([]byte(codec.StripBOM(text)), &doc); err != nil {
		return res, &ParseError{
			AppError: model.AppError{
				Code:    "SUB_PARSE_ERROR",
				Message: "YAML 解析失败",
				Stage:   "parse_clash",
				Snippet: codec.Truncate(text, 200),
			},
			Cause: err,
		}
	}
	root, ok := asObject(normalize(doc))
	if !ok {
		return res, nil
	}
	raw := root["proxies"]
	if !truthy(raw) {
		raw = root["Proxy"]
	}
	list, _ := raw.([]any)

	for _, item := range list {
		o, ok := asObject(item)
		if !ok {
			continue
		}
		typ, ok := o["type"].(string)
		if !ok {
			continue
		}
		res.Total++
		p, err := decode(o, model.Type(typ))
		if err == nil && legacy {
			err = model.RequireLegacySupport(p)
		}
		if err != nil {
			res.Unsupported[typeKey(typ)]++
			continue
		}
		res.Proxies = append(res.Proxies, p)
	}
	return res, nil
}

func typeKey(typ string) string {
	if typ == "" {
		return "unknown"
	}
	return typ
}

// decode turns one proxies entry into a record.
func decode(o object, t model.Type) (*model.Proxy, error) {
	fn, ok := decoders[t]
	if !ok {
		return nil, fmt.Errorf("%w: type %q", model.ErrUnsupported, t)
	}
	p, err := decodeBase(o, t)
	if err != nil {
		return nil, err
	}
	if p.Options, err = fn(o); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

var errPortMissing = errors.New("missing port")

func decodeBase(o object, t model.Type) (*model.Proxy, error) {
	name, err := o.must("name")
	if err != nil {
		return nil, err
	}
	server, err := o.must("server")
	if err != nil {
		return nil, err
	}
	p := &model.Proxy{
		Name:          name,
		Server:        server,
		Type:          t,
		TFO:           o.truthy("tfo"),
		MPTCP:         o.truthy("mptcp"),
		Hidden:        o.truthy("hidden"),
		IPVersion:     o.str("ip-version"),
		InterfaceName: o.str("interface-name"),
		RoutingMark:   o.integer("routing-mark"),
		DialerProxy:   o.str("dialer-proxy"),
	}
	switch t {
	case model.TypeHysteria, model.TypeHysteria2, model.TypeMieru:
		// a port list may stand in for the port
		p.Port = o.integer("port")
		if p.Port == 0 && o.str("ports") == "" && o.str("port-range") == "" {
			return nil, errPortMissing
		}
	default:
		if _, ok := o["port"]; !ok {
			return nil, errPortMissing
		}
		n, ok := toNumber(o["port"])
		if !ok {
			return nil, fmt.Errorf("invalid port %v", o["port"])
		}
		p.Port = int(n)
	}
	return p, nil
}

func decodeHTTP(o object) (model.Options, error) {
	h := &model.HTTP{
		Username: o.str("username"),
		Password: o.str("password"),
		Headers:  o.stringMap("headers"),
	}
	if o.truthy("tls") {
		h.TLS = true
		h.SNI = o.str("sni")
		h.Fingerprint = o.str("fingerprint")
		h.Certificate = o.str("certificate")
		h.PrivateKey = o.str("private-key")
		h.SkipCertVerify = o.skipCertVerify()
	}
	return h, nil
}

func decodeSocks5(o object) (model.Options, error) {
	s := &model.Socks5{
		Username: o.str("username"),
		Password: o.str("password"),
		UDP:      o.udp(),
	}
	if o.truthy("tls") {
		s.TLS = true
		s.Fingerprint = o.str("fingerprint")
		s.Certificate = o.str("certificate")
		s.PrivateKey = o.str("private-key")
		s.SkipCertVerify = o.skipCertVerify()
	}
	return s, nil
}

// normalizeCipher maps the AEAD_* spellings of old configs to the names
// used everywhere else.
func normalizeCipher(c string) string {
	if !strings.HasPrefix(c, "AEAD_") {
		return c
	}
	if c == "AEAD_CHACHA20_POLY1305" {
		return "chacha20-ietf-poly1305"
	}
	return strings.ToLower(strings.ReplaceAll(c[len("AEAD_"):], "_", "-"))
}

func decodeSS(o object) (model.Options, error) {
	cipher, err := o.must("cipher")
	if err != nil {
		return nil, err
	}
	password, err := o.must("password")
	if err != nil {
		return nil, err
	}
	ss := &model.Shadowsocks{
		Cipher:            normalizeCipher(cipher),
		Password:          password,
		UDPOverTCP:        o.truthy("udp-over-tcp"),
		UDPOverTCPVersion: o.integer("udp-over-tcp-version"),
		UDP:               o.udp(),
	}
	decodePlugin(o, ss)
	return ss, nil
}

func decodePlugin(o object, ss *model.Shadowsocks) {
	opts, ok := o.child("plugin-opts")
	plugin, _ := o["plugin"].(string)
	if ok {
		switch plugin {
		case model.PluginObfs:
			ss.Plugin = plugin
			ss.PluginOpts = &model.ObfsPlugin{Mode: toString(opts["mode"]), Host: opts.str("host")}
			return
		case model.PluginV2ray, model.PluginGost:
			v := &model.V2rayPlugin{
				Mode:    toString(opts["mode"]),
				Host:    opts.str("host"),
				Path:    opts.str("path"),
				Headers: opts.stringMap("headers"),
			}
			if opts.truthy("tls") {
				v.TLS = true
				v.ECHOpts = opts.ech()
				v.Fingerprint = opts.str("fingerprint")
				v.Certificate = opts.str("certificate")
				v.PrivateKey = opts.str("private-key")
				v.SkipCertVerify = opts.skipCertVerify()
			}
			if mux, ok := opts["mux"].(bool); ok && !mux {
				v.Mux = model.Bool(false)
			}
			if plugin == model.PluginV2ray {
				v.V2rayHTTPUpgrade = opts.truthy("v2ray-http-upgrade")
				v.V2rayHTTPUpgradeFastOpen = opts.truthy("v2ray-http-upgrade-fast-open")
			}
			ss.Plugin = plugin
			ss.PluginOpts = v
			return
		case model.PluginShadowTLS:
			ss.Plugin = plugin
			ss.ClientFingerprint = o.strOr("client-fingerprint", model.DefaultClientFingerprint)
			ss.PluginOpts = &model.ShadowTLSPlugin{
				Host:           toString(opts["host"]),
				Password:       opts.str("password"),
				Version:        opts.integer("version"),
				Fingerprint:    opts.str("fingerprint"),
				Certificate:    opts.str("certificate"),
				PrivateKey:     opts.str("private-key"),
				ALPN:           opts.alpn(),
				SkipCertVerify: opts.skipCertVerify(),
			}
			return
		case model.PluginRestls:
			ss.Plugin = plugin
			ss.ClientFingerprint = o.strOr("client-fingerprint", model.DefaultClientFingerprint)
			ss.PluginOpts = &model.RestlsPlugin{
				Host:         toString(opts["host"]),
				Password:     toString(opts["password"]),
				VersionHint:  toString(opts["version-hint"]),
				RestlsScript: opts.str("restls-script"),
			}
			return
		case model.PluginKcptun:
			ss.Plugin = plugin
			ss.PluginOpts = &model.KcptunPlugin{
				Key:         opts.str("key"),
				Crypt:       opts.str("crypt"),
				Mode:        opts.str("mode"),
				Conn:        opts.intPtr("conn"),
				AutoExpire:  opts.intPtr("autoexpire"),
				ScavengeTTL: opts.intPtr("scavengettl"),
				MTU:         opts.intPtr("mtu"),
				RateLimit:   opts.intPtr("ratelimit"),
				SndWnd:      opts.intPtr("sndwnd"),
				RcvWnd:      opts.intPtr("rcvwnd"),
				DataShard:   opts.intPtr("datashard"),
				ParityShard: opts.intPtr("parityshard"),
				DSCP:        opts.intPtr("dscp"),
				NoComp:      opts.truthy("nocomp"),
				AckNodelay:  opts.truthy("acknodelay"),
				NoDelay:     opts.intPtr("nodelay"),
				Interval:    opts.intPtr("interval"),
				Resend:      opts.intPtr("resend"),
				NC:          opts.intPtr("nc"),
				SockBuf:     opts.intPtr("sockbuf"),
				SmuxVer:     opts.intPtr("smuxver"),
				SmuxBuf:     opts.intPtr("smuxbuf"),
				FrameSize:   opts.intPtr("framesize"),
				StreamBuf:   opts.intPtr("streambuf"),
				KeepAlive:   opts.intPtr("keepalive"),
			}
			return
		}
	}
	// legacy top-level obfs keys
	if o.truthy("obfs") {
		ss.Plugin = model.PluginObfs
		ss.PluginOpts = &model.ObfsPlugin{
			Mode: toString(o["obfs"]),
			Host: o.str("obfs-host"),
		}
	}
}

func decodeSSR(o object) (model.Options, error) {
	var (
		r   = &model.ShadowsocksR{}
		err error
	)
	for k, dst := range map[string]*string{
		"cipher":   &r.Cipher,
		"password": &r.Password,
		"obfs":     &r.Obfs,
		"protocol": &r.Protocol,
	} {
		if *dst, err = o.must(k); err != nil {
			return nil, err
		}
	}
	r.ObfsParam = o.str("obfs-param")
	r.ProtocolParam = o.str("protocol-param")
	r.UDP = o.udp()
	return r, nil
}

func decodeMieru(o object) (model.Options, error) {
	m := &model.Mieru{
		PortRange:     o.str("port-range"),
		Multiplexing:  o.str("multiplexing"),
		HandshakeMode: o.str("handshake-mode"),
		UDP:           o.udp(),
	}
	var err error
	if m.Username, err = o.must("username"); err != nil {
		return nil, err
	}
	if m.Password, err = o.must("password"); err != nil {
		return nil, err
	}
	if m.Transport, err = o.must("transport"); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeSnell(o object) (model.Options, error) {
	psk, err := o.must("psk")
	if err != nil {
		return nil, err
	}
	return &model.Snell{
		PSK:      psk,
		Version:  o.integer("version"),
		ObfsOpts: o.stringMap("obfs-opts"),
		UDP:      o.udp(),
	}, nil
}

// decodeTransport reads network and its *-opts block. Old configs may carry
// ws-path and ws-headers at the top level.
func decodeTransport(o object) model.Transport {
	network, _ := o["network"].(string)
	t := model.Transport{}
	switch network {
	case "ws":
		t.Network = network
		ws := &model.WSOpts{}
		if opts, ok := o.child("ws-opts"); ok {
			ws.Path = opts.str("path")
			ws.Headers = opts.stringMap("headers")
			ws.MaxEarlyData = opts.integer("max-early-data")
			ws.EarlyDataHeaderName = opts.str("early-data-header-name")
			ws.V2rayHTTPUpgrade = opts.truthy("v2ray-http-upgrade")
			ws.V2rayHTTPUpgradeFastOpen = opts.truthy("v2ray-http-upgrade-fast-open")
		} else {
			if o.truthy("ws-path") {
				ws.Path = toString(o["ws-path"])
			}
			ws.Headers = o.stringMap("ws-headers")
		}
		if ws.Path != "" || len(ws.Headers) > 0 || ws.MaxEarlyData != 0 || ws.EarlyDataHeaderName != "" ||
			ws.V2rayHTTPUpgrade || ws.V2rayHTTPUpgradeFastOpen {
			t.WSOpts = ws
		}
	case "grpc":
		t.Network = network
		opts, _ := o.child("grpc-opts")
		t.GrpcOpts = &model.GrpcOpts{
			ServiceName: opts.str("grpc-service-name"),
			UserAgent:   opts.strOr("grpc-user-agent", model.DefaultGrpcUserAgent),
		}
	case "http":
		t.Network = network
		if opts, ok := o.child("http-opts"); ok {
			h := &model.HTTPOpts{Method: opts.str("method"), Path: opts.nonEmptyList("path")}
			if hs, ok := opts.child("headers"); ok {
				h.Headers = make(map[string][]string, len(hs))
				for k := range hs {
					h.Headers[k], _ = hs.list(k)
				}
			}
			if h.Method != "" || h.Path != nil || h.Headers != nil {
				t.HTTPOpts = h
			}
		}
	case "h2":
		t.Network = network
		if opts, ok := o.child("h2-opts"); ok {
			h := &model.H2Opts{Path: opts.str("path"), Host: opts.nonEmptyList("host")}
			if h.Path != "" || h.Host != nil {
				t.H2Opts = h
			}
		}
	}
	return t
}

// tlsImplied reports whether the transport only works over TLS.
func tlsImplied(t model.Transport) bool {
	return t.Network == "grpc" || t.Network == "h2"
}

func decodeVMess(o object) (model.Options, error) {
	v := &model.VMess{
		GlobalPadding:       o.truthy("global-padding"),
		AuthenticatedLength: o.truthy("authenticated-length"),
		Transport:           decodeTransport(o),
		UDP:                 o.udp(),
	}
	var err error
	if v.UUID, err = o.must("uuid"); err != nil {
		return nil, err
	}
	v.AlterID = o.integer("alterId")
	if v.Cipher, err = o.must("cipher"); err != nil {
		return nil, err
	}
	if o.truthy("tls") || tlsImplied(v.Transport) {
		v.TLS = true
		v.ServerName = o.str("servername")
		v.Fingerprint = o.str("fingerprint")
		v.Certificate = o.str("certificate")
		v.PrivateKey = o.str("private-key")
		v.ClientFingerprint = o.strOr("client-fingerprint", model.DefaultClientFingerprint)
		v.ALPN = o.alpn()
		v.ECHOpts = o.ech()
		v.RealityOpts = o.reality()
		v.SkipCertVerify = o.skipCertVerify()
	}
	if *v.UDP {
		v.PacketEncoding = o.strOr("packet-encoding", "xudp")
	}
	return v, nil
}

func decodeVLESS(o object) (model.Options, error) {
	uuid, err := o.must("uuid")
	if err != nil {
		return nil, err
	}
	v := &model.VLESS{
		UUID:       uuid,
		Flow:       o.str("flow"),
		Encryption: o.str("encryption"),
		Transport:  decodeTransport(o),
		UDP:        o.udp(),
	}
	if o.truthy("tls") || tlsImplied(v.Transport) {
		v.TLS = true
		v.ServerName = o.str("servername")
		v.Fingerprint = o.str("fingerprint")
		v.Certificate = o.str("certificate")
		v.PrivateKey = o.str("private-key")
		v.ClientFingerprint = o.strOr("client-fingerprint", model.DefaultClientFingerprint)
		v.ALPN = o.alpn()
		v.ECHOpts = o.ech()
		v.RealityOpts = o.reality()
		v.SkipCertVerify = o.skipCertVerify()
	}
	if *v.UDP {
		v.PacketEncoding = o.str("packet-encoding")
	}
	return v, nil
}

func decodeTrojan(o object) (model.Options, error) {
	password, err := o.must("password")
	if err != nil {
		return nil, err
	}
	t := &model.Trojan{
		Password:          password,
		Transport:         decodeTransport(o),
		SNI:               o.str("sni"),
		Fingerprint:       o.str("fingerprint"),
		Certificate:       o.str("certificate"),
		PrivateKey:        o.str("private-key"),
		ClientFingerprint: o.strOr("client-fingerprint", model.DefaultClientFingerprint),
		ALPN:              o.alpn(),
		ECHOpts:           o.ech(),
		RealityOpts:       o.reality(),
		SkipCertVerify:    o.skipCertVerify(),
		UDP:               o.udp(),
	}
	if t.Network == "http" || t.Network == "h2" {
		return nil, fmt.Errorf("%w: trojan over %s", model.ErrUnsupported, t.Network)
	}
	if ss, ok := o.child("ss-opts"); ok && ss.truthy("enabled") && ss.truthy("password") {
		t.SSOpts = &model.TrojanSSOpts{
			Enabled:  true,
			Method:   ss.str("method"),
			Password: toString(ss["password"]),
		}
	}
	return t, nil
}

func decodeHysteria(o object) (model.Options, error) {
	h := &model.Hysteria{
		Ports:               o.str("ports"),
		AuthStr:             o.str("auth-str"),
		HopInterval:         o.integer("hop-interval"),
		Up:                  toString(o["up"]),
		Down:                toString(o["down"]),
		Obfs:                o.str("obfs"),
		Protocol:            o.str("protocol"),
		SNI:                 o.str("sni"),
		Fingerprint:         o.str("fingerprint"),
		Certificate:         o.str("certificate"),
		PrivateKey:          o.str("private-key"),
		ALPN:                o.alpn(),
		ECHOpts:             o.ech(),
		SkipCertVerify:      o.skipCertVerify(),
		RecvWindowConn:      o.integer("recv-window-conn"),
		RecvWindow:          o.integer("recv-window"),
		DisableMTUDiscovery: o.truthy("disable-mtu-discovery"),
		FastOpen:            o.truthy("fast-open"),
	}
	if h.AuthStr == "" && o.truthy("auth_str") {
		h.AuthStr = toString(o["auth_str"])
	}
	return h, nil
}

func decodeHysteria2(o object) (model.Options, error) {
	password := o["password"]
	if !truthy(password) {
		password = o["auth"]
	}
	return &model.Hysteria2{
		Ports:                          o.str("ports"),
		Password:                       toString(password),
		HopInterval:                    o.integer("hop-interval"),
		Up:                             o.str("up"),
		Down:                           o.str("down"),
		Obfs:                           o.str("obfs"),
		ObfsPassword:                   o.str("obfs-password"),
		SNI:                            o.str("sni"),
		Fingerprint:                    o.str("fingerprint"),
		Certificate:                    o.str("certificate"),
		PrivateKey:                     o.str("private-key"),
		ALPN:                           o.alpn(),
		ECHOpts:                        o.ech(),
		SkipCertVerify:                 o.skipCertVerify(),
		CWND:                           o.integer("cwnd"),
		UDPMTU:                         o.integer("udp-mtu"),
		InitialStreamReceiveWindow:     o.integer("initial-stream-receive-window"),
		MaxStreamReceiveWindow:         o.integer("max-stream-receive-window"),
		InitialConnectionReceiveWindow: o.integer("initial-connection-receive-window"),
		MaxConnectionReceiveWindow:     o.integer("max-connection-receive-window"),
	}, nil
}

func decodeTUIC(o object) (model.Options, error) {
	return &model.TUIC{
		Token:                 o.str("token"),
		UUID:                  o.str("uuid"),
		Password:              o.str("password"),
		IP:                    o.str("ip"),
		CongestionController:  o.str("congestion-controller"),
		UDPRelayMode:          o.str("udp-relay-mode"),
		SNI:                   o.str("sni"),
		Fingerprint:           o.str("fingerprint"),
		Certificate:           o.str("certificate"),
		PrivateKey:            o.str("private-key"),
		ALPN:                  o.alpn(),
		ECHOpts:               o.ech(),
		SkipCertVerify:        o.skipCertVerify(),
		MaxUDPRelayPacketSize: o.integer("max-udp-relay-packet-size"),
		HeartbeatInterval:     o.integer("heartbeat-interval"),
		RequestTimeout:        o.integer("request-timeout"),
		MaxOpenStreams:        o.integer("max-open-streams"),
		CWND:                  o.integer("cwnd"),
		RecvWindowConn:        o.integer("recv-window-conn"),
		RecvWindow:            o.integer("recv-window"),
		MaxDatagramFrameSize:  o.integer("max-datagram-frame-size"),
		UDPOverStreamVersion:  o.integer("udp-over-stream-version"),
		ReduceRTT:             o.truthy("reduce-rtt"),
		FastOpen:              o.truthy("fast-open"),
		DisableMTUDiscovery:   o.truthy("disable-mtu-discovery"),
		UDPOverStream:         o.truthy("udp-over-stream"),
		DisableSNI:            o.truthy("disable-sni"),
	}, nil
}

func decodeWireGuard(o object) (model.Options, error) {
	key, err := o.must("private-key")
	if err != nil {
		return nil, err
	}
	w := &model.WireGuard{
		PrivateKey:              key,
		PublicKey:               o.str("public-key"),
		PreSharedKey:            o.str("pre-shared-key"),
		IP:                      o.str("ip"),
		IPv6:                    o.str("ipv6"),
		AllowedIPs:              o.nonEmptyList("allowed-ips"),
		Workers:                 o.integer("workers"),
		MTU:                     o.integer("mtu"),
		PersistentKeepalive:     o.integer("persistent-keepalive"),
		RefreshServerIPInterval: o.integer("refresh-server-ip-interval"),
		RemoteDNSResolve:        o.truthy("remote-dns-resolve"),
		DNS:                     o.nonEmptyList("dns"),
		UDP:                     o.udp(),
	}
	if arr, ok := o["reserved"].([]any); ok {
		for _, v := range arr {
			n, _ := toNumber(v)
			w.Reserved = append(w.Reserved, int(n))
		}
	}
	if m, ok := o.child("amnezia-wg-option"); ok {
		w.AmneziaWGOption = m
	}
	return w, nil
}

func decodeSSH(o object) (model.Options, error) {
	user, err := o.must("username")
	if err != nil {
		return nil, err
	}
	return &model.SSH{
		Username:             user,
		Password:             o.str("password"),
		PrivateKey:           o.str("private-key"),
		PrivateKeyPassphrase: o.str("private-key-passphrase"),
		HostKey:              o.nonEmptyList("host-key"),
		HostKeyAlgorithms:    o.nonEmptyList("host-key-algorithms"),
	}, nil
}

func decodeAnyTLS(o object) (model.Options, error) {
	password, err := o.must("password")
	if err != nil {
		return nil, err
	}
	return &model.AnyTLS{
		Password:                 password,
		SNI:                      o.str("sni"),
		Fingerprint:              o.str("fingerprint"),
		Certificate:              o.str("certificate"),
		PrivateKey:               o.str("private-key"),
		ClientFingerprint:        o.strOr("client-fingerprint", model.DefaultClientFingerprint),
		ALPN:                     o.alpn(),
		ECHOpts:                  o.ech(),
		SkipCertVerify:           o.skipCertVerify(),
		UDP:                      o.udp(),
		IdleSessionCheckInterval: o.integer("idle-session-check-interval"),
		IdleSessionTimeout:       o.integer("idle-session-timeout"),
		MinIdleSession:           o.integer("min-idle-session"),
	}, nil
}

func decodeSudoku(o object) (model.Options, error) {
	key, err := o.must("key")
	if err != nil {
		return nil, err
	}
	s := &model.Sudoku{
		Key:               key,
		AEADMethod:        o.str("aead-method"),
		TableType:         o.str("table-type"),
		CustomTable:       o.str("custom-table"),
		PaddingMin:        o.integer("padding-min"),
		PaddingMax:        o.integer("padding-max"),
		HTTPMask:          o.truthy("http-mask"),
		HTTPMaskMode:      o.str("http-mask-mode"),
		HTTPMaskTLS:       o.truthy("http-mask-tls"),
		HTTPMaskHost:      o.str("http-mask-host"),
		PathRoot:          o.str("path-root"),
		HTTPMaskMultiplex: o.str("http-mask-multiplex"),
	}
	s.CustomTables, _ = o.list("custom-tables")
	if v, ok := o["enable-pure-downlink"].(bool); ok && !v {
		s.EnablePureDownlink = model.Bool(false)
	}
	return s, nil
}
