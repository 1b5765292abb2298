package uri

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/John-Robertt/cvt/internal/codec"
	"github.com/John-Robertt/cvt/internal/model"
)

// netParams are the transport keys found in share links. vmess JSON uses
// net/type, the other schemes use type/headerType.
type netParams struct {
	net, typ, headerType, host, path, serviceName string
}

func networkFrom(p netParams) (model.Transport, error) {
	network := p.net
	if network == "" {
		network = p.typ
	}
	ht := p.headerType
	if ht == "" {
		ht = p.typ
	}
	if ht == "http" {
		network = "http"
	}
	var hosts []string
	if p.host != "" {
		hosts = strings.Split(p.host, ",")
	}
	path := p.path
	if path == "" {
		path = "/"
	}

	switch network {
	case "", "tcp", "none":
		return model.Transport{}, nil
	case "ws", "httpupgrade":
		ws := &model.WSOpts{Path: path, V2rayHTTPUpgrade: network == "httpupgrade"}
		if len(hosts) > 0 {
			ws.Headers = map[string]string{"Host": hosts[0]}
		}
		return model.Transport{Network: "ws", WSOpts: ws}, nil
	case "grpc":
		name := p.serviceName
		if name == "" {
			name = path
		}
		return model.Transport{Network: "grpc", GrpcOpts: &model.GrpcOpts{ServiceName: name}}, nil
	case "http":
		h := &model.HTTPOpts{Path: []string{path}}
		if len(hosts) > 0 {
			h.Headers = map[string][]string{"Host": hosts}
		}
		return model.Transport{Network: "http", HTTPOpts: h}, nil
	case "h2":
		return model.Transport{Network: "h2", H2Opts: &model.H2Opts{Path: path, Host: hosts}}, nil
	}
	return model.Transport{}, fmt.Errorf("%w network: %s", model.ErrUnsupported, network)
}

// networkTo writes t using the given key names for network, header type and
// service name.
func networkTo(t model.Transport, kNet, kType, kServiceName string) params {
	out := newParams()
	switch t.Network {
	case "ws":
		ws := t.WSOpts
		if ws == nil {
			ws = &model.WSOpts{}
		}
		if ws.V2rayHTTPUpgrade {
			out.set(kNet, "httpupgrade")
		} else {
			out.set(kNet, "ws")
		}
		out.setIf("host", ws.Headers["Host"])
		out.setIf("path", ws.Path)
	case "grpc":
		out.set(kNet, "grpc")
		if t.GrpcOpts != nil {
			out.set(kServiceName, t.GrpcOpts.ServiceName)
		}
	case "http":
		out.set(kNet, "tcp")
		out.set(kType, "http")
		if h := t.HTTPOpts; h != nil {
			out.setIf("host", strings.Join(h.Headers["Host"], ","))
			if len(h.Path) > 0 {
				out.setIf("path", h.Path[0])
			}
		}
	case "h2":
		out.set(kNet, "h2")
		if h := t.H2Opts; h != nil {
			out.setIf("host", strings.Join(h.Host, ","))
			out.setIf("path", h.Path)
		}
	}
	return out
}

func networkToStd(t model.Transport) params {
	return networkTo(t, "type", "headerType", "serviceName")
}

func realityFrom(pbk, sid string) *model.RealityOpts {
	if pbk == "" {
		return nil
	}
	return &model.RealityOpts{PublicKey: pbk, ShortID: sid}
}

func realityTo(r *model.RealityOpts, out params) bool {
	if r == nil {
		return false
	}
	out.set("security", "reality")
	out.set("pbk", r.PublicKey)
	out.set("sid", r.ShortID)
	return true
}

// pluginFrom reads the SIP003 "plugin" query value.
func pluginFrom(s string) (string, model.PluginOptions, error) {
	if s == "" {
		return "", nil, nil
	}
	parts := strings.Split(s, ";")
	name := parts[0]
	opts := map[string]string{}
	present := map[string]bool{}
	for _, kv := range parts[1:] {
		k, v, _ := strings.Cut(kv, "=")
		opts[k] = v
		present[k] = true
	}
	switch name {
	case "simple-obfs", "obfs-local":
		return model.PluginObfs, &model.ObfsPlugin{Mode: opts["obfs"], Host: opts["obfs-host"]}, nil
	case model.PluginV2ray:
		o := &model.V2rayPlugin{Mode: opts["mode"], Host: opts["host"], Path: opts["path"]}
		if present["tls"] {
			o.TLS = true
			o.SkipCertVerify = model.Bool(true)
		}
		if !present["mux"] {
			o.Mux = model.Bool(false)
		}
		return name, o, nil
	case model.PluginShadowTLS:
		o := &model.ShadowTLSPlugin{Host: opts["host"], Password: opts["password"], SkipCertVerify: model.Bool(true)}
		if v, err := strconv.Atoi(opts["version"]); err == nil {
			o.Version = v
		}
		return name, o, nil
	}
	return "", nil, fmt.Errorf("%w plugin: %s", model.ErrUnsupported, name)
}

func pluginTo(ss *model.Shadowsocks) (string, error) {
	if ss.Plugin == "" {
		return "", nil
	}
	var b strings.Builder
	switch o := ss.PluginOpts.(type) {
	case *model.ObfsPlugin:
		b.WriteString("obfs-local;obfs=" + o.Mode)
		if o.Host != "" {
			b.WriteString(";obfs-host=" + o.Host)
		}
	case *model.V2rayPlugin:
		if ss.Plugin != model.PluginV2ray {
			return "", fmt.Errorf("%w plugin: %s", model.ErrUnsupported, ss.Plugin)
		}
		b.WriteString("v2ray-plugin;mode=" + o.Mode)
		if o.TLS {
			b.WriteString(";tls")
		}
		if o.Mux == nil || *o.Mux {
			b.WriteString(";mux=4")
		}
		if o.Host != "" {
			b.WriteString(";host=" + o.Host)
		}
		if o.Path != "" {
			b.WriteString(";path=" + o.Path)
		}
	case *model.ShadowTLSPlugin:
		b.WriteString("shadow-tls;host=" + o.Host + ";password=" + o.Password)
		if o.Version != 0 {
			b.WriteString(";version=" + strconv.Itoa(o.Version))
		}
	default:
		return "", fmt.Errorf("%w plugin: %s", model.ErrUnsupported, ss.Plugin)
	}
	return b.String(), nil
}

var reBandwidth = regexp.MustCompile(`^(\d+)\s*([KMGT])?([Bb])ps$`)

// toMbps converts a bandwidth like "100 Mbps" or "10MBps" to a bare number of
// megabits per second. Other spellings pass through.
func toMbps(s string) string {
	m := reBandwidth.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	d, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return s
	}
	exp := strings.Index("KMGT", m[2]) - 1
	if m[2] == "" {
		exp = -2
	}
	v := d * math.Pow(1e3, float64(exp))
	if m[3] == "B" {
		v *= 8
	}
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// decodeUser percent-decodes a userinfo component.
func decodeUser(s string) string { return codec.URLDecode(s) }
