package model

// Field order in these structs is the wire order of the dump. Flags that are
// meaningful when explicitly false are *bool; everything else is omitted when
// zero.

// Transport is the stream transport block shared by vmess, vless and trojan.
type Transport struct {
	Network  string    `json:"network,omitempty"`
	WSOpts   *WSOpts   `json:"ws-opts,omitempty"`
	GrpcOpts *GrpcOpts `json:"grpc-opts,omitempty"`
	HTTPOpts *HTTPOpts `json:"http-opts,omitempty"`
	H2Opts   *H2Opts   `json:"h2-opts,omitempty"`
}

type WSOpts struct {
	Path                     string            `json:"path,omitempty"`
	Headers                  map[string]string `json:"headers,omitempty"`
	MaxEarlyData             int               `json:"max-early-data,omitempty"`
	EarlyDataHeaderName      string            `json:"early-data-header-name,omitempty"`
	V2rayHTTPUpgrade         bool              `json:"v2ray-http-upgrade,omitempty"`
	V2rayHTTPUpgradeFastOpen bool              `json:"v2ray-http-upgrade-fast-open,omitempty"`
}

type GrpcOpts struct {
	ServiceName string `json:"grpc-service-name,omitempty"`
	UserAgent   string `json:"grpc-user-agent,omitempty"`
}

type HTTPOpts struct {
	Method  string              `json:"method,omitempty"`
	Path    []string            `json:"path,omitempty"`
	Headers map[string][]string `json:"headers,omitempty"`
}

type H2Opts struct {
	Path string   `json:"path,omitempty"`
	Host []string `json:"host,omitempty"`
}

type RealityOpts struct {
	PublicKey             string `json:"public-key"`
	ShortID               string `json:"short-id"`
	SupportX25519MLKEM768 bool   `json:"support-x25519mlkem768,omitempty"`
}

type ECHOpts struct {
	Enable bool   `json:"enable"`
	Config string `json:"config,omitempty"`
}

// HTTP is an HTTP(S) CONNECT proxy.
type HTTP struct {
	Username       string            `json:"username,omitempty"`
	Password       string            `json:"password,omitempty"`
	TLS            bool              `json:"tls,omitempty"`
	SNI            string            `json:"sni,omitempty"`
	Fingerprint    string            `json:"fingerprint,omitempty"`
	Certificate    string            `json:"certificate,omitempty"`
	PrivateKey     string            `json:"private-key,omitempty"`
	SkipCertVerify *bool             `json:"skip-cert-verify,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
}

func (*HTTP) Kind() Type { return TypeHTTP }

type Socks5 struct {
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	TLS            bool   `json:"tls,omitempty"`
	Fingerprint    string `json:"fingerprint,omitempty"`
	Certificate    string `json:"certificate,omitempty"`
	PrivateKey     string `json:"private-key,omitempty"`
	SkipCertVerify *bool  `json:"skip-cert-verify,omitempty"`
	UDP            *bool  `json:"udp,omitempty"`
}

func (*Socks5) Kind() Type { return TypeSocks5 }

// Shadowsocks carries an optional SIP003 plugin; PluginOpts holds the
// variant matching Plugin.
type Shadowsocks struct {
	Cipher            string        `json:"cipher"`
	Password          string        `json:"password"`
	Plugin            string        `json:"plugin,omitempty"`
	ClientFingerprint string        `json:"client-fingerprint,omitempty"`
	PluginOpts        PluginOptions `json:"plugin-opts,omitempty"`
	UDPOverTCP        bool          `json:"udp-over-tcp,omitempty"`
	UDPOverTCPVersion int           `json:"udp-over-tcp-version,omitempty"`
	UDP               *bool         `json:"udp,omitempty"`
}

func (*Shadowsocks) Kind() Type { return TypeSS }

const (
	PluginObfs      = "obfs"
	PluginV2ray     = "v2ray-plugin"
	PluginGost      = "gost-plugin"
	PluginShadowTLS = "shadow-tls"
	PluginRestls    = "restls"
	PluginKcptun    = "kcptun"
)

type PluginOptions interface {
	pluginOptions()
}

type ObfsPlugin struct {
	Mode string `json:"mode"`
	Host string `json:"host,omitempty"`
}

// V2rayPlugin also serves gost-plugin, which shares the option layout.
type V2rayPlugin struct {
	Mode                     string            `json:"mode"`
	Host                     string            `json:"host,omitempty"`
	Path                     string            `json:"path,omitempty"`
	TLS                      bool              `json:"tls,omitempty"`
	ECHOpts                  *ECHOpts          `json:"ech-opts,omitempty"`
	Fingerprint              string            `json:"fingerprint,omitempty"`
	Certificate              string            `json:"certificate,omitempty"`
	PrivateKey               string            `json:"private-key,omitempty"`
	SkipCertVerify           *bool             `json:"skip-cert-verify,omitempty"`
	Headers                  map[string]string `json:"headers,omitempty"`
	Mux                      *bool             `json:"mux,omitempty"`
	V2rayHTTPUpgrade         bool              `json:"v2ray-http-upgrade,omitempty"`
	V2rayHTTPUpgradeFastOpen bool              `json:"v2ray-http-upgrade-fast-open,omitempty"`
}

type ShadowTLSPlugin struct {
	Host           string   `json:"host"`
	Password       string   `json:"password,omitempty"`
	Version        int      `json:"version,omitempty"`
	Fingerprint    string   `json:"fingerprint,omitempty"`
	Certificate    string   `json:"certificate,omitempty"`
	PrivateKey     string   `json:"private-key,omitempty"`
	ALPN           []string `json:"alpn,omitempty"`
	SkipCertVerify *bool    `json:"skip-cert-verify,omitempty"`
}

type RestlsPlugin struct {
	Host         string `json:"host"`
	Password     string `json:"password"`
	VersionHint  string `json:"version-hint"`
	RestlsScript string `json:"restls-script,omitempty"`
}

// KcptunPlugin keeps numeric knobs as pointers: zero is a valid setting.
type KcptunPlugin struct {
	Key         string `json:"key,omitempty"`
	Crypt       string `json:"crypt,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Conn        *int   `json:"conn,omitempty"`
	AutoExpire  *int   `json:"autoexpire,omitempty"`
	ScavengeTTL *int   `json:"scavengettl,omitempty"`
	MTU         *int   `json:"mtu,omitempty"`
	RateLimit   *int   `json:"ratelimit,omitempty"`
	SndWnd      *int   `json:"sndwnd,omitempty"`
	RcvWnd      *int   `json:"rcvwnd,omitempty"`
	DataShard   *int   `json:"datashard,omitempty"`
	ParityShard *int   `json:"parityshard,omitempty"`
	DSCP        *int   `json:"dscp,omitempty"`
	NoComp      bool   `json:"nocomp,omitempty"`
	AckNodelay  bool   `json:"acknodelay,omitempty"`
	NoDelay     *int   `json:"nodelay,omitempty"`
	Interval    *int   `json:"interval,omitempty"`
	Resend      *int   `json:"resend,omitempty"`
	NC          *int   `json:"nc,omitempty"`
	SockBuf     *int   `json:"sockbuf,omitempty"`
	SmuxVer     *int   `json:"smuxver,omitempty"`
	SmuxBuf     *int   `json:"smuxbuf,omitempty"`
	FrameSize   *int   `json:"framesize,omitempty"`
	StreamBuf   *int   `json:"streambuf,omitempty"`
	KeepAlive   *int   `json:"keepalive,omitempty"`
}

func (*ObfsPlugin) pluginOptions()      {}
func (*V2rayPlugin) pluginOptions()     {}
func (*ShadowTLSPlugin) pluginOptions() {}
func (*RestlsPlugin) pluginOptions()    {}
func (*KcptunPlugin) pluginOptions()    {}

type ShadowsocksR struct {
	Cipher        string `json:"cipher"`
	Password      string `json:"password"`
	Obfs          string `json:"obfs"`
	Protocol      string `json:"protocol"`
	ObfsParam     string `json:"obfs-param,omitempty"`
	ProtocolParam string `json:"protocol-param,omitempty"`
	UDP           *bool  `json:"udp,omitempty"`
}

func (*ShadowsocksR) Kind() Type { return TypeSSR }

type Mieru struct {
	PortRange     string `json:"port-range,omitempty"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Transport     string `json:"transport"`
	Multiplexing  string `json:"multiplexing,omitempty"`
	HandshakeMode string `json:"handshake-mode,omitempty"`
	UDP           *bool  `json:"udp,omitempty"`
}

func (*Mieru) Kind() Type { return TypeMieru }

type Snell struct {
	PSK      string            `json:"psk"`
	Version  int               `json:"version,omitempty"`
	ObfsOpts map[string]string `json:"obfs-opts,omitempty"`
	UDP      *bool             `json:"udp,omitempty"`
}

func (*Snell) Kind() Type { return TypeSnell }

type VMess struct {
	UUID                string `json:"uuid"`
	AlterID             int    `json:"alterId"`
	Cipher              string `json:"cipher"`
	GlobalPadding       bool   `json:"global-padding,omitempty"`
	AuthenticatedLength bool   `json:"authenticated-length,omitempty"`
	Transport
	TLS               bool         `json:"tls,omitempty"`
	ServerName        string       `json:"servername,omitempty"`
	Fingerprint       string       `json:"fingerprint,omitempty"`
	Certificate       string       `json:"certificate,omitempty"`
	PrivateKey        string       `json:"private-key,omitempty"`
	ClientFingerprint string       `json:"client-fingerprint,omitempty"`
	ALPN              []string     `json:"alpn,omitempty"`
	ECHOpts           *ECHOpts     `json:"ech-opts,omitempty"`
	RealityOpts       *RealityOpts `json:"reality-opts,omitempty"`
	SkipCertVerify    *bool        `json:"skip-cert-verify,omitempty"`
	UDP               *bool        `json:"udp,omitempty"`
	PacketEncoding    string       `json:"packet-encoding,omitempty"`
}

func (*VMess) Kind() Type { return TypeVMess }

type VLESS struct {
	UUID       string `json:"uuid"`
	Flow       string `json:"flow,omitempty"`
	Encryption string `json:"encryption,omitempty"`
	Transport
	TLS               bool         `json:"tls,omitempty"`
	ServerName        string       `json:"servername,omitempty"`
	Fingerprint       string       `json:"fingerprint,omitempty"`
	Certificate       string       `json:"certificate,omitempty"`
	PrivateKey        string       `json:"private-key,omitempty"`
	ClientFingerprint string       `json:"client-fingerprint,omitempty"`
	ALPN              []string     `json:"alpn,omitempty"`
	ECHOpts           *ECHOpts     `json:"ech-opts,omitempty"`
	RealityOpts       *RealityOpts `json:"reality-opts,omitempty"`
	SkipCertVerify    *bool        `json:"skip-cert-verify,omitempty"`
	UDP               *bool        `json:"udp,omitempty"`
	PacketEncoding    string       `json:"packet-encoding,omitempty"`
}

func (*VLESS) Kind() Type { return TypeVLESS }

type TrojanSSOpts struct {
	Enabled  bool   `json:"enabled"`
	Method   string `json:"method,omitempty"`
	Password string `json:"password,omitempty"`
}

type Trojan struct {
	Password string `json:"password"`
	Transport
	SNI               string        `json:"sni,omitempty"`
	Fingerprint       string        `json:"fingerprint,omitempty"`
	Certificate       string        `json:"certificate,omitempty"`
	PrivateKey        string        `json:"private-key,omitempty"`
	ClientFingerprint string        `json:"client-fingerprint,omitempty"`
	ALPN              []string      `json:"alpn,omitempty"`
	ECHOpts           *ECHOpts      `json:"ech-opts,omitempty"`
	RealityOpts       *RealityOpts  `json:"reality-opts,omitempty"`
	SkipCertVerify    *bool         `json:"skip-cert-verify,omitempty"`
	SSOpts            *TrojanSSOpts `json:"ss-opts,omitempty"`
	UDP               *bool         `json:"udp,omitempty"`
}

func (*Trojan) Kind() Type { return TypeTrojan }

type Hysteria struct {
	Ports               string   `json:"ports,omitempty"`
	AuthStr             string   `json:"auth-str,omitempty"`
	HopInterval         int      `json:"hop-interval,omitempty"`
	Up                  string   `json:"up"`
	Down                string   `json:"down"`
	Obfs                string   `json:"obfs,omitempty"`
	Protocol            string   `json:"protocol,omitempty"`
	SNI                 string   `json:"sni,omitempty"`
	Fingerprint         string   `json:"fingerprint,omitempty"`
	Certificate         string   `json:"certificate,omitempty"`
	PrivateKey          string   `json:"private-key,omitempty"`
	ALPN                []string `json:"alpn,omitempty"`
	ECHOpts             *ECHOpts `json:"ech-opts,omitempty"`
	SkipCertVerify      *bool    `json:"skip-cert-verify,omitempty"`
	RecvWindowConn      int      `json:"recv-window-conn,omitempty"`
	RecvWindow          int      `json:"recv-window,omitempty"`
	DisableMTUDiscovery bool     `json:"disable-mtu-discovery,omitempty"`
	FastOpen            bool     `json:"fast-open,omitempty"`
}

func (*Hysteria) Kind() Type { return TypeHysteria }

type Hysteria2 struct {
	Ports                          string   `json:"ports,omitempty"`
	Password                       string   `json:"password"`
	HopInterval                    int      `json:"hop-interval,omitempty"`
	Up                             string   `json:"up,omitempty"`
	Down                           string   `json:"down,omitempty"`
	Obfs                           string   `json:"obfs,omitempty"`
	ObfsPassword                   string   `json:"obfs-password,omitempty"`
	SNI                            string   `json:"sni,omitempty"`
	Fingerprint                    string   `json:"fingerprint,omitempty"`
	Certificate                    string   `json:"certificate,omitempty"`
	PrivateKey                     string   `json:"private-key,omitempty"`
	ALPN                           []string `json:"alpn,omitempty"`
	ECHOpts                        *ECHOpts `json:"ech-opts,omitempty"`
	SkipCertVerify                 *bool    `json:"skip-cert-verify,omitempty"`
	CWND                           int      `json:"cwnd,omitempty"`
	UDPMTU                         int      `json:"udp-mtu,omitempty"`
	InitialStreamReceiveWindow     int      `json:"initial-stream-receive-window,omitempty"`
	MaxStreamReceiveWindow         int      `json:"max-stream-receive-window,omitempty"`
	InitialConnectionReceiveWindow int      `json:"initial-connection-receive-window,omitempty"`
	MaxConnectionReceiveWindow     int      `json:"max-connection-receive-window,omitempty"`
}

func (*Hysteria2) Kind() Type { return TypeHysteria2 }

type TUIC struct {
	Token                 string   `json:"token,omitempty"`
	UUID                  string   `json:"uuid,omitempty"`
	Password              string   `json:"password,omitempty"`
	IP                    string   `json:"ip,omitempty"`
	CongestionController  string   `json:"congestion-controller,omitempty"`
	UDPRelayMode          string   `json:"udp-relay-mode,omitempty"`
	SNI                   string   `json:"sni,omitempty"`
	Fingerprint           string   `json:"fingerprint,omitempty"`
	Certificate           string   `json:"certificate,omitempty"`
	PrivateKey            string   `json:"private-key,omitempty"`
	ALPN                  []string `json:"alpn,omitempty"`
	ECHOpts               *ECHOpts `json:"ech-opts,omitempty"`
	SkipCertVerify        *bool    `json:"skip-cert-verify,omitempty"`
	MaxUDPRelayPacketSize int      `json:"max-udp-relay-packet-size,omitempty"`
	HeartbeatInterval     int      `json:"heartbeat-interval,omitempty"`
	RequestTimeout        int      `json:"request-timeout,omitempty"`
	MaxOpenStreams        int      `json:"max-open-streams,omitempty"`
	CWND                  int      `json:"cwnd,omitempty"`
	RecvWindowConn        int      `json:"recv-window-conn,omitempty"`
	RecvWindow            int      `json:"recv-window,omitempty"`
	MaxDatagramFrameSize  int      `json:"max-datagram-frame-size,omitempty"`
	UDPOverStreamVersion  int      `json:"udp-over-stream-version,omitempty"`
	ReduceRTT             bool     `json:"reduce-rtt,omitempty"`
	FastOpen              bool     `json:"fast-open,omitempty"`
	DisableMTUDiscovery   bool     `json:"disable-mtu-discovery,omitempty"`
	UDPOverStream         bool     `json:"udp-over-stream,omitempty"`
	DisableSNI            bool     `json:"disable-sni,omitempty"`
}

func (*TUIC) Kind() Type { return TypeTUIC }

type WireGuard struct {
	PrivateKey              string         `json:"private-key"`
	PublicKey               string         `json:"public-key,omitempty"`
	PreSharedKey            string         `json:"pre-shared-key,omitempty"`
	IP                      string         `json:"ip,omitempty"`
	IPv6                    string         `json:"ipv6,omitempty"`
	Reserved                []int          `json:"reserved,omitempty"`
	AllowedIPs              []string       `json:"allowed-ips,omitempty"`
	Workers                 int            `json:"workers,omitempty"`
	MTU                     int            `json:"mtu,omitempty"`
	PersistentKeepalive     int            `json:"persistent-keepalive,omitempty"`
	RefreshServerIPInterval int            `json:"refresh-server-ip-interval,omitempty"`
	AmneziaWGOption         map[string]any `json:"amnezia-wg-option,omitempty"`
	RemoteDNSResolve        bool           `json:"remote-dns-resolve,omitempty"`
	DNS                     []string       `json:"dns,omitempty"`
	UDP                     *bool          `json:"udp,omitempty"`
}

func (*WireGuard) Kind() Type { return TypeWireGuard }

type SSH struct {
	Username             string   `json:"username"`
	Password             string   `json:"password,omitempty"`
	PrivateKey           string   `json:"private-key,omitempty"`
	PrivateKeyPassphrase string   `json:"private-key-passphrase,omitempty"`
	HostKey              []string `json:"host-key,omitempty"`
	HostKeyAlgorithms    []string `json:"host-key-algorithms,omitempty"`
}

func (*SSH) Kind() Type { return TypeSSH }

type AnyTLS struct {
	Password                 string   `json:"password"`
	SNI                      string   `json:"sni,omitempty"`
	Fingerprint              string   `json:"fingerprint,omitempty"`
	Certificate              string   `json:"certificate,omitempty"`
	PrivateKey               string   `json:"private-key,omitempty"`
	ClientFingerprint        string   `json:"client-fingerprint,omitempty"`
	ALPN                     []string `json:"alpn,omitempty"`
	ECHOpts                  *ECHOpts `json:"ech-opts,omitempty"`
	SkipCertVerify           *bool    `json:"skip-cert-verify,omitempty"`
	UDP                      *bool    `json:"udp,omitempty"`
	IdleSessionCheckInterval int      `json:"idle-session-check-interval,omitempty"`
	IdleSessionTimeout       int      `json:"idle-session-timeout,omitempty"`
	MinIdleSession           int      `json:"min-idle-session,omitempty"`
}

func (*AnyTLS) Kind() Type { return TypeAnyTLS }

type Sudoku struct {
	Key                string   `json:"key"`
	AEADMethod         string   `json:"aead-method,omitempty"`
	TableType          string   `json:"table-type,omitempty"`
	CustomTable        string   `json:"custom-table,omitempty"`
	CustomTables       []string `json:"custom-tables,omitempty"`
	PaddingMin         int      `json:"padding-min,omitempty"`
	PaddingMax         int      `json:"padding-max,omitempty"`
	EnablePureDownlink *bool    `json:"enable-pure-downlink,omitempty"`
	HTTPMask           bool     `json:"http-mask,omitempty"`
	HTTPMaskMode       string   `json:"http-mask-mode,omitempty"`
	HTTPMaskTLS        bool     `json:"http-mask-tls,omitempty"`
	HTTPMaskHost       string   `json:"http-mask-host,omitempty"`
	PathRoot           string   `json:"path-root,omitempty"`
	HTTPMaskMultiplex  string   `json:"http-mask-multiplex,omitempty"`
}

func (*Sudoku) Kind() Type { return TypeSudoku }
