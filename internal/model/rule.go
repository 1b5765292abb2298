package model

type Rule struct {
	Type      string // e.g. "DOMAIN-SUFFIX", "IP-CIDR", "GEOIP", "MATCH"
	Value     string // domain/suffix/keyword/cidr/cc; empty for MATCH
	Action    string // DIRECT/REJECT/group name
	NoResolve bool   // IP-based rules only
}
