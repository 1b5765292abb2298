package model

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// Protocols and ciphers understood by the legacy (non-Meta) Clash core.
var (
	legacyTypes = map[Type]bool{
		TypeHTTP: true, TypeSocks5: true, TypeSS: true, TypeSSR: true, TypeSnell: true,
		TypeVMess: true, TypeVLESS: true, TypeTrojan: true, TypeWireGuard: true,
	}
	legacySSCiphers = setOf(
		"dummy", "rc4-md5",
		"aes-128-ctr", "aes-192-ctr", "aes-256-ctr",
		"aes-128-cfb", "aes-192-cfb", "aes-256-cfb",
		"aes-128-gcm", "aes-192-gcm", "aes-256-gcm",
		"chacha20-ietf", "xchacha20", "chacha20-ietf-poly1305", "xchacha20-ietf-poly1305",
	)
	legacySSRCiphers = setOf(
		"dummy", "rc4-md5",
		"aes-128-ctr", "aes-192-ctr", "aes-256-ctr",
		"aes-128-cfb", "aes-192-cfb", "aes-256-cfb",
		"chacha20-ietf", "xchacha20",
	)
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

// RequireLegacySupport returns an error wrapping ErrUnsupported when p uses a
// protocol, cipher or UUID form the legacy core cannot load.
func RequireLegacySupport(p *Proxy) error {
	if !legacyTypes[p.Type] {
		return fmt.Errorf("%w type: %s", ErrUnsupported, p.Type)
	}
	switch o := p.Options.(type) {
	case *Shadowsocks:
		if !legacySSCiphers[o.Cipher] {
			return fmt.Errorf("%w cipher: %s", ErrUnsupported, o.Cipher)
		}
	case *ShadowsocksR:
		if !legacySSRCiphers[o.Cipher] {
			return fmt.Errorf("%w cipher: %s", ErrUnsupported, o.Cipher)
		}
	case *VMess:
		if !isCanonicalUUID(o.UUID) {
			return fmt.Errorf("%w uuid: %s", ErrUnsupported, o.UUID)
		}
	case *VLESS:
		if !isCanonicalUUID(o.UUID) {
			return fmt.Errorf("%w uuid: %s", ErrUnsupported, o.UUID)
		}
	}
	return nil
}

// isCanonicalUUID accepts only the hyphenated 8-4-4-4-12 hex form.
func isCanonicalUUID(s string) bool {
	u, err := uuid.FromString(s)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.String(), s)
}
