package torrentfile

import (
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// SchemeMagnet is the URI scheme of magnet links.
const SchemeMagnet = "magnet"

const xtPrefixV1 = "urn:btih:"

// ErrInvalidMagnetLink is returned for URIs that are not usable magnet
// links.
var ErrInvalidMagnetLink = errors.New("invalid magnet link")

// MagnetLink is a parsed magnet URI.
type MagnetLink struct {
	URI string `json:"uri" yaml:"uri"`

	// InfoHashV1 is the lowercase hex BitTorrent v1 info hash.
	InfoHashV1  string `json:"info_hash" yaml:"info_hash"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`

	// Trackers holds one tier per tr parameter.
	Trackers [][]string `json:"trackers,omitempty" yaml:"trackers,omitempty"`
}

// ParseMagnetLink parses uri. The info hash may be hex or base32 encoded.
func ParseMagnetLink(uri string) (*MagnetLink, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMagnetLink, err)
	}
	if !strings.EqualFold(u.Scheme, SchemeMagnet) {
		return nil, fmt.Errorf("%w: scheme must be %s", ErrInvalidMagnetLink, SchemeMagnet)
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMagnetLink, err)
	}

	link := &MagnetLink{URI: uri, DisplayName: query.Get("dn")}

	for _, xt := range query["xt"] {
		if !strings.HasPrefix(strings.ToLower(xt), xtPrefixV1) {
			continue
		}
		hash, err := normalizeInfoHash(xt[len(xtPrefixV1):])
		if err != nil {
			return nil, err
		}
		link.InfoHashV1 = hash
		break
	}
	if link.InfoHashV1 == "" {
		return nil, fmt.Errorf("%w: no info hash found", ErrInvalidMagnetLink)
	}

	for _, tr := range query["tr"] {
		if tr != "" {
			link.Trackers = append(link.Trackers, []string{tr})
		}
	}

	return link, nil
}

func normalizeInfoHash(s string) (string, error) {
	switch len(s) {
	case 40:
		if _, err := hex.DecodeString(s); err != nil {
			return "", fmt.Errorf("%w: malformed hex info hash", ErrInvalidMagnetLink)
		}
		return strings.ToLower(s), nil
	case 32:
		raw, err := base32.StdEncoding.DecodeString(strings.ToUpper(s))
		if err != nil {
			return "", fmt.Errorf("%w: malformed base32 info hash", ErrInvalidMagnetLink)
		}
		return hex.EncodeToString(raw), nil
	default:
		return "", fmt.Errorf("%w: info hash has length %d", ErrInvalidMagnetLink, len(s))
	}
}
