// Package envblock renders, parses, and splices the proxy environment block
// that nixproxy owns inside the nix-daemon startup configuration. On macOS the
// block is an EnvironmentVariables dictionary in the launchd property list; on
// Linux it is a set of Environment= directives in a systemd drop-in. All
// functions are pure text transformations so they can be exercised for either
// platform on any host.
package envblock

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/xabinapal/nixproxy/internal/platform"
)

// Names of the environment variables injected into the daemon.
const (
	HTTPProxyVar  = "http_proxy"
	HTTPSProxyVar = "https_proxy"
	AllProxyVar   = "all_proxy"
)

var (
	// ErrInvalidURL is returned when a proxy URL has no scheme or host.
	ErrInvalidURL = errors.New("invalid proxy URL")
	// ErrBadFormat is returned when the configuration file cannot hold a
	// managed block, e.g. a plist without a top-level dictionary.
	ErrBadFormat = errors.New("malformed daemon configuration")
)

// ProxyConfig holds the proxy URLs applied to the daemon environment. A nil
// *ProxyConfig means no proxy is configured; unset is represented by absence,
// never by an empty string.
type ProxyConfig struct {
	HTTP  string
	HTTPS string
	All   string // optional
}

// FromURL builds a ProxyConfig that applies one URL to all three variables,
// matching the single-URL contract of the set command.
func FromURL(raw string) (*ProxyConfig, error) {
	if err := ValidateURL(raw); err != nil {
		return nil, err
	}
	return &ProxyConfig{HTTP: raw, HTTPS: raw, All: raw}, nil
}

// ValidateURL checks that raw is a syntactically valid URL with both a scheme
// and a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q: missing scheme or host", ErrInvalidURL, raw)
	}
	return nil
}

// Equal reports whether two configs describe the same proxy environment.
func (c *ProxyConfig) Equal(other *ProxyConfig) bool {
	if c == nil || other == nil {
		return c == other
	}
	return *c == *other
}

// empty reports whether no variable carries a value.
func (c *ProxyConfig) empty() bool {
	return c == nil || (c.HTTP == "" && c.HTTPS == "" && c.All == "")
}

// vars returns the name/value pairs in render order, skipping unset values.
func (c *ProxyConfig) vars() [][2]string {
	pairs := make([][2]string, 0, 3)
	if c.HTTP != "" {
		pairs = append(pairs, [2]string{HTTPProxyVar, c.HTTP})
	}
	if c.HTTPS != "" {
		pairs = append(pairs, [2]string{HTTPSProxyVar, c.HTTPS})
	}
	if c.All != "" {
		pairs = append(pairs, [2]string{AllProxyVar, c.All})
	}
	return pairs
}

// setVar assigns a decoded variable to its field. Unknown names are ignored
// so unrelated content sharing the file is never mis-parsed.
func (c *ProxyConfig) setVar(name, value string) {
	switch name {
	case HTTPProxyVar:
		c.HTTP = value
	case HTTPSProxyVar:
		c.HTTPS = value
	case AllProxyVar:
		c.All = value
	}
}

// Encode renders cfg as the platform's managed configuration fragment.
func Encode(cfg *ProxyConfig, p platform.Platform) (string, error) {
	if cfg.empty() {
		return "", fmt.Errorf("%w: empty proxy configuration", ErrInvalidURL)
	}
	switch p {
	case platform.Darwin:
		return encodePlist(cfg), nil
	case platform.Linux:
		return encodeDropIn(cfg), nil
	default:
		return "", platform.ErrUnsupported
	}
}

// Decode extracts the managed proxy block from configuration file contents.
// It returns (nil, nil) when no block is present.
func Decode(text string, p platform.Platform) (*ProxyConfig, error) {
	switch p {
	case platform.Darwin:
		return decodePlist(text)
	case platform.Linux:
		return decodeDropIn(text), nil
	default:
		return nil, platform.ErrUnsupported
	}
}

// Patch returns text with the managed block replaced by cfg, inserting it at
// the platform-appropriate location when absent. A nil cfg removes the block.
// All bytes outside the block are preserved verbatim. On Linux, removing the
// block from a file that held nothing else yields the empty string, signaling
// that the drop-in itself is obsolete.
func Patch(text string, cfg *ProxyConfig, p platform.Platform) (string, error) {
	switch p {
	case platform.Darwin:
		return patchPlist(text, cfg)
	case platform.Linux:
		return patchDropIn(text, cfg), nil
	default:
		return "", platform.ErrUnsupported
	}
}
