// Package security builds outbound HTTP clients that refuse to reach
// internal addresses.
package security

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

var allowedSchemes = []string{"http", "https"}

var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		// includes the cloud metadata address
		"169.254.0.0/16",
		"0.0.0.0/8",
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

var defaultPorts = []int{80, 443}

// NewSafeClient returns a client whose dialer rejects private, loopback
// and link-local destinations after DNS resolution. Only ports 80, 443 and
// extraPorts may be dialed.
func NewSafeClient(timeout time.Duration, extraPorts ...int) *http.Client {
	ports := append(append([]int(nil), defaultPorts...), extraPorts...)
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(ports...).
		Build()

	return safeurl.Client(config).Client
}

// NewWebhookClient returns the client for an operator-configured webhook.
// The webhook's own port is always dialable. With allowPrivate the
// destination is trusted as configured and no address filtering applies,
// which is what an intranet relay or a local sidecar needs.
func NewWebhookClient(webhook string, timeout time.Duration, allowPrivate bool) (*http.Client, error) {
	u, err := parseHTTPURL(webhook)
	if err != nil {
		return nil, err
	}
	if allowPrivate {
		return &http.Client{Timeout: timeout}, nil
	}
	port, err := urlPort(u)
	if err != nil {
		return nil, err
	}
	return NewSafeClient(timeout, port), nil
}

// CheckWebhook applies the rules of NewWebhookClient statically, so a
// webhook that would always be refused is reported at start-up.
func CheckWebhook(webhook string, allowPrivate bool) error {
	u, err := parseHTTPURL(webhook)
	if err != nil {
		return err
	}
	if _, err := urlPort(u); err != nil {
		return err
	}
	if allowPrivate {
		return nil
	}
	return ValidateURL(webhook)
}

func parseHTTPURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, errors.New("empty URL")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if !isAllowedScheme(strings.ToLower(u.Scheme)) {
		return nil, fmt.Errorf("disallowed scheme: %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("empty host in URL: %s", rawURL)
	}
	return u, nil
}

// urlPort is the explicit port of u or its scheme default.
func urlPort(u *url.URL) (int, error) {
	p := u.Port()
	if p == "" {
		if strings.EqualFold(u.Scheme, "https") {
			return 443, nil
		}
		return 80, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", p)
	}
	return port, nil
}

// ValidateURL is a static check done before any request is sent.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %q", scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip)
		}
		return nil
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}
	return nil
}

func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
