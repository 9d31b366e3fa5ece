package llm

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Proxy selects the proxy for an outbound request. A nil URL with a nil
// error sends the request directly.
type Proxy interface {
	ProxyURL(req *http.Request) (*url.URL, error)
}

type ProxyFunc func(req *http.Request) (*url.URL, error)

func (f ProxyFunc) ProxyURL(req *http.Request) (*url.URL, error) {
	return f(req)
}

type NoProxy struct{}

func (NoProxy) ProxyURL(*http.Request) (*url.URL, error) {
	return nil, nil
}

// FixedProxy routes every request through u.
func FixedProxy(u *url.URL) Proxy {
	return ProxyFunc(http.ProxyURL(u))
}

// EnvironmentProxy honours HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
func EnvironmentProxy() Proxy {
	return ProxyFunc(http.ProxyFromEnvironment)
}

// ParseProxy builds a Proxy from a configuration value: empty or "none"
// disables proxying, "env" reads the environment, anything else must be an
// http, https or socks5 URL.
func ParseProxy(raw string) (Proxy, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "none":
		return NoProxy{}, nil
	case "env":
		return EnvironmentProxy(), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy url %q has no host", raw)
	}
	return FixedProxy(u), nil
}
