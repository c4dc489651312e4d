package suggest

import (
	"fmt"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://openrouter.ai"

// EndpointError reports a suggestion endpoint the adapter refuses to
// talk to. API keys ride on every request, so the endpoint is locked
// down before the first call is made.
type EndpointError struct {
	URL    string
	Reason string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("suggest endpoint %q rejected: %s", e.URL, e.Reason)
}

// allowList is the set of hostnames the suggest endpoint may point at,
// lowercased and stripped of scheme, port and slashes.
type allowList map[string]struct{}

var defaultAllowList = allowList{
	"openrouter.ai":     {},
	"api.openrouter.ai": {},
}

// newAllowList normalizes configured hosts; entries that reduce to
// nothing are dropped, and an effectively empty configuration keeps
// the defaults instead of allowing everything or nothing.
func newAllowList(hosts []string) allowList {
	out := make(allowList, len(hosts))
	for _, h := range hosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "https://")
		v = strings.TrimPrefix(v, "http://")
		v = strings.Trim(v, "/")
		if i := strings.IndexByte(v, ':'); i >= 0 {
			v = v[:i]
		}
		if v != "" {
			out[v] = struct{}{}
		}
	}
	if len(out) == 0 {
		return defaultAllowList
	}
	return out
}

func (a allowList) permits(host string) bool {
	_, ok := a[strings.ToLower(host)]
	return ok
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// ValidateBaseURL rejects suggestion endpoints that are not https URLs
// on an allow-listed host. Failures are *EndpointError.
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	baseURL = normalizeBaseURL(baseURL)
	reject := func(reason string) error {
		return &EndpointError{URL: baseURL, Reason: reason}
	}

	u, err := url.Parse(baseURL)
	switch {
	case err != nil:
		return reject(err.Error())
	case !u.IsAbs() || u.Hostname() == "":
		return reject("absolute URL with host is required")
	case u.User != nil:
		return reject("userinfo is not allowed")
	case u.RawQuery != "" || u.Fragment != "":
		return reject("query and fragment are not allowed")
	case !strings.EqualFold(u.Scheme, "https"):
		return reject("https is required")
	}

	if host := u.Hostname(); !newAllowList(allowedHosts).permits(host) {
		return reject(fmt.Sprintf("host %q is not allow-listed", host))
	}
	return nil
}
