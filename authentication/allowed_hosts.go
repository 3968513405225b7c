package authentication

import (
	"net/url"
	"strings"
	"sync"

	"github.com/kbukum/kiotahttp/errors"
)

// AllowedHostsValidator decides whether a URL may receive credentials. An
// empty list allows every host; only https URLs are ever allowed.
type AllowedHostsValidator struct {
	mu    sync.RWMutex
	hosts map[string]struct{}
}

// NewAllowedHostsValidator creates a validator for hosts. Entries must be
// bare host names without a scheme.
func NewAllowedHostsValidator(hosts []string) (*AllowedHostsValidator, error) {
	v := &AllowedHostsValidator{}
	if err := v.SetAllowedHosts(hosts); err != nil {
		return nil, err
	}
	return v, nil
}

// GetAllowedHosts returns the configured hosts.
func (v *AllowedHostsValidator) GetAllowedHosts() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.hosts))
	for h := range v.hosts {
		out = append(out, h)
	}
	return out
}

// SetAllowedHosts replaces the configured hosts.
func (v *AllowedHostsValidator) SetAllowedHosts(hosts []string) error {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if strings.HasPrefix(h, "http://") || strings.HasPrefix(h, "https://") {
			return errors.InvalidInput("allowedHosts", "host "+h+" must not contain a scheme")
		}
		set[h] = struct{}{}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hosts = set
	return nil
}

// IsUrlHostValid reports whether u may receive credentials.
func (v *AllowedHostsValidator) IsUrlHostValid(u *url.URL) bool {
	if u == nil || !strings.EqualFold(u.Scheme, "https") {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.hosts) == 0 {
		return true
	}
	_, ok := v.hosts[strings.ToLower(u.Hostname())]
	return ok
}
