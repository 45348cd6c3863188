package validator

import (
	"net"
	"strings"
)

// ipAllowed checks the request source against the client's allow-list.
// Entries may be bare IPs or CIDR blocks. An empty list means no IP gating.
func ipAllowed(allowed []string, remote string) bool {
	if len(allowed) == 0 {
		return true
	}
	// remote may arrive as host:port from the HTTP layer.
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	ip := net.ParseIP(strings.TrimSpace(remote))
	if ip == nil {
		return false
	}
	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			if _, cidr, err := net.ParseCIDR(entry); err == nil && cidr.Contains(ip) {
				return true
			}
			continue
		}
		if other := net.ParseIP(entry); other != nil && other.Equal(ip) {
			return true
		}
	}
	return false
}
