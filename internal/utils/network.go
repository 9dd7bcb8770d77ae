package utils

import (
	"net"
	"strings"
)

// GetLocalIPs returns the non-loopback IPv4 addresses of this host.
// Link-local (169.254.x.x) addresses are dropped when a routable one exists.
func GetLocalIPs() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}

	var all []string
	hasRoutable := false
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() || ipnet.IP.To4() == nil {
			continue
		}
		ip := ipnet.IP.String()
		all = append(all, ip)
		if !strings.HasPrefix(ip, "169.254") {
			hasRoutable = true
		}
	}

	var out []string
	for _, ip := range all {
		if hasRoutable && strings.HasPrefix(ip, "169.254") {
			continue
		}
		out = append(out, ip)
	}
	return out
}
