package utils

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLocalIPs(t *testing.T) {
	for _, ip := range GetLocalIPs() {
		parsed := net.ParseIP(ip)
		if assert.NotNil(t, parsed, ip) {
			assert.False(t, parsed.IsLoopback(), ip)
			assert.NotNil(t, parsed.To4(), ip)
		}
	}
}
