package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP_XRealIPWins(t *testing.T) {
	r := httptest.NewRequest("GET", "/r/a1b2c3d4", nil)
	r.Header.Set("X-Real-IP", "198.51.100.9")
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.RemoteAddr = "10.0.0.2:4321"

	assert.Equal(t, "198.51.100.9", ClientIP(r))
}

func TestClientIP_ForwardedForFirstEntry(t *testing.T) {
	r := httptest.NewRequest("GET", "/r/a1b2c3d4", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1, 10.0.0.2")
	r.RemoteAddr = "10.0.0.2:4321"

	assert.Equal(t, "203.0.113.7", ClientIP(r))
}

func TestClientIP_PeerFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/r/a1b2c3d4", nil)
	r.RemoteAddr = "192.0.2.4:51234"

	assert.Equal(t, "192.0.2.4", ClientIP(r))
}

func TestClientIP_PeerWithoutPort(t *testing.T) {
	r := httptest.NewRequest("GET", "/r/a1b2c3d4", nil)
	r.RemoteAddr = "192.0.2.4"

	assert.Equal(t, "192.0.2.4", ClientIP(r))
}

func TestClientIP_NothingUsable(t *testing.T) {
	r := httptest.NewRequest("GET", "/r/a1b2c3d4", nil)
	r.RemoteAddr = ""

	assert.Equal(t, "unknown", ClientIP(r))
}
