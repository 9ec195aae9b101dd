package client

import (
	"crypto/rand"
	"encoding/hex"
	"net"
)

// LocalIdentity derives the default client identity from the first
// non-loopback network interface with a 48-bit hardware address,
// formatted as 12 lowercase hex characters. When no usable interface
// exists it falls back to a random value, so the identity is stable per
// host in the common case but never empty.
func LocalIdentity() string {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagLoopback != 0 {
				continue
			}
			if len(iface.HardwareAddr) == 6 {
				return hex.EncodeToString(iface.HardwareAddr)
			}
		}
	}

	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "000000000000"
	}
	return hex.EncodeToString(buf)
}
