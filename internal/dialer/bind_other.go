//go:build !linux

package dialer

import (
	"context"
	"fmt"
	"net"

	"github.com/sanverite/cellroute/internal/fingerprint"
)

// Connect is unsupported outside Linux: SO_BINDTODEVICE is a Linux-only
// socket option and has no portable equivalent.
func Connect(ctx context.Context, target *net.TCPAddr, device string, fp fingerprint.Profile) (net.Conn, error) {
	return nil, fmt.Errorf("dialer: bind-to-device is only supported on linux")
}
