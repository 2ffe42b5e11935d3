//go:build linux

package dialer

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sanverite/cellroute/internal/fingerprint"
)

// Connect creates a TCP client socket in the address family matching
// target, binds it to device below the routing table, applies fp's
// fingerprint socket options, and connects to target. Any OS error from
// the bind or the fingerprint options is returned (wrapped with the option
// and device, so errors.Is still matches the errno) and aborts the
// connection attempt; there is no fallback to the default route.
func Connect(ctx context.Context, target *net.TCPAddr, device string, fp fingerprint.Profile) (net.Conn, error) {
	d := &net.Dialer{
		KeepAlive: 15 * time.Second,
		Control: func(network, address string, c syscall.RawConn) error {
			// A non-nil return here makes the dialer abort before connect,
			// which is what keeps a mis-bound socket from ever reaching the
			// target over the default route.
			var optErr error
			if err := c.Control(func(fd uintptr) {
				optErr = applySocketOptions(int(fd), device, fp)
			}); err != nil {
				return err
			}
			return optErr
		},
	}

	conn, err := d.DialContext(ctx, tcpNetwork(target), target.String())
	if err != nil {
		return nil, fmt.Errorf("dialer: connect via %q: %w", device, err)
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		_ = tc.SetKeepAlive(true)
	}

	return conn, nil
}

// applySocketOptions binds fd to device and applies fp's TTL and
// send/receive buffer sizes. It runs inside the net.Dialer.Control
// callback, i.e. before the socket is connected, which is the only point
// at which these options affect source address/interface selection.
func applySocketOptions(fd int, device string, fp fingerprint.Profile) error {
	if err := unix.SetsockoptString(fd, unix.SOL_SOCKET, unix.SO_BINDTODEVICE, device); err != nil {
		return fmt.Errorf("SO_BINDTODEVICE(%q): %w", device, err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TTL, fp.TTL); err != nil {
		return fmt.Errorf("IP_TTL(%d): %w", fp.TTL, err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, fp.BufferSize); err != nil {
		return fmt.Errorf("SO_SNDBUF(%d): %w", fp.BufferSize, err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, fp.BufferSize); err != nil {
		return fmt.Errorf("SO_RCVBUF(%d): %w", fp.BufferSize, err)
	}
	return nil
}

func tcpNetwork(addr *net.TCPAddr) string {
	if addr.IP.To4() != nil {
		return "tcp4"
	}
	return "tcp6"
}
