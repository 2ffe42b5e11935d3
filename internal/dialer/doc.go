// Package dialer implements the Interface Binder: establishing an outbound
// TCP connection whose socket is bound to a named network device below the
// routing table, with TCP-stack fingerprint options applied before connect.
//
// # Why bind-to-device
//
// Every modem on the host may present the same default gateway
// (0.0.0.0/unspecified), so the routing table alone cannot select an
// egress interface. SO_BINDTODEVICE associates the socket with a device at
// the kernel level, overriding route selection entirely. It must be set
// before connect: only pre-connect socket options influence source
// selection.
//
// # Shape
//
// Connect builds a net.Dialer with a Control func that runs
// syscall.RawConn.Control against the not-yet-connected fd, then calls
// DialContext. The bind-to-device and fingerprint socket options all
// happen inside that Control callback via golang.org/x/sys/unix.
package dialer
