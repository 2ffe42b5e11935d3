// Package iface builds the Interface Registry: a startup-time snapshot of
// the host's network interfaces, filtered to the modems/PPP links the proxy
// is allowed to egress through, and keyed by a stable UUIDv5 identifier.
//
// # Overview
//
// Record is one interface worth exposing (name, primary IP, derived id).
// Enumerate() takes a live snapshot of the host's interfaces and returns the
// subset whose name matches one of the configured prefixes. ToMap reduces a
// []Record to the id -> device-name lookup the SOCKS5 Session consults on
// every authentication attempt.
//
// # Stability
//
// A Record's Id is uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)): the same
// device name always yields the same id, so clients may hard-code a modem's
// id across proxy restarts as long as the OS keeps assigning it the same
// name.
//
// # Cadence
//
// Enumerate is a pure function of host state at the instant it is called.
// cmd/cellroute calls it once at startup and hands the resulting map to the
// SOCKS5 Acceptor for the process lifetime; the Control API calls it fresh on every
// request so hot-plugged modems become reachable there immediately.
package iface
