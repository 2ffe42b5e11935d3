// Package api implements the Control API: an unauthenticated HTTP/JSON
// surface that lists the host's modem/PPP interfaces and triggers a
// reconnect on one of them via the shared modem client.
//
// Unlike the SOCKS5 Session's interface map (captured once at startup),
// both endpoints here re-enumerate the host's interfaces on every request,
// so hot-plugged modems are visible immediately.
package api
