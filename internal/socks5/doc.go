// Package socks5 implements the proxy's SOCKS5 server: wire encoding for
// RFC 1928 (method negotiation, CONNECT) and RFC 1929 (username/password
// sub-negotiation), a per-connection Session state machine that layers
// interface selection on top, and an Acceptor that owns the listening
// socket.
//
// # State machine
//
// Greeting -> MethodReply -> AuthRequest -> AuthReply -> CmdRequest ->
// ConnectingOutbound -> CmdReply -> Relaying -> Closed. Every step is
// strictly linear, no state is revisited, and any failure is terminal:
// the connection closes and the Session is discarded.
//
// # Interface selection
//
// Authentication succeeds only when the username (after fingerprint-suffix
// parsing) is literally "modem" and the password names an entry in the
// interface map supplied to the Acceptor at startup. The outbound
// connection for CONNECT is always opened bound to that interface's
// device, never the host's default route.
package socks5
