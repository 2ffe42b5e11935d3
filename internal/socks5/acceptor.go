package socks5

import (
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
)

// Acceptor owns the SOCKS5 listening socket and spawns one Session per
// accepted connection. A single Session failure (bad handshake, denied
// auth, unreachable upstream) never stops the accept loop; only a
// listener-level error does.
type Acceptor struct {
	ln       net.Listener
	resolver Resolver
	log      *logrus.Entry
}

// NewAcceptor binds a TCP listener on addr and returns an Acceptor ready
// to Serve. Every Session shares resolver and consults it on each
// authentication attempt; the Acceptor never refreshes or replaces it.
func NewAcceptor(addr string, resolver Resolver, log *logrus.Entry) (*Acceptor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("socks5: listen on %s: %w", addr, err)
	}
	return &Acceptor{ln: ln, resolver: resolver, log: log}, nil
}

// Addr returns the bound listener address.
func (a *Acceptor) Addr() net.Addr { return a.ln.Addr() }

// Close stops the accept loop by closing the listening socket. In-flight
// Sessions are not interrupted; they run to completion.
func (a *Acceptor) Close() error { return a.ln.Close() }

// Serve runs the accept loop until the listener is closed. It returns nil
// when Close causes the loop to exit cleanly, or the terminal listener
// error otherwise.
func (a *Acceptor) Serve() error {
	a.log.WithField("addr", a.ln.Addr().String()).Info("socks5 acceptor listening")
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("socks5: accept: %w", err)
		}
		go a.handle(conn)
	}
}

func (a *Acceptor) handle(conn net.Conn) {
	sess := newSession(conn, a.resolver, a.log)
	if err := sess.Serve(); err != nil {
		a.log.WithError(err).WithField("remote", conn.RemoteAddr().String()).Debug("session ended")
	}
}
