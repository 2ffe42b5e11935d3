package socks5

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/sanverite/cellroute/internal/dialer"
	"github.com/sanverite/cellroute/internal/fingerprint"
	"github.com/sanverite/cellroute/internal/username"
)

// state names the Session's position in its linear handshake.
type state int

const (
	stateGreeting state = iota
	stateAuthRequest
	stateCmdRequest
	stateConnectingOutbound
	stateRelaying
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateGreeting:
		return "greeting"
	case stateAuthRequest:
		return "auth-request"
	case stateCmdRequest:
		return "cmd-request"
	case stateConnectingOutbound:
		return "connecting-outbound"
	case stateRelaying:
		return "relaying"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Resolver maps a password (the public identifier for a bound interface) to
// the device name the outbound connection must bind to. Acceptor supplies
// one backed by the interface registry's current snapshot.
type Resolver interface {
	Device(password string) (device string, ok bool)
}

// Session drives one accepted client connection through the SOCKS5
// handshake and, on success, relays bytes between the client and the
// interface-bound outbound connection until either side closes.
type Session struct {
	conn     net.Conn
	resolver Resolver
	log      *logrus.Entry
	dial     dialFunc

	mu          sync.Mutex
	state       state
	rawUsername string
}

// dialFunc matches dialer.Connect's signature; Session calls through it
// instead of dialer.Connect directly so tests can substitute a fake
// outbound connection without binding to a real network device.
type dialFunc func(ctx context.Context, target *net.TCPAddr, device string, fp fingerprint.Profile) (net.Conn, error)

func newSession(conn net.Conn, resolver Resolver, log *logrus.Entry) *Session {
	return &Session{
		conn:     conn,
		resolver: resolver,
		log:      log.WithField("remote", conn.RemoteAddr().String()),
		state:    stateGreeting,
		dial:     dialer.Connect,
	}
}

func (s *Session) setState(st state) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Serve runs the handshake and relay to completion. It always closes the
// client connection before returning.
func (s *Session) Serve() error {
	defer s.conn.Close()
	defer s.setState(stateClosed)

	method, err := s.negotiateMethod()
	if err != nil {
		return err
	}
	if method == methodNoAcceptable {
		return errors.New("socks5: no acceptable authentication method")
	}

	device, err := s.authenticate()
	if err != nil {
		return err
	}

	s.setState(stateCmdRequest)
	cmd, addr, err := readRequest(s.conn)
	if err != nil {
		_ = writeReply(s.conn, replyGeneralFailure, address{})
		return err
	}
	if cmd == cmdAssociate {
		_ = writeReply(s.conn, replyConnNotAllowed, addr)
		return errors.New("socks5: UDP ASSOCIATE is not supported")
	}
	if cmd != cmdConnect {
		_ = writeReply(s.conn, replyCommandNotSupported, addr)
		return errors.New("socks5: only CONNECT is supported")
	}
	if addr.isDomain() {
		// This proxy never resolves names: a domain target is an invalid
		// address, not an unsupported address type.
		_ = writeReply(s.conn, replyGeneralFailure, address{})
		return errors.New("socks5: domain-name targets are not supported, literal IP required")
	}

	s.setState(stateConnectingOutbound)
	fp, err := s.profile()
	if err != nil {
		fp = fingerprint.Default
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	upstream, err := s.dial(ctx, addr.tcpAddr(), device, fp)
	if err != nil {
		s.log.WithError(err).Warn("outbound connect failed")
		_ = writeReply(s.conn, replyGeneralFailure, addr)
		return err
	}
	defer upstream.Close()

	if err := writeReply(s.conn, replySucceeded, addr); err != nil {
		return err
	}

	s.setState(stateRelaying)
	return relay(s.conn, upstream)
}

func (s *Session) negotiateMethod() (byte, error) {
	methods, err := readGreeting(s.conn)
	if err != nil {
		return 0, err
	}
	chosen := methodNoAcceptable
	for _, m := range methods {
		if m == methodUserPass {
			chosen = methodUserPass
			break
		}
	}
	if err := writeMethodSelection(s.conn, chosen); err != nil {
		return 0, err
	}
	return chosen, nil
}

// authenticate reads the RFC 1929 sub-negotiation and resolves the
// password to a bound device. The username "modem" is required verbatim
// (after fingerprint-suffix parsing); any other username, or a password
// with no matching interface, fails the session.
func (s *Session) authenticate() (device string, err error) {
	s.setState(stateAuthRequest)
	user, pass, err := readUserPassAuth(s.conn)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(user) || !utf8.ValidString(pass) {
		_ = writeAuthReply(s.conn, false)
		return "", errors.New("socks5: credentials are not valid UTF-8")
	}

	name, _, perr := username.Parse(user, fingerprint.Default)
	if perr != nil || name != "modem" {
		_ = writeAuthReply(s.conn, false)
		return "", errors.New("socks5: unauthorized username")
	}

	device, ok := s.resolver.Device(pass)
	if !ok {
		_ = writeAuthReply(s.conn, false)
		return "", errors.New("socks5: unknown interface password")
	}

	if err := writeAuthReply(s.conn, true); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.rawUsername = user
	s.mu.Unlock()
	return device, nil
}

// profile re-derives the fingerprint from the username captured during
// authenticate. Sessions that never authenticated successfully never reach
// this path.
func (s *Session) profile() (fingerprint.Profile, error) {
	s.mu.Lock()
	raw := s.rawUsername
	s.mu.Unlock()
	_, fp, err := username.Parse(raw, fingerprint.Default)
	return fp, err
}

// relay copies bytes in both directions between client and upstream until
// one side closes, then half-closes the other so its writer unblocks.
func relay(client, upstream net.Conn) error {
	errc := make(chan error, 2)

	go func() {
		_, err := copyBuffer(upstream, client)
		closeWrite(upstream)
		errc <- err
	}()
	go func() {
		_, err := copyBuffer(client, upstream)
		closeWrite(client)
		errc <- err
	}()

	first := <-errc
	<-errc
	return first
}

type halfCloser interface {
	CloseWrite() error
}

func closeWrite(c net.Conn) {
	if hc, ok := c.(halfCloser); ok {
		_ = hc.CloseWrite()
		return
	}
	_ = c.Close()
}

func copyBuffer(dst, src net.Conn) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			written += int64(nw)
			if ew != nil {
				return written, ew
			}
			if nw != nr {
				return written, errors.New("socks5: short write during relay")
			}
		}
		if er != nil {
			if errors.Is(er, io.EOF) {
				return written, nil
			}
			return written, er
		}
	}
}
