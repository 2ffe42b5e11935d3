package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sanverite/cellroute/internal/iface"
)

// Modem is the subset of *modem.Client the Control API drives. One
// concrete vendor client backs it; the client serializes concurrent
// Reboot calls on its own mutex, so handlers just call through.
type Modem interface {
	Reboot(ctx context.Context) error
}

// Server is the Control API: device listing and modem-reboot, both backed
// by a fresh interface enumeration on every request so hot-plugged modems
// show up without a restart.
type Server struct {
	http *http.Server

	prefixes  []string
	modem     Modem
	log       *logrus.Entry
	enumerate func([]string) ([]iface.Record, error)
}

// NewServer builds a Control API server bound to addr. prefixes is the set
// of interface name prefixes admitted by this surface (broader than the
// SOCKS5 path's, see -control-iface-prefixes); modem is the shared reboot
// target.
func NewServer(addr string, prefixes []string, modem Modem, log *logrus.Entry) *Server {
	s := &Server{prefixes: prefixes, modem: modem, log: log, enumerate: iface.EnumerateWithDefaultRoute}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/devices", s.handleListDevices)
	mux.HandleFunc("POST /api/v1/devices/{id}/reboot", s.handleReboot)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           withRequestLog(mux, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Serve starts listening and blocks until Shutdown is called.
func (s *Server) Serve() error {
	s.log.WithField("addr", s.http.Addr).Info("control api listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// handleListDevices implements GET /api/v1/devices: a fresh enumeration of
// the host's interfaces, filtered to s.prefixes plus the current
// default-route interface.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	records, err := s.enumerate(s.prefixes)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Error{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, fromRecords(records))
}

// handleReboot implements POST /api/v1/devices/{id}/reboot: look up id in
// a fresh enumeration, 404 if absent, otherwise invoke the shared modem
// client's Reboot.
func (s *Server) handleReboot(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))

	records, err := s.enumerate(s.prefixes)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Error{Error: err.Error()})
		return
	}

	var name string
	found := false
	for _, rec := range records {
		if rec.ID == id {
			name = rec.Name
			found = true
			break
		}
	}
	if !found {
		writeJSON(w, http.StatusNotFound, Error{Error: "interface with id " + id + " not found"})
		return
	}

	if err := s.modem.Reboot(r.Context()); err != nil {
		s.log.WithError(err).WithField("id", id).Warn("modem reboot failed")
		writeJSON(w, http.StatusInternalServerError, Error{Error: err.Error()})
		return
	}

	s.log.WithField("id", id).WithField("name", name).Info("modem reboot issued")
	writeJSON(w, http.StatusOK, RebootResponse{
		Status:  "success",
		Message: "interface " + name + " restarted successfully",
	})
}

func withRequestLog(next http.Handler, log *logrus.Entry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"took":   time.Since(start),
		}).Debug("control api request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
