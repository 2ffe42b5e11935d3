// Package metrics exposes cellroute's Prometheus scrape endpoint and a
// periodic allocator-stats collector: one GaugeVec per allocator
// statistic, labeled by cluster and server IP, refreshed from
// runtime.MemStats on a fixed interval and served over net/http with
// optional HTTP Basic auth.
package metrics

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanverite/cellroute/internal/logging"
)

var (
	allocBytes    = newGauge("cellroute_alloc_bytes", "Bytes allocated and still in use, as reported by runtime.MemStats.Alloc")
	heapBytes     = newGauge("cellroute_heap_inuse_bytes", "Bytes in in-use heap spans, as reported by runtime.MemStats.HeapInuse")
	residentBytes = newGauge("cellroute_resident_bytes", "Bytes obtained from the OS, as reported by runtime.MemStats.Sys")
	mappedBytes   = newGauge("cellroute_mapped_bytes", "Bytes obtained from the OS for heap spans, as reported by runtime.MemStats.HeapSys")
	retainedBytes = newGauge("cellroute_retained_bytes", "Heap bytes released back to the OS but not yet scavenged, as reported by runtime.MemStats.HeapReleased")
	gcCount       = newGauge("cellroute_gc_runs_total", "Number of completed GC cycles, as reported by runtime.MemStats.NumGC")
)

func newGauge(name, help string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"cluster", "server_ip"})
	prometheus.MustRegister(g)
	return g
}

func init() {
	// The default registry may already carry these collectors; only a
	// registration error other than "already registered" is fatal.
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := prometheus.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

// RunAllocatorLoop samples runtime.MemStats every interval and updates the
// allocator gauges, labeled with cluster and ip, until ctx is cancelled.
func RunAllocatorLoop(ctx context.Context, cluster, ip string, interval time.Duration) {
	log := logging.Component("metrics")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("allocator metrics loop stopping")
			return
		case <-ticker.C:
			sampleOnce(cluster, ip)
		}
	}
}

func sampleOnce(cluster, ip string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	allocBytes.WithLabelValues(cluster, ip).Set(float64(m.Alloc))
	heapBytes.WithLabelValues(cluster, ip).Set(float64(m.HeapInuse))
	residentBytes.WithLabelValues(cluster, ip).Set(float64(m.Sys))
	mappedBytes.WithLabelValues(cluster, ip).Set(float64(m.HeapSys))
	retainedBytes.WithLabelValues(cluster, ip).Set(float64(m.HeapReleased))
	gcCount.WithLabelValues(cluster, ip).Set(float64(m.NumGC))
}

// Server is the /metrics HTTP listener, with optional Basic auth.
type Server struct {
	http *http.Server
}

// NewServer builds a metrics server bound to addr. When both username and
// password are non-empty, every request must present matching HTTP Basic
// credentials; otherwise the endpoint is open.
func NewServer(addr, username, password string) *Server {
	mux := http.NewServeMux()
	handler := promhttp.Handler()
	if username != "" && password != "" {
		handler = basicAuth(handler, username, password)
	}
	mux.Handle("/metrics", handler)

	return &Server{
		http: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Serve starts listening and blocks until the server is shut down. It
// returns nil on a clean Shutdown, matching net/http.Server's contract.
func (s *Server) Serve() error {
	logging.Component("metrics").WithField("addr", s.http.Addr).Info("metrics listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func basicAuth(next http.Handler, username, password string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !constantTimeEqual(user, username) || !constantTimeEqual(pass, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="cellroute metrics"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
