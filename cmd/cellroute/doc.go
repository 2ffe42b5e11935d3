// Command cellroute runs an authenticated SOCKS5 proxy front-end for a
// host carrying a fleet of mobile-broadband interfaces: a SOCKS5 listener
// that selects the egress modem by password, a Control API for listing
// interfaces and triggering a modem reconnect, and a Prometheus metrics
// listener.
//
// Usage:
//
//	cellroute -port-socks5 7777 -port-api 4444 -port-prometheus 8888
//
// Every flag has a matching environment variable (see internal/config);
// flags win when both are set.
//
// At startup, cellroute initializes the modem client (fatal on failure),
// takes one interface snapshot for the SOCKS5 path, and starts its four
// long-running activities: the SOCKS5 accept loop, the Control API server,
// the metrics server, and the allocator-stats collector. SIGINT/SIGTERM
// triggers graceful shutdown of the two HTTP servers; the SOCKS5 listener
// is closed immediately without draining in-flight connections.
package main
