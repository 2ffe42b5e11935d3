package iface

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Record describes one interface the proxy may bind outbound sockets to.
type Record struct {
	ID   string // uuid.NewSHA1(uuid.NameSpaceURL, []byte(Name)).String()
	Name string // OS device name, e.g. "wwan0", "enx00e04c680001"
	IP   string // presentation form of the first assigned address
}

// DefaultPrefixes is the SOCKS5 path's filter: only USB-tethered modems
// presented by the kernel as "enx*" devices are offered as egress choices.
var DefaultPrefixes = []string{"enx"}

// ControlPrefixes is the Control API's filter: broader than DefaultPrefixes
// because the control surface is also used to manage PPP dial-up links and
// built-in WWAN modems, not just USB-tethered ones.
var ControlPrefixes = []string{"enx", "ppp", "wwan"}

// DeriveID computes the stable UUIDv5 identifier for a device name.
func DeriveID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Enumerate lists the host's up interfaces, keeping only those whose name
// starts with one of prefixes, and returns one Record per match carrying
// its first assigned IP address. An interface with no assigned address is
// skipped: a device with no IP cannot be a usable egress path.
func Enumerate(prefixes []string) ([]Record, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("iface: list interfaces: %w", err)
	}

	var out []Record
	for _, ifi := range ifs {
		if ifi.Flags&net.FlagUp == 0 {
			continue
		}
		if !hasPrefix(ifi.Name, prefixes) {
			continue
		}
		ip, ok := firstIP(ifi)
		if !ok {
			continue
		}
		out = append(out, Record{
			ID:   DeriveID(ifi.Name),
			Name: ifi.Name,
			IP:   ip,
		})
	}
	return out, nil
}

// EnumerateWithDefaultRoute behaves like Enumerate, but additionally
// includes the host's current default-route interface (as read from the
// kernel routing table) even if its name matches none of prefixes. The
// Control API uses this so the box's primary uplink can be managed
// alongside its cellular modems.
func EnumerateWithDefaultRoute(prefixes []string) ([]Record, error) {
	records, err := Enumerate(prefixes)
	if err != nil {
		return nil, err
	}

	defName, err := DefaultRouteInterface()
	if err != nil {
		// No default route is not fatal: just return the prefix-matched set.
		return records, nil
	}
	for _, r := range records {
		if r.Name == defName {
			return records, nil
		}
	}

	ifi, err := net.InterfaceByName(defName)
	if err != nil {
		return records, nil
	}
	ip, ok := firstIP(*ifi)
	if !ok {
		return records, nil
	}
	return append(records, Record{
		ID:   DeriveID(ifi.Name),
		Name: ifi.Name,
		IP:   ip,
	}), nil
}

// MapResolver is a read-only id -> device-name lookup, satisfying the
// socks5.Resolver interface without that package needing to import iface
// directly. Built once at startup from an interface snapshot and never
// mutated afterward, so Sessions may share it without locking.
type MapResolver map[string]string

// Device implements socks5.Resolver.
func (m MapResolver) Device(password string) (device string, ok bool) {
	device, ok = m[password]
	return device, ok
}

// ToMap reduces a Record slice to the id -> device-name lookup the SOCKS5
// Session needs. Later records win on id collision (none expected in
// practice, since ids are derived from distinct names).
func ToMap(records []Record) map[string]string {
	m := make(map[string]string, len(records))
	for _, r := range records {
		m[r.ID] = r.Name
	}
	return m
}

func hasPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func firstIP(ifi net.Interface) (string, bool) {
	addrs, err := ifi.Addrs()
	if err != nil {
		return "", false
	}
	for _, a := range addrs {
		switch v := a.(type) {
		case *net.IPNet:
			return v.IP.String(), true
		case *net.IPAddr:
			return v.IP.String(), true
		}
	}
	return "", false
}

// DefaultRouteInterface reads /proc/net/route and returns the name of the
// interface whose destination is 0.0.0.0, i.e. the kernel's default route.
func DefaultRouteInterface() (string, error) {
	f, err := os.Open("/proc/net/route")
	if err != nil {
		return "", fmt.Errorf("iface: open /proc/net/route: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		if first {
			first = false // header line
			continue
		}
		cols := strings.Fields(scanner.Text())
		if len(cols) < 2 {
			continue
		}
		if cols[1] == "00000000" {
			return cols[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("iface: scan /proc/net/route: %w", err)
	}
	return "", fmt.Errorf("iface: no default route interface found")
}
