package api

import "github.com/sanverite/cellroute/internal/iface"

// fromRecords converts a fresh iface.Enumerate/EnumerateWithDefaultRoute
// result into the public Device slice, preserving enumeration order.
func fromRecords(records []iface.Record) []Device {
	out := make([]Device, 0, len(records))
	for _, r := range records {
		out = append(out, Device{ID: r.ID, Name: r.Name, IP: r.IP})
	}
	return out
}
