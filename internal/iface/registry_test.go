package iface

import "testing"

func TestDeriveIDStable(t *testing.T) {
	a := DeriveID("wwan0")
	b := DeriveID("wwan0")
	if a != b {
		t.Errorf("DeriveID not stable: %q != %q", a, b)
	}
	if DeriveID("wwan1") == a {
		t.Errorf("DeriveID collided for distinct names")
	}
}

func TestToMap(t *testing.T) {
	records := []Record{
		{ID: "id-a", Name: "wwan0", IP: "10.0.0.2"},
		{ID: "id-b", Name: "enx001122334455", IP: "10.0.0.3"},
	}
	m := ToMap(records)
	if m["id-a"] != "wwan0" {
		t.Errorf("m[id-a] = %q, want wwan0", m["id-a"])
	}
	if m["id-b"] != "enx001122334455" {
		t.Errorf("m[id-b] = %q, want enx001122334455", m["id-b"])
	}
	if len(m) != 2 {
		t.Errorf("len(m) = %d, want 2", len(m))
	}
}

func TestHasPrefix(t *testing.T) {
	prefixes := []string{"enx", "ppp", "wwan"}
	cases := map[string]bool{
		"enx00e04c680001": true,
		"ppp0":            true,
		"wwan0":           true,
		"eth0":            false,
		"lo":              false,
	}
	for name, want := range cases {
		if got := hasPrefix(name, prefixes); got != want {
			t.Errorf("hasPrefix(%q) = %v, want %v", name, got, want)
		}
	}
}
