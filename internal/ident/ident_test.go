package ident

import (
	"strings"
	"testing"
)

func TestNewFormat(t *testing.T) {
	id := New("ord")
	if !strings.HasPrefix(id, "ord_") {
		t.Fatalf("id = %q, want ord_ prefix", id)
	}
	suffix := strings.TrimPrefix(id, "ord_")
	if len(suffix) != 32 {
		t.Errorf("suffix length = %d, want 32", len(suffix))
	}
	if strings.Contains(suffix, "-") {
		t.Errorf("suffix contains dashes: %q", suffix)
	}
}

func TestEntityPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{name: "order", gen: Order, prefix: "ord_"},
		{name: "package", gen: Package, prefix: "pkg_"},
		{name: "route", gen: Route, prefix: "rt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if id := tt.gen(); !strings.HasPrefix(id, tt.prefix) {
				t.Errorf("id = %q, want prefix %q", id, tt.prefix)
			}
		})
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := Order()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = struct{}{}
	}
}
