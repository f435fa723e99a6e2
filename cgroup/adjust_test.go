package cgroup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEffectiveProcessorCountFormula(t *testing.T) {
	cases := []struct {
		name         string
		hostCPUs     int
		quota        int64
		period       int64
		want         float64
	}{
		{"no quota uses host count", 4, -1, 100000, 4},
		{"quota below host count", 4, 200000, 100000, 2},
		{"quota at host count", 4, 400000, 100000, 4},
		{"quota above host count clamps to host", 8, 1000000, 100000, 8},
		{"non-divisible quota rounds up", 4, 150000, 100000, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := effectiveProcessorCount(c.hostCPUs, c.quota, c.period)
			if got != c.want {
				t.Fatalf("effectiveProcessorCount(%d, %d, %d) = %v, want %v", c.hostCPUs, c.quota, c.period, got, c.want)
			}
		})
	}
}

func TestStripLastComponent(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOk bool
	}{
		{"/a/b/c", "/a/b", true},
		{"/a/b", "/a", true},
		{"/a", "/a", false},
		{"/", "/", false},
	}
	for _, c := range cases {
		got, ok := stripLastComponent(c.in)
		if got != c.want || ok != c.wantOk {
			t.Fatalf("stripLastComponent(%q) = %q, %v, want %q, %v", c.in, got, ok, c.want, c.wantOk)
		}
	}
}

// TestAdjustMemoryControllerWalksUpToAncestorLimit mirrors the hierarchy
// adjustment scenario: a leaf cgroup has no concrete memory limit of its own,
// but an ancestor does.
func TestAdjustMemoryControllerWalksUpToAncestorLimit(t *testing.T) {
	dir := t.TempDir()
	leaf := filepath.Join(dir, "kubepods", "burstable", "podabc")
	mid := filepath.Join(dir, "kubepods", "burstable")
	if err := os.MkdirAll(leaf, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	writeFile(t, leaf, "memory.limit_in_bytes", "9223372036854771712\n")
	writeFile(t, mid, "memory.limit_in_bytes", "268435456\n")
	writeFile(t, mid, "memory.use_hierarchy", "0\n")

	ctrl := newV1Controller(VariantV1Memory, dir, "/kubepods/burstable", "/kubepods/burstable/podabc", false)
	mem := &v1MemoryController{ctrl}

	adjustMemoryController(mem, 1<<34)

	v, unlimited, err := mem.MemoryLimit(1 << 34)
	if err != nil || unlimited || v != 268435456 {
		t.Fatalf("after adjustment MemoryLimit = %d, %v, %v, want 268435456, false, nil", v, unlimited, err)
	}
	if mem.SubsystemPath() != mid {
		t.Fatalf("SubsystemPath = %q, want %q", mem.SubsystemPath(), mid)
	}
}

// TestAdjustMemoryControllerRestoresOriginalWhenNothingFound mirrors the case
// where no ancestor ever has a concrete limit: the original leaf path must be
// restored rather than left pointing at the mount point.
func TestAdjustMemoryControllerRestoresOriginalWhenNothingFound(t *testing.T) {
	dir := t.TempDir()
	leaf := filepath.Join(dir, "kubepods", "burstable", "podabc")
	if err := os.MkdirAll(leaf, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	writeFile(t, leaf, "memory.limit_in_bytes", "9223372036854771712\n")

	ctrl := newV1Controller(VariantV1Memory, dir, "/kubepods/burstable", "/kubepods/burstable/podabc", false)
	mem := &v1MemoryController{ctrl}
	orig := mem.SubsystemPath()

	adjustMemoryController(mem, 1<<34)

	if mem.SubsystemPath() != orig {
		t.Fatalf("SubsystemPath = %q, want original %q restored", mem.SubsystemPath(), orig)
	}
}

func TestAdjustSkipsWhenNoHierarchyAdjustmentNeeded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memory.limit_in_bytes", "268435456\n")
	ctrl := newV1Controller(VariantV1Memory, dir, "/", "/", false)
	mem := &v1MemoryController{ctrl}
	orig := mem.SubsystemPath()

	adjustMemoryController(mem, 1<<34)

	if mem.SubsystemPath() != orig {
		t.Fatal("adjuster must not move the path when NeedsHierarchyAdjustment is false")
	}
}
