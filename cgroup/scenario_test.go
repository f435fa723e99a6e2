package cgroup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// S1: host-level v1 environment, no container limits — memory limit file
// holds the kernel's "no limit" sentinel and must report Unlimited.
func TestScenarioHostV1Unlimited(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memory.limit_in_bytes", "9223372036854771712\n")
	writeFile(t, dir, "memory.usage_in_bytes", "104857600\n")
	mem := &v1MemoryController{newV1Controller(VariantV1Memory, dir, "/", "/", false)}

	cpuDir := t.TempDir()
	writeFile(t, cpuDir, "cpu.cfs_quota_us", "-1\n")
	writeFile(t, cpuDir, "cpu.cfs_period_us", "100000\n")
	writeFile(t, cpuDir, "cpu.shares", "1024\n")
	cpu := &v1CPUController{newV1Controller(VariantV1CPU, cpuDir, "/", "/", false)}

	acctDir := t.TempDir()
	writeFile(t, acctDir, "cpuacct.usage", "1000000\n")
	acct := &v1CPUAcctController{newV1Controller(VariantV1CPUAcct, acctDir, "/", "/", false)}

	cpusetDir := t.TempDir()
	writeFile(t, cpusetDir, "cpuset.cpus", "0-3\n")
	writeFile(t, cpusetDir, "cpuset.mems", "0\n")
	cpuset := &v1GenericController{newV1Controller(VariantV1Generic, cpusetDir, "/", "/", false)}

	sub := &Subsystem{
		isV1:       true,
		v1Memory:   mem,
		v1CPU:      cpu,
		v1CPUAcct:  acct,
		v1Cpuset:   cpuset,
		hostMemory: 1 << 34,
		hostCPUs:   4,
		caches:     newCacheSet(),
	}

	if limit := sub.MemoryLimitInBytes(); limit.Kind() != Unlimited {
		t.Fatalf("MemoryLimitInBytes = %v, want Unlimited", limit)
	}
	if shares := sub.CPUShares(); shares.Kind() != Unlimited {
		t.Fatalf("CPUShares = %v, want Unlimited (-1 maps to Unlimited)", shares)
	}
	if cpus := sub.ActiveProcessorCount(); cpus.Kind() != Cpus {
		t.Fatalf("ActiveProcessorCount = %v, want Cpus", cpus)
	} else if v, _ := cpus.CpusValue(); v != 4 {
		t.Fatalf("ActiveProcessorCount = %v, want 4", v)
	}
}

// S2: v1 container with a CFS quota/period on a 4-CPU host — active processor
// count must reflect the quota, not the host, and the container must be
// detected as containerized.
func TestScenarioV1ContainerQuotaOnFourCPUHost(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cpu.cfs_quota_us", "200000\n")
	writeFile(t, dir, "cpu.cfs_period_us", "100000\n")
	writeFile(t, dir, "cpu.shares", "512\n")
	cpu := &v1CPUController{newV1Controller(VariantV1CPU, dir, "/", "/", true)}

	memDir := t.TempDir()
	writeFile(t, memDir, "memory.limit_in_bytes", "536870912\n")
	writeFile(t, memDir, "memory.usage_in_bytes", "104857600\n")
	mem := &v1MemoryController{newV1Controller(VariantV1Memory, memDir, "/", "/", true)}

	sub := &Subsystem{
		isV1:            true,
		v1Memory:        mem,
		v1CPU:           cpu,
		v1CPUAcct:       &v1CPUAcctController{newV1Controller(VariantV1CPUAcct, t.TempDir(), "/", "/", true)},
		v1Cpuset:        &v1GenericController{newV1Controller(VariantV1Generic, t.TempDir(), "/", "/", true)},
		hostMemory:      1 << 34,
		hostCPUs:        4,
		memReadOnly:     true,
		cpuReadOnly:     true,
		cpuacctReadOnly: true,
		cpusetReadOnly:  true,
		caches:          newCacheSet(),
	}

	cpus := sub.ActiveProcessorCount()
	if v, ok := cpus.CpusValue(); !ok || v != 2 {
		t.Fatalf("ActiveProcessorCount = %v, want 2", cpus)
	}
	shares := sub.CPUShares()
	if v, ok := shares.CountValue(); !ok || v != 512 {
		t.Fatalf("CPUShares = %v, want 512", shares)
	}
	if limit := sub.MemoryLimitInBytes(); limit.Kind() != Bytes {
		t.Fatalf("MemoryLimitInBytes = %v, want Bytes", limit)
	} else if v, _ := limit.BytesValue(); v != 536870912 {
		t.Fatalf("MemoryLimitInBytes = %d, want 536870912", v)
	}
	if containerized, reason := decideContainerized(sub); !containerized {
		t.Fatalf("decideContainerized = false (%s), want true", reason)
	}
}

// S2b: isolates the all-four-controllers-read-only containerization path
// from the limit-differs-from-host path: memory and cpu report host-equal,
// unlimited values, so read-only mounts are the only signal decideContainerized
// can use.
func TestScenarioV1ContainerizedWhenAllFourControllersReadOnly(t *testing.T) {
	memDir := t.TempDir()
	writeFile(t, memDir, "memory.limit_in_bytes", "9223372036854771712\n")
	mem := &v1MemoryController{newV1Controller(VariantV1Memory, memDir, "/", "/", true)}

	cpuDir := t.TempDir()
	writeFile(t, cpuDir, "cpu.cfs_quota_us", "-1\n")
	writeFile(t, cpuDir, "cpu.cfs_period_us", "100000\n")
	cpu := &v1CPUController{newV1Controller(VariantV1CPU, cpuDir, "/", "/", true)}

	sub := &Subsystem{
		isV1:            true,
		v1Memory:        mem,
		v1CPU:           cpu,
		v1CPUAcct:       &v1CPUAcctController{newV1Controller(VariantV1CPUAcct, t.TempDir(), "/", "/", true)},
		v1Cpuset:        &v1GenericController{newV1Controller(VariantV1Generic, t.TempDir(), "/", "/", true)},
		hostMemory:      1 << 34,
		hostCPUs:        4,
		memReadOnly:     true,
		cpuReadOnly:     true,
		cpuacctReadOnly: true,
		cpusetReadOnly:  true,
		caches:          newCacheSet(),
	}

	if containerized, reason := decideContainerized(sub); !containerized || reason != "all controller mounts read-only" {
		t.Fatalf("decideContainerized = %v (%s), want true (all controller mounts read-only)", containerized, reason)
	}
}

// S2c: negative case for the same isolation — cpuset is still writable, so
// even though memory/cpu/cpuacct are read-only and no limit differs from the
// host, the subsystem must not be reported as containerized.
func TestScenarioV1NotContainerizedWhenOneControllerWritable(t *testing.T) {
	memDir := t.TempDir()
	writeFile(t, memDir, "memory.limit_in_bytes", "9223372036854771712\n")
	mem := &v1MemoryController{newV1Controller(VariantV1Memory, memDir, "/", "/", true)}

	cpuDir := t.TempDir()
	writeFile(t, cpuDir, "cpu.cfs_quota_us", "-1\n")
	writeFile(t, cpuDir, "cpu.cfs_period_us", "100000\n")
	cpu := &v1CPUController{newV1Controller(VariantV1CPU, cpuDir, "/", "/", true)}

	sub := &Subsystem{
		isV1:            true,
		v1Memory:        mem,
		v1CPU:           cpu,
		v1CPUAcct:       &v1CPUAcctController{newV1Controller(VariantV1CPUAcct, t.TempDir(), "/", "/", true)},
		v1Cpuset:        &v1GenericController{newV1Controller(VariantV1Generic, t.TempDir(), "/", "/", false)},
		hostMemory:      1 << 34,
		hostCPUs:        4,
		memReadOnly:     true,
		cpuReadOnly:     true,
		cpuacctReadOnly: true,
		cpusetReadOnly:  false,
		caches:          newCacheSet(),
	}

	if containerized, reason := decideContainerized(sub); containerized {
		t.Fatalf("decideContainerized = true (%s), want false when cpuset mount is writable", reason)
	}
}

// S3: v1 hierarchy adjustment finds an ancestor's concrete memory limit when
// the leaf itself reports the unlimited sentinel.
func TestScenarioV1HierarchyAdjustmentToAncestorLimit(t *testing.T) {
	dir := t.TempDir()
	leaf := filepath.Join(dir, "kubepods", "podxyz")
	parent := filepath.Join(dir, "kubepods")
	if err := os.MkdirAll(leaf, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	writeFile(t, leaf, "memory.limit_in_bytes", "9223372036854771712\n")
	writeFile(t, parent, "memory.limit_in_bytes", "1073741824\n")

	ctrl := newV1Controller(VariantV1Memory, dir, "/kubepods", "/kubepods/podxyz", false)
	mem := &v1MemoryController{ctrl}
	adjustMemoryController(mem, 1<<34)

	sub := &Subsystem{
		isV1:       true,
		v1Memory:   mem,
		hostMemory: 1 << 34,
		hostCPUs:   4,
		caches:     newCacheSet(),
	}
	limit := sub.MemoryLimitInBytes()
	if v, ok := limit.BytesValue(); !ok || v != 1073741824 {
		t.Fatalf("MemoryLimitInBytes after adjustment = %v, want 1073741824", limit)
	}
}

// S4: v2 container with memory.max, cpu.max and a non-default cpu.weight.
func TestScenarioV2ContainerLimits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memory.max", "268435456\n")
	writeFile(t, dir, "memory.current", "67108864\n")
	writeFile(t, dir, "cpu.max", "150000 100000\n")
	writeFile(t, dir, "cpu.weight", "200\n")
	ctrl := newV2Controller(dir, "/", false)

	sub := &Subsystem{
		isV1:       false,
		v2:         ctrl,
		hostMemory: 1 << 34,
		hostCPUs:   4,
		caches:     newCacheSet(),
	}

	if limit := sub.MemoryLimitInBytes(); limit.Kind() != Bytes {
		t.Fatalf("MemoryLimitInBytes = %v, want Bytes", limit)
	} else if v, _ := limit.BytesValue(); v != 268435456 {
		t.Fatalf("MemoryLimitInBytes = %d, want 268435456", v)
	}
	if cpus := sub.ActiveProcessorCount(); cpus.Kind() != Cpus {
		t.Fatalf("ActiveProcessorCount = %v, want Cpus", cpus)
	} else if v, _ := cpus.CpusValue(); v != 2 {
		t.Fatalf("ActiveProcessorCount = %v, want 2", v)
	}
	if shares := sub.CPUShares(); shares.Kind() != Count {
		t.Fatalf("CPUShares = %v, want Count (non-default weight)", shares)
	}
}

// S5a: v2 swap coalescing when memory.swap.max is present.
func TestScenarioV2SwapCoalescingPresent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memory.max", "268435456\n")
	writeFile(t, dir, "memory.swap.max", "134217728\n")
	ctrl := newV2Controller(dir, "/", false)

	v, unlimited, err := ctrl.MemoryAndSwapLimit(1<<34, 1<<34)
	if err != nil || unlimited || v != 402653184 {
		t.Fatalf("MemoryAndSwapLimit = %d, %v, %v, want 402653184, false, nil", v, unlimited, err)
	}
}

// S5b: v2 swap coalescing when memory.swap.max is absent (swap accounting
// disabled) — the combined limit falls back to the plain memory limit.
func TestScenarioV2SwapCoalescingAbsent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memory.max", "268435456\n")
	ctrl := newV2Controller(dir, "/", false)

	v, unlimited, err := ctrl.MemoryAndSwapLimit(1<<34, 1<<34)
	if err != nil || unlimited || v != 268435456 {
		t.Fatalf("MemoryAndSwapLimit = %d, %v, %v, want 268435456, false, nil", v, unlimited, err)
	}
}

// S6: the metric cache returns a stable value within the TTL window and a
// fresh one once it has expired.
func TestScenarioCacheTTLBoundary(t *testing.T) {
	var c metricCache
	calls := 0
	fn := func() MetricResult {
		calls++
		return MetricBytes(uint64(calls))
	}

	start := time.Now()
	first := c.get(start, fn)
	second := c.get(start.Add(cacheTTL/2), fn)
	if first != second {
		t.Fatalf("cached values differ within TTL: %v != %v", first, second)
	}
	if calls != 1 {
		t.Fatalf("fn called %d times within TTL, want 1", calls)
	}

	third := c.get(start.Add(cacheTTL+time.Millisecond), fn)
	if third == first {
		t.Fatal("value should have been recomputed after TTL expiry")
	}
	if calls != 2 {
		t.Fatalf("fn called %d times total, want 2 after expiry", calls)
	}
}
