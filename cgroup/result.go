// Package cgroup reads CPU, memory, and PID limits imposed on the current
// process by the Linux cgroup v1/v2 hierarchy, independent of what the host's
// /proc/meminfo or runtime.NumCPU() report.
package cgroup

import "fmt"

// Kind identifies which variant a MetricResult holds.
type Kind int

const (
	// Unavailable means the underlying read failed (missing file, parse
	// error, or path overflow); callers should fall back to a host-wide
	// measurement.
	Unavailable Kind = iota
	// Unlimited means the controller imposes no constraint on this metric.
	Unlimited
	// Bytes holds a byte-count value (memory limits, usage).
	Bytes
	// Count holds an integer count (PIDs, CPU period/quota in microseconds).
	Count
	// Cpus holds a floating-point effective processor count.
	Cpus
)

// MetricResult is a closed tagged union returned by every facade query. It
// replaces the sentinel values (-1, overloaded zero) that cgroup readers
// traditionally use to signal "no limit" or "unknown".
type MetricResult struct {
	kind  Kind
	bytes uint64
	count int64
	cpus  float64
}

// MetricUnavailable returns a result signaling the metric could not be read.
func MetricUnavailable() MetricResult {
	return MetricResult{kind: Unavailable}
}

// MetricUnlimited returns a result signaling the controller imposes no limit.
func MetricUnlimited() MetricResult {
	return MetricResult{kind: Unlimited}
}

// MetricBytes returns a byte-count result.
func MetricBytes(v uint64) MetricResult {
	return MetricResult{kind: Bytes, bytes: v}
}

// MetricCount returns an integer-count result.
func MetricCount(v int64) MetricResult {
	return MetricResult{kind: Count, count: v}
}

// MetricCpus returns a floating-point processor-count result.
func MetricCpus(v float64) MetricResult {
	return MetricResult{kind: Cpus, cpus: v}
}

// Kind reports which variant this result holds.
func (m MetricResult) Kind() Kind {
	return m.kind
}

// IsAvailable reports whether the metric was successfully read (including
// the Unlimited case).
func (m MetricResult) IsAvailable() bool {
	return m.kind != Unavailable
}

// BytesValue returns the byte-count value and true, or (0, false) if this result
// is not a Bytes variant.
func (m MetricResult) BytesValue() (uint64, bool) {
	if m.kind != Bytes {
		return 0, false
	}
	return m.bytes, true
}

// CountValue returns the integer-count value and true, or (0, false) if this
// result is not a Count variant.
func (m MetricResult) CountValue() (int64, bool) {
	if m.kind != Count {
		return 0, false
	}
	return m.count, true
}

// CpusValue returns the processor-count value and true, or (0, false) if
// this result is not a Cpus variant.
func (m MetricResult) CpusValue() (float64, bool) {
	if m.kind != Cpus {
		return 0, false
	}
	return m.cpus, true
}

// String renders the result for logging and the info CLI.
func (m MetricResult) String() string {
	switch m.kind {
	case Unavailable:
		return "unavailable"
	case Unlimited:
		return "unlimited"
	case Bytes:
		return fmt.Sprintf("%d bytes", m.bytes)
	case Count:
		return fmt.Sprintf("%d", m.count)
	case Cpus:
		return fmt.Sprintf("%.2f", m.cpus)
	default:
		return "unknown"
	}
}
