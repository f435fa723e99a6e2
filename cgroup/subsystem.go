package cgroup

import "time"

// Subsystem is the controller-agnostic facade spec.md §4.G describes:
// every resource query routes through here regardless of whether the host
// runs cgroup v1 or v2, and it owns the per-metric result caches.
type Subsystem struct {
	isV1 bool

	v1Memory  *v1MemoryController
	v1CPU     *v1CPUController
	v1CPUAcct *v1CPUAcctController
	v1Cpuset  *v1GenericController
	v1Pids    *v1GenericController

	v2 *v2Controller

	hostMemory uint64
	hostCPUs   int

	memReadOnly     bool
	cpuReadOnly     bool
	cpuacctReadOnly bool
	cpusetReadOnly  bool

	caches *cacheSet
}

// ContainerType returns the literal "cgroupv1" or "cgroupv2".
func (s *Subsystem) ContainerType() string {
	if s.isV1 {
		return "cgroupv1"
	}
	return "cgroupv2"
}

// IsContainerized mirrors the process-wide IsContainerized flag; present on
// the facade too since callers that already hold a *Subsystem shouldn't
// need the package-level function.
func (s *Subsystem) IsContainerized() bool {
	return IsContainerized()
}

func now() time.Time { return time.Now() }

// MemoryLimitInBytes returns the effective memory limit, cached with a
// 20ms TTL (spec.md §4.G Caching).
func (s *Subsystem) MemoryLimitInBytes() MetricResult {
	return s.caches.memoryLimit.get(now(), func() MetricResult {
		var v uint64
		var unlimited bool
		var err error
		if s.isV1 {
			v, unlimited, err = s.v1Memory.MemoryLimit(s.hostMemory)
		} else {
			v, unlimited, err = s.v2.MemoryLimit(s.hostMemory)
		}
		return toMetric(v, unlimited, err)
	})
}

func (s *Subsystem) MemoryUsageInBytes() MetricResult {
	var v uint64
	var err error
	if s.isV1 {
		v, err = s.v1Memory.MemoryUsage()
	} else {
		v, err = s.v2.MemoryUsage()
	}
	return toMetric(v, false, err)
}

func (s *Subsystem) MemoryMaxUsageInBytes() MetricResult {
	var v uint64
	var err error
	if s.isV1 {
		v, err = s.v1Memory.MemoryMaxUsage()
	} else {
		v, err = s.v2.MemoryMaxUsage()
	}
	return toMetric(v, false, err)
}

func (s *Subsystem) MemorySoftLimitInBytes() MetricResult {
	var v uint64
	var unlimited bool
	var err error
	if s.isV1 {
		v, unlimited, err = s.v1Memory.MemorySoftLimit(s.hostMemory)
	} else {
		v, unlimited, err = s.v2.MemorySoftLimit(s.hostMemory)
	}
	return toMetric(v, unlimited, err)
}

// MemoryThrottleLimitInBytes returns memory.high for v2; v1 has no
// equivalent interface file and always reports Unavailable (spec.md §4.C
// has no throttle-limit file, matching the original's
// memory_throttle_limit_in_bytes, which unconditionally returns false).
func (s *Subsystem) MemoryThrottleLimitInBytes() MetricResult {
	if s.isV1 {
		return MetricUnavailable()
	}
	v, unlimited, err := s.v2.MemoryThrottleLimit(s.hostMemory)
	return toMetric(v, unlimited, err)
}

func (s *Subsystem) MemoryAndSwapLimitInBytes() MetricResult {
	var v uint64
	var unlimited bool
	var err error
	if s.isV1 {
		v, unlimited, err = s.v1Memory.MemoryAndSwapLimit(s.hostMemory, s.hostMemory)
	} else {
		v, unlimited, err = s.v2.MemoryAndSwapLimit(s.hostMemory, s.hostMemory)
	}
	return toMetric(v, unlimited, err)
}

func (s *Subsystem) MemoryAndSwapUsageInBytes() MetricResult {
	if s.isV1 {
		v, unlimited, err := s.v1Memory.MemoryAndSwapUsage(s.hostMemory, s.hostMemory)
		return toMetric(v, unlimited, err)
	}
	v, err := s.v2.MemoryAndSwapUsage()
	return toMetric(v, false, err)
}

func (s *Subsystem) RSSUsageInBytes() MetricResult {
	var v uint64
	var err error
	if s.isV1 {
		v, err = s.v1Memory.RSSUsage()
	} else {
		v, err = s.v2.RSSUsage()
	}
	return toMetric(v, false, err)
}

func (s *Subsystem) CacheUsageInBytes() MetricResult {
	var v uint64
	var err error
	if s.isV1 {
		v, err = s.v1Memory.CacheUsage()
	} else {
		v, err = s.v2.CacheUsage()
	}
	return toMetric(v, false, err)
}

// KernelMemoryUsageInBytes, KernelMemoryLimitInBytes and
// KernelMemoryMaxUsageInBytes surface v1's memory.kmem.* counters (spec.md
// §5 supplemented feature). v2 has no kmem-specific interface files.
func (s *Subsystem) KernelMemoryUsageInBytes() MetricResult {
	if !s.isV1 {
		return MetricUnavailable()
	}
	v, err := s.v1Memory.KernelMemoryUsage()
	return toMetric(v, false, err)
}

func (s *Subsystem) KernelMemoryLimitInBytes() MetricResult {
	if !s.isV1 {
		return MetricUnavailable()
	}
	v, unlimited, err := s.v1Memory.KernelMemoryLimit(s.hostMemory)
	return toMetric(v, unlimited, err)
}

func (s *Subsystem) KernelMemoryMaxUsageInBytes() MetricResult {
	if !s.isV1 {
		return MetricUnavailable()
	}
	v, err := s.v1Memory.KernelMemoryMaxUsage()
	return toMetric(v, false, err)
}

// AvailableMemoryInBytes returns memory_limit - memory_usage when both are
// known and the limit is finite (spec.md §4.G).
func (s *Subsystem) AvailableMemoryInBytes() MetricResult {
	limit := s.MemoryLimitInBytes()
	if limit.Kind() != Bytes {
		return MetricUnavailable()
	}
	usage := s.MemoryUsageInBytes()
	lv, _ := limit.BytesValue()
	uv, ok := usage.BytesValue()
	if !ok {
		return MetricUnavailable()
	}
	if uv > lv {
		return MetricBytes(0)
	}
	return MetricBytes(lv - uv)
}

// AvailableSwapInBytes implements spec.md §4.G's clamped-difference formula:
// (memsw_limit - memory_limit) - (memsw_usage - memory_usage), each
// difference clamped to [0, +inf).
func (s *Subsystem) AvailableSwapInBytes() MetricResult {
	memLimit := s.MemoryLimitInBytes()
	swapLimit := s.MemoryAndSwapLimitInBytes()
	memUsage := s.MemoryUsageInBytes()
	swapUsage := s.MemoryAndSwapUsageInBytes()

	if memLimit.Kind() != Bytes || swapLimit.Kind() != Bytes {
		return MetricUnavailable()
	}
	mlv, _ := memLimit.BytesValue()
	slv, _ := swapLimit.BytesValue()
	muv, ok1 := memUsage.BytesValue()
	suv, ok2 := swapUsage.BytesValue()
	if !ok1 || !ok2 {
		return MetricUnavailable()
	}

	limitDiff := clampNonNegative(int64(slv) - int64(mlv))
	usageDiff := clampNonNegative(int64(suv) - int64(muv))
	avail := limitDiff - usageDiff
	if avail < 0 {
		avail = 0
	}
	return MetricBytes(uint64(avail))
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// ActiveProcessorCount implements the REDESIGNED derivation (spec.md §6,
// §8 property 9): min(host_cpus, ceil(quota/period)) when a quota is
// configured, else host_cpus. Cached with a 20ms TTL.
func (s *Subsystem) ActiveProcessorCount() MetricResult {
	return s.caches.processorCount.get(now(), func() MetricResult {
		var cpus float64
		var err error
		if s.isV1 {
			cpus, err = s.v1CPU.EffectiveProcessorCount(s.hostCPUs)
		} else {
			cpus, err = s.v2.EffectiveProcessorCount(s.hostCPUs)
		}
		if err != nil {
			return MetricCpus(float64(s.hostCPUs))
		}
		return MetricCpus(cpus)
	})
}

func (s *Subsystem) CPUQuota() MetricResult {
	var v int64
	var err error
	if s.isV1 {
		v, err = s.v1CPU.CPUQuota()
	} else {
		v, err = s.v2.CPUQuota()
	}
	if err != nil {
		return MetricUnavailable()
	}
	if v < 0 {
		return MetricUnlimited()
	}
	return MetricCount(v)
}

func (s *Subsystem) CPUPeriod() MetricResult {
	var v uint64
	var err error
	if s.isV1 {
		v, err = s.v1CPU.CPUPeriod()
	} else {
		v, err = s.v2.CPUPeriod()
	}
	return toCountMetric(v, false, err)
}

// CPUShares reports Unlimited ("no share setup") iff the raw file held
// exactly the default (cpu.shares 1024 for v1, cpu.weight 100 for v2, checked
// before any weightToShares conversion) — spec.md §8 property 10.
func (s *Subsystem) CPUShares() MetricResult {
	var v int64
	var err error
	if s.isV1 {
		v, err = s.v1CPU.CPUShares()
	} else {
		v, err = s.v2.CPUShares()
	}
	if err != nil {
		return MetricUnavailable()
	}
	if v < 0 {
		return MetricUnlimited()
	}
	return MetricCount(v)
}

func (s *Subsystem) CPUUsageMicros() MetricResult {
	var v uint64
	var err error
	if s.isV1 {
		v, err = s.v1CPUAcct.CPUUsageMicros()
	} else {
		v, err = s.v2.CPUUsageMicros()
	}
	return toCountMetric(v, false, err)
}

func (s *Subsystem) CPUCpusetCPUs() (string, bool) {
	if s.isV1 {
		v, err := s.v1Cpuset.CpusetCPUs()
		return v, err == nil
	}
	v, err := s.v2.CpusetCPUs()
	return v, err == nil
}

func (s *Subsystem) CPUCpusetMemoryNodes() (string, bool) {
	if s.isV1 {
		v, err := s.v1Cpuset.CpusetMems()
		return v, err == nil
	}
	v, err := s.v2.CpusetMems()
	return v, err == nil
}

func (s *Subsystem) PidsMax() MetricResult {
	var v uint64
	var unlimited bool
	var err error
	if s.isV1 {
		if s.v1Pids == nil {
			return MetricUnavailable()
		}
		v, unlimited, err = s.v1Pids.PidsMax()
	} else {
		v, unlimited, err = s.v2.PidsMax()
	}
	return toCountMetric(v, unlimited, err)
}

func (s *Subsystem) PidsCurrent() MetricResult {
	var v uint64
	var err error
	if s.isV1 {
		if s.v1Pids == nil {
			return MetricUnavailable()
		}
		v, err = s.v1Pids.PidsCurrent()
	} else {
		v, err = s.v2.PidsCurrent()
	}
	return toCountMetric(v, false, err)
}

func toMetric(v uint64, unlimited bool, err error) MetricResult {
	if err != nil {
		return MetricUnavailable()
	}
	if unlimited {
		return MetricUnlimited()
	}
	return MetricBytes(v)
}

func toCountMetric(v uint64, unlimited bool, err error) MetricResult {
	if err != nil {
		return MetricUnavailable()
	}
	if unlimited {
		return MetricUnlimited()
	}
	return MetricCount(int64(v))
}
