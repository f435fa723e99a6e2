package cgroup

import (
	"math"

	"cgroupdetect-go/logging"
)

// v2DefaultWeight is cpu.weight's default value; a process that never had
// weight configured reads back exactly this number and maps to "no share
// setup" the same way v1's default 1024 shares does.
const v2DefaultWeight = 100

// v2Controller backs every subsystem query under cgroup v2's single unified
// hierarchy: one instance, one subsystem_path, every interface file lives
// alongside the others.
type v2Controller struct {
	baseController
	rd *reader
}

func newV2Controller(mountPoint, cgroupPath string, readOnly bool) *v2Controller {
	c := &v2Controller{}
	c.mountPoint = mountPoint
	c.cgroupPath = cgroupPath
	c.readOnly = readOnly
	c.SetSubsystemPath(v2SubsystemPath(mountPoint, cgroupPath))
	return c
}

// v2SubsystemPath implements spec.md §8 property 6: the mount point itself
// when the cgroup path is the root, otherwise the mount point joined with
// the path.
func v2SubsystemPath(mountPoint, cgroupPath string) string {
	if cgroupPath == "" || cgroupPath == "/" {
		return mountPoint
	}
	return mountPoint + cgroupPath
}

func (c *v2Controller) Variant() Variant { return VariantV2Unified }

func (c *v2Controller) NeedsHierarchyAdjustment() bool {
	return c.cgroupPath != "/"
}

func (c *v2Controller) SetSubsystemPath(path string) {
	c.subsystemPath = path
	c.rd = newReader(path)
}

// MemoryLimit reads memory.max; the literal "max" is unlimited, and so is
// any concrete value at or above upperBound (the host-RAM ceiling used
// identically to the v1 path).
func (c *v2Controller) MemoryLimit(upperBound uint64) (uint64, bool, error) {
	v, unlimited, err := c.rd.readNumberMax("/memory.max")
	if err != nil {
		return 0, false, err
	}
	if unlimited || v >= upperBound {
		if !unlimited {
			logging.Trace("v2 memory limit treated as unlimited", "raw", v, "upper_bound", upperBound)
		}
		return 0, true, nil
	}
	return v, false, nil
}

func (c *v2Controller) MemoryUsage() (uint64, error) {
	return c.rd.readNumber("/memory.current")
}

func (c *v2Controller) MemoryMaxUsage() (uint64, error) {
	return c.rd.readNumber("/memory.peak")
}

func (c *v2Controller) MemorySoftLimit(upperBound uint64) (uint64, bool, error) {
	v, unlimited, err := c.rd.readNumberMax("/memory.low")
	if err != nil {
		return 0, false, err
	}
	if unlimited || v >= upperBound {
		return 0, true, nil
	}
	return v, false, nil
}

// MemoryThrottleLimit reads memory.high, v2's analogue of a soft throttle
// limit (v1 has no equivalent file; v1's accessor always reports
// Unavailable).
func (c *v2Controller) MemoryThrottleLimit(upperBound uint64) (uint64, bool, error) {
	v, unlimited, err := c.rd.readNumberMax("/memory.high")
	if err != nil {
		return 0, false, err
	}
	if unlimited || v >= upperBound {
		return 0, true, nil
	}
	return v, false, nil
}

// MemoryAndSwapLimit reads memory.swap.max; a failure to read it means swap
// accounting isn't compiled in, in which case the combined limit equals the
// plain memory limit (spec.md §4.D).
func (c *v2Controller) MemoryAndSwapLimit(upperMemBound, upperSwapBound uint64) (uint64, bool, error) {
	memLimit, memUnlimited, err := c.MemoryLimit(upperMemBound)
	if err != nil {
		return 0, false, err
	}
	swap, swapUnlimited, serr := c.rd.readNumberMax("/memory.swap.max")
	if serr != nil {
		logging.Trace("memory.swap.max unreadable, swap accounting disabled")
		return memLimit, memUnlimited, nil
	}
	if memUnlimited || swapUnlimited {
		return 0, true, nil
	}
	total := memLimit + swap
	if total >= upperMemBound+upperSwapBound {
		return 0, true, nil
	}
	return total, false, nil
}

// MemoryAndSwapUsage sums memory.current and memory.swap.current (spec.md §5
// supplemented feature, grounded in CgroupV2MemoryController's
// memory_and_swap_usage_in_bytes).
func (c *v2Controller) MemoryAndSwapUsage() (uint64, error) {
	mem, err := c.MemoryUsage()
	if err != nil {
		return 0, err
	}
	swap, err := c.rd.readNumber("/memory.swap.current")
	if err != nil {
		// Swap accounting absent: usage is just the memory figure.
		return mem, nil
	}
	return mem + swap, nil
}

func (c *v2Controller) RSSUsage() (uint64, error) {
	return c.rd.readKeyValue("/memory.stat", "anon")
}

func (c *v2Controller) CacheUsage() (uint64, error) {
	return c.rd.readKeyValue("/memory.stat", "file")
}

// CPUQuota and CPUPeriod both read the two-token cpu.max file; quota may be
// "max" (-1).
func (c *v2Controller) CPUQuota() (int64, error) {
	v, unlimited, err := c.rd.readTuple("/cpu.max", tupleFirst)
	if err != nil {
		return 0, err
	}
	if unlimited {
		return -1, nil
	}
	return v, nil
}

func (c *v2Controller) CPUPeriod() (uint64, error) {
	v, _, err := c.rd.readTuple("/cpu.max", tupleSecond)
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

// CPUShares maps cpu.weight (1..10000, default 100) back onto the v1 share
// space using the closed-form inverse of weight = 1 + ((share-2)*9999/262142),
// rounded to the nearest multiple of perCPUShares (spec.md §9 "Mapping
// cpu.weight <-> cpu.shares"). A weight of 100 is "no share setup" (-1),
// exactly like v1's default-1024 case.
func (c *v2Controller) CPUShares() (int64, error) {
	weight, err := c.rd.readNumber("/cpu.weight")
	if err != nil {
		return 0, err
	}
	if weight == v2DefaultWeight {
		return -1, nil
	}
	shares := weightToShares(weight)
	return shares, nil
}

// weightToShares inverts cpu.weight's mapping and rounds to the nearest
// multiple of 1024, preferring the lower multiple on a tie (spec.md §9).
func weightToShares(weight uint64) int64 {
	share := 2.0 + (float64(weight)-1.0)*262142.0/9999.0
	rounded := int64(math.Ceil(share/perCPUShares-0.5)) * perCPUShares
	if rounded < perCPUShares {
		rounded = perCPUShares
	}
	return rounded
}

func (c *v2Controller) CPUUsageMicros() (uint64, error) {
	return c.rd.readKeyValue("/cpu.stat", "usage_usec")
}

// EffectiveProcessorCount is the v2 counterpart of v1CPUController's
// identically named method, used by the hierarchy adjuster.
func (c *v2Controller) EffectiveProcessorCount(hostCPUs int) (float64, error) {
	quota, err := c.CPUQuota()
	if err != nil {
		return float64(hostCPUs), err
	}
	period, err := c.CPUPeriod()
	if err != nil {
		return float64(hostCPUs), err
	}
	return effectiveProcessorCount(hostCPUs, quota, int64(period)), nil
}

func (c *v2Controller) CpusetCPUs() (string, error) {
	return c.rd.readString("/cpuset.cpus")
}

func (c *v2Controller) CpusetMems() (string, error) {
	return c.rd.readString("/cpuset.mems")
}

func (c *v2Controller) PidsMax() (uint64, bool, error) {
	return c.rd.readNumberMax("/pids.max")
}

func (c *v2Controller) PidsCurrent() (uint64, error) {
	return c.rd.readNumber("/pids.current")
}
