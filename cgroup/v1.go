package cgroup

import (
	"os"
	"path/filepath"
	"strings"

	"cgroupdetect-go/logging"
)

// perCPUShares is the default cgroup v1 CPU shares value; a process that
// never had cpu.shares configured reads back exactly this number.
const perCPUShares = 1024

// v1Unlimited is the value memory.limit_in_bytes/memsw.limit_in_bytes report
// when no limit is configured (2^63 rounded down to a page, the kernel's
// traditional "no limit" sentinel for v1).
const v1Unlimited = uint64(9223372036854771712)

// v1Controller is the shared base for every cgroup v1 controller: memory,
// cpu, cpuacct, and the generic cpuset/pids controllers. root is the cgroup
// that was the controller's root at mount time; it is compared against
// cgroupPath to detect a host-namespace container moved to a sub-cgroup.
type v1Controller struct {
	baseController
	root    string
	variant Variant
	rd      *reader
}

func newV1Controller(variant Variant, mountPoint, root, cgroupPath string, readOnly bool) *v1Controller {
	c := &v1Controller{
		root:    root,
		variant: variant,
	}
	c.mountPoint = mountPoint
	c.cgroupPath = cgroupPath
	c.readOnly = readOnly
	c.setSubsystemPath(cgroupPath)
	return c
}

func (c *v1Controller) Variant() Variant { return c.variant }

func (c *v1Controller) NeedsHierarchyAdjustment() bool {
	return c.root != c.cgroupPath
}

func (c *v1Controller) SetSubsystemPath(path string) {
	c.subsystemPath = path
	c.rd = newReader(path)
}

// setSubsystemPath implements spec.md §4.C's three-case path construction
// and is called once at construction; later hierarchy-adjustment calls go
// through the plain SetSubsystemPath instead (it must not re-run suffix
// search once the path has been adjusted upward by the caller).
func (c *v1Controller) setSubsystemPath(cgroupPath string) {
	var path string
	switch {
	case c.root == "/":
		path = c.mountPoint
		if cgroupPath != "/" {
			path = filepath.Join(c.mountPoint, cgroupPath)
		}
	case c.root == cgroupPath:
		path = c.mountPoint
	default:
		path = c.mountPoint
		if cgroupPath != "" && cgroupPath != "/" {
			suffix := cgroupPath
			found := false
			for suffix != "" {
				candidate := filepath.Join(c.mountPoint, suffix)
				if dirExists(candidate) {
					path = candidate
					if suffix != cgroupPath {
						logging.Trace("cgroup v1 path reduced", "suffix", suffix)
					}
					found = true
					break
				}
				logging.Trace("cgroup v1 path candidate missing", "suffix", suffix)
				idx := strings.Index(suffix[1:], "/")
				if idx < 0 {
					break
				}
				suffix = suffix[1+idx:]
			}
			if !found {
				path = c.mountPoint
			}
		}
	}
	c.subsystemPath = path
	c.rd = newReader(path)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// v1MemoryController implements the memory.* interface files of §4.C,
// including the "use hierarchy" fallback to memory.stat's
// hierarchical_memory_limit/hierarchical_memsw_limit keys.
type v1MemoryController struct {
	*v1Controller
}

func newV1MemoryController(mountPoint, root, cgroupPath string, readOnly bool) *v1MemoryController {
	return &v1MemoryController{newV1Controller(VariantV1Memory, mountPoint, root, cgroupPath, readOnly)}
}

func (m *v1MemoryController) usesHierarchy() bool {
	v, err := m.rd.readNumber("/memory.use_hierarchy")
	return err == nil && v > 0
}

// MemoryLimit reads memory.limit_in_bytes, treating values at or above
// upperBound as unlimited unless memory.stat's hierarchical_memory_limit is
// both enabled (use_hierarchy > 0) and strictly below upperBound.
func (m *v1MemoryController) MemoryLimit(upperBound uint64) (uint64, bool, error) {
	limit, err := m.rd.readNumber("/memory.limit_in_bytes")
	if err != nil {
		return 0, false, err
	}
	if limit < upperBound {
		return limit, false, nil
	}
	if m.usesHierarchy() {
		if hier, herr := m.rd.readKeyValue("/memory.stat", "hierarchical_memory_limit"); herr == nil && hier < upperBound {
			return hier, false, nil
		}
	}
	logging.Trace("v1 memory limit treated as unlimited", "raw", limit, "upper_bound", upperBound)
	return 0, true, nil
}

func (m *v1MemoryController) MemoryUsage() (uint64, error) {
	return m.rd.readNumber("/memory.usage_in_bytes")
}

func (m *v1MemoryController) MemoryMaxUsage() (uint64, error) {
	return m.rd.readNumber("/memory.max_usage_in_bytes")
}

func (m *v1MemoryController) MemorySoftLimit(upperBound uint64) (uint64, bool, error) {
	limit, err := m.rd.readNumber("/memory.soft_limit_in_bytes")
	if err != nil {
		return 0, false, err
	}
	if limit >= upperBound {
		return 0, true, nil
	}
	return limit, false, nil
}

// MemoryAndSwapLimit implements the memory+swap limit derivation including
// the hierarchical fallback and the swappiness-zero / swap-unsupported
// coercion to the plain memory limit (spec.md §5 supplemented feature).
func (m *v1MemoryController) MemoryAndSwapLimit(upperMemBound, upperSwapBound uint64) (uint64, bool, error) {
	total := upperMemBound + upperSwapBound
	memSwap, readErr := m.rd.readNumber("/memory.memsw.limit_in_bytes")
	swapReadFailed := readErr != nil

	unlimited := false
	if memSwap >= total {
		if m.usesHierarchy() {
			if hier, herr := m.rd.readKeyValue("/memory.stat", "hierarchical_memsw_limit"); herr == nil && hier < total {
				memSwap = hier
			} else {
				unlimited = true
			}
		} else {
			unlimited = true
		}
	}
	if unlimited {
		return 0, true, nil
	}

	swappiness, swErr := m.rd.readNumber("/memory.swappiness")
	if swErr != nil {
		swapReadFailed = true
	}
	if swappiness == 0 || swapReadFailed {
		memLimit, memUnlimited, err := m.MemoryLimit(upperMemBound)
		if err != nil {
			return 0, false, err
		}
		if memUnlimited {
			return 0, true, nil
		}
		if swapReadFailed {
			logging.Trace("memory+swap limit reset to memory limit: swap unsupported", "limit", memLimit)
		} else {
			logging.Trace("memory+swap limit reset to memory limit: swappiness is 0", "limit", memLimit)
		}
		return memLimit, false, nil
	}
	return memSwap, false, nil
}

// MemoryAndSwapUsage implements the early-return-on-no-swap-allowed branch
// (spec.md §5 supplemented feature): when the combined limit equals the
// plain memory limit, the memsw usage file is never read.
func (m *v1MemoryController) MemoryAndSwapUsage(upperMemBound, upperSwapBound uint64) (uint64, bool, error) {
	swapLimit, swapUnlimited, err := m.MemoryAndSwapLimit(upperMemBound, upperSwapBound)
	if err != nil {
		return 0, false, err
	}
	memLimit, memUnlimited, err := m.MemoryLimit(upperMemBound)
	if err != nil {
		return 0, false, err
	}
	if !swapUnlimited && !memUnlimited && memLimit < swapLimit {
		usage, uerr := m.rd.readNumber("/memory.memsw.usage_in_bytes")
		if uerr != nil {
			return 0, false, uerr
		}
		return usage, false, nil
	}
	usage, err := m.MemoryUsage()
	if err != nil {
		return 0, false, err
	}
	return usage, false, nil
}

func (m *v1MemoryController) RSSUsage() (uint64, error) {
	return m.rd.readKeyValue("/memory.stat", "rss")
}

func (m *v1MemoryController) CacheUsage() (uint64, error) {
	return m.rd.readKeyValue("/memory.stat", "cache")
}

// KernelMemoryUsage, KernelMemoryLimit and KernelMemoryMaxUsage surface the
// memory.kmem.* counters, carried in per spec.md §5's supplemented-features
// section even though the facade never uses them in limit arithmetic.
func (m *v1MemoryController) KernelMemoryUsage() (uint64, error) {
	return m.rd.readNumber("/memory.kmem.usage_in_bytes")
}

func (m *v1MemoryController) KernelMemoryLimit(upperBound uint64) (uint64, bool, error) {
	limit, err := m.rd.readNumber("/memory.kmem.limit_in_bytes")
	if err != nil {
		return 0, false, err
	}
	if limit >= upperBound {
		return 0, true, nil
	}
	return limit, false, nil
}

func (m *v1MemoryController) KernelMemoryMaxUsage() (uint64, error) {
	return m.rd.readNumber("/memory.kmem.max_usage_in_bytes")
}

// v1CPUController implements cpu.cfs_quota_us, cpu.cfs_period_us and
// cpu.shares.
type v1CPUController struct {
	*v1Controller
}

func newV1CPUController(mountPoint, root, cgroupPath string, readOnly bool) *v1CPUController {
	return &v1CPUController{newV1Controller(VariantV1CPU, mountPoint, root, cgroupPath, readOnly)}
}

// CPUQuota returns cpu.cfs_quota_us; -1 means unlimited.
func (c *v1CPUController) CPUQuota() (int64, error) {
	return c.rd.readSignedNumber("/cpu.cfs_quota_us")
}

func (c *v1CPUController) CPUPeriod() (uint64, error) {
	return c.rd.readNumber("/cpu.cfs_period_us")
}

// CPUShares returns -1 ("no share setup") when the raw file holds exactly
// the default 1024, matching a process that never had shares configured.
func (c *v1CPUController) CPUShares() (int64, error) {
	raw, err := c.rd.readNumber("/cpu.shares")
	if err != nil {
		return 0, err
	}
	if raw == perCPUShares {
		return -1, nil
	}
	return int64(raw), nil
}

// EffectiveProcessorCount implements the REDESIGNED active_processor_count
// derivation for the hierarchy adjuster (spec.md §6): shares never
// participate, only quota/period.
func (c *v1CPUController) EffectiveProcessorCount(hostCPUs int) (float64, error) {
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

// v1CPUAcctController implements cpuacct.usage, converting nanoseconds to
// microseconds.
type v1CPUAcctController struct {
	*v1Controller
}

func newV1CPUAcctController(mountPoint, root, cgroupPath string, readOnly bool) *v1CPUAcctController {
	return &v1CPUAcctController{newV1Controller(VariantV1CPUAcct, mountPoint, root, cgroupPath, readOnly)}
}

func (c *v1CPUAcctController) CPUUsageMicros() (uint64, error) {
	ns, err := c.rd.readNumber("/cpuacct.usage")
	if err != nil {
		return 0, err
	}
	return ns / 1000, nil
}

// v1GenericController backs cpuset and pids, whose interface files are read
// directly without any memory/cpu-specific logic.
type v1GenericController struct {
	*v1Controller
}

func newV1GenericController(mountPoint, root, cgroupPath string, readOnly bool) *v1GenericController {
	return &v1GenericController{newV1Controller(VariantV1Generic, mountPoint, root, cgroupPath, readOnly)}
}

func (c *v1GenericController) CpusetCPUs() (string, error) {
	return c.rd.readString("/cpuset.cpus")
}

func (c *v1GenericController) CpusetMems() (string, error) {
	return c.rd.readString("/cpuset.mems")
}

func (c *v1GenericController) PidsMax() (uint64, bool, error) {
	return c.rd.readNumberMax("/pids.max")
}

func (c *v1GenericController) PidsCurrent() (uint64, error) {
	return c.rd.readNumber("/pids.current")
}
