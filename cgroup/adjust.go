package cgroup

import (
	"math"
	"strings"

	"cgroupdetect-go/logging"
)

// memoryLimiter is the subset of the memory controllers (v1 and v2) the
// hierarchy adjuster needs.
type memoryLimiter interface {
	Controller
	MemoryLimit(upperBound uint64) (uint64, bool, error)
}

// cpuCounter is the subset of the CPU controllers (v1 and v2) the hierarchy
// adjuster needs.
type cpuCounter interface {
	Controller
	EffectiveProcessorCount(hostCPUs int) (float64, error)
}

// effectiveProcessorCount implements the REDESIGNED active_processor_count
// formula (spec.md §6, §8 property 9): shares never reduce the reported
// count, only quota/period do.
func effectiveProcessorCount(hostCPUs int, quota, period int64) float64 {
	if quota > 0 && period > 0 {
		quotaCount := int(math.Ceil(float64(quota) / float64(period)))
		if quotaCount < hostCPUs {
			return float64(quotaCount)
		}
	}
	return float64(hostCPUs)
}

// stripLastComponent removes the last '/'-separated component of an
// absolute cgroup path, stopping (ok == false) once only a single top-level
// component remains ("/a" cannot be stripped further by this loop; the
// caller separately tries the bare root afterward).
func stripLastComponent(p string) (string, bool) {
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return p, false
	}
	return p[:idx], true
}

// adjustMemoryController implements §4.E for the memory controller: walk
// the cgroup path upward until a concrete (non-Unlimited, non-error) limit
// is found, or restore the original path if none ever is.
func adjustMemoryController(ctrl memoryLimiter, upperBound uint64) {
	if !ctrl.NeedsHierarchyAdjustment() {
		return
	}
	logging.Trace("adjusting controller path for memory", "path", ctrl.SubsystemPath())
	orig := ctrl.CgroupPath()
	candidate := orig
	pathIterated := false

	for {
		next, ok := stripLastComponent(candidate)
		if !ok {
			break
		}
		candidate = next
		ctrl.SetSubsystemPath(joinMountPath(ctrl.MountPoint(), candidate))
		pathIterated = true
		_, unlimited, err := ctrl.MemoryLimit(upperBound)
		if err == nil && !unlimited {
			logging.Trace("adjusted controller path for memory", "path", ctrl.SubsystemPath())
			return
		}
	}

	if pathIterated {
		ctrl.SetSubsystemPath(ctrl.MountPoint())
		_, unlimited, err := ctrl.MemoryLimit(upperBound)
		if err == nil && !unlimited {
			logging.Trace("adjusted controller path for memory", "path", ctrl.SubsystemPath())
			return
		}
		logging.Trace("no lower limit found in hierarchy, restoring original path", "mount_point", ctrl.MountPoint())
		ctrl.SetSubsystemPath(joinMountPath(ctrl.MountPoint(), orig))
	} else {
		logging.Trace("lowest limit for memory at leaf", "path", ctrl.SubsystemPath())
	}
}

// adjustCPUController implements §4.E for the CPU controller, using the
// effective processor count in place of a raw limit value.
func adjustCPUController(ctrl cpuCounter, hostCPUs int) {
	if !ctrl.NeedsHierarchyAdjustment() {
		return
	}
	logging.Trace("adjusting controller path for cpu", "path", ctrl.SubsystemPath())
	orig := ctrl.CgroupPath()
	candidate := orig
	pathIterated := false

	for {
		next, ok := stripLastComponent(candidate)
		if !ok {
			break
		}
		candidate = next
		ctrl.SetSubsystemPath(joinMountPath(ctrl.MountPoint(), candidate))
		pathIterated = true
		cpus, err := ctrl.EffectiveProcessorCount(hostCPUs)
		if err == nil && cpus < float64(hostCPUs) {
			logging.Trace("adjusted controller path for cpu", "path", ctrl.SubsystemPath())
			return
		}
	}

	if pathIterated {
		ctrl.SetSubsystemPath(ctrl.MountPoint())
		cpus, err := ctrl.EffectiveProcessorCount(hostCPUs)
		if err == nil && cpus < float64(hostCPUs) {
			logging.Trace("adjusted controller path for cpu", "path", ctrl.SubsystemPath())
			return
		}
		logging.Trace("no lower limit found in hierarchy, restoring original path", "mount_point", ctrl.MountPoint())
		ctrl.SetSubsystemPath(joinMountPath(ctrl.MountPoint(), orig))
	} else {
		logging.Trace("lowest limit for cpu at leaf", "path", ctrl.SubsystemPath())
	}
}

// joinMountPath concatenates a mount point with an absolute cgroup path,
// matching the v1 "root == '/'" case of §4.C without re-running the
// suffix-search heuristic (that only applies at initial construction).
func joinMountPath(mountPoint, cgroupPath string) string {
	if cgroupPath == "" || cgroupPath == "/" {
		return mountPoint
	}
	return mountPoint + cgroupPath
}
