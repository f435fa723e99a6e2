package cgroup

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	cgerrors "cgroupdetect-go/errors"
	"cgroupdetect-go/logging"
)

const (
	procCgroupsPath    = "/proc/cgroups"
	procSelfCgroupPath = "/proc/self/cgroup"
	procMountinfoPath  = "/proc/self/mountinfo"
)

// requiredV1Controllers must all be enabled at the kernel level for v1
// detection to succeed (spec.md §4.F step 1).
var requiredV1Controllers = []string{"memory", "cpu", "cpuacct", "cpuset"}

var containerizedFlag atomic.Bool
var detectOnce sync.Once

// IsContainerized reports the process-wide containerization flag, settable
// exactly once by Detect and queryable without going through the facade
// (spec.md §6 "Process-wide singleton flag").
func IsContainerized() bool {
	return containerizedFlag.Load()
}

// Detect parses /proc/cgroups, /proc/self/cgroup and /proc/self/mountinfo,
// classifies the cgroup regime, constructs the appropriate controllers, runs
// the hierarchy adjuster, and returns the subsystem facade. It returns
// (nil, err) if the environment cannot be classified: a required v1
// controller is kernel-disabled, or no cgroup2 mount exists for a v2 host.
// Detect is safe to call more than once, but only the first call actually
// probes the filesystem and latches IsContainerized; later calls return an
// error wrapping ErrAlreadyDetected.
func Detect() (*Subsystem, error) {
	var sub *Subsystem
	var detectErr error
	ran := false
	detectOnce.Do(func() {
		ran = true
		sub, detectErr = detect()
	})
	if !ran {
		return nil, cgerrors.Wrap(cgerrors.ErrAlreadyDetected, cgerrors.ErrInternal, "detect")
	}
	return sub, detectErr
}

func detect() (*Subsystem, error) {
	log := logging.WithComponent(logging.Default(), "factory")

	cgroupsFile, err := openProc(procCgroupsPath)
	if err != nil {
		return nil, cgerrors.WrapWithPath(err, cgerrors.ErrMountNotFound, "detect", procCgroupsPath)
	}
	controllers, err := parseProcCgroups(cgroupsFile)
	cgroupsFile.Close()
	if err != nil {
		return nil, cgerrors.WrapWithPath(err, cgerrors.ErrParseError, "detect", procCgroupsPath)
	}

	isV2 := true
	byName := make(map[string]cgroupControllerInfo, len(controllers))
	for _, c := range controllers {
		byName[c.name] = c
		if c.hierarchyID != 0 {
			isV2 = false
		}
	}

	if !isV2 {
		for _, name := range requiredV1Controllers {
			info, ok := byName[name]
			if !ok || !info.enabled {
				log.Debug("required v1 controller disabled or absent", "controller", name)
				return nil, cgerrors.WrapWithDetail(cgerrors.ErrControllerDisabled, cgerrors.ErrKernelMisconfigured, "detect", name)
			}
		}
	}

	selfCgroupFile, err := openProc(procSelfCgroupPath)
	if err != nil {
		return nil, cgerrors.WrapWithPath(err, cgerrors.ErrMountNotFound, "detect", procSelfCgroupPath)
	}
	cgroupPaths, err := parseSelfCgroup(selfCgroupFile)
	selfCgroupFile.Close()
	if err != nil {
		return nil, cgerrors.WrapWithPath(err, cgerrors.ErrParseError, "detect", procSelfCgroupPath)
	}

	mountinfoFile, err := openProc(procMountinfoPath)
	if err != nil {
		return nil, cgerrors.WrapWithPath(err, cgerrors.ErrMountNotFound, "detect", procMountinfoPath)
	}
	mounts, err := parseMountinfo(mountinfoFile)
	mountinfoFile.Close()
	if err != nil {
		return nil, cgerrors.WrapWithPath(err, cgerrors.ErrParseError, "detect", procMountinfoPath)
	}

	var sub *Subsystem
	if isV2 {
		sub, err = buildV2Subsystem(mounts, cgroupPaths, log)
	} else {
		sub, err = buildV1Subsystem(mounts, cgroupPaths, log)
	}
	if err != nil {
		return nil, err
	}

	containerized, reason := decideContainerized(sub)
	containerizedFlag.Store(containerized)
	log.Debug("containerization decision", "containerized", containerized, "reason", reason)

	return sub, nil
}

func buildV2Subsystem(mounts []mountEntry, cgroupPaths map[string]string, log *slog.Logger) (*Subsystem, error) {
	var chosen *mountEntry
	for i := range mounts {
		if mounts[i].fsType == "cgroup2" {
			chosen = &mounts[i]
			break
		}
	}
	if chosen == nil {
		return nil, cgerrors.Wrap(cgerrors.ErrNoCgroup2Mount, cgerrors.ErrMountNotFound, "detect")
	}

	path, ok := cgroupPaths[""]
	if !ok {
		path = "/"
	}

	ctrl := newV2Controller(chosen.mountPoint, path, chosen.readOnly)
	hostMem, _ := hostPhysicalMemory()
	hostCPUs := hostOnlineCPUs()
	adjustMemoryController(ctrl, hostMem)
	adjustCPUController(ctrl, hostCPUs)

	return &Subsystem{
		v2:              ctrl,
		isV1:            false,
		hostMemory:      hostMem,
		hostCPUs:        hostCPUs,
		caches:          newCacheSet(),
		memReadOnly:     ctrl.IsReadOnly(),
		cpuReadOnly:     ctrl.IsReadOnly(),
		cpuacctReadOnly: ctrl.IsReadOnly(),
		cpusetReadOnly:  ctrl.IsReadOnly(),
	}, nil
}

func buildV1Subsystem(mounts []mountEntry, cgroupPaths map[string]string, log *slog.Logger) (*Subsystem, error) {
	mountByController := make(map[string]mountEntry)
	for _, m := range mounts {
		if m.fsType != "cgroup" {
			continue
		}
		for _, name := range strings.Split(m.superOpts, ",") {
			mountByController[name] = m
		}
	}

	build := func(name string, variant Variant) (*v1Controller, error) {
		m, ok := mountByController[name]
		if !ok {
			return nil, cgerrors.WrapWithDetail(cgerrors.ErrNoControllerMount, cgerrors.ErrMountNotFound, "detect", name)
		}
		path, ok := cgroupPaths[name]
		if !ok {
			path = "/"
		}
		return newV1Controller(variant, m.mountPoint, m.root, path, m.readOnly), nil
	}

	memBase, err := build("memory", VariantV1Memory)
	if err != nil {
		return nil, err
	}
	cpuBase, err := build("cpu", VariantV1CPU)
	if err != nil {
		return nil, err
	}
	cpuacctBase, err := build("cpuacct", VariantV1CPUAcct)
	if err != nil {
		return nil, err
	}
	cpusetBase, err := build("cpuset", VariantV1Generic)
	if err != nil {
		return nil, err
	}
	pidsBase, err := build("pids", VariantV1Generic)
	if err != nil {
		// pids is a newer controller than the others; its absence does not
		// abort detection the way a missing memory/cpu/cpuacct/cpuset mount
		// does, since older kernels may lack pid accounting entirely.
		log.Debug("pids controller not mounted", "error", err)
		pidsBase = nil
	}

	mem := &v1MemoryController{memBase}
	cpu := &v1CPUController{cpuBase}
	cpuacct := &v1CPUAcctController{cpuacctBase}
	cpuset := &v1GenericController{cpusetBase}
	var pids *v1GenericController
	if pidsBase != nil {
		pids = &v1GenericController{pidsBase}
	}

	hostMem, _ := hostPhysicalMemory()
	hostCPUs := hostOnlineCPUs()
	adjustMemoryController(mem, hostMem)
	adjustCPUController(cpu, hostCPUs)

	return &Subsystem{
		v1Memory:        mem,
		v1CPU:           cpu,
		v1CPUAcct:       cpuacct,
		v1Cpuset:        cpuset,
		v1Pids:          pids,
		isV1:            true,
		hostMemory:      hostMem,
		hostCPUs:        hostCPUs,
		caches:          newCacheSet(),
		memReadOnly:     mem.IsReadOnly(),
		cpuReadOnly:     cpu.IsReadOnly(),
		cpuacctReadOnly: cpuacct.IsReadOnly(),
		cpusetReadOnly:  cpuset.IsReadOnly(),
	}, nil
}

// decideContainerized implements spec.md §4.F step 7: "containerized" iff
// every relevant mount is read-only, or any memory/cpu limit differs from
// the host value. v1 has four independently-mounted controllers (memory,
// cpu, cpuacct, cpuset) that must ALL be read-only, matching
// CgroupV1Subsystem::is_containerized(); v2's single unified mount makes
// memReadOnly/cpuReadOnly redundant copies of the same flag, so the v1-only
// fields are only consulted for a v1 subsystem.
func decideContainerized(sub *Subsystem) (bool, string) {
	allReadOnly := sub.memReadOnly && sub.cpuReadOnly
	if sub.isV1 {
		allReadOnly = allReadOnly && sub.cpuacctReadOnly && sub.cpusetReadOnly
	}
	if allReadOnly {
		return true, "all controller mounts read-only"
	}
	if limit := sub.MemoryLimitInBytes(); limit.Kind() == Bytes {
		return true, "memory limit differs from host"
	}
	if cpus := sub.ActiveProcessorCount(); cpus.Kind() == Cpus {
		if v, ok := cpus.CpusValue(); ok && int(v) != sub.hostCPUs {
			return true, "cpu limit differs from host"
		}
	}
	return false, "no containerizing limit observed"
}
