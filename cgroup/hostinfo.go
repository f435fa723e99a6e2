package cgroup

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// hostPhysicalMemory returns the host's total physical memory in bytes, the
// "upper bound" spec.md §6 uses to decide that a v1 memory limit at or above
// it really means unlimited. unix.Sysinfo avoids re-parsing /proc/meminfo
// for a single field.
func hostPhysicalMemory() (uint64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	return uint64(info.Totalram) * uint64(info.Unit), nil
}

// hostOnlineCPUs returns the number of CPUs the host makes available to the
// scheduler, used as the host-CPU side of active_processor_count's min().
func hostOnlineCPUs() int {
	return runtime.NumCPU()
}
