// cgroupdetect-go reports the CPU, memory and PID limits the Linux cgroup
// v1/v2 hierarchy imposes on the current process, the same one-time
// detection a managed-runtime VM performs at startup to size its thread
// pools and heap instead of trusting /proc/meminfo or runtime.NumCPU().
//
// Commands:
//
//	info    - detect and print the current process's cgroup limits
//	version - print version information
package main

import (
	"fmt"
	"os"

	"cgroupdetect-go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
