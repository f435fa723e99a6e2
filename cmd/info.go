package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cgroupdetect-go/cgroup"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the cgroup limits detected for the current process",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print as a JSON object instead of a table")
	rootCmd.AddCommand(infoCmd)
}

// infoField is one row of the report: a label and its rendered metric value.
type infoField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	sub, err := cgroup.Detect()
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	cpusetCPUs, _ := sub.CPUCpusetCPUs()
	cpusetMems, _ := sub.CPUCpusetMemoryNodes()

	fields := []infoField{
		{"container_type", sub.ContainerType()},
		{"containerized", fmt.Sprintf("%t", sub.IsContainerized())},
		{"memory_limit_bytes", sub.MemoryLimitInBytes().String()},
		{"memory_usage_bytes", sub.MemoryUsageInBytes().String()},
		{"memory_max_usage_bytes", sub.MemoryMaxUsageInBytes().String()},
		{"memory_soft_limit_bytes", sub.MemorySoftLimitInBytes().String()},
		{"memory_throttle_limit_bytes", sub.MemoryThrottleLimitInBytes().String()},
		{"memory_and_swap_limit_bytes", sub.MemoryAndSwapLimitInBytes().String()},
		{"memory_and_swap_usage_bytes", sub.MemoryAndSwapUsageInBytes().String()},
		{"rss_usage_bytes", sub.RSSUsageInBytes().String()},
		{"cache_usage_bytes", sub.CacheUsageInBytes().String()},
		{"available_memory_bytes", sub.AvailableMemoryInBytes().String()},
		{"available_swap_bytes", sub.AvailableSwapInBytes().String()},
		{"active_processor_count", sub.ActiveProcessorCount().String()},
		{"cpu_quota_us", sub.CPUQuota().String()},
		{"cpu_period_us", sub.CPUPeriod().String()},
		{"cpu_shares", sub.CPUShares().String()},
		{"cpu_usage_us", sub.CPUUsageMicros().String()},
		{"cpuset_cpus", cpusetCPUs},
		{"cpuset_mems", cpusetMems},
		{"pids_max", sub.PidsMax().String()},
		{"pids_current", sub.PidsCurrent().String()},
	}

	if infoJSON {
		return printInfoJSON(fields)
	}
	return printInfoTable(fields)
}

func printInfoJSON(fields []infoField) error {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// printInfoTable renders an aligned table on a TTY, or plain key=value lines
// when stdout is piped — the same TTY-vs-pipe branch the teacher used to
// decide how much to format interactive output.
func printInfoTable(fields []infoField) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		for _, f := range fields {
			fmt.Printf("%s=%s\n", f.Name, f.Value)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(w, "%s\t%s\n", f.Name, f.Value)
	}
	return w.Flush()
}
