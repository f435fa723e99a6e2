package cgroup

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// cgroupControllerInfo is one line of /proc/cgroups: a controller's name,
// the v1 hierarchy it belongs to (0 for v2), and whether the kernel has it
// enabled. Transient: discarded after the factory runs (spec.md §3).
type cgroupControllerInfo struct {
	name        string
	hierarchyID int
	enabled     bool
}

// parseProcCgroups parses /proc/cgroups's space-separated
// "name hierarchy_id num_cgroups enabled" lines, skipping the header.
func parseProcCgroups(r io.Reader) ([]cgroupControllerInfo, error) {
	var out []cgroupControllerInfo
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		hid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		enabled := fields[3] == "1"
		out = append(out, cgroupControllerInfo{name: fields[0], hierarchyID: hid, enabled: enabled})
	}
	return out, scanner.Err()
}

// parseSelfCgroup parses /proc/self/cgroup's "id:controllers:path" lines
// (v1) or the single "0::path" line (v2), returning a controller-name to
// path map. v2's controller list is always empty, so its path is stored
// under the synthetic key "" and must be applied to every v2 controller.
func parseSelfCgroup(r io.Reader) (map[string]string, error) {
	paths := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		controllers, path := parts[1], parts[2]
		if controllers == "" {
			paths[""] = path
			continue
		}
		for _, name := range strings.Split(controllers, ",") {
			paths[name] = path
		}
	}
	return paths, scanner.Err()
}

// mountEntry is one parsed line of /proc/self/mountinfo (man 5 proc):
// field 4 is root, field 5 is mount point, field 6 is options (the
// read-only bit lives here), and after the "-" separator come filesystem
// type and super-options. Transient, discarded after the factory runs.
type mountEntry struct {
	root       string
	mountPoint string
	readOnly   bool
	fsType     string
	superOpts  string
}

// parseMountinfo parses /proc/self/mountinfo, returning only cgroup and
// cgroup2 entries.
func parseMountinfo(r io.Reader) ([]mountEntry, error) {
	var out []mountEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		sepIdx := strings.Index(line, " - ")
		if sepIdx < 0 {
			continue
		}
		pre := strings.Fields(line[:sepIdx])
		post := strings.Fields(line[sepIdx+3:])
		if len(pre) < 6 || len(post) < 3 {
			continue
		}
		fsType := post[0]
		if fsType != "cgroup" && fsType != "cgroup2" {
			continue
		}
		root := pre[3]
		mountPoint := pre[4]
		opts := pre[5]
		readOnly := strings.Split(opts, ",")[0] == "ro"
		superOpts := post[2]
		out = append(out, mountEntry{
			root:       root,
			mountPoint: mountPoint,
			readOnly:   readOnly,
			fsType:     fsType,
			superOpts:  superOpts,
		})
	}
	return out, scanner.Err()
}

func openProc(path string) (*os.File, error) {
	return os.Open(path)
}
