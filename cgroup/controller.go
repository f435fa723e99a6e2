package cgroup

// Variant identifies which concrete controller implementation backs a
// Controller value.
type Variant int

const (
	VariantV1Memory Variant = iota
	VariantV1CPU
	VariantV1CPUAcct
	VariantV1Generic
	VariantV2Unified
)

// Controller is the polymorphic per-subsystem state shared by every v1 and
// v2 controller implementation: mount point, host-visible cgroup path, the
// effective path actually read from, and the read-only flag observed once
// at construction.
type Controller interface {
	// SubsystemPath returns the effective path interface-file names are
	// joined against.
	SubsystemPath() string
	// MountPoint returns the filesystem location where the controller's
	// interface files are mounted.
	MountPoint() string
	// CgroupPath returns the process's cgroup path as reported by
	// /proc/self/cgroup (host view).
	CgroupPath() string
	// IsReadOnly reports whether the controller mount is read-only.
	IsReadOnly() bool
	// NeedsHierarchyAdjustment reports whether the leaf cgroup may not be
	// where this controller's effective limits live.
	NeedsHierarchyAdjustment() bool
	// SetSubsystemPath overwrites the effective path; called only by the
	// hierarchy adjuster.
	SetSubsystemPath(path string)
	// Variant identifies the concrete implementation.
	Variant() Variant
}

// baseController holds the fields common to every Controller implementation.
// Embedded by v1 and v2 controllers rather than duplicated.
type baseController struct {
	mountPoint    string
	cgroupPath    string
	subsystemPath string
	readOnly      bool
}

func (c *baseController) MountPoint() string    { return c.mountPoint }
func (c *baseController) CgroupPath() string    { return c.cgroupPath }
func (c *baseController) SubsystemPath() string { return c.subsystemPath }
func (c *baseController) IsReadOnly() bool      { return c.readOnly }

func (c *baseController) SetSubsystemPath(path string) {
	c.subsystemPath = path
}
