// Package errors provides predefined sentinel errors for common failure cases.
package errors

// Reader errors (spec.md §7: "any reader").
var (
	// ErrPath is returned when a constructed cgroup or proc path exceeds
	// PATH_MAX before any file is opened.
	ErrPath = &DetectError{
		Kind:   ErrPathTooLong,
		Detail: "cgroup path too long",
	}

	// ErrMissing is returned when a controller interface file does not
	// exist (the controller is absent, not merely unlimited).
	ErrMissing = &DetectError{
		Kind:   ErrFileMissing,
		Detail: "controller file not present",
	}

	// ErrEmptyFile is returned when a numeric reader finds an empty file.
	ErrEmptyFile = &DetectError{
		Kind:   ErrParseError,
		Detail: "file is empty",
	}

	// ErrMalformedNumber is returned when a numeric reader cannot parse its
	// line as an integer.
	ErrMalformedNumber = &DetectError{
		Kind:   ErrParseError,
		Detail: "malformed numeric value",
	}

	// ErrMalformedTuple is returned when a two-token reader (cpu.max) does
	// not find exactly the expected tokens.
	ErrMalformedTuple = &DetectError{
		Kind:   ErrParseError,
		Detail: "malformed tuple value",
	}

	// ErrKeyNotFound is returned when a key/value reader (memory.stat,
	// cpu.stat) does not find the requested key on any line.
	ErrKeyNotFound = &DetectError{
		Kind:   ErrParseError,
		Detail: "key not found",
	}
)

// Factory errors (spec.md §7: "factory").
var (
	// ErrControllerDisabled indicates a required v1 controller is listed as
	// disabled in, or absent from, /proc/cgroups.
	ErrControllerDisabled = &DetectError{
		Kind:   ErrKernelMisconfigured,
		Detail: "controller disabled by kernel",
	}

	// ErrHierarchyMismatch indicates the controller's hierarchy ID does not
	// correspond to any mounted hierarchy (v1 only).
	ErrHierarchyMismatch = &DetectError{
		Kind:   ErrKernelMisconfigured,
		Detail: "controller hierarchy not mounted",
	}

	// ErrNoCgroup2Mount indicates no mountinfo entry for filesystem type
	// cgroup2 could be found.
	ErrNoCgroup2Mount = &DetectError{
		Kind:   ErrMountNotFound,
		Detail: "no cgroup2 mount found",
	}

	// ErrNoControllerMount indicates no mountinfo entry for a required v1
	// controller (memory, cpu, cpuacct, cpuset) could be found.
	ErrNoControllerMount = &DetectError{
		Kind:   ErrMountNotFound,
		Detail: "no controller mount found",
	}

	// ErrSelfCgroupMissing indicates /proc/self/cgroup could not be read,
	// so the factory cannot determine which cgroup this process belongs to.
	ErrSelfCgroupMissing = &DetectError{
		Kind:   ErrMountNotFound,
		Detail: "/proc/self/cgroup not readable",
	}
)

// Internal errors not attributable to host cgroup configuration.
var (
	// ErrNilController indicates a facade method was called against a
	// subsystem that never resolved a controller for that resource.
	ErrNilController = &DetectError{
		Kind:   ErrInternal,
		Detail: "controller not initialized",
	}

	// ErrAlreadyDetected indicates Detect was called again after the
	// process-wide containerization flag was already latched.
	ErrAlreadyDetected = &DetectError{
		Kind:   ErrInternal,
		Detail: "subsystem already detected",
	}
)
