package cgroup

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	cgerrors "cgroupdetect-go/errors"
	"cgroupdetect-go/logging"
)

// maxPathLen mirrors PATH_MAX on Linux; a constructed path longer than this
// is rejected before any open(2) call is attempted.
const maxPathLen = 4096

// maxFileSize bounds how much of a pseudo-file reader is willing to read;
// cgroup interface files are always far smaller than this.
const maxFileSize = 4096

// reader performs bounded reads of cgroup/proc pseudo-files rooted at a
// controller's subsystem path.
type reader struct {
	subsystemPath string
}

func newReader(subsystemPath string) *reader {
	return &reader{subsystemPath: subsystemPath}
}

func (r *reader) join(relPath string) (string, error) {
	if r.subsystemPath == "" {
		return "", cgerrors.WrapWithDetail(nil, cgerrors.ErrInternal, "join", "nil controller path")
	}
	full := filepath.Join(r.subsystemPath, relPath)
	if len(full) > maxPathLen {
		return "", cgerrors.WrapWithPath(nil, cgerrors.ErrPathTooLong, "join", full)
	}
	return full, nil
}

// firstLine reads the first line of a file (up to maxFileSize bytes),
// trimmed of surrounding whitespace.
func (r *reader) firstLine(relPath string) (string, error) {
	full, err := r.join(relPath)
	if err != nil {
		return "", err
	}
	f, err := os.Open(full)
	if err != nil {
		logging.Trace("cgroup file missing", "path", full, "error", err)
		return "", cgerrors.WrapWithPath(err, cgerrors.ErrFileMissing, "open", full)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, maxFileSize), maxFileSize)
	if !scanner.Scan() {
		logging.Trace("cgroup file empty", "path", full)
		return "", cgerrors.WrapWithPath(nil, cgerrors.ErrParseError, "read", full)
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		logging.Trace("cgroup file empty", "path", full)
		return "", cgerrors.WrapWithPath(nil, cgerrors.ErrParseError, "read", full)
	}
	return line, nil
}

// allLines returns every non-empty line of the file.
func (r *reader) allLines(relPath string) ([]string, error) {
	full, err := r.join(relPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		logging.Trace("cgroup file missing", "path", full, "error", err)
		return nil, cgerrors.WrapWithPath(err, cgerrors.ErrFileMissing, "open", full)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, maxFileSize), maxFileSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		logging.Trace("cgroup file empty", "path", full)
		return nil, cgerrors.WrapWithPath(nil, cgerrors.ErrParseError, "read", full)
	}
	return lines, nil
}

// readNumber parses the first line as a non-negative integer. The literal
// "max" is always treated as a parse failure here; use readNumberMax for the
// variant that treats "max" as Unlimited.
func (r *reader) readNumber(relPath string) (uint64, error) {
	line, err := r.firstLine(relPath)
	if err != nil {
		return 0, err
	}
	tok := firstToken(line)
	n, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		logging.Trace("cgroup numeric parse failed", "path", relPath, "raw", line)
		return 0, cgerrors.WrapWithDetail(err, cgerrors.ErrParseError, "read_number", line)
	}
	return n, nil
}

// readNumberMax is readNumber's "_max" variant: a literal "max" succeeds and
// reports Unlimited via the unlimited result; any other value is returned as-is.
func (r *reader) readNumberMax(relPath string) (value uint64, unlimited bool, err error) {
	line, err := r.firstLine(relPath)
	if err != nil {
		return 0, false, err
	}
	tok := firstToken(line)
	if tok == "max" {
		return 0, true, nil
	}
	n, perr := strconv.ParseUint(tok, 10, 64)
	if perr != nil {
		logging.Trace("cgroup numeric parse failed", "path", relPath, "raw", line)
		return 0, false, cgerrors.WrapWithDetail(perr, cgerrors.ErrParseError, "read_number_max", line)
	}
	return n, false, nil
}

// readSignedNumber parses the first token of the first line as a signed
// integer, used for cpu.cfs_quota_us where -1 means unlimited; a literal
// "max" is also reported as -1.
func (r *reader) readSignedNumber(relPath string) (int64, error) {
	line, err := r.firstLine(relPath)
	if err != nil {
		return 0, err
	}
	tok := firstToken(line)
	if tok == "max" {
		return -1, nil
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		logging.Trace("cgroup signed parse failed", "path", relPath, "raw", line)
		return 0, cgerrors.WrapWithDetail(err, cgerrors.ErrParseError, "read_signed_number", line)
	}
	return n, nil
}

// readKeyValue scans a multi-line file (memory.stat, cpu.stat) for a line
// whose first whitespace-delimited token exactly matches key, returning the
// integer that follows. Prefix matches (e.g. "foof" when searching "foo")
// never match.
func (r *reader) readKeyValue(relPath, key string) (uint64, error) {
	lines, err := r.allLines(relPath)
	if err != nil {
		return 0, err
	}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != key {
			continue
		}
		n, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			logging.Trace("cgroup key/value parse failed", "path", relPath, "key", key, "raw", line)
			return 0, cgerrors.WrapWithDetail(err, cgerrors.ErrParseError, "read_key_value", line)
		}
		return n, nil
	}
	logging.Trace("cgroup key not found", "path", relPath, "key", key)
	return 0, cgerrors.WrapWithDetail(nil, cgerrors.ErrParseError, "read_key_value", "key "+key+" not found")
}

// tupleSide selects which element of a two-token file readTuple returns.
type tupleSide int

const (
	tupleFirst tupleSide = iota
	tupleSecond
)

// readTuple reads a single whitespace-separated pair (such as cpu.max) where
// either element may be the literal "max" (unlimited) or a signed integer; a
// line without exactly two tokens is a parse error.
func (r *reader) readTuple(relPath string, side tupleSide) (value int64, unlimited bool, err error) {
	line, err := r.firstLine(relPath)
	if err != nil {
		return 0, false, err
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		logging.Trace("cgroup tuple malformed", "path", relPath, "raw", line)
		return 0, false, cgerrors.WrapWithDetail(nil, cgerrors.ErrParseError, "read_tuple", line)
	}
	tok := fields[0]
	if side == tupleSecond {
		tok = fields[1]
	}
	if tok == "max" {
		return 0, true, nil
	}
	n, perr := strconv.ParseInt(tok, 10, 64)
	if perr != nil {
		logging.Trace("cgroup tuple parse failed", "path", relPath, "raw", line)
		return 0, false, cgerrors.WrapWithDetail(perr, cgerrors.ErrParseError, "read_tuple", line)
	}
	return n, false, nil
}

// readString returns the first whitespace-delimited token of the file.
func (r *reader) readString(relPath string) (string, error) {
	line, err := r.firstLine(relPath)
	if err != nil {
		return "", err
	}
	return firstToken(line), nil
}

func firstToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
