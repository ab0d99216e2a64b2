// Package tool probes which external programs are present and runnable on
// this host. The agent uses it at startup to build the capability set it
// advertises to the control plane.
package tool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/outpost-labs/outpost/internal/job"
	"github.com/outpost-labs/outpost/internal/logger"
)

// ErrMissingVersionArg is returned when a version probe is requested for a
// tool that did not declare how to ask for its version.
var ErrMissingVersionArg = errors.New("missing version argument")

// Tool describes one external program the control plane may schedule jobs
// for, plus how to ask it for its version (e.g. "--version").
type Tool struct {
	Program    string `json:"program"`
	VersionArg string `json:"version_arg,omitempty"`

	version string
}

// Available reports whether the program can be found on PATH. On Unix an
// entry only counts if any execute bit is set; on Windows existence is
// enough.
func (t *Tool) Available() bool {
	paths := os.Getenv("PATH")
	if paths == "" {
		return false
	}

	for _, dir := range filepath.SplitList(paths) {
		if dir == "" {
			continue
		}

		full := filepath.Join(dir, t.Program)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}

		if runtime.GOOS == "windows" {
			return true
		}
		if info.Mode().Perm()&0o111 != 0 {
			return true
		}
	}
	return false
}

// ProbeVersion runs the program with its version argument and caches the
// trimmed output as the tool's version.
func (t *Tool) ProbeVersion() (string, error) {
	if t.VersionArg == "" {
		return "", fmt.Errorf("%w for %s", ErrMissingVersionArg, t.Program)
	}

	probe := job.NewAction(t.Program, t.VersionArg)
	out, err := probe.Execute()
	if err != nil {
		return "", fmt.Errorf("probing version of %s: %w", t.Program, err)
	}

	t.version = strings.TrimSpace(out)
	return t.version, nil
}

// Version returns the cached version string, empty until a successful probe.
func (t *Tool) Version() string {
	return t.version
}

// String renders the tool for log output.
func (t *Tool) String() string {
	if t.version == "" {
		return t.Program
	}
	return fmt.Sprintf("%s (%s)", t.Program, t.version)
}

// Probe checks availability and, where possible, the version of every tool.
// Probe failures are logged and leave the version empty; they never fail the
// caller, since an unavailable tool is itself useful information to report.
func Probe(tools []*Tool) {
	for _, t := range tools {
		if !t.Available() {
			logger.Warnf("Tool %s is not available on this host", t.Program)
			continue
		}

		if _, err := t.ProbeVersion(); err != nil {
			logger.Debugf("Could not determine version: %v", err)
		}
	}
}
