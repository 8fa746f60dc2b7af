package core

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DefaultCommandTimeout bounds every external command. A hung service
// restart fails the step instead of blocking the run forever.
const DefaultCommandTimeout = 60 * time.Second

// SystemContext carries the execution context every operation receives:
// host facts for `when:` guards, the dry-run flag, the filesystem and
// command abstractions, and an optional alternate root.
type SystemContext struct {
	context.Context `yaml:"-"`

	// Host facts, filled by system.Detect. Exposed to guard expressions.
	OS         string `yaml:"os"`
	Distro     string `yaml:"distro"`      // rhel, centos, fedora
	DistroLike string `yaml:"distro_like"` // ID_LIKE from os-release
	Version    string `yaml:"version"`     // 9.4
	Kernel     string `yaml:"kernel"`
	InitSystem string `yaml:"init_system"` // systemd, other
	Hostname   string `yaml:"hostname"`

	User string `yaml:"user"`
	UID  int    `yaml:"uid"`

	// RootDir, when non-empty, re-roots every managed path. Used by tests
	// and offline image builds; also skips the privilege check.
	RootDir string `yaml:"-"`

	// DryRun reports what would change without mutating anything.
	DryRun bool `yaml:"-"`

	FS             FileSystem    `yaml:"-"`
	Runner         Runner        `yaml:"-"`
	CommandTimeout time.Duration `yaml:"-"`

	Vars map[string]string `yaml:"-"`

	Stdout io.Writer `yaml:"-"`
	Stderr io.Writer `yaml:"-"`

	// runBackups maps each path mutated during this run to its pre-run
	// snapshot ("" when the path did not exist). One snapshot per path per
	// run: plans routinely edit the same file several times, and revert
	// must land on the pre-run content, not an intermediate state.
	runBackups map[string]string
}

func (c *SystemContext) recordBackup(path, artifact string) {
	if c.runBackups == nil {
		c.runBackups = make(map[string]string)
	}
	c.runBackups[path] = artifact
}

func (c *SystemContext) runBackup(path string) (string, bool) {
	artifact, ok := c.runBackups[path]
	return artifact, ok
}

func NewSystemContext(dryRun bool) *SystemContext {
	return &SystemContext{
		Context:        context.Background(),
		OS:             "linux",
		DryRun:         dryRun,
		FS:             &RealFS{},
		Runner:         &ExecRunner{},
		CommandTimeout: DefaultCommandTimeout,
		UID:            os.Geteuid(),
		User:           os.Getenv("USER"),
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	}
}

// WithRoot re-roots the context under dir. Managed paths and backups all
// land below dir; Path gives the resolved form for display.
func (c *SystemContext) WithRoot(dir string) *SystemContext {
	c.RootDir = dir
	c.FS = &RealFS{Root: dir}
	return c
}

// Path returns the display form of a managed path, including the alternate
// root when one is set.
func (c *SystemContext) Path(p string) string {
	if c.RootDir == "" {
		return p
	}
	return filepath.Join(c.RootDir, p)
}
