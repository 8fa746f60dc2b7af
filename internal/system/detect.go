package system

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rampart-sh/rampart/internal/core"
)

// Detect fills the SystemContext with the host facts guard expressions care
// about: distro identity, version, kernel, init system.
func Detect(ctx *core.SystemContext) {
	info := readOSRelease(ctx)
	ctx.OS = "linux"
	ctx.Distro = info["ID"]
	ctx.DistroLike = info["ID_LIKE"]
	ctx.Version = info["VERSION_ID"]

	if hostname, err := os.Hostname(); err == nil {
		ctx.Hostname = hostname
	}

	if out, err := core.RunCmd(ctx, "uname -r"); err == nil {
		ctx.Kernel = strings.TrimSpace(out)
	}

	ctx.InitSystem = "other"
	if _, err := ctx.FS.Stat("/run/systemd/system"); err == nil {
		ctx.InitSystem = "systemd"
	}

	ctx.UID = os.Geteuid()
	if ctx.User == "" {
		ctx.User = os.Getenv("USER")
	}
}

func readOSRelease(ctx *core.SystemContext) map[string]string {
	info := make(map[string]string)
	f, err := ctx.FS.Open("/etc/os-release")
	if err != nil {
		return info
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if parts := strings.SplitN(line, "=", 2); len(parts) == 2 {
			info[parts[0]] = strings.Trim(parts[1], "\"")
		}
	}
	return info
}

// RequireRoot verifies the process can actually mutate the system. Checked
// once at startup; dry runs and alternate-root runs are exempt.
func RequireRoot(ctx *core.SystemContext) error {
	if ctx.DryRun || ctx.RootDir != "" {
		return nil
	}
	if os.Geteuid() != 0 {
		return fmt.Errorf("rampart must run as root to modify the system (use --dry-run to preview)")
	}
	return nil
}
