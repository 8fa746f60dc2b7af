package file

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rampart-sh/rampart/internal/core"
)

func init() {
	core.RegisterOperation("kv", func(name string, params map[string]interface{}, ctx *core.SystemContext) (core.Operation, error) {
		return NewKVOperation(name, params), nil
	})
}

// Separator styles for line-oriented config files.
const (
	StyleEquals = "equals" // minlen = 8       (pwquality, sshd_config with =)
	StyleSpace  = "space"  // PASS_MAX_DAYS 90 (login.defs, sshd_config)
)

// KVOperation sets a single key to a value inside a line-oriented config
// file. The first matching line is rewritten in place preserving its
// separator; later duplicates of the key are dropped so exactly one line per
// key survives; a missing key is appended. The file is backed up before any
// write.
type KVOperation struct {
	core.BaseOperation
	Path  string
	Key   string
	Value string
	Style string
	// Create allows the target file to be created when absent (sysctl
	// drop-ins). Without it a missing file is a fatal error.
	Create bool

	backupPath string
}

func NewKVOperation(name string, params map[string]interface{}) *KVOperation {
	style := core.StringParam(params, "style")
	if style == "" {
		style = StyleEquals
	}
	return &KVOperation{
		BaseOperation: core.BaseOperation{Name: name, Type: "kv"},
		Path:          core.StringParam(params, "path"),
		Key:           core.StringParam(params, "key"),
		Value:         core.StringParam(params, "value"),
		Style:         style,
		Create:        core.BoolParam(params, "create", false),
	}
}

func (r *KVOperation) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("kv: path is required")
	}
	if r.Key == "" {
		return fmt.Errorf("kv: key is required")
	}
	if r.Style != StyleEquals && r.Style != StyleSpace {
		return fmt.Errorf("kv: unknown separator style %q", r.Style)
	}
	return nil
}

func (r *KVOperation) GetBackupPath() string {
	return r.backupPath
}

// lineRegexp matches "key<sep>value" at line start. The key is quoted so
// regex metacharacters in key names are literal; the value is never pushed
// through a regexp, so arbitrary values round-trip byte-exact.
func (r *KVOperation) lineRegexp() *regexp.Regexp {
	sep := `[ \t]*=[ \t]*`
	if r.Style == StyleSpace {
		sep = `[ \t]+`
	}
	return regexp.MustCompile(`^(` + regexp.QuoteMeta(r.Key) + `)(` + sep + `)(.*)$`)
}

func (r *KVOperation) defaultLine() string {
	if r.Style == StyleSpace {
		return r.Key + " " + r.Value
	}
	return r.Key + " = " + r.Value
}

// render produces the desired file content from the current one and reports
// whether anything would change.
func (r *KVOperation) render(current []byte) ([]byte, bool) {
	re := r.lineRegexp()
	text := string(current)

	var lines []string
	if text != "" {
		lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	}

	var out []string
	replaced := false
	for _, line := range lines {
		m := re.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		if replaced {
			// Duplicate key line, drop it.
			continue
		}
		out = append(out, m[1]+m[2]+r.Value)
		replaced = true
	}
	if !replaced {
		out = append(out, r.defaultLine())
	}

	next := strings.Join(out, "\n") + "\n"
	return []byte(next), next != text
}

func (r *KVOperation) read(ctx *core.SystemContext) ([]byte, bool, error) {
	data, err := ctx.FS.ReadFile(r.Path)
	if errors.Is(err, fs.ErrNotExist) {
		if !r.Create {
			return nil, false, fmt.Errorf("required file %s does not exist", ctx.Path(r.Path))
		}
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *KVOperation) Check(ctx *core.SystemContext) (bool, error) {
	data, exists, err := r.read(ctx)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	_, changed := r.render(data)
	return changed, nil
}

func (r *KVOperation) Apply(ctx *core.SystemContext) (core.Result, error) {
	data, exists, err := r.read(ctx)
	if err != nil {
		return core.Failure(err, "read failed"), err
	}

	next, changed := r.render(data)
	if !changed {
		return core.SuccessNoChange(fmt.Sprintf("%s already set in %s", r.Key, r.Path)), nil
	}

	if ctx.DryRun {
		return core.SuccessChange(fmt.Sprintf("[dry-run] would set %s in %s", r.Key, r.Path)), nil
	}

	// Snapshot before mutating. No-op when the file is being created.
	backupPath, err := core.Backup(ctx, r.Path)
	if err != nil {
		return core.Failure(err, "backup failed"), err
	}
	r.backupPath = backupPath

	mode := fs.FileMode(0644)
	if exists {
		if info, err := ctx.FS.Stat(r.Path); err == nil {
			mode = info.Mode().Perm()
		}
	} else {
		if err := ctx.FS.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
			return core.Failure(err, "failed to create parent directory"), err
		}
	}

	if err := ctx.FS.WriteFile(r.Path, next, mode); err != nil {
		return core.Failure(err, "write failed"), err
	}
	return core.SuccessChange(fmt.Sprintf("set %s in %s", r.Key, r.Path)), nil
}

// Revert restores the pre-run backup of the file. With no backup the file
// is left untouched: either it was never mutated, or it was created fresh
// and removing a possibly shared file is not safe to guess.
func (r *KVOperation) Revert(ctx *core.SystemContext) error {
	err := core.Restore(ctx, r.Path)
	if errors.Is(err, core.ErrNoBackup) {
		return nil
	}
	return err
}
