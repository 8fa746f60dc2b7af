package file

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rampart-sh/rampart/internal/core"
)

func init() {
	core.RegisterOperation("file", func(name string, params map[string]interface{}, ctx *core.SystemContext) (core.Operation, error) {
		return NewFileOperation(name, params), nil
	})
}

// FileOperation overwrites a whole file with the given content (audit rules,
// issue banners, logrotate drop-ins) or removes it. Content may reference
// host facts through template syntax.
type FileOperation struct {
	core.BaseOperation
	Path    string
	Content string
	Mode    fs.FileMode
	State   string // present, absent

	backupPath string
	created    bool
}

func NewFileOperation(name string, params map[string]interface{}) *FileOperation {
	mode := fs.FileMode(0644)
	if m, ok := params["mode"].(int); ok {
		mode = fs.FileMode(m)
	}
	state := core.StringParam(params, "state")
	if state == "" {
		state = "present"
	}
	path := core.StringParam(params, "path")
	if path == "" {
		path = name
	}
	return &FileOperation{
		BaseOperation: core.BaseOperation{Name: name, Type: "file"},
		Path:          path,
		Content:       core.StringParam(params, "content"),
		Mode:          mode,
		State:         state,
	}
}

func (r *FileOperation) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("file: path is required")
	}
	if r.State != "present" && r.State != "absent" {
		return fmt.Errorf("file: unknown state %q", r.State)
	}
	if r.State == "present" && r.Content == "" {
		return fmt.Errorf("file: content is required for state present")
	}
	return nil
}

func (r *FileOperation) GetBackupPath() string {
	return r.backupPath
}

func (r *FileOperation) desired(ctx *core.SystemContext) (string, error) {
	return core.ExpandContent(r.Content, ctx)
}

func (r *FileOperation) Check(ctx *core.SystemContext) (bool, error) {
	info, err := ctx.FS.Stat(r.Path)
	exists := !errors.Is(err, fs.ErrNotExist)
	if err != nil && exists {
		return false, err
	}

	if r.State == "absent" {
		return exists, nil
	}
	if !exists {
		return true, nil
	}
	if info.Mode().Perm() != r.Mode {
		return true, nil
	}

	current, err := ctx.FS.ReadFile(r.Path)
	if err != nil {
		return false, err
	}
	want, err := r.desired(ctx)
	if err != nil {
		return false, err
	}
	return string(current) != want, nil
}

func (r *FileOperation) Apply(ctx *core.SystemContext) (core.Result, error) {
	drift, err := r.Check(ctx)
	if err != nil {
		return core.Failure(err, "check failed"), err
	}
	if !drift {
		return core.SuccessNoChange(fmt.Sprintf("%s is up to date", r.Path)), nil
	}

	if ctx.DryRun {
		return core.SuccessChange(fmt.Sprintf("[dry-run] would write %s", r.Path)), nil
	}

	_, statErr := ctx.FS.Stat(r.Path)
	existed := !errors.Is(statErr, fs.ErrNotExist)

	backupPath, err := core.Backup(ctx, r.Path)
	if err != nil {
		return core.Failure(err, "backup failed"), err
	}
	r.backupPath = backupPath
	r.created = !existed

	if r.State == "absent" {
		if !existed {
			return core.SuccessNoChange(fmt.Sprintf("%s already absent", r.Path)), nil
		}
		if err := ctx.FS.Remove(r.Path); err != nil {
			return core.Failure(err, "remove failed"), err
		}
		return core.SuccessChange(fmt.Sprintf("removed %s", r.Path)), nil
	}

	want, err := r.desired(ctx)
	if err != nil {
		return core.Failure(err, "template expansion failed"), err
	}
	if err := ctx.FS.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
		return core.Failure(err, "failed to create parent directory"), err
	}
	if err := ctx.FS.WriteFile(r.Path, []byte(want), r.Mode); err != nil {
		return core.Failure(err, "write failed"), err
	}
	return core.SuccessChange(fmt.Sprintf("wrote %s", r.Path)), nil
}

// Revert restores the pre-run backup. A file this run created fresh (no
// backup existed) is removed again; with neither backup nor creation record
// the file is left alone.
func (r *FileOperation) Revert(ctx *core.SystemContext) error {
	err := core.Restore(ctx, r.Path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrNoBackup) {
		return err
	}
	if r.created {
		if rmErr := ctx.FS.Remove(r.Path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return rmErr
		}
	}
	return nil
}
