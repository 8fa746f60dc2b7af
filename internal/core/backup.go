package core

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"time"
)

// Backup artifacts sit next to the file they snapshot:
//
//	/etc/login.defs.bak_2025-03-14_09:22:57
//
// Restore discovery is a plain glob over that suffix; there is no manifest.
// The timestamp layout sorts lexically in chronological order, so "latest"
// is the last entry after a string sort.
const backupTimeLayout = "2006-01-02_15:04:05"

var backupSuffix = regexp.MustCompile(`\.bak_\d{4}-\d{2}-\d{2}_\d{2}:\d{2}:\d{2}$`)

// ErrNoBackup is returned by Restore when no artifact exists for the path.
// Callers decide whether that is fatal.
var ErrNoBackup = errors.New("no backup artifact found")

// IsBackupArtifact reports whether path names a backup artifact itself.
// Artifacts are never re-snapshotted.
func IsBackupArtifact(path string) bool {
	return backupSuffix.MatchString(path)
}

// Backup snapshots path to <path>.bak_<timestamp> and returns the artifact
// path. At most one snapshot per path is taken per run: the first mutation
// wins, later operations on the same file get its artifact back, so a full
// revert lands on the pre-run content instead of an intermediate state.
// Each new run takes a fresh snapshot; there is no content diffing. The
// call is a no-op (empty path, nil error) when the file does not exist or
// is itself a backup artifact.
func Backup(ctx *SystemContext, path string) (string, error) {
	if IsBackupArtifact(path) {
		return "", nil
	}
	if artifact, ok := ctx.runBackup(path); ok {
		return artifact, nil
	}
	info, err := ctx.FS.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		ctx.recordBackup(path, "")
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", nil
	}

	backupPath := fmt.Sprintf("%s.bak_%s", path, time.Now().Format(backupTimeLayout))
	if err := CopyFile(ctx.FS, path, backupPath, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}
	ctx.recordBackup(path, backupPath)
	return backupPath, nil
}

// LatestBackup finds the newest artifact for path, or ErrNoBackup.
func LatestBackup(fsys FileSystem, path string) (string, error) {
	matches, err := fsys.Glob(path + ".bak_*")
	if err != nil {
		return "", err
	}
	var artifacts []string
	for _, m := range matches {
		if IsBackupArtifact(m) {
			artifacts = append(artifacts, m)
		}
	}
	if len(artifacts) == 0 {
		return "", ErrNoBackup
	}
	sort.Strings(artifacts)
	return artifacts[len(artifacts)-1], nil
}

// Restore copies the snapshot for path over the live file: the pre-run
// artifact when this run mutated the path, otherwise the latest artifact on
// disk (a revert run is usually a fresh process). On ErrNoBackup the live
// file is left untouched. Older artifacts are retained.
func Restore(ctx *SystemContext, path string) error {
	artifact, recorded := ctx.runBackup(path)
	if recorded && artifact == "" {
		// The path did not exist before this run.
		return ErrNoBackup
	}
	if !recorded {
		latest, err := LatestBackup(ctx.FS, path)
		if err != nil {
			return err
		}
		artifact = latest
	}
	mode := fs.FileMode(0644)
	if info, err := ctx.FS.Stat(artifact); err == nil {
		mode = info.Mode().Perm()
	}
	if err := CopyFile(ctx.FS, artifact, path, mode); err != nil {
		return fmt.Errorf("failed to restore %s from %s: %w", path, artifact, err)
	}
	return nil
}
