package core

// Operation is one idempotent unit of configuration change. Apply mutates
// (backing up any file it touches first), Check reports whether the system
// drifts from the desired state without mutating anything.
type Operation interface {
	Apply(ctx *SystemContext) (Result, error)
	Check(ctx *SystemContext) (bool, error)
	Validate() error
	GetName() string
	GetType() string
}

// Revertable is implemented by operations that can undo their change,
// typically by restoring the latest backup of the file they edited. Revert
// bodies are defensive: they check existence before acting, so a revert run
// is safe even when the matching apply step never ran.
type Revertable interface {
	Revert(ctx *SystemContext) error
}

// BackupReporter exposes the backup artifact an apply produced, for the
// transaction journal.
type BackupReporter interface {
	GetBackupPath() string
}

// BaseOperation holds the fields common to all operations.
type BaseOperation struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

func (b *BaseOperation) GetName() string {
	return b.Name
}

func (b *BaseOperation) GetType() string {
	return b.Type
}

// BestEffort wraps an operation whose failure should not abort the plan.
// The engine downgrades its apply error to a warning; this replaces the
// implicit `|| true` shell idiom with something visible in the plan.
type BestEffort struct {
	Operation
}

func (b *BestEffort) Revert(ctx *SystemContext) error {
	if rev, ok := b.Operation.(Revertable); ok {
		return rev.Revert(ctx)
	}
	return nil
}

func (b *BestEffort) GetBackupPath() string {
	if br, ok := b.Operation.(BackupReporter); ok {
		return br.GetBackupPath()
	}
	return ""
}

// IsBestEffort reports whether op tolerates apply failure.
func IsBestEffort(op Operation) bool {
	_, ok := op.(*BestEffort)
	return ok
}
