// Package execute applies a rename plan and undoes the most recent
// apply. Rows fail independently; one bad rename never aborts the run.
package execute

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelly/fphoto/internal/plan"
	"github.com/kelly/fphoto/internal/report"
	"github.com/kelly/fphoto/internal/store"
	"github.com/kelly/fphoto/internal/util"
)

// ErrNothingToUndo is returned when the ledger holds no apply run.
var ErrNothingToUndo = errors.New("nothing to undo")

// Executor applies rename plans against the filesystem
type Executor struct {
	store  *store.Store
	logger *report.EventLogger
}

// Config holds executor configuration
type Config struct {
	Store  *store.Store
	Logger *report.EventLogger
}

// New creates a new Executor
func New(cfg Config) *Executor {
	return &Executor{
		store:  cfg.Store,
		logger: cfg.Logger,
	}
}

// Options controls a single apply run.
type Options struct {
	// BackupOriginals copies every file into a backup directory under
	// the JPG root before renaming it.
	BackupOriginals bool
}

// Result represents apply results
type Result struct {
	Applied   int
	Failed    int
	Unchanged int
	BackupDir string
	Errors    []error
}

// Apply renames every changed, conflict-free candidate in the plan.
// Failures are collected per row. When at least one rename succeeded
// the undo ledger is replaced with this run.
func (e *Executor) Apply(p *plan.Plan, opts Options) (*Result, error) {
	result := &Result{
		Errors: make([]error, 0),
	}

	actionable := 0
	for _, cand := range p.Candidates {
		if cand.Changed && cand.Error == "" {
			actionable++
		}
	}
	if actionable == 0 {
		util.InfoLog("No files to rename")
	} else {
		util.InfoLog("Applying %d renames", actionable)
	}

	backupDir := ""
	if opts.BackupOriginals && actionable > 0 {
		dir, err := e.makeBackupDir(p.JPGRoot)
		if err != nil {
			return nil, err
		}
		backupDir = dir
		result.BackupDir = dir
	}

	var ops []store.Op

	for _, cand := range p.Candidates {
		if cand.Error != "" {
			result.Failed++
			err := fmt.Errorf("%s: %s", cand.OriginalPath, cand.Error)
			result.Errors = append(result.Errors, err)
			e.logger.LogSkip(cand.OriginalPath, cand.TargetPath, cand.Error)
			continue
		}
		if !cand.Changed {
			result.Unchanged++
			continue
		}

		if err := e.applyOne(cand, backupDir, p.JPGRoot); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err)
			util.WarnLog("%v", err)
			e.logger.LogApply(cand.OriginalPath, cand.TargetPath, err)
			continue
		}

		result.Applied++
		ops = append(ops, store.Op{
			CurrentPath:  cand.TargetPath,
			OriginalPath: cand.OriginalPath,
		})
		e.logger.LogApply(cand.OriginalPath, cand.TargetPath, nil)
	}

	// An apply with no successful renames keeps the previous ledger,
	// otherwise undo would cover the wrong run.
	if len(ops) > 0 && e.store != nil {
		entry := store.LedgerEntry{
			AppliedAt:  time.Now(),
			JPGRoot:    p.JPGRoot,
			BackupMade: backupDir != "",
			BackupDir:  backupDir,
			Ops:        ops,
		}
		if err := e.store.Replace(entry); err != nil {
			return result, fmt.Errorf("failed to record undo ledger: %w", err)
		}
	}

	return result, nil
}

// applyOne backs up and renames a single file. A backup failure keeps
// the original untouched.
func (e *Executor) applyOne(cand plan.Candidate, backupDir, jpgRoot string) error {
	if backupDir != "" {
		backupPath := e.backupPath(backupDir, jpgRoot, cand.OriginalPath)
		if _, err := util.CopyFile(cand.OriginalPath, backupPath); err != nil {
			return fmt.Errorf("backup %s: %w", cand.OriginalPath, err)
		}
		e.logger.LogBackup(cand.OriginalPath, backupPath)
	}

	if err := e.checkTargetFree(cand.OriginalPath, cand.TargetPath); err != nil {
		return err
	}

	if err := os.Rename(cand.OriginalPath, cand.TargetPath); err != nil {
		return fmt.Errorf("rename %s: %w", cand.OriginalPath, err)
	}
	return nil
}

// checkTargetFree refuses to overwrite an existing file. A target that
// is the same file as the source is allowed, that is a case-only
// rename on a case-insensitive filesystem.
func (e *Executor) checkTargetFree(source, target string) error {
	targetInfo, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", target, err)
	}

	sourceInfo, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat %s: %w", source, err)
	}

	if os.SameFile(sourceInfo, targetInfo) {
		return nil
	}
	return fmt.Errorf("target %s already exists: %w", target, util.ErrConflict)
}

// makeBackupDir creates <jpg-root>/backup on first use. The directory
// is shared across runs and never pruned; per-file paths inside it are
// uniqued instead.
func (e *Executor) makeBackupDir(jpgRoot string) (string, error) {
	dir := filepath.Join(jpgRoot, "backup")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}
	return dir, nil
}

// backupPath mirrors the file's position under the JPG root inside the
// backup directory. Files outside the root fall back to their base
// name.
func (e *Executor) backupPath(backupDir, jpgRoot, original string) string {
	rel, err := filepath.Rel(jpgRoot, original)
	if err != nil || rel == "." || filepath.IsAbs(rel) {
		rel = filepath.Base(original)
	}
	return util.UniquePath(filepath.Join(backupDir, rel))
}

// UndoResult represents undo results
type UndoResult struct {
	Restored int
	Skipped  int
	Errors   []error
}

// Undo walks the recorded apply run in reverse and renames every file
// back. Rows whose current file is gone or whose original name is
// taken again are skipped. The ledger is cleared afterwards; backup
// directories are left in place.
func (e *Executor) Undo() (*UndoResult, error) {
	entry, ok, err := e.store.Ledger()
	if err != nil {
		return nil, err
	}
	if !ok || len(entry.Ops) == 0 {
		return nil, ErrNothingToUndo
	}

	util.InfoLog("Undoing %d renames from %s",
		len(entry.Ops), entry.AppliedAt.Local().Format("2006-01-02 15:04:05"))

	result := &UndoResult{
		Errors: make([]error, 0),
	}

	for i := len(entry.Ops) - 1; i >= 0; i-- {
		op := entry.Ops[i]

		if _, err := os.Stat(op.CurrentPath); err != nil {
			result.Skipped++
			reason := fmt.Sprintf("file missing: %v", err)
			util.WarnLog("skip %s: %s", op.CurrentPath, reason)
			e.logger.LogUndo(op.CurrentPath, op.OriginalPath, reason)
			continue
		}

		if err := e.checkTargetFree(op.CurrentPath, op.OriginalPath); err != nil {
			result.Skipped++
			util.WarnLog("skip %s: %v", op.CurrentPath, err)
			e.logger.LogUndo(op.CurrentPath, op.OriginalPath, err.Error())
			continue
		}

		if err := os.Rename(op.CurrentPath, op.OriginalPath); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors,
				fmt.Errorf("restore %s: %w", op.CurrentPath, err))
			e.logger.LogUndo(op.CurrentPath, op.OriginalPath, err.Error())
			continue
		}

		result.Restored++
		e.logger.LogUndo(op.CurrentPath, op.OriginalPath, "")
	}

	if err := e.store.Clear(); err != nil {
		return result, fmt.Errorf("failed to clear undo ledger: %w", err)
	}

	if entry.BackupDir != "" {
		util.InfoLog("Backups kept in %s", entry.BackupDir)
	}

	return result, nil
}
