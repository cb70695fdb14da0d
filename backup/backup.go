/*
Package backup provides the file-copy backup mechanics that spec.md §1
explicitly treats as an external collaborator: the core only needs a
metadata record and a creation hook, not a backup strategy.

PURPOSE:
  Copies the live SQLite database file to a timestamped path under a
  configured directory, records a core.Backup row, and prunes local
  copies beyond Settings.BackupKeepLocalCount. This is the Backup
  implementation scheduler.Scheduler drives on its auto_backup job;
  the same Manager backs the operator-triggered manual backup endpoint.

SEE ALSO:
  - scheduler/scheduler.go: Backup interface this satisfies
  - api/handlers.go: manual backup create/list/delete/download
*/
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/store"
)

// Manager creates and prunes backups of a SQLite database file.
type Manager struct {
	store  store.Store
	dbPath string
	dir    string
	now    func() time.Time
}

func New(st store.Store, dbPath, dir string, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: st, dbPath: dbPath, dir: dir, now: now}
}

// Dir returns the local directory backup files are written under, so
// callers (the download handler) can resolve a stored filename to a
// path without duplicating the manager's layout decision.
func (m *Manager) Dir() string { return m.dir }

// Create copies dbPath to a timestamped file under dir, records the
// metadata as a BackupAuto backup, and prunes old local backups. It is
// the scheduler's entry point; operator-triggered runs call CreateAs
// with BackupManual.
func (m *Manager) Create(ctx context.Context) (*core.Backup, error) {
	return m.CreateAs(ctx, core.BackupAuto)
}

func (m *Manager) CreateAs(ctx context.Context, typ core.BackupType) (*core.Backup, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBackupFailure, err)
	}

	filename := fmt.Sprintf("dayline-%s.db", m.now().UTC().Format("20060102-150405"))
	dest := filepath.Join(m.dir, filename)

	size, err := copyFile(m.dbPath, dest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBackupFailure, err)
	}

	b := &core.Backup{
		ID:        core.NewID(),
		Filename:  filename,
		CreatedAt: m.now(),
		SizeBytes: size,
		Type:      typ,
	}
	if err := m.store.CreateBackup(ctx, b); err != nil {
		return nil, err
	}
	if err := m.prune(ctx); err != nil {
		return b, err
	}
	return b, nil
}

// prune deletes the oldest local backup files beyond
// Settings.BackupKeepLocalCount, leaving their metadata rows intact
// (the record still proves the backup existed).
func (m *Manager) prune(ctx context.Context) error {
	settings, err := m.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	backups, err := m.store.ListBackups(ctx)
	if err != nil {
		return err
	}
	if len(backups) <= settings.BackupKeepLocalCount {
		return nil
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].CreatedAt.After(backups[j].CreatedAt) })
	for _, b := range backups[settings.BackupKeepLocalCount:] {
		_ = os.Remove(filepath.Join(m.dir, b.Filename))
	}
	return nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	return io.Copy(out, in)
}
