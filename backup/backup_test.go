package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warp/dayline/core"
	"github.com/warp/dayline/store/sqlite"
)

func newTestStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "dayline.db")
	st, err := sqlite.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, dbPath
}

func TestCreateAs_WritesFileAndMetadata(t *testing.T) {
	st, dbPath := newTestStore(t)
	ctx := context.Background()
	backupDir := t.TempDir()

	clock := time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC)
	mgr := New(st, dbPath, backupDir, func() time.Time { return clock })

	b, err := mgr.CreateAs(ctx, core.BackupManual)
	require.NoError(t, err)
	require.Equal(t, core.BackupManual, b.Type)
	require.FileExists(t, filepath.Join(backupDir, b.Filename))

	backups, err := st.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	require.Equal(t, b.ID, backups[0].ID)
}

func TestPrune_KeepsOnlyConfiguredLocalCount(t *testing.T) {
	st, dbPath := newTestStore(t)
	ctx := context.Background()
	backupDir := t.TempDir()

	settings, err := st.GetSettings(ctx)
	require.NoError(t, err)
	settings.BackupKeepLocalCount = 2
	require.NoError(t, st.UpdateSettings(ctx, settings))

	clock := time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC)
	mgr := New(st, dbPath, backupDir, func() time.Time { return clock })

	var filenames []string
	for i := 0; i < 4; i++ {
		b, err := mgr.CreateAs(ctx, core.BackupAuto)
		require.NoError(t, err)
		filenames = append(filenames, b.Filename)
		clock = clock.Add(time.Minute)
	}

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// The two most recent files survive; the earliest two are pruned.
	require.NoFileExists(t, filepath.Join(backupDir, filenames[0]))
	require.FileExists(t, filepath.Join(backupDir, filenames[len(filenames)-1]))

	backups, err := st.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 4) // metadata rows survive pruning
}
