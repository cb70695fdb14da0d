package commands

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenStore_CreatesUsableDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dayline.db")
	st, err := openStore(dbPath)
	require.NoError(t, err)
	defer st.Close()

	settings, err := st.GetSettings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, settings.MaxTasksPerDay)
}

func TestEffectiveDate_MatchesTodayWhenDayStartDisabled(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dayline.db")
	st, err := openStore(dbPath)
	require.NoError(t, err)
	defer st.Close()

	d, settings, err := effectiveDate(context.Background(), st)
	require.NoError(t, err)
	require.False(t, settings.DayStartEnabled)

	now := time.Now()
	require.Equal(t, now.Year(), d.Year())
	require.Equal(t, now.Day(), d.Day())
}

func TestOrNone(t *testing.T) {
	require.Equal(t, "2026-01-05", orNone("2026-01-05"))
	require.Contains(t, orNone(""), "none")
}
