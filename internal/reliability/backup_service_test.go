package reliability

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/sentinel/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBackupTestService(t *testing.T) (*BackupService, string) {
	tempDir := t.TempDir()

	corePath := filepath.Join(tempDir, "core.db")
	coreDB, err := database.New(database.Config{Path: corePath, Profile: database.ProfileStandard, Name: "core"})
	require.NoError(t, err)
	t.Cleanup(func() { coreDB.Close() })

	_, err = coreDB.Exec("CREATE TABLE portfolios (id TEXT PRIMARY KEY) STRICT")
	require.NoError(t, err)

	analyticsPath := filepath.Join(tempDir, "analytics.db")
	analyticsDB, err := database.New(database.Config{Path: analyticsPath, Profile: database.ProfileLedger, Name: "analytics"})
	require.NoError(t, err)
	t.Cleanup(func() { analyticsDB.Close() })

	databases := map[string]*database.DB{
		"core":      coreDB,
		"analytics": analyticsDB,
	}

	return NewBackupService(databases, zerolog.New(io.Discard)), tempDir
}

func TestBackupService_DatabaseNames_SortedAlphabetically(t *testing.T) {
	service, _ := setupBackupTestService(t)

	assert.Equal(t, []string{"analytics", "core"}, service.DatabaseNames())
}

func TestBackupService_BackupDatabase_CreatesConsistentCopy(t *testing.T) {
	service, tempDir := setupBackupTestService(t)

	destPath := filepath.Join(tempDir, "backup-core.db")
	err := service.BackupDatabase("core", destPath)
	require.NoError(t, err)

	info, err := os.Stat(destPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestBackupService_BackupDatabase_UnknownNameErrors(t *testing.T) {
	service, tempDir := setupBackupTestService(t)

	err := service.BackupDatabase("nonexistent", filepath.Join(tempDir, "out.db"))
	assert.Error(t, err)
}

func TestBackupService_BackupDatabase_OverwritesExistingFile(t *testing.T) {
	service, tempDir := setupBackupTestService(t)

	destPath := filepath.Join(tempDir, "backup-core.db")
	require.NoError(t, os.WriteFile(destPath, []byte("stale"), 0644))

	err := service.BackupDatabase("core", destPath)
	require.NoError(t, err)

	content, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("stale"), content)
}
