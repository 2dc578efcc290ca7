package reliability

import (
	"fmt"
	"os"
	"sort"

	"github.com/aristath/sentinel/internal/database"
	"github.com/rs/zerolog"
)

// BackupService produces point-in-time copies of the four profile databases
// (core, marketdata, analytics, jobs) onto local disk. R2BackupService wraps
// it to archive and upload those copies to Cloudflare R2.
type BackupService struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewBackupService creates a backup service over the given set of open
// database handles, keyed by profile name ("core", "marketdata", ...).
func NewBackupService(databases map[string]*database.DB, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases: databases,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// DatabaseNames returns the configured database names in stable, sorted
// order, so the backup archive's file listing is deterministic.
func (s *BackupService) DatabaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BackupDatabase writes a consistent point-in-time copy of database name to
// destPath using SQLite's VACUUM INTO, which is safe to run against a live
// connection (it does not require exclusive access).
func (s *BackupService) BackupDatabase(name, destPath string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("backup: unknown database %q", name)
	}

	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear existing backup target: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("failed to vacuum %s into %s: %w", name, destPath, err)
	}

	s.log.Debug().Str("database", name).Str("path", destPath).Msg("database backed up")
	return nil
}
