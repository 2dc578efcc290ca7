package di

import (
	"fmt"

	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the engine's 4 databases and applies their
// schemas, generalized from the teacher's InitializeDatabases but trimmed
// to core/marketdata/analytics/jobs. Every database successfully opened
// before a later failure is closed before returning the error, matching
// the teacher's rollback-on-error shape.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	coreDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/core.db",
		Profile: database.ProfileStandard,
		Name:    "core",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize core database: %w", err)
	}
	container.CoreDB = coreDB

	marketDataDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/marketdata.db",
		Profile: database.ProfileStandard,
		Name:    "marketdata",
	})
	if err != nil {
		coreDB.Close()
		return nil, fmt.Errorf("failed to initialize marketdata database: %w", err)
	}
	container.MarketDataDB = marketDataDB

	analyticsDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/analytics.db",
		Profile: database.ProfileLedger,
		Name:    "analytics",
	})
	if err != nil {
		coreDB.Close()
		marketDataDB.Close()
		return nil, fmt.Errorf("failed to initialize analytics database: %w", err)
	}
	container.AnalyticsDB = analyticsDB

	jobsDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/jobs.db",
		Profile: database.ProfileCache,
		Name:    "jobs",
	})
	if err != nil {
		coreDB.Close()
		marketDataDB.Close()
		analyticsDB.Close()
		return nil, fmt.Errorf("failed to initialize jobs database: %w", err)
	}
	container.JobsDB = jobsDB

	for _, db := range []*database.DB{coreDB, marketDataDB, analyticsDB, jobsDB} {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().Msg("all 4 databases initialized and migrated")
	return container, nil
}
