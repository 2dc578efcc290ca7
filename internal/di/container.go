// Package di is the batch engine's composition root: it wires databases,
// the market-data provider chain, every calculation service, the
// orchestrator, the scheduler and the admin HTTP server into one Container,
// generalized from the teacher's internal/di (wire.go/databases.go's
// staged-init-with-rollback shape) but trimmed from 8 databases and a
// trading/deployment/work-processor graph down to this engine's 4 databases
// and batch-analytics service set.
package di

import (
	"github.com/aristath/sentinel/internal/calendar"
	"github.com/aristath/sentinel/internal/companyprofile"
	"github.com/aristath/sentinel/internal/correlation"
	"github.com/aristath/sentinel/internal/database"
	"github.com/aristath/sentinel/internal/events"
	"github.com/aristath/sentinel/internal/factors"
	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/aristath/sentinel/internal/orchestrator"
	"github.com/aristath/sentinel/internal/queue"
	"github.com/aristath/sentinel/internal/reliability"
	"github.com/aristath/sentinel/internal/risk"
	"github.com/aristath/sentinel/internal/server"
	"github.com/aristath/sentinel/internal/snapshot"
	"github.com/aristath/sentinel/internal/stress"
)

// Container holds every wired component main.go needs to start and stop the
// process. Fields are exported so main.go can reach them directly, matching
// the teacher's Container shape.
type Container struct {
	CoreDB       *database.DB
	MarketDataDB *database.DB
	AnalyticsDB  *database.DB
	JobsDB       *database.DB

	Cache    *marketdata.PriceCache
	Calendar *calendar.Calendar

	Profiles  *companyprofile.Store
	Refresher *companyprofile.Refresher

	FactorsSvc     *factors.Service
	FactorsRepo    *factors.Repository
	RiskSvc        *risk.Service
	StressSvc      *stress.Service
	StressLibrary  *stress.Library
	CorrelationSvc *correlation.Service
	SnapshotSvc    *snapshot.Service

	OrchestratorRepo *orchestrator.Repository
	Tracker          *orchestrator.Tracker
	Orchestrator     *orchestrator.Service

	EventBus *events.Bus
	Queue    *queue.Manager
	Registry *queue.Registry
	Workers  *queue.WorkerPool
	Sched    *queue.Scheduler

	BackupSvc  *reliability.BackupService
	R2Backup   *reliability.R2BackupService
	RestoreSvc *reliability.RestoreService

	Server *server.Server
}

// Databases returns every wired database keyed by its short name, for
// /health and the backup service, matching database.DB's own Name() values.
func (c *Container) Databases() map[string]*database.DB {
	return map[string]*database.DB{
		"core":       c.CoreDB,
		"marketdata": c.MarketDataDB,
		"analytics":  c.AnalyticsDB,
		"jobs":       c.JobsDB,
	}
}

// Close shuts down every database connection, logging but not failing on
// individual close errors, mirroring the teacher's defer-per-database
// cleanup in cmd/server/main.go.
func (c *Container) Close() {
	for _, db := range []*database.DB{c.CoreDB, c.MarketDataDB, c.AnalyticsDB, c.JobsDB} {
		if db != nil {
			_ = db.Close()
		}
	}
}
