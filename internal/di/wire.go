package di

import (
	"fmt"
	"net/http"

	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/reliability"
	"github.com/aristath/sentinel/internal/server"
	"github.com/rs/zerolog"
)

// Wire initializes every dependency in order and returns a fully wired
// Container, generalized from the teacher's own Wire: databases first,
// then the market-data provider chain, then calculation services and the
// orchestrator, then the background job queue, then the backup stack, and
// finally the admin HTTP server. Any stage failing closes every database
// opened so far before returning the error.
func Wire(cfg *config.Config, log zerolog.Logger, auth server.AdminAuth) (*Container, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	InitializeMarketData(container, cfg, log)

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	InitializeQueue(container, cfg, log)
	initializeBackups(container, cfg, log)

	container.Server = server.New(
		container.Orchestrator,
		container.Tracker,
		container.SnapshotSvc,
		container.Cache,
		container.OrchestratorRepo,
		container.Calendar,
		container.Refresher,
		container.Refresher,
		container.Databases(),
		auth,
		log,
	)

	return container, nil
}

// initializeBackups wires the R2 backup/restore stack over the engine's 4
// databases, adapted near-verbatim from the teacher's own reliability
// package (internal/reliability is kept unchanged apart from the database
// set it backs up). The local BackupService is always constructed; when
// NewR2Client fails (e.g. R2 is not configured), R2Backup and RestoreSvc
// are left nil.
func initializeBackups(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.BackupSvc = reliability.NewBackupService(container.Databases(), log)

	r2Client, err := reliability.NewR2Client(cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.R2BucketName, log)
	if err != nil {
		log.Warn().Err(err).Msg("R2 backup storage not configured, R2 backup and restore are disabled")
		return
	}

	container.R2Backup = reliability.NewR2BackupService(r2Client, container.BackupSvc, cfg.DataDir, log)
	container.RestoreSvc = reliability.NewRestoreService(r2Client, cfg.DataDir, log)
}

// StaticAdmin is a trivial AdminAuth seam for deployments that gate the
// admin surface with a single shared bearer token, read once at startup.
// A blank token disables the check (matches server.AdminAuth's nil
// convention for a trusted internal network).
func StaticAdmin(token string) server.AdminAuth {
	if token == "" {
		return nil
	}
	return func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+token
	}
}
