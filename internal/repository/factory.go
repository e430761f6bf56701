package repository

import (
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/postgres"
	postgresRepo "github.com/retailpulse/retailpulse/internal/repository/postgres"
	"github.com/retailpulse/retailpulse/internal/sentry"
)

// NewSnapshotSource returns the postgres snapshot source instrumented with Sentry
func NewSnapshotSource(db *postgres.DB, sentry *sentry.Service, logger *logger.Logger) snapshot.Source {
	return postgresRepo.NewSentrySource(postgresRepo.NewSnapshotRepository(db, logger), sentry, logger)
}
