package service

import (
	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/logger"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Source loads snapshots for scheduled and on demand runs. It may be nil
	// when runs are only triggered with an inline dataset.
	Source snapshot.Source

	// Clock is used by the wall_clock reference date policy and as the
	// fallback for empty snapshots
	Clock snapshot.Clock
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	source snapshot.Source,
) ServiceParams {
	return ServiceParams{
		Logger: logger,
		Config: config,
		Source: source,
	}
}
