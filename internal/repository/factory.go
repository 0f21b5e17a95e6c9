package repository

import (
	"github.com/flexprice/grants/internal/domain/account"
	"github.com/flexprice/grants/internal/domain/addon"
	"github.com/flexprice/grants/internal/domain/registration"
	"github.com/flexprice/grants/internal/domain/webhookevent"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/postgres"
	postgresRepo "github.com/flexprice/grants/internal/repository/postgres"
)

type RepositoryType string

const (
	PostgresRepo RepositoryType = "postgres"
)

func NewAccountRepository(db *postgres.DB, logger *logger.Logger) account.Repository {
	return postgresRepo.NewAccountRepository(db, logger)
}

func NewAddonRepository(db *postgres.DB, logger *logger.Logger) addon.Repository {
	return postgresRepo.NewAddonRepository(db, logger)
}

func NewRegistrationRepository(db *postgres.DB, logger *logger.Logger) registration.Repository {
	return postgresRepo.NewRegistrationRepository(db, logger)
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return postgresRepo.NewWebhookEventRepository(db, logger)
}
