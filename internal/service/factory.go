package service

import (
	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/domain/account"
	"github.com/flexprice/grants/internal/domain/addon"
	"github.com/flexprice/grants/internal/domain/catalog"
	"github.com/flexprice/grants/internal/domain/registration"
	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/notification"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	Catalog *catalog.Catalog

	// Repositories
	AccountRepo      account.Repository
	AddonRepo        addon.Repository
	RegistrationRepo registration.Repository

	// Provider API
	CustomerClient chargebee.CustomerClient

	// Best-effort side effects
	Notifier notification.Notifier
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	catalog *catalog.Catalog,
	accountRepo account.Repository,
	addonRepo addon.Repository,
	registrationRepo registration.Repository,
	customerClient chargebee.CustomerClient,
	notifier notification.Notifier,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		Catalog:          catalog,
		AccountRepo:      accountRepo,
		AddonRepo:        addonRepo,
		RegistrationRepo: registrationRepo,
		CustomerClient:   customerClient,
		Notifier:         notifier,
	}
}
