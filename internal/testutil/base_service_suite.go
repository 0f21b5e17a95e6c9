package testutil

import (
	"context"
	"time"

	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/domain/account"
	"github.com/flexprice/grants/internal/domain/catalog"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/types"
	"github.com/flexprice/grants/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository fakes for testing
type Stores struct {
	AccountRepo      *InMemoryAccountStore
	AddonRepo        *InMemoryAddonStore
	RegistrationRepo *InMemoryRegistrationStore
	WebhookEventRepo *InMemoryWebhookEventStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx            context.Context
	stores         Stores
	customerClient *MockCustomerClient
	notifier       *RecordingNotifier
	catalog        *catalog.Catalog
	logger         *logger.Logger
	config         *config.Configuration
	now            time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	cfg.Billing.FreePlanCode = "free"
	cfg.Billing.FreeRenewableCredits = 10

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
	s.catalog = NewTestCatalog()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.stores = Stores{
		AccountRepo:      NewInMemoryAccountStore(),
		AddonRepo:        NewInMemoryAddonStore(),
		RegistrationRepo: NewInMemoryRegistrationStore(),
		WebhookEventRepo: NewInMemoryWebhookEventStore(),
	}
	s.customerClient = NewMockCustomerClient()
	s.notifier = NewRecordingNotifier()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.AccountRepo.Clear()
	s.stores.AddonRepo.Clear()
	s.stores.RegistrationRepo.Clear()
	s.stores.WebhookEventRepo.Clear()
	s.customerClient.Clear()
	s.notifier.Clear()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetCatalog() *catalog.Catalog {
	return s.catalog
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetCustomerClient() *MockCustomerClient {
	return s.customerClient
}

func (s *BaseServiceTestSuite) GetNotifier() *RecordingNotifier {
	return s.notifier
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// CreateAccount seeds a free account with the given email
func (s *BaseServiceTestSuite) CreateAccount(email string) *account.Account {
	a := account.NewAccount(email, s.config.Billing.FreePlanCode, s.config.Billing.FreeRenewableCredits)
	s.Require().NoError(s.stores.AccountRepo.Create(s.ctx, a))
	return a
}

// GetAccount reads the stored state of an account
func (s *BaseServiceTestSuite) GetAccount(id string) *account.Account {
	a, err := s.stores.AccountRepo.GetByID(s.ctx, id)
	s.Require().NoError(err)
	return a
}
