package chargebee

import (
	"context"
	"sync"

	"github.com/chargebee/chargebee-go/v3"
	customerAction "github.com/chargebee/chargebee-go/v3/actions/customer"
	"github.com/flexprice/grants/internal/cache"
	"github.com/flexprice/grants/internal/config"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
)

// CustomerClient is the part of the Chargebee API used to correlate one-time purchases
// with accounts
type CustomerClient interface {
	// RetrieveCustomer makes a single synchronous attempt to fetch the customer
	RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error)
}

// Client handles Chargebee API client setup and configuration
type Client struct {
	cfg    config.ChargebeeConfig
	cache  cache.Cache
	logger *logger.Logger

	initOnce sync.Once
	initErr  error
}

// NewCustomerClient creates a new Chargebee customer client
func NewCustomerClient(cfg *config.Configuration, cache cache.Cache, logger *logger.Logger) CustomerClient {
	return &Client{
		cfg:    cfg.Chargebee,
		cache:  cache,
		logger: logger,
	}
}

// initializeSDK configures the global Chargebee SDK instance once
func (c *Client) initializeSDK() error {
	c.initOnce.Do(func() {
		if c.cfg.Site == "" || c.cfg.APIKey == "" {
			c.initErr = ierr.NewError("missing Chargebee credentials").
				WithHint("Configure chargebee.site and chargebee.api_key").
				Mark(ierr.ErrValidation)
			return
		}

		chargebee.Configure(c.cfg.APIKey, c.cfg.Site)
		c.logger.Infow("initialized Chargebee SDK", "site", c.cfg.Site)
	})
	return c.initErr
}

// RetrieveCustomer fetches a customer, serving repeated lookups from the cache
func (c *Client) RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error) {
	key := cache.GenerateKey(cache.PrefixProviderCustomer, customerID)

	span := cache.StartCacheSpan(ctx, "provider_customer", "get", map[string]interface{}{
		"customer_id": customerID,
	})
	if cached, ok := c.cache.Get(ctx, key); ok {
		cache.FinishSpan(span, true)
		return cached.(*Customer), nil
	}
	cache.FinishSpan(span, false)

	if err := c.initializeSDK(); err != nil {
		return nil, err
	}

	result, err := customerAction.Retrieve(customerID).Request()
	if err != nil {
		c.logger.Errorw("failed to retrieve customer from Chargebee API",
			"customer_id", customerID,
			"error", err)
		return nil, ierr.WithError(err).
			WithHint("Failed to retrieve customer from Chargebee").
			WithReportableDetails(map[string]interface{}{
				"customer_id": customerID,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	if result == nil || result.Customer == nil {
		return nil, ierr.NewErrorf("customer %s not returned by Chargebee", customerID).
			WithHint("Chargebee customer not found").
			Mark(ierr.ErrNotFound)
	}

	customer := &Customer{
		ID:        result.Customer.Id,
		Email:     result.Customer.Email,
		FirstName: result.Customer.FirstName,
		LastName:  result.Customer.LastName,
		CreatedAt: result.Customer.CreatedAt,
	}

	c.cache.Set(ctx, key, customer, 0)
	return customer, nil
}
