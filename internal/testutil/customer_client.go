package testutil

import (
	"context"
	"sync"

	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/integration/chargebee"
)

// MockCustomerClient implements chargebee.CustomerClient over a fixed set of customers
type MockCustomerClient struct {
	mu        sync.Mutex
	customers map[string]*chargebee.Customer
	calls     int
	err       error
}

func NewMockCustomerClient() *MockCustomerClient {
	return &MockCustomerClient{customers: make(map[string]*chargebee.Customer)}
}

// AddCustomer registers a customer the provider will return
func (m *MockCustomerClient) AddCustomer(id, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[id] = &chargebee.Customer{ID: id, Email: email}
}

// FailWith makes every lookup return err until reset with nil
func (m *MockCustomerClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockCustomerClient) RetrieveCustomer(ctx context.Context, customerID string) (*chargebee.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.customers[customerID]
	if !ok {
		return nil, ierr.NewErrorf("customer %s not found", customerID).
			Mark(ierr.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

// Calls returns how many lookups reached the provider
func (m *MockCustomerClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockCustomerClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers = make(map[string]*chargebee.Customer)
	m.calls = 0
	m.err = nil
}
