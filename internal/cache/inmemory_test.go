package cache

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/grants/internal/config"
	"github.com/stretchr/testify/suite"
)

type InMemoryCacheSuite struct {
	suite.Suite
	ctx   context.Context
	cache Cache
}

func TestInMemoryCache(t *testing.T) {
	suite.Run(t, new(InMemoryCacheSuite))
}

func (s *InMemoryCacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.cache = NewInMemoryCache(&config.Configuration{
		Chargebee: config.ChargebeeConfig{CustomerCacheTTL: time.Minute},
	})
}

func (s *InMemoryCacheSuite) TestGenerateKey() {
	s.Equal("provider_customer:v1::cus_1", GenerateKey(PrefixProviderCustomer, "cus_1"))
	s.Equal("p:a:2", GenerateKey("p", "a", 2))
}

func (s *InMemoryCacheSuite) TestSetGetDelete() {
	key := GenerateKey(PrefixProviderCustomer, "cus_1")

	_, ok := s.cache.Get(s.ctx, key)
	s.False(ok)

	s.cache.Set(s.ctx, key, "alice@example.com", 0)
	got, ok := s.cache.Get(s.ctx, key)
	s.True(ok)
	s.Equal("alice@example.com", got)

	s.cache.Delete(s.ctx, key)
	_, ok = s.cache.Get(s.ctx, key)
	s.False(ok)
}

func (s *InMemoryCacheSuite) TestExpiry() {
	s.cache.Set(s.ctx, "short", 1, time.Millisecond)
	s.Eventually(func() bool {
		_, ok := s.cache.Get(s.ctx, "short")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func (s *InMemoryCacheSuite) TestFlush() {
	s.cache.Set(s.ctx, "a", 1, 0)
	s.cache.Set(s.ctx, "b", 2, 0)
	s.cache.Flush(s.ctx)

	_, ok := s.cache.Get(s.ctx, "a")
	s.False(ok)
	_, ok = s.cache.Get(s.ctx, "b")
	s.False(ok)
}
