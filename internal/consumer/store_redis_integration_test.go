//go:build integration

package consumer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"authgate/internal/consumer"
	"authgate/internal/platform/redis"
	"authgate/pkg/testutil/containers"
)

type RedisSessionStoreSuite struct {
	suite.Suite
	client *redis.Client
	store  *consumer.RedisSessionStore
}

func TestRedisSessionStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSessionStoreSuite))
}

func (s *RedisSessionStoreSuite) SetupSuite() {
	ctx := context.Background()
	rc := containers.NewRedisContainer(s.T())

	client, err := redis.New(ctx, rc.URL)
	s.Require().NoError(err)
	s.Require().NotNil(client)
	s.client = client

	s.store = consumer.NewRedisSessionStore(client)
}

func (s *RedisSessionStoreSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *RedisSessionStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisSessionStoreSuite) TestSaveAndFind() {
	ctx := context.Background()

	session, err := consumer.NewSession("sub-1", "alice@example.com", "Alice", time.Hour)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(ctx, session))

	found, err := s.store.Find(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, found.ID)
	s.Equal("alice@example.com", found.Email)
	s.Equal(session.ExpiresAt.UnixNano(), found.ExpiresAt.UnixNano())
}

func (s *RedisSessionStoreSuite) TestFind_Unknown() {
	_, err := s.store.Find(context.Background(), "missing")
	s.Require().ErrorIs(err, consumer.ErrSessionNotFound)
}

func (s *RedisSessionStoreSuite) TestDelete() {
	ctx := context.Background()

	session, err := consumer.NewSession("sub-1", "alice@example.com", "Alice", time.Hour)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(ctx, session))

	s.Require().NoError(s.store.Delete(ctx, session.ID))
	_, err = s.store.Find(ctx, session.ID)
	s.Require().ErrorIs(err, consumer.ErrSessionNotFound)

	s.Require().NoError(s.store.Delete(ctx, session.ID), "delete is idempotent")
}

func (s *RedisSessionStoreSuite) TestExpiryRidesOnKeyTTL() {
	ctx := context.Background()

	session, err := consumer.NewSession("sub-1", "alice@example.com", "Alice", time.Hour)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(ctx, session))

	ttl, err := s.client.TTL(ctx, "session:"+session.ID).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 55*time.Minute)
	s.LessOrEqual(ttl, time.Hour)
}

func (s *RedisSessionStoreSuite) TestSave_AlreadyExpired() {
	ctx := context.Background()

	session, err := consumer.NewSession("sub-1", "alice@example.com", "Alice", -time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(ctx, session), "expired sessions are dropped silently")

	_, err = s.store.Find(ctx, session.ID)
	s.Require().ErrorIs(err, consumer.ErrSessionNotFound)
}
