package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowUnderLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()
	key := "ratelimit:user:u1"

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)

	allowed, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_DeniesOverLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()
	key := "ratelimit:user:u1"

	mock.ExpectIncr(key).SetVal(4)

	allowed, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_ExpireOnlySetOnFirstHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()
	key := "ratelimit:ip:10.0.0.1"

	mock.ExpectIncr(key).SetVal(2)

	allowed, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_SurfacesRedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()
	key := "ratelimit:user:u1"

	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))

	_, err := limiter.Allow(ctx, key)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
