package routing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chetak-health/chetak-api/geo"
)

type countingProvider struct {
	calls int
	route *Route
	err   error
}

func (p *countingProvider) Route(ctx context.Context, from, to geo.Coordinate) (*Route, error) {
	p.calls++
	return p.route, p.err
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCachedProviderReadThrough(t *testing.T) {
	mr, rdb := newTestRedis(t)
	next := &countingProvider{route: &Route{
		Geometry:        geo.StraightLine(patient, hospital),
		DistanceMeters:  2700,
		DurationSeconds: 420,
	}}
	c := NewCachedProvider(next, rdb, time.Minute)

	first, err := c.Route(context.Background(), patient, hospital)
	require.NoError(t, err)
	second, err := c.Route(context.Background(), patient, hospital)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(CacheKey(patient, hospital)))
	assert.Equal(t, time.Minute, mr.TTL(CacheKey(patient, hospital)))
}

func TestCachedProviderDoesNotCacheFailures(t *testing.T) {
	mr, rdb := newTestRedis(t)
	next := &countingProvider{err: ErrNoRoute}
	c := NewCachedProvider(next, rdb, 0)

	_, err := c.Route(context.Background(), patient, hospital)
	assert.ErrorIs(t, err, ErrNoRoute)
	_, err = c.Route(context.Background(), patient, hospital)
	assert.ErrorIs(t, err, ErrNoRoute)

	assert.Equal(t, 2, next.calls)
	assert.False(t, mr.Exists(CacheKey(patient, hospital)))
}

func TestCachedProviderSurvivesRedisOutage(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Close()

	next := &countingProvider{route: &Route{DistanceMeters: 10}}
	r, err := NewCachedProvider(next, rdb, time.Minute).Route(context.Background(), patient, hospital)
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.DistanceMeters)
}

func TestCachedProviderIgnoresCorruptEntries(t *testing.T) {
	mr, rdb := newTestRedis(t)
	require.NoError(t, mr.Set(CacheKey(patient, hospital), "not json"))

	next := &countingProvider{route: &Route{DistanceMeters: 42}}
	r, err := NewCachedProvider(next, rdb, time.Minute).Route(context.Background(), patient, hospital)
	require.NoError(t, err)
	assert.Equal(t, 42.0, r.DistanceMeters)
	assert.Equal(t, 1, next.calls)
}

func TestCacheKey(t *testing.T) {
	near := geo.Coordinate{Latitude: patient.Latitude + 1e-7, Longitude: patient.Longitude}

	assert.Equal(t, CacheKey(patient, hospital), CacheKey(near, hospital))
	assert.NotEqual(t, CacheKey(patient, hospital), CacheKey(hospital, patient))
	assert.Contains(t, CacheKey(patient, hospital), cacheKeyPrefix)
}
