package places

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"places-workers/internal/common/logger"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchDetail(ctx context.Context, placeID string) (*PlaceDetail, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PlaceDetail), args.Error(1)
}

func TestCachedDetails_MissThenHit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	detail := &PlaceDetail{Name: "Colosseum", FormattedAddress: "Rome"}
	next := &mockFetcher{}
	next.On("FetchDetail", mock.Anything, "p1").Return(detail, nil).Once()

	cached := NewCachedDetails(next, rdb, time.Hour, logger.NewTestLogger(t))

	got, err := cached.FetchDetail(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, detail, got)
	assert.True(t, mr.Exists(DetailKey("p1")))
	assert.Equal(t, time.Hour, mr.TTL(DetailKey("p1")))

	got, err = cached.FetchDetail(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, detail, got)

	next.AssertExpectations(t)
}

func TestCachedDetails_FetchErrorNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := &mockFetcher{}
	next.On("FetchDetail", mock.Anything, "p1").Return(nil, errors.New("boom"))

	_, err := NewCachedDetails(next, rdb, time.Hour, logger.NewNoOpLogger()).FetchDetail(context.Background(), "p1")
	assert.EqualError(t, err, "boom")
	assert.False(t, mr.Exists(DetailKey("p1")))
}

func TestCachedDetails_RedisDownFallsThrough(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()

	detail := &PlaceDetail{Name: "Pantheon"}
	payload, _ := json.Marshal(detail)

	rmock.ExpectGet(DetailKey("p9")).SetErr(errors.New("connection refused"))
	rmock.ExpectSet(DetailKey("p9"), payload, time.Minute).SetErr(errors.New("connection refused"))

	next := &mockFetcher{}
	next.On("FetchDetail", mock.Anything, "p9").Return(detail, nil)

	got, err := NewCachedDetails(next, rdb, time.Minute, logger.NewNoOpLogger()).FetchDetail(context.Background(), "p9")
	require.NoError(t, err)
	assert.Equal(t, detail, got)
	assert.NoError(t, rmock.ExpectationsWereMet())
}
