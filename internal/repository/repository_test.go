package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pawbook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(token string) *models.Session {
	return &models.Session{
		Token:     token,
		UserID:    "u-1",
		Email:     "owner@example.com",
		CreatedAt: time.Now(),
	}
}

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	// Miss returns nil, nil
	session, err := repo.GetSession(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, session)

	require.NoError(t, repo.SetSession(ctx, testSession("tok-1")))

	session, err = repo.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "u-1", session.UserID)

	require.NoError(t, repo.DeleteSession(ctx, "tok-1"))
	session, err = repo.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestMemorySessionRepositoryExpiry(t *testing.T) {
	repo := NewMemorySessionRepository(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, repo.SetSession(ctx, testSession("tok-exp")))
	time.Sleep(20 * time.Millisecond)

	session, err := repo.GetSession(ctx, "tok-exp")
	require.NoError(t, err)
	assert.Nil(t, session, "expired session should be gone")
}

func TestRedisSessionRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewRedisSessionRepository(client, time.Hour)
	ctx := context.Background()

	session, err := repo.GetSession(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, session)

	require.NoError(t, repo.SetSession(ctx, testSession("tok-r")))

	// Stored under the session: prefix with a TTL
	assert.True(t, mr.Exists("session:tok-r"))
	assert.Greater(t, mr.TTL("session:tok-r"), time.Duration(0))

	session, err = repo.GetSession(ctx, "tok-r")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "owner@example.com", session.Email)

	require.NoError(t, repo.DeleteSession(ctx, "tok-r"))
	session, err = repo.GetSession(ctx, "tok-r")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestRedisSessionRepositoryTTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewRedisSessionRepository(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.SetSession(ctx, testSession("tok-ttl")))

	mr.FastForward(2 * time.Minute)

	session, err := repo.GetSession(ctx, "tok-ttl")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestFailoverSessionRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger := zerolog.Nop()
	primary := NewRedisSessionRepository(client, time.Hour)
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.SetSession(ctx, testSession("tok-f")))

	// Written to both stores
	assert.True(t, mr.Exists("session:tok-f"))
	mem, err := fallback.GetSession(ctx, "tok-f")
	require.NoError(t, err)
	require.NotNil(t, mem)

	// Kill redis: reads keep working off the memory copy
	mr.Close()

	session, err := repo.GetSession(ctx, "tok-f")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "u-1", session.UserID)
	assert.True(t, repo.isDown.Load())

	// Writes land in the fallback while the primary is down
	require.NoError(t, repo.SetSession(ctx, testSession("tok-g")))
	session, err = repo.GetSession(ctx, "tok-g")
	require.NoError(t, err)
	require.NotNil(t, session)
}

// flakySessionRepo wraps a memory repository with a switchable failure mode.
type flakySessionRepo struct {
	inner *MemorySessionRepository
	fail  atomic.Bool
}

func (f *flakySessionRepo) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if f.fail.Load() {
		return nil, errors.New("connection refused")
	}
	return f.inner.GetSession(ctx, token)
}

func (f *flakySessionRepo) SetSession(ctx context.Context, session *models.Session) error {
	if f.fail.Load() {
		return errors.New("connection refused")
	}
	return f.inner.SetSession(ctx, session)
}

func (f *flakySessionRepo) DeleteSession(ctx context.Context, token string) error {
	if f.fail.Load() {
		return errors.New("connection refused")
	}
	return f.inner.DeleteSession(ctx, token)
}

func TestFailoverPrimaryRecovery(t *testing.T) {
	logger := zerolog.Nop()
	primary := &flakySessionRepo{inner: NewMemorySessionRepository(time.Hour)}
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.SetSession(ctx, testSession("tok-r")))

	primary.fail.Store(true)
	session, err := repo.GetSession(ctx, "tok-r")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, repo.isDown.Load())

	// Primary comes back, but the probe interval has not elapsed yet.
	primary.fail.Store(false)
	_, err = repo.GetSession(ctx, "tok-r")
	require.NoError(t, err)
	assert.True(t, repo.isDown.Load(), "no probe before the interval elapses")

	// Backdate the last probe: the next read retries the primary and clears
	// the down flag.
	repo.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())
	session, err = repo.GetSession(ctx, "tok-r")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.False(t, repo.isDown.Load())
}

func TestFailoverConcurrentAccess(t *testing.T) {
	logger := zerolog.Nop()
	primary := &flakySessionRepo{inner: NewMemorySessionRepository(time.Hour)}
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.SetSession(ctx, testSession("tok-c")))
	primary.fail.Store(true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				session, err := repo.GetSession(ctx, "tok-c")
				assert.NoError(t, err)
				assert.NotNil(t, session)
			}
		}()
	}
	wg.Wait()

	assert.True(t, repo.isDown.Load())
}

func TestFailoverDeleteSession(t *testing.T) {
	logger := zerolog.Nop()
	primary := NewMemorySessionRepository(time.Hour)
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.SetSession(ctx, testSession("tok-d")))
	require.NoError(t, repo.DeleteSession(ctx, "tok-d"))

	session, err := primary.GetSession(ctx, "tok-d")
	require.NoError(t, err)
	assert.Nil(t, session)
	session, err = fallback.GetSession(ctx, "tok-d")
	require.NoError(t, err)
	assert.Nil(t, session)
}
