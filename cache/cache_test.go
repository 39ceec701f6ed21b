package cache

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/apimgmt/mgmtrepo/db"
	"github.com/apimgmt/mgmtrepo/internal/config"
	"github.com/apimgmt/mgmtrepo/internal/fixtures"
	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/apimgmt/mgmtrepo/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = slogging.Initialize(slogging.Config{Level: slogging.LogLevelError, Output: io.Discard})
	os.Exit(m.Run())
}

type countingEnvironments struct {
	repository.EnvironmentRepository
	finds atomic.Int32
}

func (c *countingEnvironments) FindByID(ctx context.Context, id string) (repository.Optional[repository.Environment], error) {
	c.finds.Add(1)
	return c.EnvironmentRepository.FindByID(ctx, id)
}

type countingLicenses struct {
	repository.LicenseRepository
	finds atomic.Int32
}

func (c *countingLicenses) FindByID(ctx context.Context, referenceID string, referenceType repository.ReferenceType) (repository.Optional[repository.License], error) {
	c.finds.Add(1)
	return c.LicenseRepository.FindByID(ctx, referenceID, referenceType)
}

func newRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	tdb := db.MustCreateTestDB(t)
	require.NoError(t, fixtures.Load(context.Background(), tdb.DB, fixtures.Datasets(), "organizations"))
	return repository.NewGormRepositories(tdb.DB)
}

func backends(t *testing.T) map[string]func(t *testing.T) Backend {
	return map[string]func(t *testing.T) Backend{
		"memory": func(t *testing.T) Backend {
			return NewMemoryBackend(time.Minute)
		},
		"redis": func(t *testing.T) Backend {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewRedisBackend(client)
		},
	}
}

func TestEnvironmentReadThrough(t *testing.T) {
	ctx := context.Background()
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repos := newRepos(t)
			inner := &countingEnvironments{EnvironmentRepository: repos.Environments}
			envs := NewEnvironmentRepository(inner, newBackend(t), Options{TTL: time.Minute, KeyPrefix: "test:"})

			first, err := envs.FindByID(ctx, "env-2")
			require.NoError(t, err)
			second, err := envs.FindByID(ctx, "env-2")
			require.NoError(t, err)
			assert.Equal(t, first, second)
			assert.Equal(t, "Staging", second.MustGet().Name)
			assert.Equal(t, []string{"staging.example.com"}, second.MustGet().DomainRestrictions)
			assert.Equal(t, int32(1), inner.finds.Load(), "second find should be a hit")

			t.Run("misses are not cached", func(t *testing.T) {
				before := inner.finds.Load()
				for range 2 {
					found, err := envs.FindByID(ctx, "nope")
					require.NoError(t, err)
					assert.True(t, found.IsEmpty())
				}
				assert.Equal(t, before+2, inner.finds.Load())
			})

			t.Run("update evicts", func(t *testing.T) {
				env := second.MustGet()
				env.Name = "Staging (renamed)"
				_, err := envs.Update(ctx, &env)
				require.NoError(t, err)

				found, err := envs.FindByID(ctx, "env-2")
				require.NoError(t, err)
				assert.Equal(t, "Staging (renamed)", found.MustGet().Name)
			})

			t.Run("failed update keeps the entry", func(t *testing.T) {
				ghost := repository.Environment{ID: "ghost", Name: "Ghost", OrganizationID: "DEFAULT"}
				_, err := envs.Update(ctx, &ghost)
				assert.ErrorIs(t, err, repository.ErrNotFound)
			})

			t.Run("delete evicts", func(t *testing.T) {
				require.NoError(t, envs.Delete(ctx, "env-2"))
				found, err := envs.FindByID(ctx, "env-2")
				require.NoError(t, err)
				assert.True(t, found.IsEmpty())
			})
		})
	}
}

// stallingEnvironments holds its first FindByID after reading the row
type stallingEnvironments struct {
	repository.EnvironmentRepository
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (s *stallingEnvironments) FindByID(ctx context.Context, id string) (repository.Optional[repository.Environment], error) {
	found, err := s.EnvironmentRepository.FindByID(ctx, id)
	s.once.Do(func() {
		close(s.loaded)
		<-s.release
	})
	return found, err
}

func TestUpdateDuringLoadIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repos := newRepos(t)
			backend := newBackend(t)
			inner := &stallingEnvironments{
				EnvironmentRepository: repos.Environments,
				loaded:                make(chan struct{}),
				release:               make(chan struct{}),
			}
			envs := NewEnvironmentRepository(inner, backend, Options{TTL: time.Minute, KeyPrefix: "test:"})

			stale := make(chan repository.Optional[repository.Environment], 1)
			go func() {
				found, err := envs.FindByID(ctx, "env-2")
				assert.NoError(t, err)
				stale <- found
			}()
			<-inner.loaded

			env := repository.Environment{ID: "env-2", Name: "Renamed", OrganizationID: "DEFAULT"}
			_, err := envs.Update(ctx, &env)
			require.NoError(t, err)
			close(inner.release)

			assert.Equal(t, "Staging", (<-stale).MustGet().Name)

			_, ok, err := backend.Get(ctx, "test:environment:env-2")
			require.NoError(t, err)
			assert.False(t, ok, "a load that raced an update must not be stored")

			found, err := envs.FindByID(ctx, "env-2")
			require.NoError(t, err)
			assert.Equal(t, "Renamed", found.MustGet().Name)

			_, ok, err = backend.Get(ctx, "test:environment:env-2")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestOrganizationReadThrough(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)
	backend := NewMemoryBackend(time.Minute)
	orgs := NewOrganizationRepository(repos.Organizations, backend, Options{})

	found, err := orgs.FindByID(ctx, "org-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "org2"}, found.MustGet().Hrids)
	assert.Equal(t, 1, backend.Len())

	all, err := orgs.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, orgs.Delete(ctx, "org-2"))
	assert.Equal(t, 0, backend.Len())
}

func TestLicenseReadThroughKeysByReference(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := &countingLicenses{LicenseRepository: repos.Licenses}
	licenses := NewLicenseRepository(inner, NewRedisBackend(client), Options{TTL: 10 * time.Minute, KeyPrefix: "mgmt:"})

	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err := licenses.Create(ctx, &repository.License{
		ReferenceID:   "DEFAULT",
		ReferenceType: repository.ReferenceOrganization,
		License:       "base64-key",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)

	found, err := licenses.FindByID(ctx, "DEFAULT", repository.ReferenceOrganization)
	require.NoError(t, err)
	assert.Equal(t, "base64-key", found.MustGet().License)

	key := "mgmt:license:ORGANIZATION:DEFAULT"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 10*time.Minute, mr.TTL(key))

	cached, err := licenses.FindByID(ctx, "DEFAULT", repository.ReferenceOrganization)
	require.NoError(t, err)
	assert.True(t, now.Equal(cached.MustGet().UpdatedAt))
	assert.Equal(t, int32(1), inner.finds.Load())

	other, err := licenses.FindByID(ctx, "DEFAULT", repository.ReferenceEnvironment)
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())

	lic := found.MustGet()
	lic.License = "rotated"
	_, err = licenses.Update(ctx, &lic)
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))
}

func TestBackendFailureReadsThrough(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	envs := NewEnvironmentRepository(repos.Environments, NewRedisBackend(client), Options{TTL: time.Minute})
	mr.Close()

	found, err := envs.FindByID(ctx, "DEFAULT")
	require.NoError(t, err)
	assert.Equal(t, "Default environment", found.MustGet().Name)
}

func TestUndecodableEntryIsReloaded(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)
	backend := NewMemoryBackend(time.Minute)
	require.NoError(t, backend.Set(ctx, "environment:DEFAULT", []byte("{not json"), 0))

	envs := NewEnvironmentRepository(repos.Environments, backend, Options{})
	found, err := envs.FindByID(ctx, "DEFAULT")
	require.NoError(t, err)
	assert.Equal(t, "DEFAULT", found.MustGet().OrganizationID)
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)
	inner := &countingEnvironments{EnvironmentRepository: repos.Environments}
	envs := NewEnvironmentRepository(inner, NewMemoryBackend(time.Minute), Options{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			found, err := envs.FindByID(ctx, "env-3")
			assert.NoError(t, err)
			assert.True(t, found.IsPresent())
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, inner.finds.Load(), int32(8))
	assert.GreaterOrEqual(t, inner.finds.Load(), int32(1))
}

func TestWrap(t *testing.T) {
	repos := newRepos(t)
	assert.Same(t, repos, Wrap(repos, nil, Options{}))

	wrapped := Wrap(repos, NewMemoryBackend(time.Minute), Options{})
	assert.IsType(t, &EnvironmentRepository{}, wrapped.Environments)
	assert.IsType(t, &OrganizationRepository{}, wrapped.Organizations)
	assert.IsType(t, &LicenseRepository{}, wrapped.Licenses)
	assert.Same(t, repos.Tags, wrapped.Tags)
	assert.NotSame(t, repos, wrapped)
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	cfg.Cache.Driver = "none"
	b, err := NewBackend(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, b)

	cfg.Cache.Driver = "memory"
	b, err = NewBackend(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	mr := miniredis.RunT(t)
	cfg.Cache.Driver = "redis"
	cfg.Cache.Redis.Host = mr.Host()
	cfg.Cache.Redis.Port = mr.Port()
	b, err = NewBackend(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &RedisBackend{}, b)
	require.NoError(t, b.Set(ctx, "k", []byte("v"), time.Second))
	got, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	require.NoError(t, b.Delete(ctx, "k"))
	_, ok, err = b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, b.Close())

	cfg.Cache.Driver = "memcached"
	_, err = NewBackend(ctx, cfg)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestEvict(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)
	backend := NewMemoryBackend(time.Minute)
	opts := Options{KeyPrefix: "p:"}
	envs := NewEnvironmentRepository(repos.Environments, backend, opts)

	_, err := envs.FindByID(ctx, "env-2")
	require.NoError(t, err)
	_, ok, _ := backend.Get(ctx, "p:environment:env-2")
	require.True(t, ok)

	require.NoError(t, Evict(ctx, backend, opts, "environment", "env-2"))
	_, ok, _ = backend.Get(ctx, "p:environment:env-2")
	assert.False(t, ok)

	assert.NoError(t, Evict(ctx, nil, opts, "environment", "env-2"))
}
