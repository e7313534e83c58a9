package policies

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-life/aegis-api/internal/shared"
)

type mockRepository struct {
	policies map[int64]*Policy
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{policies: make(map[int64]*Policy), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Policy, int, error) {
	var out []Policy
	for _, p := range m.policies {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Policy, error) {
	p, ok := m.policies[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (m *mockRepository) Create(ctx context.Context, p Policy) (*Policy, error) {
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	stored := p
	m.policies[p.ID] = &stored
	return &stored, nil
}

func (m *mockRepository) Update(ctx context.Context, p Policy) (*Policy, error) {
	existing, ok := m.policies[p.ID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	p.PurchaseCount = existing.PurchaseCount
	stored := p
	m.policies[p.ID] = &stored
	return &stored, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.policies[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.policies, id)
	return nil
}

func (m *mockRepository) TopByPurchases(ctx context.Context, limit int) ([]Policy, error) {
	var out []Policy
	for _, p := range m.policies {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseCount > out[j].PurchaseCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepository) IncrementPurchases(ctx context.Context, id int64) error {
	p, ok := m.policies[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.PurchaseCount++
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepository, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, 10*time.Minute)
	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, cache, logger), repo, cache
}

func TestCreateValidates(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Create(context.Background(), Policy{Title: "Term Life"})
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := service.Create(context.Background(), Policy{
		Title: "Term Life 20", Category: "Term Life", Coverage: "Up to $500,000", Term: "20 Years",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestPopularFallsBackToDatabase(t *testing.T) {
	service, repo, _ := newTestService(t)

	for _, count := range []int64{3, 9, 1} {
		p, err := repo.Create(context.Background(), Policy{Title: "P", Category: "c", Coverage: "x", Term: "t"})
		require.NoError(t, err)
		p.PurchaseCount = count
	}

	popular, err := service.Popular(context.Background())
	require.NoError(t, err)
	require.Len(t, popular, 3)
	assert.Equal(t, int64(9), popular[0].PurchaseCount)
}

func TestPopularPrefersCache(t *testing.T) {
	service, repo, cache := newTestService(t)

	_, err := repo.Create(context.Background(), Policy{Title: "DB Policy", Category: "c", Coverage: "x", Term: "t"})
	require.NoError(t, err)

	cached := []Policy{{ID: 42, Title: "Cached Policy"}}
	require.NoError(t, cache.SetPopular(context.Background(), cached))

	popular, err := service.Popular(context.Background())
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, "Cached Policy", popular[0].Title)
}

func TestRefreshPopularWritesCache(t *testing.T) {
	service, repo, cache := newTestService(t)

	p, err := repo.Create(context.Background(), Policy{Title: "Hot", Category: "c", Coverage: "x", Term: "t"})
	require.NoError(t, err)
	require.NoError(t, repo.IncrementPurchases(context.Background(), p.ID))

	require.NoError(t, service.RefreshPopular(context.Background()))

	cachedNow, err := cache.GetPopular(context.Background())
	require.NoError(t, err)
	require.Len(t, cachedNow, 1)
	assert.Equal(t, "Hot", cachedNow[0].Title)
	assert.Equal(t, int64(1), cachedNow[0].PurchaseCount)
}

func TestIncrementPurchasesUnknownPolicy(t *testing.T) {
	service, _, _ := newTestService(t)
	err := service.IncrementPurchases(context.Background(), 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
