package blogs

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/shared"
)

type mockRepository struct {
	nextID int64
	blogs  map[int64]*Blog
}

func newMockRepository() *mockRepository {
	return &mockRepository{nextID: 1, blogs: make(map[int64]*Blog)}
}

func (m *mockRepository) Create(ctx context.Context, b Blog) (*Blog, error) {
	b.ID = m.nextID
	m.nextID++
	b.PublishedAt = time.Now().UTC()
	b.UpdatedAt = b.PublishedAt
	stored := b
	m.blogs[b.ID] = &stored
	return &stored, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Blog, error) {
	b, ok := m.blogs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockRepository) GetAndVisit(ctx context.Context, id int64) (*Blog, error) {
	b, ok := m.blogs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	b.VisitCount++
	copied := *b
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, limit, offset int) ([]Blog, int, error) {
	var out []Blog
	for _, b := range m.blogs {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (m *mockRepository) Latest(ctx context.Context, limit int) ([]Blog, error) {
	var out []Blog
	for _, b := range m.blogs {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, title, content, imageURL string) (*Blog, error) {
	b, ok := m.blogs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	b.Title = title
	b.Content = content
	b.ImageURL = imageURL
	copied := *b
	return &copied, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.blogs[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.blogs, id)
	return nil
}

type stubAuthors map[string]string

func (s stubAuthors) DisplayName(ctx context.Context, email string) (string, error) {
	name, ok := s[email]
	if !ok {
		return "", shared.ErrNotFound
	}
	return name, nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	authors := stubAuthors{
		"agent@x.com": "A Gent",
		"admin@x.com": "The Admin",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, authors, nil, logger), repo
}

func agentPrincipal() *auth.Principal {
	return &auth.Principal{Email: "agent@x.com", Role: auth.RoleAgent}
}

func TestPublishAttributesStoredName(t *testing.T) {
	service, _ := newTestService()

	blog, err := service.Publish(context.Background(), agentPrincipal(), PublishRequest{Title: "Why term life", Content: "Because."})
	require.NoError(t, err)
	assert.Equal(t, "agent@x.com", blog.AuthorEmail)
	assert.Equal(t, "A Gent", blog.AuthorName)
}

func TestPublishValidation(t *testing.T) {
	service, _ := newTestService()

	_, err := service.Publish(context.Background(), agentPrincipal(), PublishRequest{Title: "  ", Content: "x"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestReadCountsVisits(t *testing.T) {
	service, _ := newTestService()
	blog, err := service.Publish(context.Background(), agentPrincipal(), PublishRequest{Title: "t", Content: "c"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		read, err := service.Read(context.Background(), blog.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), read.VisitCount)
	}
}

func TestLatestReturnsNewestFour(t *testing.T) {
	service, _ := newTestService()
	for i := 0; i < 6; i++ {
		_, err := service.Publish(context.Background(), agentPrincipal(), PublishRequest{Title: "t", Content: "c"})
		require.NoError(t, err)
	}

	latest, err := service.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, latest, LatestCount)
	assert.Equal(t, int64(6), latest[0].ID)
}

func TestEditOwnershipRule(t *testing.T) {
	service, _ := newTestService()
	blog, err := service.Publish(context.Background(), agentPrincipal(), PublishRequest{Title: "t", Content: "c"})
	require.NoError(t, err)

	// Another agent cannot touch someone else's post.
	other := &auth.Principal{Email: "other@x.com", Role: auth.RoleAgent}
	_, err = service.Edit(context.Background(), other, blog.ID, PublishRequest{Title: "x", Content: "y"})
	require.ErrorIs(t, err, shared.ErrForbidden)

	// The author can.
	edited, err := service.Edit(context.Background(), agentPrincipal(), blog.ID, PublishRequest{Title: "x", Content: "y"})
	require.NoError(t, err)
	assert.Equal(t, "x", edited.Title)

	// Admins can edit anything.
	admin := &auth.Principal{Email: "admin@x.com", Role: auth.RoleAdmin}
	_, err = service.Edit(context.Background(), admin, blog.ID, PublishRequest{Title: "z", Content: "w"})
	require.NoError(t, err)
}

func TestRemoveOwnershipRule(t *testing.T) {
	service, repo := newTestService()
	blog, err := service.Publish(context.Background(), agentPrincipal(), PublishRequest{Title: "t", Content: "c"})
	require.NoError(t, err)

	other := &auth.Principal{Email: "other@x.com", Role: auth.RoleAgent}
	require.ErrorIs(t, service.Remove(context.Background(), other, blog.ID), shared.ErrForbidden)

	require.NoError(t, service.Remove(context.Background(), agentPrincipal(), blog.ID))
	assert.Empty(t, repo.blogs)
}
