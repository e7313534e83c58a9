package reviews

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-life/aegis-api/internal/policies"
	"github.com/aegis-life/aegis-api/internal/shared"
)

type mockRepository struct {
	reviews []Review
}

func (m *mockRepository) Create(ctx context.Context, rev Review) (*Review, error) {
	rev.ID = int64(len(m.reviews) + 1)
	m.reviews = append(m.reviews, rev)
	return &rev, nil
}

func (m *mockRepository) List(ctx context.Context, limit int) ([]Review, error) {
	if len(m.reviews) > limit {
		return m.reviews[:limit], nil
	}
	return m.reviews, nil
}

type stubCatalog struct{}

func (stubCatalog) Get(ctx context.Context, id int64) (*policies.Policy, error) {
	if id != 1 {
		return nil, shared.ErrNotFound
	}
	return &policies.Policy{ID: 1, Title: "Term Life 20"}, nil
}

type stubReviewers struct{}

func (stubReviewers) DisplayProfile(ctx context.Context, email string) (string, string, error) {
	if email != "u@x.com" {
		return "", "", shared.ErrNotFound
	}
	return "U Ser", "https://cdn.example/u.png", nil
}

func newTestService() (*Service, *mockRepository) {
	repo := &mockRepository{}
	return NewService(repo, stubCatalog{}, stubReviewers{}), repo
}

func TestSubmitSnapshotsProfileAndPolicy(t *testing.T) {
	service, _ := newTestService()

	review, err := service.Submit(context.Background(), "u@x.com", SubmitRequest{Rating: 5, Feedback: "great", PolicyID: 1})
	require.NoError(t, err)
	assert.Equal(t, "U Ser", review.ReviewerName)
	assert.Equal(t, "https://cdn.example/u.png", review.ReviewerPhoto)
	assert.Equal(t, "Term Life 20", review.PolicyTitle)
}

func TestSubmitValidation(t *testing.T) {
	service, _ := newTestService()

	_, err := service.Submit(context.Background(), "u@x.com", SubmitRequest{Rating: 6, Feedback: "x", PolicyID: 1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = service.Submit(context.Background(), "u@x.com", SubmitRequest{Rating: 3, Feedback: "  ", PolicyID: 1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = service.Submit(context.Background(), "u@x.com", SubmitRequest{Rating: 3, Feedback: "ok", PolicyID: 99})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestListCapsResults(t *testing.T) {
	service, repo := newTestService()
	for i := 0; i < ListLimit+5; i++ {
		repo.reviews = append(repo.reviews, Review{ID: int64(i + 1)})
	}

	out, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, ListLimit)
}
