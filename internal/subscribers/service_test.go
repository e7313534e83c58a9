package subscribers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-life/aegis-api/internal/shared"
	"github.com/aegis-life/aegis-api/jobs"
)

type mockRepository struct {
	byEmail map[string]*Subscriber
}

func newMockRepository() *mockRepository {
	return &mockRepository{byEmail: make(map[string]*Subscriber)}
}

func (m *mockRepository) Create(ctx context.Context, email, name string) (*Subscriber, error) {
	if _, ok := m.byEmail[email]; ok {
		return nil, shared.ErrDuplicate
	}
	sub := &Subscriber{ID: int64(len(m.byEmail) + 1), Email: email, Name: name, SubscribedAt: time.Now().UTC()}
	m.byEmail[email] = sub
	return sub, nil
}

func (m *mockRepository) List(ctx context.Context) ([]Subscriber, error) {
	var out []Subscriber
	for _, s := range m.byEmail {
		out = append(out, *s)
	}
	return out, nil
}

type mockGreeter struct {
	sent []jobs.WelcomeMailPayload
	err  error
}

func (m *mockGreeter) EnqueueWelcomeMail(ctx context.Context, payload jobs.WelcomeMailPayload) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, payload)
	return &asynq.TaskInfo{}, nil
}

func newTestService() (*Service, *mockRepository, *mockGreeter) {
	repo := newMockRepository()
	greeter := &mockGreeter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, greeter, logger), repo, greeter
}

func TestSubscribeQueuesWelcomeMail(t *testing.T) {
	service, _, greeter := newTestService()

	sub, err := service.Subscribe(context.Background(), " New@Example.COM ", "New Person")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", sub.Email)
	require.Len(t, greeter.sent, 1)
	assert.Equal(t, "new@example.com", greeter.sent[0].To)
}

func TestSubscribeDuplicateEmail(t *testing.T) {
	service, _, greeter := newTestService()

	_, err := service.Subscribe(context.Background(), "a@x.com", "A")
	require.NoError(t, err)

	_, err = service.Subscribe(context.Background(), "a@x.com", "A again")
	require.ErrorIs(t, err, shared.ErrDuplicate)
	assert.Len(t, greeter.sent, 1)
}

func TestSubscribeSurvivesQueueOutage(t *testing.T) {
	service, repo, greeter := newTestService()
	greeter.err = errors.New("redis: connection refused")

	sub, err := service.Subscribe(context.Background(), "a@x.com", "A")
	require.NoError(t, err)
	assert.NotNil(t, sub)
	assert.Len(t, repo.byEmail, 1)
}

func TestSubscribeValidation(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.Subscribe(context.Background(), "   ", "")
	require.ErrorIs(t, err, shared.ErrValidation)
}
