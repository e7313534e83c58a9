package users

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/shared"
)

type mockRepository struct {
	byEmail   map[string]*User
	byID      map[int64]*User
	passwords map[string]string
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byEmail:   make(map[string]*User),
		byID:      make(map[int64]*User),
		passwords: make(map[string]string),
		nextID:    1,
	}
}

func (m *mockRepository) Create(ctx context.Context, user User, passwordHash string) (*User, error) {
	if _, ok := m.byEmail[user.Email]; ok {
		return nil, shared.ErrDuplicate
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := user
	m.byEmail[user.Email] = &stored
	m.byID[user.ID] = &stored
	m.passwords[user.Email] = passwordHash
	return &stored, nil
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (m *mockRepository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var users []User
	for _, u := range m.byID {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockRepository) UpdateRole(ctx context.Context, id int64, role auth.Role) (*User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	user.Role = role
	return user, nil
}

func (m *mockRepository) ListAgents(ctx context.Context, limit int) ([]User, error) {
	var agents []User
	for _, u := range m.byID {
		if u.Role == auth.RoleAgent {
			agents = append(agents, *u)
		}
	}
	return agents, nil
}

type mockAuditor struct {
	entries []shared.AuditLog
}

func (m *mockAuditor) Record(ctx context.Context, log shared.AuditLog) error {
	m.entries = append(m.entries, log)
	return nil
}

func newTestService() (*Service, *mockRepository, *mockAuditor) {
	repo := newMockRepository()
	audit := &mockAuditor{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, audit, logger), repo, audit
}

func TestRegisterDefaultsToCustomer(t *testing.T) {
	service, repo, _ := newTestService()

	user, created, err := service.Register(context.Background(), RegisterRequest{
		Email: "new@x.com", Name: "New User", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, auth.RoleCustomer, user.Role)

	// Password is stored hashed, never verbatim.
	hash := repo.passwords["new@x.com"]
	require.NotEmpty(t, hash)
	require.NotEqual(t, "hunter2hunter2", hash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2hunter2")))
}

func TestRegisterIdempotent(t *testing.T) {
	service, _, _ := newTestService()

	first, created, err := service.Register(context.Background(), RegisterRequest{Email: "dup@x.com", Name: "First"})
	require.NoError(t, err)
	require.True(t, created)

	// An admin promotes the account; a later re-registration must not reset it.
	_, err = service.UpdateRole(context.Background(), "admin@x.com", first.ID, auth.RoleAgent)
	require.NoError(t, err)

	again, created, err := service.Register(context.Background(), RegisterRequest{Email: "dup@x.com", Name: "Second"})
	require.NoError(t, err)
	require.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, auth.RoleAgent, again.Role)
	assert.Equal(t, "First", again.Name)
}

func TestUpdateRoleValidatesAndAudits(t *testing.T) {
	service, _, audit := newTestService()

	user, _, err := service.Register(context.Background(), RegisterRequest{Email: "u@x.com", Name: "U"})
	require.NoError(t, err)

	_, err = service.UpdateRole(context.Background(), "admin@x.com", user.ID, auth.Role("superuser"))
	require.ErrorIs(t, err, shared.ErrValidation)

	updated, err := service.UpdateRole(context.Background(), "admin@x.com", user.ID, auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, updated.Role)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "role.update", audit.entries[0].Action)
	assert.Equal(t, "admin@x.com", audit.entries[0].ActorEmail)
}

func TestUpdateRoleUnknownUser(t *testing.T) {
	service, _, _ := newTestService()
	_, err := service.UpdateRole(context.Background(), "admin@x.com", 404, auth.RoleAgent)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAgentsDirectory(t *testing.T) {
	service, _, _ := newTestService()

	a, _, err := service.Register(context.Background(), RegisterRequest{Email: "agent@x.com", Name: "Agent"})
	require.NoError(t, err)
	_, _, err = service.Register(context.Background(), RegisterRequest{Email: "cust@x.com", Name: "Customer"})
	require.NoError(t, err)
	_, err = service.UpdateRole(context.Background(), "admin@x.com", a.ID, auth.RoleAgent)
	require.NoError(t, err)

	agents, err := service.Agents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "agent@x.com", agents[0].Email)
}
