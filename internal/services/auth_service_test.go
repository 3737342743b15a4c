package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centavo-io/centavo/internal/models"
	"github.com/centavo-io/centavo/internal/repositories"
)

type fakeUserRepo struct {
	byEmail map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*models.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func newTestAuthService() (*AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewAuthService(repo, "test-secret", time.Hour), repo
}

func TestAuthService_RegisterLoginVerify(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "maria@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	resp, err := svc.Login(ctx, "maria@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.UserID)

	userID, err := svc.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "maria@example.com", "correct-horse-battery")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "maria@example.com", "another-password-1")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "maria@example.com", "correct-horse-battery")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "maria@example.com", "wrong-password-123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "whatever-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_VerifyGarbageToken(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_VerifyTokenWrongSecret(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "maria@example.com", "correct-horse-battery")
	require.NoError(t, err)
	resp, err := svc.Login(ctx, "maria@example.com", "correct-horse-battery")
	require.NoError(t, err)

	other := NewAuthService(repo, "different-secret", time.Hour)
	_, err = other.VerifyToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
