package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexchat/internal/core/domain"
)

// memoryUserStore is an in-memory driven.UserStore keyed by ID and email.
type memoryUserStore struct {
	byID    map[string]domain.User
	byEmail map[string]domain.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]domain.User),
	}
}

func (s *memoryUserStore) SaveUser(_ context.Context, user domain.User) error {
	if _, taken := s.byEmail[user.Email]; taken {
		return domain.ErrAlreadyExists
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
	return nil
}

func (s *memoryUserStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

func (s *memoryUserStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

// fakeIssuer issues reversible tokens so tests can check the subject.
type fakeIssuer struct{}

func (fakeIssuer) Issue(userID string) (string, error) { return "token:" + userID, nil }

func (fakeIssuer) Verify(token string) (string, error) {
	userID, ok := strings.CutPrefix(token, "token:")
	if !ok || userID == "" {
		return "", domain.ErrAuthInvalid
	}
	return userID, nil
}

// fakeHasher is a transparent stand-in for bcrypt.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return domain.ErrAuthInvalid
	}
	return nil
}

func newTestUserService() (*UserService, *memoryUserStore) {
	store := newMemoryUserStore()
	return NewUserService(store, fakeIssuer{}, fakeHasher{}), store
}

func TestRegister(t *testing.T) {
	svc, store := newTestUserService()

	user, err := svc.Register(context.Background(), "  CA@Example.Com ", "password123")

	require.NoError(t, err)
	assert.Equal(t, "ca@example.com", user.Email, "email is normalised")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "hash:password123", user.PasswordHash)

	stored, err := store.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, stored.Email)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestUserService()

	_, err := svc.Register(context.Background(), "not-an-email", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(context.Background(), "", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(context.Background(), "ca@example.com", "short")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService()

	_, err := svc.Register(context.Background(), "ca@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "CA@EXAMPLE.COM", "otherpassword")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestUserService()

	user, err := svc.Register(context.Background(), "ca@example.com", "password123")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), "CA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "token:"+user.ID, token)
}

func TestLogin_FailuresIndistinguishable(t *testing.T) {
	svc, _ := newTestUserService()

	_, err := svc.Register(context.Background(), "ca@example.com", "password123")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(context.Background(), "ca@example.com", "wrong")
	_, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "password123")

	assert.ErrorIs(t, wrongPassword, domain.ErrAuthInvalid)
	assert.ErrorIs(t, unknownEmail, domain.ErrAuthInvalid)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestUserService()

	user, err := svc.Register(context.Background(), "ca@example.com", "password123")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), "ca@example.com", "password123")
	require.NoError(t, err)

	got, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	svc, _ := newTestUserService()

	_, err := svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	// A valid-looking token for a deleted user is rejected too.
	_, err = svc.Authenticate(context.Background(), "token:ghost-user")
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestAuthenticate_VerifyErrorPropagates(t *testing.T) {
	store := newMemoryUserStore()
	svc := NewUserService(store, failingIssuer{}, fakeHasher{})

	_, err := svc.Authenticate(context.Background(), "anything")
	assert.ErrorIs(t, err, errVerifyBroken)
}

var errVerifyBroken = errors.New("verify broken")

type failingIssuer struct{}

func (failingIssuer) Issue(string) (string, error)  { return "", errVerifyBroken }
func (failingIssuer) Verify(string) (string, error) { return "", errVerifyBroken }
