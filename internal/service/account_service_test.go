package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/perfumery/internal/auth"
	"github.com/vbonduro/perfumery/internal/domain"
	"github.com/vbonduro/perfumery/internal/store"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	user, err := env.accounts.Login(context.Background(), "ADMIN@myteam.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "user1", user.ID)
	assert.True(t, user.IsAdmin)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	tests := []struct {
		name, email, password string
	}{
		{"missing fields", "", ""},
		{"unknown email", "nobody@test.com", "admin123"},
		{"wrong password", "admin@myteam.com", "nope"},
		{"blocked account", "member1@test.com", "member123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.accounts.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func validRegistration() RegistrationInput {
	return RegistrationInput{
		Name:            "New Member",
		Email:           "new@test.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		YearOfBirth:     2000,
		Gender:          "Other",
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	user, err := env.accounts.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Contains(t, user.ID, "user_")
	assert.False(t, user.IsAdmin)
	assert.False(t, user.IsBlocked)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "secret1"))

	loggedIn, err := env.accounts.Login(ctx, "new@test.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegistrationInput)
		want   string
	}{
		{"missing name", func(in *RegistrationInput) { in.Name = " " }, "All fields are required"},
		{"mismatch", func(in *RegistrationInput) { in.ConfirmPassword = "other1" }, "Passwords do not match"},
		{"short password", func(in *RegistrationInput) { in.Password, in.ConfirmPassword = "abc", "abc" }, "Password must be at least 6 characters"},
		{"bad email", func(in *RegistrationInput) { in.Email = "not-an-email" }, "Please enter a valid email address"},
		{"bad gender", func(in *RegistrationInput) { in.Gender = "Robot" }, "Gender must be one of Male, Female, Other"},
		{"future year", func(in *RegistrationInput) { in.YearOfBirth = 2030 }, "Year of birth must be between 1900 and 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			tt.mutate(&in)
			_, err := env.accounts.Register(ctx, in)
			assert.Equal(t, tt.want, validationMessage(t, err))
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	in := validRegistration()
	in.Email = "Admin@MyTeam.com"
	_, err := env.accounts.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

// staleEmailLookup reports every email as free, as a concurrent registration
// would see it before the other insert commits.
type staleEmailLookup struct {
	*store.UserStore
}

func (staleEmailLookup) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, nil
}

func TestRegisterDuplicateEmailAtInsert(t *testing.T) {
	env := newTestEnv(t, nil)
	accounts := NewAccountService(staleEmailLookup{env.users}, slog.Default())
	accounts.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	_, err := accounts.Register(ctx, validRegistration())
	require.NoError(t, err)

	in := validRegistration()
	in.Email = "NEW@test.com"
	_, err = accounts.Register(ctx, in)
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = accounts.UpdateProfile(ctx, env.user(t, "user1"), ProfileInput{
		Name: "Admin", Email: "new@test.com", YearOfBirth: 1990, Gender: "Male",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin := env.user(t, "user1")

	updated, err := env.accounts.UpdateProfile(ctx, admin, ProfileInput{
		Name: "Head Admin", Email: "head@myteam.com", YearOfBirth: 1985, Gender: "Female",
	})
	require.NoError(t, err)
	assert.Equal(t, "Head Admin", updated.Name)
	assert.Equal(t, "head@myteam.com", updated.Email)
	assert.Equal(t, 1985, updated.YOB)
	assert.True(t, updated.IsAdmin)
}

func TestUpdateProfileRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin := env.user(t, "user1")

	_, err := env.accounts.UpdateProfile(ctx, nil, ProfileInput{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.accounts.UpdateProfile(ctx, admin, ProfileInput{
		Name: "Admin", Email: "member1@test.com", YearOfBirth: 1990, Gender: "Male",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = env.accounts.UpdateProfile(ctx, admin, ProfileInput{
		Name: "", Email: "admin@myteam.com", YearOfBirth: 1990, Gender: "Male",
	})
	assert.Equal(t, "Name is required", validationMessage(t, err))
}

func TestListUsersRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	users, err := env.accounts.ListUsers(ctx, env.user(t, "user1"))
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = env.accounts.ListUsers(ctx, env.user(t, "user2"))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.accounts.ListUsers(ctx, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestToggleBlock(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin := env.user(t, "user1")

	unblocked, err := env.accounts.ToggleBlock(ctx, admin, "user2")
	require.NoError(t, err)
	assert.False(t, unblocked.IsBlocked)
	assert.Empty(t, unblocked.BlockReason)
	assert.Nil(t, unblocked.BlockedAt)

	blocked, err := env.accounts.ToggleBlock(ctx, admin, "user2")
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked)
	assert.Equal(t, "Administrative action", blocked.BlockReason)
	assert.Equal(t, "user1", blocked.BlockedBy)
	require.NotNil(t, blocked.BlockedAt)
	assert.True(t, blocked.BlockedAt.Equal(fixedNow))
}

func TestToggleBlockRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.accounts.ToggleBlock(ctx, env.user(t, "user1"), "user1")
	assert.ErrorIs(t, err, ErrCannotBlockAdmin)

	_, err = env.accounts.ToggleBlock(ctx, env.user(t, "user2"), "user1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.accounts.ToggleBlock(ctx, env.user(t, "user1"), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
