package services

import (
	"testing"

	"workshop-registration-backend/internal/models"
	"workshop-registration-backend/internal/utils"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedUser(t *testing.T, username, password, role string) *models.User {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		ID:       uuid.New(),
		Username: username,
		Password: hashed,
		Role:     role,
	}
}

func TestAuthenticate_Success(t *testing.T) {
	user := storedUser(t, "deskuser", "secret1", "desk")
	users := &mockUserRepo{
		getByUsernameFn: func(username string) (*models.User, error) {
			assert.Equal(t, "deskuser", username)
			return user, nil
		},
	}

	svc := NewAuthService(newTestRepo(nil, nil, nil, users), testConfig())
	resp, err := svc.Authenticate("DeskUser", "secret1")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "desk", resp.User.Role)

	// The token carries the role claim the middleware gates on.
	parsed, err := jwt.Parse(resp.Token, func(_ *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "desk", claims["role"])
	assert.Equal(t, "deskuser", claims["username"])
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	user := storedUser(t, "deskuser", "secret1", "desk")
	users := &mockUserRepo{
		getByUsernameFn: func(_ string) (*models.User, error) { return user, nil },
	}

	svc := NewAuthService(newTestRepo(nil, nil, nil, users), testConfig())
	_, err := svc.Authenticate("deskuser", "wrong")

	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	svc := NewAuthService(newTestRepo(nil, nil, nil, nil), testConfig())
	_, err := svc.Authenticate("nobody", "secret1")

	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestCreateUser_InvalidRole(t *testing.T) {
	svc := NewAuthService(newTestRepo(nil, nil, nil, nil), testConfig())
	_, err := svc.CreateUser("newuser", "secret1", "superadmin")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestCreateUser_HashesPassword(t *testing.T) {
	var storedHash string
	users := &mockUserRepo{
		createFn: func(user *models.User) error {
			storedHash = user.Password
			return nil
		},
	}

	svc := NewAuthService(newTestRepo(nil, nil, nil, users), testConfig())
	user, err := svc.CreateUser("attstaff", "secret1", "attendance")

	require.NoError(t, err)
	assert.Empty(t, user.Password)
	require.NotEmpty(t, storedHash)
	assert.NotEqual(t, "secret1", storedHash)
	assert.NoError(t, utils.CheckPassword("secret1", storedHash))
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	existing := storedUser(t, "deskuser", "secret1", "desk")
	users := &mockUserRepo{
		getByUsernameFn: func(_ string) (*models.User, error) { return existing, nil },
	}

	svc := NewAuthService(newTestRepo(nil, nil, nil, users), testConfig())
	_, err := svc.CreateUser("deskuser", "secret1", "desk")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
}
