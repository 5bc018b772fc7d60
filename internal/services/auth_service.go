package services

import (
	"errors"
	"strings"
	"time"

	"workshop-registration-backend/internal/config"
	"workshop-registration-backend/internal/models"
	"workshop-registration-backend/internal/repositories"
	"workshop-registration-backend/internal/utils"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type AuthService struct {
	repo *repositories.Repository
	cfg  *config.Config
}

func NewAuthService(repo *repositories.Repository, cfg *config.Config) *AuthService {
	return &AuthService{repo: repo, cfg: cfg}
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *AuthService) Authenticate(username, password string) (*LoginResponse, error) {
	username = strings.TrimSpace(strings.ToLower(username))

	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	user, err := s.repo.UserRepo.GetUserByUsername(username)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if err := utils.CheckPassword(password, user.Password); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		Token: token,
		User:  user,
	}, nil
}

func (s *AuthService) CreateUser(username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	role = strings.TrimSpace(strings.ToLower(role))

	// Validate role
	allowedRoles := map[string]bool{"admin": true, "desk": true, "spot": true, "attendance": true}
	if !allowedRoles[role] {
		return nil, errors.New("invalid role: must be admin, desk, spot, or attendance")
	}

	// Check if user already exists
	if existing, _ := s.repo.UserRepo.GetUserByUsername(username); existing != nil {
		return nil, errors.New("username already taken")
	}

	// Hash password
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: username,
		Password: hashedPassword,
		Role:     role,
	}

	if err := s.repo.UserRepo.CreateUser(user); err != nil {
		return nil, err
	}

	// Remove password from response
	user.Password = ""
	return user, nil
}

func (s *AuthService) generateJWT(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) GetUserProfile(userID string) (*models.User, error) {
	user, err := s.repo.UserRepo.GetUserByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	// Remove sensitive data
	user.Password = ""
	return user, nil
}
