package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/repository"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of an issued access token.
const TokenTTL = 24 * time.Hour

const minPasswordLen = 8

type AuthService interface {
	Register(ctx context.Context, input *RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	// Role defaults to student.
	Role string
}

type authService struct {
	userRepo   repository.UserRepository
	hmacSecret []byte
}

func NewAuthService(userRepo repository.UserRepository, secret []byte) AuthService {
	return &authService{
		userRepo:   userRepo,
		hmacSecret: secret,
	}
}

var _ AuthService = (*authService)(nil)

func (s *authService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	logger.L().Info("register user", zap.String("email", email), zap.String("role", input.Role))

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, appErr.New(appErr.CodeInvalid, "a valid email is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, appErr.New(appErr.CodeInvalid, "name is required")
	}
	if len(input.Password) < minPasswordLen {
		return nil, appErr.New(appErr.CodeInvalid, "password must be at least 8 characters")
	}
	role := input.Role
	switch role {
	case "":
		role = models.UserStudent
	case models.UserAdmin, models.UserInstructor, models.UserStudent:
	default:
		return nil, appErr.New(appErr.CodeInvalid, "role must be admin, instructor or student")
	}

	ph, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "hash password failed")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(ph),
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if appErr.IsCode(err, appErr.CodeAlreadyExists) {
			return nil, appErr.Wrap(err, appErr.CodeAlreadyExists, "email already registered")
		}
		return nil, err
	}

	logger.L().Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	if err := s.userRepo.GetByEmail(ctx, email, &user); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return "", nil, appErr.New(appErr.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.L().Info("login refused", zap.String("user_id", user.ID.String()))
		return "", nil, appErr.New(appErr.CodeUnauthorized, "invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(TokenTTL).Unix(),
	})
	tokenString, err := token.SignedString(s.hmacSecret)
	if err != nil {
		return "", nil, appErr.Wrap(err, appErr.CodeInternal, "sign token failed")
	}

	logger.L().Info("user logged in", zap.String("user_id", user.ID.String()))
	return tokenString, &user, nil
}
