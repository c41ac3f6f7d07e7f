package services

import (
	"context"
	"testing"

	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/repository"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	secret := []byte("test-secret")
	auth := NewAuthService(repository.NewUserRepository(s.db), secret)

	u, err := auth.Register(ctx, &RegisterInput{Email: " Ana@Example.com ", Password: "objection!", Name: "Ana", Role: models.UserInstructor})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "objection!", u.PasswordHash)

	_, err = auth.Register(ctx, &RegisterInput{Email: "ana@example.com", Password: "objection!", Name: "Ana"})
	requireRule(t, err, appErr.CodeAlreadyExists, "")

	token, user, err := auth.Login(ctx, "ANA@example.com", "objection!")
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return secret, nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, u.ID.String(), claims["sub"])
	assert.Equal(t, models.UserInstructor, claims["role"])

	_, _, err = auth.Login(ctx, "ana@example.com", "wrong-password")
	requireRule(t, err, appErr.CodeUnauthorized, "")
	_, _, err = auth.Login(ctx, "nobody@example.com", "objection!")
	requireRule(t, err, appErr.CodeUnauthorized, "")
}

func TestRegisterValidation(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	auth := NewAuthService(repository.NewUserRepository(s.db), []byte("k"))

	cases := []RegisterInput{
		{Email: "not-an-email", Password: "long-enough", Name: "x"},
		{Email: "a@b.co", Password: "short", Name: "x"},
		{Email: "a@b.co", Password: "long-enough", Name: " "},
		{Email: "a@b.co", Password: "long-enough", Name: "x", Role: "judge"},
	}
	for _, in := range cases {
		_, err := auth.Register(ctx, &in)
		requireRule(t, err, appErr.CodeInvalid, "")
	}

	u, err := auth.Register(ctx, &RegisterInput{Email: "a@b.co", Password: "long-enough", Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.UserStudent, u.Role)
}
