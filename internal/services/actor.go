package services

import (
	"github.com/courtroom-studio/engine/internal/models"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// System acts on behalf of the CLI and fixture seeding.
var System = Actor{Role: models.UserAdmin}

func (a Actor) IsAdmin() bool { return a.Role == models.UserAdmin }

func (a Actor) CanAuthor() bool {
	return a.Role == models.UserAdmin || a.Role == models.UserInstructor
}

func (a Actor) canRead(s *models.Scenario) bool {
	return a.IsAdmin() || s.OwnerID == a.UserID || s.IsPublic
}

func (a Actor) canWrite(s *models.Scenario) bool {
	return a.IsAdmin() || (a.CanAuthor() && s.OwnerID == a.UserID)
}

func (a Actor) mustRead(s *models.Scenario) error {
	if !a.canRead(s) {
		return appErr.New(appErr.CodeForbidden, "scenario is not visible to user")
	}
	return nil
}

func (a Actor) mustWrite(s *models.Scenario) error {
	if !a.canWrite(s) {
		return appErr.New(appErr.CodeForbidden, "user may not edit scenario")
	}
	return nil
}
