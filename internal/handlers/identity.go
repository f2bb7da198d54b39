package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nitishsadhu03/lms-backend/internal/models"
)

var errInvalidIdentity = errors.New("invalid identity claims")

type userLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, errInvalidIdentity
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errInvalidIdentity
	}
	return userID, nil
}

// resolveTeacherID maps the authenticated user to the teacher record their
// account is linked to.
func resolveTeacherID(c *fiber.Ctx, users userLookup) (int64, error) {
	userID, err := parseUserID(c)
	if err != nil {
		return 0, err
	}

	user, err := users.GetByID(c.Context(), userID)
	if err != nil {
		return 0, err
	}
	if user.Role != models.RoleTeacher || user.TeacherID == nil {
		return 0, errInvalidIdentity
	}
	return *user.TeacherID, nil
}
