package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/nitishsadhu03/lms-backend/internal/models"
	"github.com/nitishsadhu03/lms-backend/internal/repository"
	"github.com/nitishsadhu03/lms-backend/internal/services"
)

type sessionApplicationService interface {
	UpdateTeacherFields(ctx context.Context, teacherID, sessionID int64, update repository.TeacherSessionUpdate) (*models.Session, error)
	UpdateAdminFields(ctx context.Context, sessionID int64, update repository.AdminSessionUpdate) (*models.Session, error)
	Reschedule(ctx context.Context, sessionID int64, newStart, newEnd time.Time) (*models.Session, error)
	RaiseDispute(ctx context.Context, teacherID, sessionID int64, reason string) (*models.Session, error)
	ResolveDispute(ctx context.Context, sessionID int64, status string, remarks *string) (*models.Session, error)
}

type SessionHandler struct {
	service  sessionApplicationService
	userRepo userLookup
}

func NewSessionHandler(service *services.SessionService, userRepo userLookup) *SessionHandler {
	return &SessionHandler{service: service, userRepo: userRepo}
}

type teacherSessionUpdateRequest struct {
	TopicsTaught *string `json:"topicsTaught"`
	ClassType    *string `json:"classType"`
}

type adminSessionUpdateRequest struct {
	Amount   *float64 `json:"amount" validate:"omitempty,gte=0"`
	Type     *string  `json:"type"`
	JoinTime *string  `json:"joinTime"`
	Penalty  *string  `json:"penalty"`
}

type rescheduleSessionRequest struct {
	StartDateTime string `json:"startDateTime" validate:"required"`
	EndDateTime   string `json:"endDateTime" validate:"required"`
}

type raiseDisputeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type resolveDisputeRequest struct {
	Status  string  `json:"status" validate:"required,oneof=resolved rejected"`
	Remarks *string `json:"remarks"`
}

func parseSessionID(c *fiber.Ctx) (int64, error) {
	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return 0, errors.New("invalid session id")
	}
	return sessionID, nil
}

// UpdateTeacherFields records the teacher's post-session notes.
func (h *SessionHandler) UpdateTeacherFields(c *fiber.Ctx) error {
	teacherID, err := resolveTeacherID(c, h.userRepo)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req teacherSessionUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.UpdateTeacherFields(c.Context(), teacherID, sessionID, repository.TeacherSessionUpdate{
		TopicsTaught: req.TopicsTaught,
		ClassType:    req.ClassType,
	})
	if err != nil {
		return mapLessonSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

// UpdateAdminFields records the admin settlement fields.
func (h *SessionHandler) UpdateAdminFields(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req adminSessionUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	update := repository.AdminSessionUpdate{
		Amount:  req.Amount,
		Type:    req.Type,
		Penalty: req.Penalty,
	}
	if req.JoinTime != nil && strings.TrimSpace(*req.JoinTime) != "" {
		joinTime, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.JoinTime))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "joinTime must be a valid RFC3339 timestamp"})
		}
		joinTime = joinTime.UTC()
		update.JoinTime = &joinTime
	}

	session, err := h.service.UpdateAdminFields(c.Context(), sessionID, update)
	if err != nil {
		return mapLessonSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) Reschedule(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req rescheduleSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	newStart, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartDateTime))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "startDateTime must be a valid RFC3339 timestamp"})
	}
	newEnd, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndDateTime))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "endDateTime must be a valid RFC3339 timestamp"})
	}

	session, err := h.service.Reschedule(c.Context(), sessionID, newStart, newEnd)
	if err != nil {
		return mapLessonSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) RaiseDispute(c *fiber.Ctx) error {
	teacherID, err := resolveTeacherID(c, h.userRepo)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req raiseDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	session, err := h.service.RaiseDispute(c.Context(), teacherID, sessionID, strings.TrimSpace(req.Reason))
	if err != nil {
		return mapLessonSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ResolveDispute(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req resolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	session, err := h.service.ResolveDispute(c.Context(), sessionID, req.Status, req.Remarks)
	if err != nil {
		return mapLessonSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func mapLessonSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidSettle),
		errors.Is(err, services.ErrInvalidPenalty),
		errors.Is(err, services.ErrInvalidClassTag):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrNoOpenDispute):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	case errors.Is(err, services.ErrClassNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
