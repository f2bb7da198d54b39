package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nitishsadhu03/lms-backend/internal/models"
	"github.com/nitishsadhu03/lms-backend/internal/services"
)

type classApplicationService interface {
	CreateClass(ctx context.Context, adminID int64, input services.CreateClassInput) (*models.Class, error)
	GetClass(ctx context.Context, classID int64) (*models.Class, []models.Session, error)
	RescheduleClass(ctx context.Context, classID int64, newStart, newEnd time.Time) (*models.Class, error)
	DeleteClass(ctx context.Context, classID int64) error
}

type ClassHandler struct {
	service classApplicationService
}

func NewClassHandler(service *services.ClassService) *ClassHandler {
	return &ClassHandler{service: service}
}

type repeatDayRequest struct {
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

type repeatDateRequest struct {
	Date      int    `json:"date" validate:"required,gte=1,lte=31"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

type createClassRequest struct {
	BatchID          string              `json:"batchId" validate:"required"`
	ClassLink        string              `json:"classLink" validate:"required"`
	TeacherID        int64               `json:"teacherId" validate:"required,gt=0"`
	StudentIDs       []int64             `json:"studentIds"`
	IsRecurring      bool                `json:"isRecurring"`
	StartDate        *string             `json:"startDate"`
	StartDateTime    *string             `json:"startDateTime"`
	EndDateTime      *string             `json:"endDateTime"`
	RepeatType       *string             `json:"repeatType" validate:"omitempty,oneof=weekly monthly"`
	RepeatDays       []repeatDayRequest  `json:"repeatDays" validate:"omitempty,dive"`
	RepeatDates      []repeatDateRequest `json:"repeatDates" validate:"omitempty,dive"`
	NumberOfSessions *int                `json:"numberOfSessions" validate:"omitempty,gt=0"`
}

type rescheduleClassRequest struct {
	StartDateTime string `json:"startDateTime" validate:"required"`
	EndDateTime   string `json:"endDateTime" validate:"required"`
}

// parseFlexibleDate accepts either a bare date or a full RFC3339 timestamp.
func parseFlexibleDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseOptionalTimestamp(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func (h *ClassHandler) CreateClass(c *fiber.Ctx) error {
	adminID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createClassRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	input := services.CreateClassInput{
		BatchID:          strings.TrimSpace(req.BatchID),
		ClassLink:        strings.TrimSpace(req.ClassLink),
		TeacherID:        req.TeacherID,
		StudentIDs:       req.StudentIDs,
		IsRecurring:      req.IsRecurring,
		RepeatType:       req.RepeatType,
		NumberOfSessions: req.NumberOfSessions,
	}

	if req.StartDate != nil && strings.TrimSpace(*req.StartDate) != "" {
		startDate, err := parseFlexibleDate(*req.StartDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "startDate must be a valid date"})
		}
		input.StartDate = &startDate
	}
	if input.StartDateTime, err = parseOptionalTimestamp(req.StartDateTime); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "startDateTime must be a valid RFC3339 timestamp"})
	}
	if input.EndDateTime, err = parseOptionalTimestamp(req.EndDateTime); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "endDateTime must be a valid RFC3339 timestamp"})
	}

	for _, day := range req.RepeatDays {
		input.RepeatDays = append(input.RepeatDays, models.RepeatDay{
			Day:       strings.TrimSpace(day.Day),
			StartTime: day.StartTime,
			EndTime:   day.EndTime,
		})
	}
	for _, date := range req.RepeatDates {
		input.RepeatDates = append(input.RepeatDates, models.RepeatDate{
			Date:      date.Date,
			StartTime: date.StartTime,
			EndTime:   date.EndTime,
		})
	}

	class, err := h.service.CreateClass(c.Context(), adminID, input)
	if err != nil {
		return mapClassError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"class": class})
}

func (h *ClassHandler) GetClass(c *fiber.Ctx) error {
	classID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || classID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class id"})
	}

	class, sessions, err := h.service.GetClass(c.Context(), classID)
	if err != nil {
		return mapClassError(c, err)
	}

	return c.JSON(fiber.Map{"class": class, "sessions": sessions})
}

func (h *ClassHandler) RescheduleClass(c *fiber.Ctx) error {
	classID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || classID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class id"})
	}

	var req rescheduleClassRequest
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

	class, err := h.service.RescheduleClass(c.Context(), classID, newStart, newEnd)
	if err != nil {
		return mapClassError(c, err)
	}

	return c.JSON(fiber.Map{"class": class})
}

func (h *ClassHandler) DeleteClass(c *fiber.Ctx) error {
	classID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || classID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class id"})
	}

	if err := h.service.DeleteClass(c.Context(), classID); err != nil {
		return mapClassError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Class deleted"})
}

func mapClassError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrClassRecurring),
		errors.Is(err, services.ErrClassNotRecurring):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrPatternUnsatisfiable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTeacherNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher not found"})
	case errors.Is(err, services.ErrClassNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process class request"})
	}
}
