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

type scheduleApplicationService interface {
	AssignClass(ctx context.Context, input services.AssignClassInput) (*models.ScheduleEntry, error)
	Reschedule(ctx context.Context, entryID int64, input services.RescheduleInput) (*services.RescheduleResult, error)
	GetTeacherSchedule(ctx context.Context, teacherID int64, limit, offset int) ([]models.ScheduleEntry, int, error)
	GetAllTimetables(ctx context.Context, startDate, endDate time.Time) ([]models.TeacherTimetable, error)
}

type ScheduleHandler struct {
	service  scheduleApplicationService
	userRepo userLookup
}

func NewScheduleHandler(service *services.ScheduleService, userRepo userLookup) *ScheduleHandler {
	return &ScheduleHandler{service: service, userRepo: userRepo}
}

type assignScheduleRequest struct {
	TeacherID          int64   `json:"teacherId" validate:"required,gt=0"`
	ClassID            int64   `json:"classId" validate:"required,gt=0"`
	Date               string  `json:"date" validate:"required"`
	StartTime          string  `json:"startTime" validate:"required"`
	EndTime            string  `json:"endTime" validate:"required"`
	RecurringSessionID *string `json:"recurringSessionId"`
}

type rescheduleScheduleRequest struct {
	Date                     string `json:"date" validate:"required"`
	StartTime                string `json:"startTime" validate:"required"`
	EndTime                  string `json:"endTime" validate:"required"`
	RescheduleFutureSessions bool   `json:"rescheduleFutureSessions"`
	Reason                   string `json:"reason"`
}

func (h *ScheduleHandler) AssignClass(c *fiber.Ctx) error {
	var req assignScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	date, err := parseFlexibleDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be a valid date"})
	}

	entry, err := h.service.AssignClass(c.Context(), services.AssignClassInput{
		TeacherID:          req.TeacherID,
		ClassID:            req.ClassID,
		Date:               date,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		RecurringSessionID: req.RecurringSessionID,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"schedule": entry})
}

// Reschedule moves one schedule entry, or the whole future series when
// rescheduleFutureSessions is set. The cascade response reports updated and
// skipped sessions separately.
func (h *ScheduleHandler) Reschedule(c *fiber.Ctx) error {
	entryID, err := strconv.ParseInt(c.Params("scheduleId"), 10, 64)
	if err != nil || entryID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule id"})
	}

	var req rescheduleScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	date, err := parseFlexibleDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be a valid date"})
	}

	result, err := h.service.Reschedule(c.Context(), entryID, services.RescheduleInput{
		Date:                     date,
		StartTime:                req.StartTime,
		EndTime:                  req.EndTime,
		RescheduleFutureSessions: req.RescheduleFutureSessions,
		Reason:                   strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return mapScheduleError(c, err)
	}

	if result.Entry != nil {
		return c.JSON(fiber.Map{"schedule": result.Entry})
	}
	return c.JSON(fiber.Map{
		"updatedSessions": result.UpdatedSessions,
		"skippedSessions": result.SkippedSessions,
	})
}

func (h *ScheduleHandler) GetTeacherSchedule(c *fiber.Ctx) error {
	teacherID, err := strconv.ParseInt(c.Params("teacherId"), 10, 64)
	if err != nil || teacherID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid teacher id"})
	}

	page, limit := parsePageParams(c)
	entries, total, err := h.service.GetTeacherSchedule(c.Context(), teacherID, limit, (page-1)*limit)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{
		"schedule":   entries,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

// GetMySchedule serves the authenticated teacher's own calendar.
func (h *ScheduleHandler) GetMySchedule(c *fiber.Ctx) error {
	teacherID, err := resolveTeacherID(c, h.userRepo)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page, limit := parsePageParams(c)
	entries, total, err := h.service.GetTeacherSchedule(c.Context(), teacherID, limit, (page-1)*limit)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{
		"schedule":   entries,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ScheduleHandler) GetAllTimetables(c *fiber.Ctx) error {
	startDate, err := parseFlexibleDate(c.Query("startDate"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "startDate must be a valid date"})
	}
	endDate, err := parseFlexibleDate(c.Query("endDate"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "endDate must be a valid date"})
	}
	if endDate.Before(startDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "endDate must not be before startDate"})
	}

	timetables, err := h.service.GetAllTimetables(c.Context(), startDate, endDate)
	if err != nil {
		return mapScheduleError(c, err)
	}

	return c.JSON(fiber.Map{"timetables": timetables})
}

func mapScheduleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotAvailable), errors.Is(err, services.ErrNoMatchingSlot):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrScheduleConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Schedule conflict exists for the requested time"})
	case errors.Is(err, services.ErrNoFutureSessions):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrScheduleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	case errors.Is(err, services.ErrClassNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
	case errors.Is(err, services.ErrTeacherNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process schedule request"})
	}
}
