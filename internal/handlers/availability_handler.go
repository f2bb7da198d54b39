package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nitishsadhu03/lms-backend/internal/models"
	"github.com/nitishsadhu03/lms-backend/internal/repository"
	"github.com/nitishsadhu03/lms-backend/pkg/timeutil"
)

type availabilityStore interface {
	Create(ctx context.Context, input repository.CreateSlotInput) (*models.AvailabilitySlot, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.AvailabilitySlot, error)
	ListAll(ctx context.Context) ([]models.AvailabilitySlot, error)
	Update(ctx context.Context, teacherID, slotID int64, input repository.UpdateSlotInput) (*models.AvailabilitySlot, error)
	Delete(ctx context.Context, teacherID, slotID int64) (bool, error)
}

type AvailabilityHandler struct {
	slots    availabilityStore
	userRepo userLookup
}

func NewAvailabilityHandler(slots *repository.AvailabilityRepository, userRepo userLookup) *AvailabilityHandler {
	return &AvailabilityHandler{slots: slots, userRepo: userRepo}
}

type createSlotRequest struct {
	DayOfWeek string  `json:"dayOfWeek" validate:"required"`
	StartTime string  `json:"startTime" validate:"required"`
	EndTime   string  `json:"endTime" validate:"required"`
	Date      *string `json:"date"`
}

type updateSlotRequest struct {
	DayOfWeek *string `json:"dayOfWeek"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	Status    *string `json:"status" validate:"omitempty,oneof=active blocked reserved"`
}

func validateSlotWindow(dayOfWeek, startTime, endTime string) string {
	if !timeutil.IsValidWeekday(dayOfWeek) {
		return "dayOfWeek must be an English weekday name"
	}
	if !timeutil.IsValidTimeOfDay(startTime) || !timeutil.IsValidTimeOfDay(endTime) {
		return "startTime and endTime must be HH:mm"
	}
	if startTime >= endTime {
		return "startTime must be before endTime"
	}
	return ""
}

// CreateSlot declares an open window on the authenticated teacher's weekday.
func (h *AvailabilityHandler) CreateSlot(c *fiber.Ctx) error {
	teacherID, err := resolveTeacherID(c, h.userRepo)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	req.DayOfWeek = strings.TrimSpace(req.DayOfWeek)
	if msg := validateSlotWindow(req.DayOfWeek, req.StartTime, req.EndTime); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	input := repository.CreateSlotInput{
		TeacherID: teacherID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    models.SlotStatusActive,
	}
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		date, err := parseFlexibleDate(*req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be a valid date"})
		}
		input.Date = &date
	}

	slot, err := h.slots.Create(c.Context(), input)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create availability slot"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"availability": slot})
}

func (h *AvailabilityHandler) ListMySlots(c *fiber.Ctx) error {
	teacherID, err := resolveTeacherID(c, h.userRepo)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	slots, err := h.slots.ListByTeacher(c.Context(), teacherID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list availability"})
	}

	return c.JSON(fiber.Map{"availability": slots})
}

// ListTeacherSlots serves one teacher's slots, or every teacher's when no id
// is given.
func (h *AvailabilityHandler) ListTeacherSlots(c *fiber.Ctx) error {
	teacherParam := c.Params("teacherId")
	if teacherParam == "" {
		slots, err := h.slots.ListAll(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list availability"})
		}
		return c.JSON(fiber.Map{"availability": slots})
	}

	teacherID, err := strconv.ParseInt(teacherParam, 10, 64)
	if err != nil || teacherID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid teacher id"})
	}

	slots, err := h.slots.ListByTeacher(c.Context(), teacherID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list availability"})
	}

	return c.JSON(fiber.Map{"availability": slots})
}

func (h *AvailabilityHandler) UpdateSlot(c *fiber.Ctx) error {
	teacherID, err := resolveTeacherID(c, h.userRepo)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	slotID, err := strconv.ParseInt(c.Params("slotId"), 10, 64)
	if err != nil || slotID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	var req updateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	if req.DayOfWeek != nil && !timeutil.IsValidWeekday(strings.TrimSpace(*req.DayOfWeek)) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "dayOfWeek must be an English weekday name"})
	}
	if req.StartTime != nil && !timeutil.IsValidTimeOfDay(*req.StartTime) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "startTime must be HH:mm"})
	}
	if req.EndTime != nil && !timeutil.IsValidTimeOfDay(*req.EndTime) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "endTime must be HH:mm"})
	}
	if req.StartTime != nil && req.EndTime != nil && *req.StartTime >= *req.EndTime {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "startTime must be before endTime"})
	}

	slot, err := h.slots.Update(c.Context(), teacherID, slotID, repository.UpdateSlotInput{
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    req.Status,
	})
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Availability slot not found"})
	}

	return c.JSON(fiber.Map{"availability": slot})
}

func (h *AvailabilityHandler) DeleteSlot(c *fiber.Ctx) error {
	teacherID, err := resolveTeacherID(c, h.userRepo)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	slotID, err := strconv.ParseInt(c.Params("slotId"), 10, 64)
	if err != nil || slotID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	deleted, err := h.slots.Delete(c.Context(), teacherID, slotID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete availability slot"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Availability slot not found"})
	}

	return c.JSON(fiber.Map{"message": "Availability slot deleted"})
}
