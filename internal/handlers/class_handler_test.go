package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nitishsadhu03/lms-backend/internal/models"
	"github.com/nitishsadhu03/lms-backend/internal/services"
)

type stubClassService struct {
	createResult     *models.Class
	createErr        error
	getResult        *models.Class
	getSessions      []models.Session
	getErr           error
	rescheduleResult *models.Class
	rescheduleErr    error
	deleteErr        error
	lastAdminID      int64
	lastCreateInput  services.CreateClassInput
	lastClassID      int64
	lastNewStart     time.Time
	lastNewEnd       time.Time
}

func (s *stubClassService) CreateClass(_ context.Context, adminID int64, input services.CreateClassInput) (*models.Class, error) {
	s.lastAdminID = adminID
	s.lastCreateInput = input
	return s.createResult, s.createErr
}

func (s *stubClassService) GetClass(_ context.Context, classID int64) (*models.Class, []models.Session, error) {
	s.lastClassID = classID
	return s.getResult, s.getSessions, s.getErr
}

func (s *stubClassService) RescheduleClass(_ context.Context, classID int64, newStart, newEnd time.Time) (*models.Class, error) {
	s.lastClassID = classID
	s.lastNewStart = newStart
	s.lastNewEnd = newEnd
	return s.rescheduleResult, s.rescheduleErr
}

func (s *stubClassService) DeleteClass(_ context.Context, classID int64) error {
	s.lastClassID = classID
	return s.deleteErr
}

func newClassApp(service classApplicationService) *fiber.App {
	handler := &ClassHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "1")
		c.Locals("role", models.RoleAdmin)
		return c.Next()
	})
	app.Post("/api/v1/admin/classes", handler.CreateClass)
	app.Get("/api/v1/admin/classes/:id", handler.GetClass)
	app.Put("/api/v1/admin/classes/:id/reschedule", handler.RescheduleClass)
	app.Delete("/api/v1/admin/classes/:id", handler.DeleteClass)
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateClassRecurring(t *testing.T) {
	service := &stubClassService{createResult: &models.Class{ID: 12, BatchID: "B-2024", IsRecurring: true}}
	app := newClassApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/admin/classes", `{
		"batchId": "B-2024",
		"classLink": "https://meet.example.com/b2024",
		"teacherId": 7,
		"studentIds": [3, 4],
		"isRecurring": true,
		"startDate": "2024-03-04",
		"repeatType": "weekly",
		"repeatDays": [
			{"day": "Monday", "startTime": "09:00", "endTime": "10:00"},
			{"day": "Wednesday", "startTime": "09:00", "endTime": "10:00"}
		],
		"numberOfSessions": 4
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastAdminID != 1 {
		t.Errorf("expected admin id 1, got %d", service.lastAdminID)
	}
	input := service.lastCreateInput
	if input.TeacherID != 7 || !input.IsRecurring {
		t.Errorf("unexpected input: %+v", input)
	}
	if input.StartDate == nil || !input.StartDate.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected start date 2024-03-04, got %v", input.StartDate)
	}
	if len(input.RepeatDays) != 2 || input.RepeatDays[1].Day != "Wednesday" {
		t.Errorf("repeat days not mapped: %+v", input.RepeatDays)
	}
	if input.NumberOfSessions == nil || *input.NumberOfSessions != 4 {
		t.Errorf("expected 4 sessions, got %v", input.NumberOfSessions)
	}
}

func TestCreateClassRejectsMissingFields(t *testing.T) {
	service := &stubClassService{}
	app := newClassApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/admin/classes", `{
		"classLink": "https://meet.example.com/x",
		"teacherId": 7
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateClassUnsatisfiablePattern(t *testing.T) {
	service := &stubClassService{createErr: services.ErrPatternUnsatisfiable}
	app := newClassApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/admin/classes", `{
		"batchId": "B-1",
		"classLink": "https://meet.example.com/b1",
		"teacherId": 7,
		"isRecurring": true,
		"startDate": "2024-03-04",
		"repeatType": "weekly",
		"repeatDays": [{"day": "Monday", "startTime": "09:00", "endTime": "10:00"}],
		"numberOfSessions": 4
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestRescheduleClassParsesWindow(t *testing.T) {
	service := &stubClassService{rescheduleResult: &models.Class{ID: 5, IsRescheduled: true}}
	app := newClassApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/v1/admin/classes/5/reschedule", `{
		"startDateTime": "2026-04-01T10:00:00Z",
		"endDateTime": "2026-04-01T11:00:00Z"
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastClassID != 5 {
		t.Errorf("expected class id 5, got %d", service.lastClassID)
	}
	if !service.lastNewStart.Equal(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start: %v", service.lastNewStart)
	}

	var body struct {
		Class models.Class `json:"class"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Class.IsRescheduled {
		t.Error("expected isRescheduled in response")
	}
}

func TestRescheduleRecurringClassRejected(t *testing.T) {
	service := &stubClassService{rescheduleErr: services.ErrClassRecurring}
	app := newClassApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/v1/admin/classes/5/reschedule", `{
		"startDateTime": "2026-04-01T10:00:00Z",
		"endDateTime": "2026-04-01T11:00:00Z"
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteClassNotFound(t *testing.T) {
	service := &stubClassService{deleteErr: services.ErrClassNotFound}
	app := newClassApp(service)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/classes/99", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
