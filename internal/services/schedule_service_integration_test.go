package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/nitishsadhu03/lms-backend/internal/models"
	"github.com/nitishsadhu03/lms-backend/internal/repository"
)

var (
	integrationDBOnce sync.Once
	integrationDBPool *pgxpool.Pool
	integrationDBErr  error
)

func TestScheduleServiceCascadeRescheduleMovesSeries(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	classService := newIntegrationClassService(pool)
	scheduleService := newIntegrationScheduleService(pool)

	fx := createScheduleFixture(t, ctx, pool)
	createIntegrationSlot(t, ctx, pool, fx.teacherID, "Monday", "08:00", "18:00")
	createIntegrationSlot(t, ctx, pool, fx.teacherID, "Tuesday", "08:00", "18:00")

	class, err := classService.CreateClass(ctx, fx.adminID, CreateClassInput{
		BatchID:          "batch-cascade",
		ClassLink:        "https://meet.example.com/cascade",
		TeacherID:        fx.teacherID,
		StudentIDs:       []int64{fx.studentID},
		IsRecurring:      true,
		StartDate:        timePtr(time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)),
		RepeatType:       strPtr(models.RepeatTypeWeekly),
		RepeatDays:       []models.RepeatDay{{Day: "Monday", StartTime: "09:00", EndTime: "10:00"}},
		NumberOfSessions: intPtr(3),
	})
	if err != nil {
		t.Fatalf("CreateClass: %v", err)
	}
	if class.SeriesID == nil {
		t.Fatal("expected recurring class to carry a series id")
	}

	entries := make([]*models.ScheduleEntry, 0, 3)
	for _, day := range []int{4, 11, 18} {
		entry, err := scheduleService.AssignClass(ctx, AssignClassInput{
			TeacherID: fx.teacherID,
			ClassID:   class.ID,
			Date:      time.Date(2030, 3, day, 0, 0, 0, 0, time.UTC),
			StartTime: "09:00",
			EndTime:   "10:00",
		})
		if err != nil {
			t.Fatalf("AssignClass day %d: %v", day, err)
		}
		entries = append(entries, entry)
	}

	// A foreign booking on Tuesday Mar 12 blocks the middle entry's landing window.
	blocker, err := classService.CreateClass(ctx, fx.adminID, CreateClassInput{
		BatchID:       "batch-blocker",
		ClassLink:     "https://meet.example.com/blocker",
		TeacherID:     fx.teacherID,
		StudentIDs:    []int64{fx.studentID},
		StartDateTime: timePtr(time.Date(2030, 3, 12, 13, 30, 0, 0, time.UTC)),
		EndDateTime:   timePtr(time.Date(2030, 3, 12, 14, 30, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("CreateClass blocker: %v", err)
	}
	if _, err := scheduleService.AssignClass(ctx, AssignClassInput{
		TeacherID: fx.teacherID,
		ClassID:   blocker.ID,
		Date:      time.Date(2030, 3, 12, 0, 0, 0, 0, time.UTC),
		StartTime: "13:30",
		EndTime:   "14:30",
	}); err != nil {
		t.Fatalf("AssignClass blocker: %v", err)
	}

	result, err := scheduleService.Reschedule(ctx, entries[0].ID, RescheduleInput{
		Date:                     time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC),
		StartTime:                "13:00",
		EndTime:                  "14:00",
		RescheduleFutureSessions: true,
	})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	if result.Entry != nil {
		t.Fatalf("expected cascade result, got single entry %+v", result.Entry)
	}
	if len(result.UpdatedSessions) != 2 || len(result.SkippedSessions) != 1 {
		t.Fatalf("expected 2 updated and 1 skipped, got %d/%d", len(result.UpdatedSessions), len(result.SkippedSessions))
	}
	skipped := result.SkippedSessions[0]
	if skipped.SessionID != entries[1].ID {
		t.Fatalf("expected entry %d skipped, got %d", entries[1].ID, skipped.SessionID)
	}
	if skipped.Reason != "Schedule conflict exists for the new time" {
		t.Fatalf("unexpected skip reason %q", skipped.Reason)
	}

	scheduleRepo := repository.NewScheduleRepository(pool)
	wantDates := map[int64]string{
		entries[0].ID: "2030-03-05",
		entries[1].ID: "2030-03-11",
		entries[2].ID: "2030-03-19",
	}
	for _, original := range entries {
		stored, err := scheduleRepo.GetByID(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetByID %d: %v", original.ID, err)
		}
		if got := stored.Date.Format("2006-01-02"); got != wantDates[original.ID] {
			t.Fatalf("entry %d: expected date %s, got %s", original.ID, wantDates[original.ID], got)
		}
		if original.ID == entries[1].ID {
			if stored.StartTime != "09:00" || stored.EndTime != "10:00" {
				t.Fatalf("skipped entry mutated: %s-%s", stored.StartTime, stored.EndTime)
			}
			continue
		}
		if stored.StartTime != "13:00" || stored.EndTime != "14:00" {
			t.Fatalf("entry %d: expected 13:00-14:00, got %s-%s", original.ID, stored.StartTime, stored.EndTime)
		}
		if stored.RecurringSessionID == nil || *stored.RecurringSessionID != *class.SeriesID {
			t.Fatalf("entry %d: expected series id %q, got %v", original.ID, *class.SeriesID, stored.RecurringSessionID)
		}
	}
}

func TestScheduleServiceAssignClassDetectsOverlap(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	classService := newIntegrationClassService(pool)
	scheduleService := newIntegrationScheduleService(pool)

	fx := createScheduleFixture(t, ctx, pool)
	createIntegrationSlot(t, ctx, pool, fx.teacherID, "Monday", "09:00", "12:00")

	class, err := classService.CreateClass(ctx, fx.adminID, CreateClassInput{
		BatchID:       "batch-overlap",
		ClassLink:     "https://meet.example.com/overlap",
		TeacherID:     fx.teacherID,
		StudentIDs:    []int64{fx.studentID},
		StartDateTime: timePtr(time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)),
		EndDateTime:   timePtr(time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("CreateClass: %v", err)
	}

	monday := time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)
	if _, err := scheduleService.AssignClass(ctx, AssignClassInput{
		TeacherID: fx.teacherID,
		ClassID:   class.ID,
		Date:      monday,
		StartTime: "09:00",
		EndTime:   "10:00",
	}); err != nil {
		t.Fatalf("first AssignClass: %v", err)
	}

	_, err = scheduleService.AssignClass(ctx, AssignClassInput{
		TeacherID: fx.teacherID,
		ClassID:   class.ID,
		Date:      monday,
		StartTime: "09:30",
		EndTime:   "10:30",
	})
	if !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("expected ErrScheduleConflict, got %v", err)
	}

	_, err = scheduleService.AssignClass(ctx, AssignClassInput{
		TeacherID: fx.teacherID,
		ClassID:   class.ID,
		Date:      monday,
		StartTime: "11:30",
		EndTime:   "12:30",
	})
	if !errors.Is(err, ErrNoMatchingSlot) {
		t.Fatalf("expected ErrNoMatchingSlot outside the slot window, got %v", err)
	}

	_, err = scheduleService.AssignClass(ctx, AssignClassInput{
		TeacherID: fx.teacherID,
		ClassID:   class.ID,
		Date:      time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	if !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable on a slotless weekday, got %v", err)
	}
}

func timePtr(ts time.Time) *time.Time { return &ts }

type scheduleFixture struct {
	teacherID int64
	studentID int64
	adminID   int64
}

func createScheduleFixture(t *testing.T, ctx context.Context, pool *pgxpool.Pool) scheduleFixture {
	t.Helper()

	suffix := time.Now().UnixNano()

	teacher := &models.Teacher{
		Name:     "Integration Teacher",
		Email:    fmt.Sprintf("lms-teacher-%d@example.com", suffix),
		Timezone: "UTC",
	}
	if err := repository.NewTeacherRepository(pool).Create(ctx, teacher); err != nil {
		t.Fatalf("create teacher: %v", err)
	}

	student := &models.Student{
		Name:     "Integration Student",
		Email:    fmt.Sprintf("lms-student-%d@example.com", suffix),
		Timezone: "UTC",
	}
	if err := repository.NewStudentRepository(pool).Create(ctx, student); err != nil {
		t.Fatalf("create student: %v", err)
	}

	admin := &models.User{
		Email:        fmt.Sprintf("lms-admin-%d@example.com", suffix),
		PasswordHash: "integration-hash",
		Role:         models.RoleAdmin,
	}
	if err := repository.NewUserRepository(pool).CreateUser(ctx, admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	fx := scheduleFixture{teacherID: teacher.ID, studentID: student.ID, adminID: admin.ID}
	t.Cleanup(func() { cleanupScheduleFixture(t, ctx, pool, fx) })
	return fx
}

func createIntegrationSlot(
	t *testing.T,
	ctx context.Context,
	pool *pgxpool.Pool,
	teacherID int64,
	dayOfWeek string,
	startTime string,
	endTime string,
) {
	t.Helper()

	if _, err := repository.NewAvailabilityRepository(pool).Create(ctx, repository.CreateSlotInput{
		TeacherID: teacherID,
		DayOfWeek: dayOfWeek,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    models.SlotStatusActive,
	}); err != nil {
		t.Fatalf("create slot %s %s-%s: %v", dayOfWeek, startTime, endTime, err)
	}
}

func cleanupScheduleFixture(t *testing.T, ctx context.Context, pool *pgxpool.Pool, fx scheduleFixture) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM schedule_entries WHERE teacher_id = $1", fx.teacherID); err != nil {
		t.Fatalf("cleanup schedule entries: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM classes WHERE teacher_id = $1", fx.teacherID); err != nil {
		t.Fatalf("cleanup classes: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM availability_slots WHERE teacher_id = $1", fx.teacherID); err != nil {
		t.Fatalf("cleanup availability slots: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = $1", fx.adminID); err != nil {
		t.Fatalf("cleanup admin user: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM teachers WHERE id = $1", fx.teacherID); err != nil {
		t.Fatalf("cleanup teacher: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM students WHERE id = $1", fx.studentID); err != nil {
		t.Fatalf("cleanup student: %v", err)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	integrationDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("TEST_DB_URL")
		if dbURL == "" {
			integrationDBErr = fmt.Errorf("TEST_DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			integrationDBErr = err
			return
		}

		integrationDBPool, integrationDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if integrationDBErr != nil {
			return
		}
		integrationDBErr = integrationDBPool.Ping(context.Background())
	})

	if integrationDBErr != nil {
		t.Skipf("skipping integration test: %v", integrationDBErr)
	}
	return integrationDBPool
}

func newIntegrationClassService(pool *pgxpool.Pool) *ClassService {
	return NewClassService(
		pool,
		repository.NewClassRepository(pool),
		repository.NewSessionRepository(pool),
		repository.NewTeacherRepository(pool),
		repository.NewStudentRepository(pool),
		SystemClock(),
	)
}

func newIntegrationScheduleService(pool *pgxpool.Pool) *ScheduleService {
	return NewScheduleService(
		pool,
		repository.NewScheduleRepository(pool),
		repository.NewAvailabilityRepository(pool),
		repository.NewClassRepository(pool),
		repository.NewTeacherRepository(pool),
		SystemClock(),
	)
}
