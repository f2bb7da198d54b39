package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nitishsadhu03/lms-backend/internal/models"
	"github.com/nitishsadhu03/lms-backend/internal/repository"
)

func TestClassServiceCreateRecurringClassMaterializesSessions(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationClassService(pool)

	fx := createScheduleFixture(t, ctx, pool)

	class, err := service.CreateClass(ctx, fx.adminID, CreateClassInput{
		BatchID:     "batch-expand",
		ClassLink:   "https://meet.example.com/expand",
		TeacherID:   fx.teacherID,
		StudentIDs:  []int64{fx.studentID},
		IsRecurring: true,
		StartDate:   timePtr(time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)),
		RepeatType:  strPtr(models.RepeatTypeWeekly),
		RepeatDays: []models.RepeatDay{
			{Day: "Monday", StartTime: "09:00", EndTime: "10:00"},
			{Day: "Wednesday", StartTime: "11:00", EndTime: "12:30"},
		},
		NumberOfSessions: intPtr(4),
	})
	if err != nil {
		t.Fatalf("CreateClass: %v", err)
	}
	if len(class.SessionIDs) != 4 {
		t.Fatalf("expected 4 session ids on the class, got %d", len(class.SessionIDs))
	}

	stored, sessions, err := service.GetClass(ctx, class.ID)
	if err != nil {
		t.Fatalf("GetClass: %v", err)
	}
	if len(stored.RepeatDays) != 2 || stored.RepeatDays[1].Day != "Wednesday" {
		t.Fatalf("recurrence descriptor did not round-trip: %+v", stored.RepeatDays)
	}
	if len(sessions) != 4 {
		t.Fatalf("expected 4 persisted sessions, got %d", len(sessions))
	}

	wantStarts := []time.Time{
		time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC),
		time.Date(2030, 3, 6, 11, 0, 0, 0, time.UTC),
		time.Date(2030, 3, 11, 9, 0, 0, 0, time.UTC),
		time.Date(2030, 3, 13, 11, 0, 0, 0, time.UTC),
	}
	for i, session := range sessions {
		if !session.StartDateTime.UTC().Equal(wantStarts[i]) {
			t.Fatalf("session %d: expected start %v, got %v", i, wantStarts[i], session.StartDateTime)
		}
	}
	if !sessions[1].EndDateTime.UTC().Equal(time.Date(2030, 3, 6, 12, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end for Wednesday session: %v", sessions[1].EndDateTime)
	}
}

func TestClassServiceExpansionFailureRollsBackSynthesizedSessions(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationClassService(pool)

	fx := createScheduleFixture(t, ctx, pool)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	seriesID := uuid.NewString()
	class, err := repository.NewClassRepository(tx).Create(ctx, repository.CreateClassInput{
		BatchID:     "batch-rollback",
		ClassLink:   "https://meet.example.com/rollback",
		TeacherID:   fx.teacherID,
		StudentIDs:  []int64{fx.studentID},
		IsRecurring: true,
		StartDate:   timePtr(time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)),
		RepeatType:  strPtr(models.RepeatTypeWeekly),
		RepeatDays: []models.RepeatDay{
			{Day: "Monday", StartTime: "09:00", EndTime: "10:00"},
			{Day: "Wednesday", StartTime: "9:00", EndTime: "10:00"},
		},
		NumberOfSessions: intPtr(2),
		SeriesID:         &seriesID,
		AdminID:          fx.adminID,
	})
	if err != nil {
		t.Fatalf("create class row: %v", err)
	}

	_, err = service.generateSessions(ctx, repository.NewSessionRepository(tx), class)
	if err == nil {
		t.Fatal("expected expansion to fail on the malformed Wednesday time")
	}

	var txCount int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM sessions WHERE class_id = $1", class.ID).Scan(&txCount); err != nil {
		t.Fatalf("count sessions in tx: %v", err)
	}
	if txCount != 1 {
		t.Fatalf("expected 1 synthesized session before rollback, got %d", txCount)
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM sessions WHERE class_id = $1", class.ID).Scan(&count); err != nil {
		t.Fatalf("count sessions after rollback: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected synthesized sessions discarded, found %d", count)
	}
	if _, err := repository.NewClassRepository(pool).GetByID(ctx, class.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected class row discarded, got %v", err)
	}
}

func TestClassServiceUnsatisfiablePatternRollsBack(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationClassService(pool)

	fx := createScheduleFixture(t, ctx, pool)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	class, err := repository.NewClassRepository(tx).Create(ctx, repository.CreateClassInput{
		BatchID:          "batch-barren",
		ClassLink:        "https://meet.example.com/barren",
		TeacherID:        fx.teacherID,
		StudentIDs:       []int64{fx.studentID},
		IsRecurring:      true,
		StartDate:        timePtr(time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)),
		RepeatType:       strPtr(models.RepeatTypeWeekly),
		NumberOfSessions: intPtr(1),
		AdminID:          fx.adminID,
	})
	if err != nil {
		t.Fatalf("create class row: %v", err)
	}

	_, err = service.generateSessions(ctx, repository.NewSessionRepository(tx), class)
	if !errors.Is(err, ErrPatternUnsatisfiable) {
		t.Fatalf("expected ErrPatternUnsatisfiable, got %v", err)
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if _, err := repository.NewClassRepository(pool).GetByID(ctx, class.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected class row discarded, got %v", err)
	}
}
