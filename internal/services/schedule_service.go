package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nitishsadhu03/lms-backend/internal/models"
	"github.com/nitishsadhu03/lms-backend/internal/repository"
	"github.com/nitishsadhu03/lms-backend/pkg/timeutil"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrNotAvailable     = errors.New("teacher is not available at this time")
	ErrNoMatchingSlot   = errors.New("no matching availability slot found for the requested time")
	ErrScheduleConflict = errors.New("schedule conflict exists")
	ErrNoFutureSessions = errors.New("no future sessions found for this class")
)

// Cascade skip reasons reported per entry.
const (
	skipReasonInvalidRange = "Invalid time range after adjustment"
	skipReasonNotAvailable = "Teacher not available on the new date"
	skipReasonNoSlot       = "No matching availability slot for the new time"
	skipReasonConflict     = "Schedule conflict exists for the new time"
)

type availabilityFinder interface {
	FindActiveSlots(ctx context.Context, teacherID int64, dayOfWeek string) ([]models.AvailabilitySlot, error)
}

type scheduleStore interface {
	GetByID(ctx context.Context, entryID int64) (*models.ScheduleEntry, error)
	ListSeriesFrom(ctx context.Context, recurringSessionID string, entryID int64, fromDate time.Time) ([]models.ScheduleEntry, error)
	HasConflict(ctx context.Context, teacherID int64, date time.Time, startTime, endTime string, excludeEntryID int64) (bool, error)
	Reschedule(ctx context.Context, entryID int64, update repository.RescheduleEntryUpdate) (*models.ScheduleEntry, error)
	Create(ctx context.Context, input repository.CreateScheduleEntryInput) (*models.ScheduleEntry, error)
}

type classReader interface {
	GetByID(ctx context.Context, classID int64) (*models.Class, error)
}

type teacherDirectory interface {
	GetByID(ctx context.Context, teacherID int64) (*models.Teacher, error)
	ListAll(ctx context.Context) ([]models.Teacher, error)
}

type ScheduleService struct {
	db               *pgxpool.Pool
	scheduleRepo     *repository.ScheduleRepository
	availabilityRepo *repository.AvailabilityRepository
	classRepo        classReader
	teacherRepo      teacherDirectory
	clock            Clock
}

func NewScheduleService(
	db *pgxpool.Pool,
	scheduleRepo *repository.ScheduleRepository,
	availabilityRepo *repository.AvailabilityRepository,
	classRepo *repository.ClassRepository,
	teacherRepo *repository.TeacherRepository,
	clock Clock,
) *ScheduleService {
	return &ScheduleService{
		db:               db,
		scheduleRepo:     scheduleRepo,
		availabilityRepo: availabilityRepo,
		classRepo:        classRepo,
		teacherRepo:      teacherRepo,
		clock:            clock,
	}
}

type AssignClassInput struct {
	TeacherID          int64
	ClassID            int64
	Date               time.Time
	StartTime          string
	EndTime            string
	RecurringSessionID *string
}

type RescheduleInput struct {
	Date                     time.Time
	StartTime                string
	EndTime                  string
	RescheduleFutureSessions bool
	Reason                   string
}

type UpdatedSession struct {
	SessionID    int64     `json:"sessionId"`
	NewDate      time.Time `json:"newDate"`
	NewStartTime string    `json:"newStartTime"`
	NewEndTime   string    `json:"newEndTime"`
}

type SkippedSession struct {
	SessionID int64  `json:"sessionId"`
	Reason    string `json:"reason"`
}

// RescheduleResult is the structured outcome of a reschedule. The single
// path fills Entry; the cascade path fills the per-entry lists, where partial
// success is a first-class outcome rather than an error.
type RescheduleResult struct {
	Entry           *models.ScheduleEntry `json:"entry,omitempty"`
	UpdatedSessions []UpdatedSession      `json:"updatedSessions"`
	SkippedSessions []SkippedSession      `json:"skippedSessions"`
}

// AssignClass places a class on a teacher's calendar after running the shared
// availability and conflict checks. The whole check-then-insert runs under a
// per-teacher advisory lock so concurrent assignments cannot both pass the
// conflict check against a stale snapshot.
func (s *ScheduleService) AssignClass(ctx context.Context, input AssignClassInput) (*models.ScheduleEntry, error) {
	if err := validateTimeWindow(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	if timeutil.TruncateToDay(input.Date).Before(timeutil.TruncateToDay(s.clock.Now())) {
		return nil, ErrInvalidInput
	}

	class, err := s.classRepo.GetByID(ctx, input.ClassID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	recurringSessionID := input.RecurringSessionID
	if recurringSessionID == nil && class.IsRecurring {
		recurringSessionID = class.SeriesID
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", input.TeacherID); err != nil {
		return nil, err
	}

	txScheduleRepo := repository.NewScheduleRepository(tx)
	txAvailabilityRepo := repository.NewAvailabilityRepository(tx)

	if err := checkTeacherSlot(
		ctx,
		txAvailabilityRepo,
		txScheduleRepo,
		input.TeacherID,
		input.Date,
		input.StartTime,
		input.EndTime,
		0,
	); err != nil {
		return nil, err
	}

	entry, err := txScheduleRepo.Create(ctx, repository.CreateScheduleEntryInput{
		TeacherID:          input.TeacherID,
		ClassID:            input.ClassID,
		Date:               timeutil.TruncateToDay(input.Date),
		StartTime:          input.StartTime,
		EndTime:            input.EndTime,
		RecurringSessionID: recurringSessionID,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// CheckTeacherAvailability is the shared availability and conflict primitive:
// it passes iff an active slot for the date's weekday fully contains the
// requested window and no other entry for the teacher overlaps it.
func (s *ScheduleService) CheckTeacherAvailability(
	ctx context.Context,
	teacherID int64,
	date time.Time,
	startTime string,
	endTime string,
	excludeEntryID int64,
) error {
	return checkTeacherSlot(ctx, s.availabilityRepo, s.scheduleRepo, teacherID, date, startTime, endTime, excludeEntryID)
}

// Reschedule moves one schedule entry, or a whole future-dated recurring
// series when RescheduleFutureSessions is set and the owning class is
// recurring. It runs in one transaction holding the teacher's advisory lock,
// so two reschedules touching the same teacher serialize their
// read-validate-write sequences.
func (s *ScheduleService) Reschedule(
	ctx context.Context,
	entryID int64,
	input RescheduleInput,
) (*RescheduleResult, error) {
	if err := validateTimeWindow(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txScheduleRepo := repository.NewScheduleRepository(tx)
	txAvailabilityRepo := repository.NewAvailabilityRepository(tx)

	entry, err := txScheduleRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	class, err := s.classRepo.GetByID(ctx, entry.ClassID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", entry.TeacherID); err != nil {
		return nil, err
	}

	var result *RescheduleResult
	if input.RescheduleFutureSessions && class.IsRecurring {
		result, err = rescheduleSeries(ctx, txAvailabilityRepo, txScheduleRepo, entry, input)
	} else {
		result, err = rescheduleSingle(ctx, txAvailabilityRepo, txScheduleRepo, entry, input)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// rescheduleSingle validates the new window against availability and
// conflicts (excluding the entry itself) and mutates the entry in place; any
// failed check aborts with no partial mutation.
func rescheduleSingle(
	ctx context.Context,
	availability availabilityFinder,
	schedules scheduleStore,
	entry *models.ScheduleEntry,
	input RescheduleInput,
) (*RescheduleResult, error) {
	if err := checkTeacherSlot(
		ctx,
		availability,
		schedules,
		entry.TeacherID,
		input.Date,
		input.StartTime,
		input.EndTime,
		entry.ID,
	); err != nil {
		return nil, err
	}

	updated, err := schedules.Reschedule(ctx, entry.ID, repository.RescheduleEntryUpdate{
		Date:      timeutil.TruncateToDay(input.Date),
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	})
	if err != nil {
		return nil, err
	}

	return &RescheduleResult{
		Entry:           updated,
		UpdatedSessions: []UpdatedSession{},
		SkippedSessions: []SkippedSession{},
	}, nil
}

// rescheduleSeries computes a uniform date and time delta from the target
// entry's move and applies it to every series entry dated on or after the
// target, validating each shifted entry independently. Entries failing a
// check are recorded as skipped with a reason and left untouched; they do not
// block the rest of the series.
func rescheduleSeries(
	ctx context.Context,
	availability availabilityFinder,
	schedules scheduleStore,
	entry *models.ScheduleEntry,
	input RescheduleInput,
) (*RescheduleResult, error) {
	groupKey := strconv.FormatInt(entry.ID, 10)
	if entry.RecurringSessionID != nil && *entry.RecurringSessionID != "" {
		groupKey = *entry.RecurringSessionID
	}

	seriesEntries, err := schedules.ListSeriesFrom(ctx, groupKey, entry.ID, timeutil.TruncateToDay(entry.Date))
	if err != nil {
		return nil, err
	}
	if len(seriesEntries) == 0 {
		return nil, ErrNoFutureSessions
	}

	startDiffMinutes, err := timeutil.DiffMinutes(entry.StartTime, input.StartTime)
	if err != nil {
		return nil, ErrInvalidInput
	}
	endDiffMinutes, err := timeutil.DiffMinutes(entry.EndTime, input.EndTime)
	if err != nil {
		return nil, ErrInvalidInput
	}
	dateDiffDays := timeutil.DiffDays(entry.Date, input.Date)

	result := &RescheduleResult{
		UpdatedSessions: []UpdatedSession{},
		SkippedSessions: []SkippedSession{},
	}

	for _, seriesEntry := range seriesEntries {
		newDate := timeutil.TruncateToDay(seriesEntry.Date).AddDate(0, 0, dateDiffDays)

		newStartTime, err := timeutil.ShiftTimeOfDay(seriesEntry.StartTime, startDiffMinutes)
		if err != nil {
			result.SkippedSessions = append(result.SkippedSessions, SkippedSession{
				SessionID: seriesEntry.ID,
				Reason:    err.Error(),
			})
			continue
		}
		newEndTime, err := timeutil.ShiftTimeOfDay(seriesEntry.EndTime, endDiffMinutes)
		if err != nil {
			result.SkippedSessions = append(result.SkippedSessions, SkippedSession{
				SessionID: seriesEntry.ID,
				Reason:    err.Error(),
			})
			continue
		}

		startMinutes, _ := timeutil.MinutesOfDay(newStartTime)
		endMinutes, _ := timeutil.MinutesOfDay(newEndTime)
		if startMinutes >= endMinutes {
			result.SkippedSessions = append(result.SkippedSessions, SkippedSession{
				SessionID: seriesEntry.ID,
				Reason:    skipReasonInvalidRange,
			})
			continue
		}

		if skipReason, err := validateSeriesEntry(
			ctx,
			availability,
			schedules,
			seriesEntry,
			newDate,
			newStartTime,
			newEndTime,
		); err != nil {
			result.SkippedSessions = append(result.SkippedSessions, SkippedSession{
				SessionID: seriesEntry.ID,
				Reason:    err.Error(),
			})
			continue
		} else if skipReason != "" {
			result.SkippedSessions = append(result.SkippedSessions, SkippedSession{
				SessionID: seriesEntry.ID,
				Reason:    skipReason,
			})
			continue
		}

		if _, err := schedules.Reschedule(ctx, seriesEntry.ID, repository.RescheduleEntryUpdate{
			Date:               newDate,
			StartTime:          newStartTime,
			EndTime:            newEndTime,
			RecurringSessionID: &groupKey,
		}); err != nil {
			result.SkippedSessions = append(result.SkippedSessions, SkippedSession{
				SessionID: seriesEntry.ID,
				Reason:    err.Error(),
			})
			continue
		}

		result.UpdatedSessions = append(result.UpdatedSessions, UpdatedSession{
			SessionID:    seriesEntry.ID,
			NewDate:      newDate,
			NewStartTime: newStartTime,
			NewEndTime:   newEndTime,
		})
	}

	return result, nil
}

// validateSeriesEntry runs the availability and conflict checks for one
// shifted entry, returning the cascade skip reason when a check fails.
func validateSeriesEntry(
	ctx context.Context,
	availability availabilityFinder,
	schedules scheduleStore,
	entry models.ScheduleEntry,
	newDate time.Time,
	newStartTime string,
	newEndTime string,
) (string, error) {
	weekday := timeutil.WeekdayName(newDate)

	slots, err := availability.FindActiveSlots(ctx, entry.TeacherID, weekday)
	if err != nil {
		return "", err
	}
	if len(slots) == 0 {
		return skipReasonNotAvailable, nil
	}

	covered, err := slotContains(slots, newStartTime, newEndTime)
	if err != nil {
		return "", err
	}
	if !covered {
		return skipReasonNoSlot, nil
	}

	hasConflict, err := schedules.HasConflict(ctx, entry.TeacherID, newDate, newStartTime, newEndTime, entry.ID)
	if err != nil {
		return "", err
	}
	if hasConflict {
		return skipReasonConflict, nil
	}

	return "", nil
}

// checkTeacherSlot is the single-entry form of the availability/conflict
// primitive, surfacing sentinel errors instead of skip reasons.
func checkTeacherSlot(
	ctx context.Context,
	availability availabilityFinder,
	schedules scheduleStore,
	teacherID int64,
	date time.Time,
	startTime string,
	endTime string,
	excludeEntryID int64,
) error {
	weekday := timeutil.WeekdayName(date)

	slots, err := availability.FindActiveSlots(ctx, teacherID, weekday)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return ErrNotAvailable
	}

	covered, err := slotContains(slots, startTime, endTime)
	if err != nil {
		return err
	}
	if !covered {
		return ErrNoMatchingSlot
	}

	hasConflict, err := schedules.HasConflict(ctx, teacherID, timeutil.TruncateToDay(date), startTime, endTime, excludeEntryID)
	if err != nil {
		return err
	}
	if hasConflict {
		return ErrScheduleConflict
	}

	return nil
}

func slotContains(slots []models.AvailabilitySlot, startTime, endTime string) (bool, error) {
	for _, slot := range slots {
		contained, err := timeutil.Contains(slot.StartTime, slot.EndTime, startTime, endTime)
		if err != nil {
			return false, err
		}
		if contained {
			return true, nil
		}
	}
	return false, nil
}

// GetTeacherSchedule returns a teacher's schedule entries ordered by date,
// with a total count for pagination.
func (s *ScheduleService) GetTeacherSchedule(
	ctx context.Context,
	teacherID int64,
	limit int,
	offset int,
) ([]models.ScheduleEntry, int, error) {
	if _, err := s.teacherRepo.GetByID(ctx, teacherID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrTeacherNotFound
		}
		return nil, 0, err
	}

	entries, err := s.scheduleRepo.ListByTeacher(ctx, teacherID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.scheduleRepo.CountByTeacher(ctx, teacherID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// GetAllTimetables groups every teacher's schedule entries for a date window,
// including teachers with no entries in the window.
func (s *ScheduleService) GetAllTimetables(
	ctx context.Context,
	startDate time.Time,
	endDate time.Time,
) ([]models.TeacherTimetable, error) {
	teachers, err := s.teacherRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.scheduleRepo.ListInRange(
		ctx,
		timeutil.TruncateToDay(startDate),
		timeutil.TruncateToDay(endDate),
	)
	if err != nil {
		return nil, err
	}

	entriesByTeacher := make(map[int64][]models.ScheduleEntry, len(teachers))
	for _, entry := range entries {
		entriesByTeacher[entry.TeacherID] = append(entriesByTeacher[entry.TeacherID], entry)
	}

	timetables := make([]models.TeacherTimetable, 0, len(teachers))
	for _, teacher := range teachers {
		schedule := entriesByTeacher[teacher.ID]
		if schedule == nil {
			schedule = []models.ScheduleEntry{}
		}
		timetables = append(timetables, models.TeacherTimetable{
			TeacherInfo: teacher,
			Schedule:    schedule,
		})
	}

	return timetables, nil
}
