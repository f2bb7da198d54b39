package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nitishsadhu03/lms-backend/internal/models"
	"github.com/nitishsadhu03/lms-backend/internal/repository"
	"github.com/nitishsadhu03/lms-backend/pkg/timeutil"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrTeacherNotFound      = errors.New("teacher not found")
	ErrClassNotFound        = errors.New("class not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrClassNotRecurring    = errors.New("class is not recurring")
	ErrClassRecurring       = errors.New("recurring classes are rescheduled per schedule entry")
	ErrPatternUnsatisfiable = errors.New("recurrence pattern cannot produce the requested number of sessions")
)

// maxBarrenScanDays caps the day-by-day recurrence walk: the widest gap a
// satisfiable monthly pattern can leave between matches is 61 days (day 31
// across a 30-day month plus February), so 62 barren days means the pattern
// will never reach its target.
const maxBarrenScanDays = 62

type teacherReader interface {
	GetByID(ctx context.Context, teacherID int64) (*models.Teacher, error)
}

type studentReader interface {
	ListByIDs(ctx context.Context, studentIDs []int64) ([]models.Student, error)
}

type sessionCreator interface {
	Create(ctx context.Context, input repository.CreateSessionInput) (*models.Session, error)
}

type ClassService struct {
	db          *pgxpool.Pool
	classRepo   *repository.ClassRepository
	sessionRepo *repository.SessionRepository
	teacherRepo teacherReader
	studentRepo studentReader
	clock       Clock
}

func NewClassService(
	db *pgxpool.Pool,
	classRepo *repository.ClassRepository,
	sessionRepo *repository.SessionRepository,
	teacherRepo teacherReader,
	studentRepo studentReader,
	clock Clock,
) *ClassService {
	return &ClassService{
		db:          db,
		classRepo:   classRepo,
		sessionRepo: sessionRepo,
		teacherRepo: teacherRepo,
		studentRepo: studentRepo,
		clock:       clock,
	}
}

type CreateClassInput struct {
	BatchID          string
	ClassLink        string
	TeacherID        int64
	StudentIDs       []int64
	IsRecurring      bool
	StartDate        *time.Time
	StartDateTime    *time.Time
	EndDateTime      *time.Time
	RepeatType       *string
	RepeatDays       []models.RepeatDay
	RepeatDates      []models.RepeatDate
	NumberOfSessions *int
}

// CreateClass persists a class definition and, for recurring classes,
// materializes its sessions in the same transaction. An unsatisfiable
// recurrence pattern rolls the whole creation back, so no partial session
// list is ever attached.
func (s *ClassService) CreateClass(
	ctx context.Context,
	adminID int64,
	input CreateClassInput,
) (*models.Class, error) {
	if err := validateClassInput(input); err != nil {
		return nil, err
	}

	if _, err := s.teacherRepo.GetByID(ctx, input.TeacherID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}
	if _, err := s.studentRepo.ListByIDs(ctx, input.StudentIDs); err != nil {
		return nil, err
	}

	createInput := repository.CreateClassInput{
		BatchID:          input.BatchID,
		ClassLink:        input.ClassLink,
		TeacherID:        input.TeacherID,
		StudentIDs:       input.StudentIDs,
		IsRecurring:      input.IsRecurring,
		StartDate:        input.StartDate,
		StartDateTime:    input.StartDateTime,
		EndDateTime:      input.EndDateTime,
		RepeatType:       input.RepeatType,
		RepeatDays:       input.RepeatDays,
		RepeatDates:      input.RepeatDates,
		NumberOfSessions: input.NumberOfSessions,
		AdminID:          adminID,
	}
	if input.IsRecurring {
		seriesID := uuid.NewString()
		createInput.SeriesID = &seriesID
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txClassRepo := repository.NewClassRepository(tx)
	txSessionRepo := repository.NewSessionRepository(tx)

	class, err := txClassRepo.Create(ctx, createInput)
	if err != nil {
		return nil, err
	}

	if class.IsRecurring {
		sessions, err := s.generateSessions(ctx, txSessionRepo, class)
		if err != nil {
			return nil, err
		}
		sessionIDs := make([]int64, 0, len(sessions))
		for _, session := range sessions {
			sessionIDs = append(sessionIDs, session.ID)
		}
		if err := txClassRepo.SetSessionIDs(ctx, class.ID, sessionIDs); err != nil {
			return nil, err
		}
		class.SessionIDs = sessionIDs
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return class, nil
}

// generateSessions walks forward from the class start date one calendar day
// at a time, synthesizing a session whenever the visited date matches the
// recurrence descriptor, until the target count is reached. Times are the
// descriptor's HH:mm strings combined with the visited date in UTC.
func (s *ClassService) generateSessions(
	ctx context.Context,
	store sessionCreator,
	class *models.Class,
) ([]models.Session, error) {
	if class.StartDate == nil || class.NumberOfSessions == nil || class.RepeatType == nil {
		return nil, ErrInvalidInput
	}

	target := *class.NumberOfSessions
	current := timeutil.TruncateToDay(*class.StartDate)
	sessions := make([]models.Session, 0, target)
	barrenDays := 0

	for len(sessions) < target {
		var startTime, endTime string
		matched := false

		switch *class.RepeatType {
		case models.RepeatTypeWeekly:
			weekday := timeutil.WeekdayName(current)
			for _, repeatDay := range class.RepeatDays {
				if repeatDay.Day == weekday {
					startTime, endTime = repeatDay.StartTime, repeatDay.EndTime
					matched = true
					break
				}
			}
		case models.RepeatTypeMonthly:
			dayOfMonth := current.Day()
			for _, repeatDate := range class.RepeatDates {
				if repeatDate.Date == dayOfMonth {
					startTime, endTime = repeatDate.StartTime, repeatDate.EndTime
					matched = true
					break
				}
			}
		default:
			return nil, ErrInvalidInput
		}

		if matched {
			startDateTime, err := timeutil.CombineDateAndTime(current, startTime)
			if err != nil {
				return nil, err
			}
			endDateTime, err := timeutil.CombineDateAndTime(current, endTime)
			if err != nil {
				return nil, err
			}

			session, err := store.Create(ctx, repository.CreateSessionInput{
				ClassID:       class.ID,
				StartDateTime: startDateTime,
				EndDateTime:   endDateTime,
			})
			if err != nil {
				return nil, err
			}
			sessions = append(sessions, *session)
			barrenDays = 0
		} else {
			barrenDays++
			if barrenDays >= maxBarrenScanDays {
				return nil, ErrPatternUnsatisfiable
			}
		}

		current = current.AddDate(0, 0, 1)
	}

	return sessions, nil
}

func (s *ClassService) GetClass(ctx context.Context, classID int64) (*models.Class, []models.Session, error) {
	class, err := s.classRepo.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrClassNotFound
		}
		return nil, nil, err
	}

	sessions, err := s.sessionRepo.ListByClassID(ctx, classID)
	if err != nil {
		return nil, nil, err
	}

	return class, sessions, nil
}

// RescheduleClass moves a single-occurrence class to a new window. Recurring
// classes are moved through their schedule entries instead.
func (s *ClassService) RescheduleClass(
	ctx context.Context,
	classID int64,
	newStart time.Time,
	newEnd time.Time,
) (*models.Class, error) {
	if !newEnd.After(newStart) {
		return nil, ErrInvalidInput
	}
	if !newStart.After(s.clock.Now()) {
		return nil, ErrInvalidInput
	}

	class, err := s.classRepo.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	if class.IsRecurring {
		return nil, ErrClassRecurring
	}

	return s.classRepo.Reschedule(ctx, classID, newStart.UTC(), newEnd.UTC())
}

func (s *ClassService) DeleteClass(ctx context.Context, classID int64) error {
	deleted, err := s.classRepo.Delete(ctx, classID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrClassNotFound
	}
	return nil
}

func validateClassInput(input CreateClassInput) error {
	if input.BatchID == "" || input.ClassLink == "" || input.TeacherID <= 0 {
		return ErrInvalidInput
	}

	if !input.IsRecurring {
		if input.StartDateTime == nil || input.EndDateTime == nil {
			return ErrInvalidInput
		}
		if !input.EndDateTime.After(*input.StartDateTime) {
			return ErrInvalidInput
		}
		if input.StartDate != nil || input.RepeatType != nil ||
			len(input.RepeatDays) > 0 || len(input.RepeatDates) > 0 || input.NumberOfSessions != nil {
			return ErrInvalidInput
		}
		return nil
	}

	if input.StartDateTime != nil || input.EndDateTime != nil {
		return ErrInvalidInput
	}
	if input.StartDate == nil || input.RepeatType == nil || input.NumberOfSessions == nil {
		return ErrInvalidInput
	}
	if *input.NumberOfSessions <= 0 {
		return ErrInvalidInput
	}

	switch *input.RepeatType {
	case models.RepeatTypeWeekly:
		if len(input.RepeatDays) == 0 || len(input.RepeatDates) > 0 {
			return ErrInvalidInput
		}
		for _, repeatDay := range input.RepeatDays {
			if !timeutil.IsValidWeekday(repeatDay.Day) {
				return ErrInvalidInput
			}
			if err := validateTimeWindow(repeatDay.StartTime, repeatDay.EndTime); err != nil {
				return err
			}
		}
	case models.RepeatTypeMonthly:
		if len(input.RepeatDates) == 0 || len(input.RepeatDays) > 0 {
			return ErrInvalidInput
		}
		for _, repeatDate := range input.RepeatDates {
			if repeatDate.Date < 1 || repeatDate.Date > 31 {
				return ErrInvalidInput
			}
			if err := validateTimeWindow(repeatDate.StartTime, repeatDate.EndTime); err != nil {
				return err
			}
		}
	default:
		return ErrInvalidInput
	}

	return nil
}

func validateTimeWindow(startTime, endTime string) error {
	startMinutes, err := timeutil.MinutesOfDay(startTime)
	if err != nil {
		return ErrInvalidInput
	}
	endMinutes, err := timeutil.MinutesOfDay(endTime)
	if err != nil {
		return ErrInvalidInput
	}
	if endMinutes <= startMinutes {
		return ErrInvalidInput
	}
	return nil
}
