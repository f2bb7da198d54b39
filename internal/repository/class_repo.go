package repository

import (
	"context"
	"time"

	"github.com/nitishsadhu03/lms-backend/internal/models"
)

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
	SeriesID         *string
	AdminID          int64
}

type ClassRepository struct {
	db DBTX
}

func NewClassRepository(db DBTX) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `
	id, batch_id, class_link, teacher_id, is_recurring, start_date,
	start_date_time, end_date_time, original_start_date_time, original_end_date_time,
	is_rescheduled, repeat_type, repeat_days, repeat_dates, number_of_sessions,
	session_ids, series_id, admin_id, created_at
`

func (r *ClassRepository) Create(ctx context.Context, input CreateClassInput) (*models.Class, error) {
	repeatDays := input.RepeatDays
	if repeatDays == nil {
		repeatDays = []models.RepeatDay{}
	}
	repeatDates := input.RepeatDates
	if repeatDates == nil {
		repeatDates = []models.RepeatDate{}
	}

	query := `
		INSERT INTO classes (
			batch_id, class_link, teacher_id, is_recurring, start_date,
			start_date_time, end_date_time, repeat_type, repeat_days, repeat_dates,
			number_of_sessions, series_id, admin_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + classColumns

	class, err := r.scanClass(r.db.QueryRow(
		ctx,
		query,
		input.BatchID,
		input.ClassLink,
		input.TeacherID,
		input.IsRecurring,
		input.StartDate,
		input.StartDateTime,
		input.EndDateTime,
		input.RepeatType,
		repeatDays,
		repeatDates,
		input.NumberOfSessions,
		input.SeriesID,
		input.AdminID,
	))
	if err != nil {
		return nil, err
	}

	for _, studentID := range input.StudentIDs {
		if _, err := r.db.Exec(
			ctx,
			`INSERT INTO class_students (class_id, student_id) VALUES ($1, $2)`,
			class.ID,
			studentID,
		); err != nil {
			return nil, err
		}
	}
	class.StudentIDs = append([]int64{}, input.StudentIDs...)

	return class, nil
}

func (r *ClassRepository) GetByID(ctx context.Context, classID int64) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	class, err := r.scanClass(r.db.QueryRow(ctx, query, classID))
	if err != nil {
		return nil, err
	}

	studentIDs, err := r.listStudentIDs(ctx, classID)
	if err != nil {
		return nil, err
	}
	class.StudentIDs = studentIDs

	return class, nil
}

// SetSessionIDs writes the ordered generated-session id list back onto the
// class after recurrence expansion.
func (r *ClassRepository) SetSessionIDs(ctx context.Context, classID int64, sessionIDs []int64) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE classes SET session_ids = $2 WHERE id = $1`,
		classID,
		sessionIDs,
	)
	return err
}

// Reschedule moves a single-occurrence class, preserving the original
// timestamps the first time it is moved.
func (r *ClassRepository) Reschedule(
	ctx context.Context,
	classID int64,
	newStart time.Time,
	newEnd time.Time,
) (*models.Class, error) {
	query := `
		UPDATE classes
		SET original_start_date_time = COALESCE(original_start_date_time, start_date_time),
		    original_end_date_time = COALESCE(original_end_date_time, end_date_time),
		    start_date_time = $2,
		    end_date_time = $3,
		    is_rescheduled = TRUE
		WHERE id = $1
		RETURNING ` + classColumns

	class, err := r.scanClass(r.db.QueryRow(ctx, query, classID, newStart, newEnd))
	if err != nil {
		return nil, err
	}

	studentIDs, err := r.listStudentIDs(ctx, classID)
	if err != nil {
		return nil, err
	}
	class.StudentIDs = studentIDs

	return class, nil
}

// Delete removes a class; its sessions, schedule entries and student links go
// with it via ON DELETE CASCADE.
func (r *ClassRepository) Delete(ctx context.Context, classID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM classes WHERE id = $1`, classID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ClassRepository) listStudentIDs(ctx context.Context, classID int64) ([]int64, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT student_id FROM class_students WHERE class_id = $1 ORDER BY student_id ASC`,
		classID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	studentIDs := make([]int64, 0)
	for rows.Next() {
		var studentID int64
		if err := rows.Scan(&studentID); err != nil {
			return nil, err
		}
		studentIDs = append(studentIDs, studentID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return studentIDs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ClassRepository) scanClass(row rowScanner) (*models.Class, error) {
	var class models.Class
	err := row.Scan(
		&class.ID,
		&class.BatchID,
		&class.ClassLink,
		&class.TeacherID,
		&class.IsRecurring,
		&class.StartDate,
		&class.StartDateTime,
		&class.EndDateTime,
		&class.OriginalStartDateTime,
		&class.OriginalEndDateTime,
		&class.IsRescheduled,
		&class.RepeatType,
		&class.RepeatDays,
		&class.RepeatDates,
		&class.NumberOfSessions,
		&class.SessionIDs,
		&class.SeriesID,
		&class.AdminID,
		&class.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &class, nil
}
