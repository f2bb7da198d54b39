package repository

import (
	"context"
	"time"

	"github.com/nitishsadhu03/lms-backend/internal/models"
)

type CreateScheduleEntryInput struct {
	TeacherID          int64
	ClassID            int64
	Date               time.Time
	StartTime          string
	EndTime            string
	RecurringSessionID *string
}

type RescheduleEntryUpdate struct {
	Date               time.Time
	StartTime          string
	EndTime            string
	RecurringSessionID *string
}

type ScheduleRepository struct {
	db DBTX
}

func NewScheduleRepository(db DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `
	id, teacher_id, class_id, entry_date, start_time, end_time, status,
	recurring_session_id, created_at, updated_at
`

func (r *ScheduleRepository) Create(ctx context.Context, input CreateScheduleEntryInput) (*models.ScheduleEntry, error) {
	query := `
		INSERT INTO schedule_entries (teacher_id, class_id, entry_date, start_time, end_time, status, recurring_session_id)
		VALUES ($1, $2, $3, $4, $5, 'scheduled', $6)
		RETURNING ` + scheduleColumns

	return r.scanEntry(r.db.QueryRow(
		ctx,
		query,
		input.TeacherID,
		input.ClassID,
		input.Date,
		input.StartTime,
		input.EndTime,
		input.RecurringSessionID,
	))
}

func (r *ScheduleRepository) GetByID(ctx context.Context, entryID int64) (*models.ScheduleEntry, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedule_entries WHERE id = $1`
	return r.scanEntry(r.db.QueryRow(ctx, query, entryID))
}

// ListSeriesFrom collects the entries of one recurring series dated on or
// after fromDate, ordered ascending. The target entry itself matches either
// through the group key or directly by id, covering entries assigned before
// a group key existed.
func (r *ScheduleRepository) ListSeriesFrom(
	ctx context.Context,
	recurringSessionID string,
	entryID int64,
	fromDate time.Time,
) ([]models.ScheduleEntry, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedule_entries
		WHERE (recurring_session_id = $1 OR id = $2)
		  AND entry_date >= $3
		ORDER BY entry_date ASC, start_time ASC, id ASC
	`
	return r.queryEntries(ctx, query, recurringSessionID, entryID, fromDate)
}

// HasConflict reports whether the teacher already has an entry on the date
// whose [start, end) interval overlaps the requested one. HH:mm strings are
// zero-padded, so lexicographic comparison orders them correctly.
func (r *ScheduleRepository) HasConflict(
	ctx context.Context,
	teacherID int64,
	date time.Time,
	startTime string,
	endTime string,
	excludeEntryID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM schedule_entries
			WHERE teacher_id = $1
			  AND entry_date = $2
			  AND id <> $5
			  AND status <> 'cancelled'
			  AND start_time < $4
			  AND end_time > $3
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, teacherID, date, startTime, endTime, excludeEntryID).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

// Reschedule moves an entry to a new date and time window, marks it
// rescheduled and backfills the series group key when one is supplied.
func (r *ScheduleRepository) Reschedule(
	ctx context.Context,
	entryID int64,
	update RescheduleEntryUpdate,
) (*models.ScheduleEntry, error) {
	query := `
		UPDATE schedule_entries
		SET entry_date = $2,
		    start_time = $3,
		    end_time = $4,
		    status = 'rescheduled',
		    recurring_session_id = COALESCE($5, recurring_session_id),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + scheduleColumns

	return r.scanEntry(r.db.QueryRow(
		ctx,
		query,
		entryID,
		update.Date,
		update.StartTime,
		update.EndTime,
		update.RecurringSessionID,
	))
}

func (r *ScheduleRepository) UpdateStatus(
	ctx context.Context,
	entryID int64,
	status string,
) (*models.ScheduleEntry, error) {
	query := `
		UPDATE schedule_entries
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + scheduleColumns

	return r.scanEntry(r.db.QueryRow(ctx, query, entryID, status))
}

func (r *ScheduleRepository) ListByTeacher(
	ctx context.Context,
	teacherID int64,
	limit int,
	offset int,
) ([]models.ScheduleEntry, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedule_entries
		WHERE teacher_id = $1
		ORDER BY entry_date ASC, start_time ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	return r.queryEntries(ctx, query, teacherID, limit, offset)
}

func (r *ScheduleRepository) CountByTeacher(ctx context.Context, teacherID int64) (int, error) {
	var total int
	err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM schedule_entries WHERE teacher_id = $1`,
		teacherID,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ScheduleRepository) ListInRange(
	ctx context.Context,
	startDate time.Time,
	endDate time.Time,
) ([]models.ScheduleEntry, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedule_entries
		WHERE entry_date >= $1 AND entry_date <= $2
		ORDER BY entry_date ASC, start_time ASC, id ASC
	`
	return r.queryEntries(ctx, query, startDate, endDate)
}

func (r *ScheduleRepository) queryEntries(ctx context.Context, query string, args ...any) ([]models.ScheduleEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.ScheduleEntry, 0)
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *ScheduleRepository) scanEntry(row rowScanner) (*models.ScheduleEntry, error) {
	var entry models.ScheduleEntry
	err := row.Scan(
		&entry.ID,
		&entry.TeacherID,
		&entry.ClassID,
		&entry.Date,
		&entry.StartTime,
		&entry.EndTime,
		&entry.Status,
		&entry.RecurringSessionID,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
