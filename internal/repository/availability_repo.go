package repository

import (
	"context"
	"time"

	"github.com/nitishsadhu03/lms-backend/internal/models"
)

type CreateSlotInput struct {
	TeacherID int64
	DayOfWeek string
	StartTime string
	EndTime   string
	Date      *time.Time
	Status    string
}

type UpdateSlotInput struct {
	DayOfWeek *string
	StartTime *string
	EndTime   *string
	Status    *string
}

type AvailabilityRepository struct {
	db DBTX
}

func NewAvailabilityRepository(db DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const slotColumns = `
	id, teacher_id, day_of_week, start_time, end_time, slot_date, status, created_at, updated_at
`

func (r *AvailabilityRepository) Create(ctx context.Context, input CreateSlotInput) (*models.AvailabilitySlot, error) {
	query := `
		INSERT INTO availability_slots (teacher_id, day_of_week, start_time, end_time, slot_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + slotColumns

	return r.scanSlot(r.db.QueryRow(
		ctx,
		query,
		input.TeacherID,
		input.DayOfWeek,
		input.StartTime,
		input.EndTime,
		input.Date,
		input.Status,
	))
}

func (r *AvailabilityRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.AvailabilitySlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE teacher_id = $1
		ORDER BY id ASC
	`
	return r.querySlots(ctx, query, teacherID)
}

func (r *AvailabilityRepository) ListAll(ctx context.Context) ([]models.AvailabilitySlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		ORDER BY teacher_id ASC, id ASC
	`
	return r.querySlots(ctx, query)
}

// FindActiveSlots returns the teacher's active slots for a weekday; the
// scheduler checks the requested interval against these windows.
func (r *AvailabilityRepository) FindActiveSlots(
	ctx context.Context,
	teacherID int64,
	dayOfWeek string,
) ([]models.AvailabilitySlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM availability_slots
		WHERE teacher_id = $1 AND day_of_week = $2 AND status = 'active'
		ORDER BY start_time ASC, id ASC
	`
	return r.querySlots(ctx, query, teacherID, dayOfWeek)
}

func (r *AvailabilityRepository) Update(
	ctx context.Context,
	teacherID int64,
	slotID int64,
	input UpdateSlotInput,
) (*models.AvailabilitySlot, error) {
	query := `
		UPDATE availability_slots
		SET day_of_week = COALESCE($3, day_of_week),
		    start_time = COALESCE($4, start_time),
		    end_time = COALESCE($5, end_time),
		    status = COALESCE($6, status),
		    updated_at = NOW()
		WHERE id = $2 AND teacher_id = $1
		RETURNING ` + slotColumns

	return r.scanSlot(r.db.QueryRow(
		ctx,
		query,
		teacherID,
		slotID,
		input.DayOfWeek,
		input.StartTime,
		input.EndTime,
		input.Status,
	))
}

func (r *AvailabilityRepository) Delete(ctx context.Context, teacherID, slotID int64) (bool, error) {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM availability_slots WHERE id = $2 AND teacher_id = $1`,
		teacherID,
		slotID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AvailabilityRepository) querySlots(ctx context.Context, query string, args ...any) ([]models.AvailabilitySlot, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]models.AvailabilitySlot, 0)
	for rows.Next() {
		slot, err := r.scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *AvailabilityRepository) scanSlot(row rowScanner) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	err := row.Scan(
		&slot.ID,
		&slot.TeacherID,
		&slot.DayOfWeek,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Date,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}
