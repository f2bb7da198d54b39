package repository

import (
	"context"

	"github.com/nitishsadhu03/lms-backend/internal/models"
)

type TeacherRepository struct {
	db DBTX
}

func NewTeacherRepository(db DBTX) *TeacherRepository {
	return &TeacherRepository{db: db}
}

func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	query := `
		INSERT INTO teachers (name, email, timezone)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.db.QueryRow(ctx, query, teacher.Name, teacher.Email, teacher.Timezone).Scan(&teacher.ID)
}

func (r *TeacherRepository) GetByID(ctx context.Context, teacherID int64) (*models.Teacher, error) {
	query := `
		SELECT id, name, email, timezone
		FROM teachers
		WHERE id = $1
	`
	var teacher models.Teacher
	err := r.db.QueryRow(ctx, query, teacherID).Scan(
		&teacher.ID,
		&teacher.Name,
		&teacher.Email,
		&teacher.Timezone,
	)
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *TeacherRepository) ListAll(ctx context.Context) ([]models.Teacher, error) {
	query := `
		SELECT id, name, email, timezone
		FROM teachers
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers := make([]models.Teacher, 0)
	for rows.Next() {
		var teacher models.Teacher
		if err := rows.Scan(&teacher.ID, &teacher.Name, &teacher.Email, &teacher.Timezone); err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return teachers, nil
}
