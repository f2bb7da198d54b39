package repository

import (
	"context"

	"github.com/nitishsadhu03/lms-backend/internal/models"
)

type StudentRepository struct {
	db DBTX
}

func NewStudentRepository(db DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (name, email, timezone)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.db.QueryRow(ctx, query, student.Name, student.Email, student.Timezone).Scan(&student.ID)
}

func (r *StudentRepository) GetByID(ctx context.Context, studentID int64) (*models.Student, error) {
	query := `
		SELECT id, name, email, timezone
		FROM students
		WHERE id = $1
	`
	var student models.Student
	err := r.db.QueryRow(ctx, query, studentID).Scan(
		&student.ID,
		&student.Name,
		&student.Email,
		&student.Timezone,
	)
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *StudentRepository) ListByIDs(ctx context.Context, studentIDs []int64) ([]models.Student, error) {
	students := make([]models.Student, 0, len(studentIDs))
	if len(studentIDs) == 0 {
		return students, nil
	}

	query := `
		SELECT id, name, email, timezone
		FROM students
		WHERE id = ANY($1)
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, studentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var student models.Student
		if err := rows.Scan(&student.ID, &student.Name, &student.Email, &student.Timezone); err != nil {
			return nil, err
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return students, nil
}
