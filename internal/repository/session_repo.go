package repository

import (
	"context"
	"time"

	"github.com/nitishsadhu03/lms-backend/internal/models"
)

type CreateSessionInput struct {
	ClassID       int64
	StartDateTime time.Time
	EndDateTime   time.Time
}

type TeacherSessionUpdate struct {
	TopicsTaught *string
	ClassType    *string
}

type AdminSessionUpdate struct {
	Amount   *float64
	Type     *string
	JoinTime *time.Time
	Penalty  *string
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	id, class_id, start_date_time, end_date_time, is_rescheduled,
	original_start_date_time, rescheduled_date_time, topics_taught, class_type,
	admin_amount, admin_type, admin_join_time, admin_penalty,
	dispute_reason, dispute_status, dispute_remarks, created_at
`

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	query := `
		INSERT INTO sessions (class_id, start_date_time, end_date_time)
		VALUES ($1, $2, $3)
		RETURNING ` + sessionColumns

	return r.scanSession(r.db.QueryRow(ctx, query, input.ClassID, input.StartDateTime, input.EndDateTime))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return r.scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) ListByClassID(ctx context.Context, classID int64) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE class_id = $1
		ORDER BY start_date_time ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *SessionRepository) Reschedule(
	ctx context.Context,
	sessionID int64,
	newStart time.Time,
	newEnd time.Time,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET original_start_date_time = COALESCE(original_start_date_time, start_date_time),
		    rescheduled_date_time = $2,
		    start_date_time = $2,
		    end_date_time = $3,
		    is_rescheduled = TRUE
		WHERE id = $1
		RETURNING ` + sessionColumns

	return r.scanSession(r.db.QueryRow(ctx, query, sessionID, newStart, newEnd))
}

func (r *SessionRepository) UpdateTeacherFields(
	ctx context.Context,
	sessionID int64,
	update TeacherSessionUpdate,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET topics_taught = COALESCE($2, topics_taught),
		    class_type = COALESCE($3, class_type)
		WHERE id = $1
		RETURNING ` + sessionColumns

	return r.scanSession(r.db.QueryRow(ctx, query, sessionID, update.TopicsTaught, update.ClassType))
}

func (r *SessionRepository) UpdateAdminFields(
	ctx context.Context,
	sessionID int64,
	update AdminSessionUpdate,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET admin_amount = COALESCE($2, admin_amount),
		    admin_type = COALESCE($3, admin_type),
		    admin_join_time = COALESCE($4, admin_join_time),
		    admin_penalty = COALESCE($5, admin_penalty)
		WHERE id = $1
		RETURNING ` + sessionColumns

	return r.scanSession(r.db.QueryRow(
		ctx,
		query,
		sessionID,
		update.Amount,
		update.Type,
		update.JoinTime,
		update.Penalty,
	))
}

func (r *SessionRepository) RaiseDispute(
	ctx context.Context,
	sessionID int64,
	reason string,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET dispute_reason = $2,
		    dispute_status = 'pending',
		    dispute_remarks = NULL
		WHERE id = $1
		RETURNING ` + sessionColumns

	return r.scanSession(r.db.QueryRow(ctx, query, sessionID, reason))
}

func (r *SessionRepository) ResolveDispute(
	ctx context.Context,
	sessionID int64,
	status string,
	remarks *string,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET dispute_status = $2,
		    dispute_remarks = $3
		WHERE id = $1 AND dispute_status = 'pending'
		RETURNING ` + sessionColumns

	return r.scanSession(r.db.QueryRow(ctx, query, sessionID, status, remarks))
}

func (r *SessionRepository) scanSession(row rowScanner) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.ClassID,
		&session.StartDateTime,
		&session.EndDateTime,
		&session.IsRescheduled,
		&session.OriginalStartDateTime,
		&session.RescheduledDateTime,
		&session.TopicsTaught,
		&session.ClassType,
		&session.AdminUpdates.Amount,
		&session.AdminUpdates.Type,
		&session.AdminUpdates.JoinTime,
		&session.AdminUpdates.Penalty,
		&session.Dispute.Reason,
		&session.Dispute.Status,
		&session.Dispute.Remarks,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
