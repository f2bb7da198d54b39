package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nitishsadhu03/lms-backend/internal/models"
	"github.com/nitishsadhu03/lms-backend/internal/repository"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrNoOpenDispute   = errors.New("no pending dispute for this session")
	ErrInvalidPenalty  = errors.New("invalid penalty")
	ErrInvalidSettle   = errors.New("invalid settlement type")
	ErrInvalidClassTag = errors.New("invalid class type")
)

var settlementTypes = map[string]bool{
	"paid":         true,
	"cancelled":    true,
	"rescheduled":  true,
	"unsuccessful": true,
}

var penalties = map[string]bool{
	"No show":                 true,
	"Video Duration (<40min)": true,
	"Cancellation (<120min)":  true,
	"1-7 class cancellation":  true,
	"No":                      true,
	"Class Duration (<55min)": true,
	"Delayed Partial":         true,
	"Delayed Full":            true,
	"Summary not filled":      true,
}

var classTypes = map[string]bool{
	models.ClassTypeRegular:       true,
	models.ClassTypeStudentAbsent: true,
	models.ClassTypePTM:           true,
	models.ClassTypeTest:          true,
}

type sessionStore interface {
	GetByID(ctx context.Context, sessionID int64) (*models.Session, error)
	Reschedule(ctx context.Context, sessionID int64, newStart, newEnd time.Time) (*models.Session, error)
	UpdateTeacherFields(ctx context.Context, sessionID int64, update repository.TeacherSessionUpdate) (*models.Session, error)
	UpdateAdminFields(ctx context.Context, sessionID int64, update repository.AdminSessionUpdate) (*models.Session, error)
	RaiseDispute(ctx context.Context, sessionID int64, reason string) (*models.Session, error)
	ResolveDispute(ctx context.Context, sessionID int64, status string, remarks *string) (*models.Session, error)
}

type SessionService struct {
	sessionRepo sessionStore
	classRepo   classReader
	clock       Clock
}

func NewSessionService(
	sessionRepo *repository.SessionRepository,
	classRepo *repository.ClassRepository,
	clock Clock,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		classRepo:   classRepo,
		clock:       clock,
	}
}

// UpdateTeacherFields fills the teacher's post-session free-text fields. The
// acting teacher must own the session's class.
func (s *SessionService) UpdateTeacherFields(
	ctx context.Context,
	teacherID int64,
	sessionID int64,
	update repository.TeacherSessionUpdate,
) (*models.Session, error) {
	if update.ClassType != nil && !classTypes[*update.ClassType] {
		return nil, ErrInvalidClassTag
	}

	if err := s.checkSessionOwner(ctx, teacherID, sessionID); err != nil {
		return nil, err
	}

	return s.sessionRepo.UpdateTeacherFields(ctx, sessionID, update)
}

// UpdateAdminFields fills the admin settlement fields on a session.
func (s *SessionService) UpdateAdminFields(
	ctx context.Context,
	sessionID int64,
	update repository.AdminSessionUpdate,
) (*models.Session, error) {
	if update.Type != nil && !settlementTypes[*update.Type] {
		return nil, ErrInvalidSettle
	}
	if update.Penalty != nil && !penalties[*update.Penalty] {
		return nil, ErrInvalidPenalty
	}

	session, err := s.sessionRepo.UpdateAdminFields(ctx, sessionID, update)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// Reschedule moves a single session to a new window, preserving its original
// start the first time it moves.
func (s *SessionService) Reschedule(
	ctx context.Context,
	sessionID int64,
	newStart time.Time,
	newEnd time.Time,
) (*models.Session, error) {
	if !newEnd.After(newStart) {
		return nil, ErrInvalidInput
	}
	if !newStart.After(s.clock.Now()) {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionRepo.Reschedule(ctx, sessionID, newStart.UTC(), newEnd.UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// RaiseDispute opens a dispute on a session on behalf of its teacher.
func (s *SessionService) RaiseDispute(
	ctx context.Context,
	teacherID int64,
	sessionID int64,
	reason string,
) (*models.Session, error) {
	if reason == "" {
		return nil, ErrInvalidInput
	}

	if err := s.checkSessionOwner(ctx, teacherID, sessionID); err != nil {
		return nil, err
	}

	return s.sessionRepo.RaiseDispute(ctx, sessionID, reason)
}

// ResolveDispute closes a pending dispute as resolved or rejected.
func (s *SessionService) ResolveDispute(
	ctx context.Context,
	sessionID int64,
	status string,
	remarks *string,
) (*models.Session, error) {
	if status != models.DisputeStatusResolved && status != models.DisputeStatusRejected {
		return nil, ErrInvalidStatus
	}

	session, err := s.sessionRepo.ResolveDispute(ctx, sessionID, status, remarks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoOpenDispute
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionService) checkSessionOwner(ctx context.Context, teacherID, sessionID int64) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}

	class, err := s.classRepo.GetByID(ctx, session.ClassID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrClassNotFound
		}
		return err
	}
	if class.TeacherID != teacherID {
		return ErrForbidden
	}

	return nil
}
