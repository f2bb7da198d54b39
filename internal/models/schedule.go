package models

import "time"

const (
	SlotStatusActive   = "active"
	SlotStatusBlocked  = "blocked"
	SlotStatusReserved = "reserved"
)

const (
	ScheduleStatusScheduled   = "scheduled"
	ScheduleStatusCompleted   = "completed"
	ScheduleStatusCancelled   = "cancelled"
	ScheduleStatusRescheduled = "rescheduled"
)

// AvailabilitySlot is a teacher-declared open window on a weekday. Times are
// "HH:mm" 24-hour wall-clock strings.
type AvailabilitySlot struct {
	ID        int64      `json:"id"`
	TeacherID int64      `json:"teacherId"`
	DayOfWeek string     `json:"dayOfWeek"`
	StartTime string     `json:"startTime"`
	EndTime   string     `json:"endTime"`
	Date      *time.Time `json:"date,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ScheduleEntry assigns a class to a teacher's calendar on a concrete date.
// RecurringSessionID groups the entries of one recurring series for bulk
// rescheduling; it is filled from the class series id at assignment and
// backfilled with the entry's own identity the first time an ungrouped entry
// is cascade-rescheduled.
type ScheduleEntry struct {
	ID                 int64     `json:"id"`
	TeacherID          int64     `json:"teacherId"`
	ClassID            int64     `json:"classId"`
	Date               time.Time `json:"date"`
	StartTime          string    `json:"startTime"`
	EndTime            string    `json:"endTime"`
	Status             string    `json:"status"`
	RecurringSessionID *string   `json:"recurringSessionId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// TeacherTimetable groups one teacher's schedule entries for a date window.
type TeacherTimetable struct {
	TeacherInfo Teacher         `json:"teacherInfo"`
	Schedule    []ScheduleEntry `json:"schedule"`
}
