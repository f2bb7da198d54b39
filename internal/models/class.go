package models

import "time"

const (
	RepeatTypeWeekly  = "weekly"
	RepeatTypeMonthly = "monthly"
)

// RepeatDay is one weekday entry of a weekly recurrence descriptor.
type RepeatDay struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// RepeatDate is one day-of-month entry of a monthly recurrence descriptor.
type RepeatDate struct {
	Date      int    `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Class is a teaching engagement. Exactly one of the single-occurrence
// timestamps (StartDateTime/EndDateTime) or the recurrence descriptor
// (StartDate, RepeatType, RepeatDays/RepeatDates, NumberOfSessions) is
// populated, governed by IsRecurring.
type Class struct {
	ID                    int64        `json:"id"`
	BatchID               string       `json:"batchId"`
	ClassLink             string       `json:"classLink"`
	TeacherID             int64        `json:"teacherId"`
	StudentIDs            []int64      `json:"studentIds"`
	IsRecurring           bool         `json:"isRecurring"`
	StartDate             *time.Time   `json:"startDate,omitempty"`
	StartDateTime         *time.Time   `json:"startDateTime,omitempty"`
	EndDateTime           *time.Time   `json:"endDateTime,omitempty"`
	OriginalStartDateTime *time.Time   `json:"originalStartDateTime,omitempty"`
	OriginalEndDateTime   *time.Time   `json:"originalEndDateTime,omitempty"`
	IsRescheduled         bool         `json:"isRescheduled"`
	RepeatType            *string      `json:"repeatType,omitempty"`
	RepeatDays            []RepeatDay  `json:"repeatDays,omitempty"`
	RepeatDates           []RepeatDate `json:"repeatDates,omitempty"`
	NumberOfSessions      *int         `json:"numberOfSessions,omitempty"`
	SessionIDs            []int64      `json:"sessions"`
	SeriesID              *string      `json:"seriesId,omitempty"`
	AdminID               int64        `json:"adminId"`
	CreatedAt             time.Time    `json:"createdAt"`
}
