package models

import "time"

const (
	ClassTypeRegular       = "regular"
	ClassTypeStudentAbsent = "student_absent"
	ClassTypePTM           = "ptm"
	ClassTypeTest          = "test"
)

const (
	DisputeStatusPending  = "pending"
	DisputeStatusResolved = "resolved"
	DisputeStatusRejected = "rejected"
)

// AdminUpdates carries the post-hoc settlement fields an admin fills in
// after a session has run.
type AdminUpdates struct {
	Amount   float64    `json:"amount"`
	Type     *string    `json:"type,omitempty"`
	JoinTime *time.Time `json:"joinTime,omitempty"`
	Penalty  *string    `json:"penalty,omitempty"`
}

// Dispute is a teacher-raised objection against a session's settlement.
type Dispute struct {
	Reason  *string `json:"reason,omitempty"`
	Status  *string `json:"status,omitempty"`
	Remarks *string `json:"remarks,omitempty"`
}

// Session is one concrete dated occurrence of a Class. Invariant:
// EndDateTime > StartDateTime.
type Session struct {
	ID                    int64        `json:"id"`
	ClassID               int64        `json:"classId"`
	StartDateTime         time.Time    `json:"startDateTime"`
	EndDateTime           time.Time    `json:"endDateTime"`
	IsRescheduled         bool         `json:"isRescheduled"`
	OriginalStartDateTime *time.Time   `json:"originalStartDateTime,omitempty"`
	RescheduledDateTime   *time.Time   `json:"rescheduledDateTime,omitempty"`
	TopicsTaught          *string      `json:"topicsTaught,omitempty"`
	ClassType             *string      `json:"classType,omitempty"`
	AdminUpdates          AdminUpdates `json:"adminUpdates"`
	Dispute               Dispute      `json:"dispute"`
	CreatedAt             time.Time    `json:"createdAt"`
}
