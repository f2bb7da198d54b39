package services

import "time"

// Clock abstracts wall-clock time so "must be in the future" checks are
// testable with a fixed now.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func SystemClock() Clock { return systemClock{} }
